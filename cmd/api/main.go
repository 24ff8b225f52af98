package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

type stores struct {
	users       repository.UserRepository
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	codes       repository.VerificationCodeRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, persistence.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redis *persistence.Redis
	if cfg.Verification.Backend == "redis" {
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
	}

	repos := buildStores(pg, redis, logger)
	metrics := observability.NewMetrics()
	hub := realtime.NewHub(cfg.Realtime.SendBuffer, logger)

	dispatcher := events.NewAsyncDispatcher(events.DispatcherOptions{
		Workers:        cfg.Notification.Workers,
		QueueSize:      cfg.Notification.QueueSize,
		HandlerTimeout: cfg.Notification.Timeout(),
	}, logger)
	telegram := notify.NewTelegram(cfg.Telegram, cfg.Notification.Timeout(), logger)
	mailer := notify.NewSMTPMailer(cfg.SMTP, logger)
	logger.Info("notification sinks",
		zap.Bool("telegram", telegram.Enabled()),
		zap.Bool("smtp", mailer.Enabled()))
	notifications := service.NewNotificationService(dispatcher, telegram, mailer, logger)
	notifyWorker := worker.StartNotificationWorker(dispatcher, notifications, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   repos.users,
		CodeRepo:   repos.codes,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(cfg.Auth, repos.users, dispatcher, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     repos.tickets,
		CommentRepo:    repos.comments,
		AttachmentRepo: repos.attachments,
		UserRepo:       repos.users,
		Dispatcher:     dispatcher,
		Live:           hub,
		Logger:         logger,
	})
	statisticsService := service.NewStatisticsService(repos.tickets)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users)

	if cfg.Auth.BootstrapEmail != "" {
		if _, err := userService.EnsureUser(ctx, service.UserCreateInput{
			Name:     cfg.Auth.BootstrapName,
			Email:    cfg.Auth.BootstrapEmail,
			Role:     domain.RoleIT,
			Password: cfg.Auth.BootstrapPassword,
		}); err != nil {
			logger.Fatal("failed to ensure bootstrap user", zap.Error(err))
		}
	}

	deps := map[string]handlers.Pinger{}
	if pg.Enabled() {
		deps["postgres"] = pg
	}
	if redis != nil {
		deps["redis"] = redis
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.CORS.AllowOrigins, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics, hub.Count),
		Auth:           handlers.NewAuthHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Users:          handlers.NewUsersHandler(userService),
		Statistics:     handlers.NewStatisticsHandler(statisticsService),
		Live:           handlers.NewLiveHandler(hub, authMiddleware, logger),
		AuthMiddleware: authMiddleware,
		RateLimiter:    httptransport.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	notifyWorker.Stop(shutdownCtx)
}

// buildStores picks Postgres when a DSN is configured and the in-memory store
// otherwise. Verification codes follow the configured backend.
func buildStores(pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) stores {
	var s stores
	mem := memstore.New()
	if pg.Enabled() {
		s.users = repository.NewUserRepository(pg.Pool)
		s.tickets = repository.NewTicketRepository(pg.Pool)
		s.comments = repository.NewCommentRepository(pg.Pool)
		s.attachments = repository.NewAttachmentRepository(pg.Pool)
	} else {
		logger.Warn("POSTGRES_DSN not set; using in-memory store")
		s.users = mem.Users()
		s.tickets = mem.Tickets()
		s.comments = mem.Comments()
		s.attachments = mem.Attachments()
	}
	if redis != nil {
		s.codes = repository.NewRedisVerificationCodeRepository(redis.Client)
	} else {
		s.codes = mem.VerificationCodes()
	}
	return s
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
