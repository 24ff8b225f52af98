package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type discardDispatcher struct{}

func (discardDispatcher) Publish(events.Event) error                         { return nil }
func (discardDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type testServer struct {
	app     *fiber.App
	store   *memstore.Store
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, limiter *IPRateLimiter) *testServer {
	t.Helper()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "router-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
			ImportDefaultPassword: "Welcome@123",
		},
		Verification: config.VerificationConfig{CodeTTLMinutes: 10},
	}
	logger := zap.NewNop()
	store := memstore.New()
	dispatcher := discardDispatcher{}
	hub := realtime.NewHub(4, logger)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   store.Users(),
		CodeRepo:   store.VerificationCodes(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(cfg.Auth, store.Users(), dispatcher, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     store.Tickets(),
		CommentRepo:    store.Comments(),
		AttachmentRepo: store.Attachments(),
		UserRepo:       store.Users(),
		Dispatcher:     dispatcher,
		Live:           hub,
		Logger:         logger,
	})
	authMW := auth.NewAuthMiddleware(authService.TokenManager(), store.Users())

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, "*", 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-service", "test", nil, metrics, hub.Count),
		Auth:           handlers.NewAuthHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Users:          handlers.NewUsersHandler(userService),
		Statistics:     handlers.NewStatisticsHandler(service.NewStatisticsService(store.Tickets())),
		Live:           handlers.NewLiveHandler(hub, authMW, logger),
		AuthMiddleware: authMW,
		RateLimiter:    limiter,
	})
	return &testServer{app: app, store: store, metrics: metrics}
}

func (s *testServer) addUser(t *testing.T, name string, role domain.Role) {
	t.Helper()
	hash, err := auth.HashPassword("secret-pass", 4)
	require.NoError(t, err)
	require.NoError(t, s.store.Users().Create(context.Background(), &domain.User{
		Name: name, Email: name + "@corp.local", PasswordHash: hash, Role: role, Active: true,
	}))
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded, raw
}

func (s *testServer) login(t *testing.T, name string) string {
	t.Helper()
	status, body, _ := s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": name + "@corp.local", "password": "secret-pass",
	})
	require.Equal(t, nethttp.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestLoginAndMe(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "emma", domain.RoleEmployee)

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "emma@corp.local", "password": "wrong",
	})
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeInvalidCredentials, errorCode(body))

	token := srv.login(t, "emma")
	status, body, _ = srv.do(t, fiber.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "emma@corp.local", body["email"])
	assert.Equal(t, "employee", body["role"])

	status, body, _ = srv.do(t, fiber.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, errorCode(body))
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "emma", domain.RoleEmployee)
	srv.addUser(t, "ivan", domain.RoleIT)
	emp := srv.login(t, "emma")
	it := srv.login(t, "ivan")

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/tickets", emp, map[string]any{
		"title": "VPN drops", "description": "Every ten minutes", "category": "network",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "open", body["status"])
	assert.Equal(t, "medium", body["priority"])
	assert.Nil(t, body["assignee_id"])

	status, body, _ = srv.do(t, fiber.MethodPut, "/api/tickets/"+id, emp, map[string]any{"priority": "urgent"})
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, errorCode(body))

	status, body, _ = srv.do(t, fiber.MethodPut, "/api/tickets/"+id, it, map[string]any{"status": "resolved", "priority": "high"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "resolved", body["status"])
	assert.NotNil(t, body["closed_at"])

	status, _, _ = srv.do(t, fiber.MethodPost, "/api/tickets/"+id+"/comments", emp, map[string]any{"body": "Thanks!"})
	assert.Equal(t, nethttp.StatusCreated, status)

	status, body, _ = srv.do(t, fiber.MethodGet, "/api/tickets/"+id, emp, nil)
	require.Equal(t, nethttp.StatusOK, status)
	comments, _ := body["comments"].([]any)
	assert.Len(t, comments, 1)

	status, body, _ = srv.do(t, fiber.MethodGet, "/api/statistics", emp, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)

	status, body, _ = srv.do(t, fiber.MethodGet, "/api/statistics", it, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["resolved"])
	assert.EqualValues(t, 0, body["open"])

	status, _, _ = srv.do(t, fiber.MethodDelete, "/api/tickets/"+id, emp, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	status, _, _ = srv.do(t, fiber.MethodDelete, "/api/tickets/"+id, it, nil)
	assert.Equal(t, nethttp.StatusNoContent, status)
	status, body, _ = srv.do(t, fiber.MethodGet, "/api/tickets/"+id, it, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, errorCode(body))
}

func TestListTicketsFiltersAndScopes(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "emma", domain.RoleEmployee)
	srv.addUser(t, "omar", domain.RoleEmployee)
	srv.addUser(t, "ivan", domain.RoleIT)
	emma := srv.login(t, "emma")
	omar := srv.login(t, "omar")
	it := srv.login(t, "ivan")

	for _, req := range []struct {
		token    string
		category string
	}{{emma, "hardware"}, {emma, "email"}, {omar, "hardware"}} {
		status, _, _ := srv.do(t, fiber.MethodPost, "/api/tickets", req.token, map[string]any{
			"title": "Issue", "description": "Details", "category": req.category,
		})
		require.Equal(t, nethttp.StatusCreated, status)
	}

	count := func(token, query string) int {
		status, _, raw := srv.do(t, fiber.MethodGet, "/api/tickets"+query, token, nil)
		require.Equal(t, nethttp.StatusOK, status)
		var list []map[string]any
		require.NoError(t, json.Unmarshal(raw, &list))
		return len(list)
	}
	assert.Equal(t, 2, count(emma, ""))
	assert.Equal(t, 1, count(omar, ""))
	assert.Equal(t, 3, count(it, ""))
	assert.Equal(t, 2, count(it, "?category=hardware"))
	assert.Equal(t, 0, count(it, "?status=closed"))

	status, body, _ := srv.do(t, fiber.MethodGet, "/api/tickets?status=bogus", it, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidation, errorCode(body))
}

func TestCreateTicketValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "emma", domain.RoleEmployee)
	token := srv.login(t, "emma")

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"description": "d", "category": "network"}},
		{name: "unknown category", body: map[string]any{"title": "t", "description": "d", "category": "printers"}},
		{name: "missing description", body: map[string]any{"title": "t", "category": "network"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := srv.do(t, fiber.MethodPost, "/api/tickets", token, tt.body)
			assert.Equal(t, nethttp.StatusBadRequest, status)
			assert.Equal(t, apperrors.CodeValidation, errorCode(body))
		})
	}
}

func TestVerificationCodeFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "emma", domain.RoleEmployee)

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/auth/send-verification-code", "", map[string]string{"email": "emma@corp.local"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, true, body["sent"])

	stored, err := srv.store.VerificationCodes().Get(context.Background(), "emma@corp.local")
	require.NoError(t, err)

	status, body, _ = srv.do(t, fiber.MethodPost, "/api/auth/verify-code", "", map[string]string{"email": "emma@corp.local", "code": stored.Code})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, true, body["valid"])

	status, body, _ = srv.do(t, fiber.MethodPost, "/api/auth/change-password", "", map[string]string{
		"email": "emma@corp.local", "code": stored.Code, "new_password": "brand-new-pass",
	})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	status, body, _ = srv.do(t, fiber.MethodPost, "/api/auth/change-password", "", map[string]string{
		"email": "emma@corp.local", "code": stored.Code, "new_password": "another-pass",
	})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidOrExpiredCode, errorCode(body))
}

func TestUserAdministrationRequiresIT(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.addUser(t, "emma", domain.RoleEmployee)
	srv.addUser(t, "ivan", domain.RoleIT)
	emp := srv.login(t, "emma")
	it := srv.login(t, "ivan")

	status, _, _ := srv.do(t, fiber.MethodGet, "/api/users", emp, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)

	status, _, raw := srv.do(t, fiber.MethodGet, "/api/users/it", emp, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var itUsers []map[string]any
	require.NoError(t, json.Unmarshal(raw, &itUsers))
	require.Len(t, itUsers, 1)
	assert.Equal(t, "ivan@corp.local", itUsers[0]["email"])

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/users/import", it, map[string]any{
		"users": []map[string]string{
			{"name": "Ana", "email": "ana@corp.local", "role": "employee"},
			{"name": "Emma", "email": "emma@corp.local", "role": "employee"},
		},
	})
	require.Equal(t, nethttp.StatusOK, status)
	assert.EqualValues(t, 1, body["created"])
	assert.EqualValues(t, 1, body["errors"])

	status, body, _ = srv.do(t, fiber.MethodPost, "/api/users", it, map[string]any{
		"name": "Ana", "email": "ana@corp.local", "role": "employee", "password": "secret1",
	})
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, apperrors.CodeConflict, errorCode(body))
}

func TestAuthEndpointsAreRateLimited(t *testing.T) {
	srv := newTestServer(t, NewIPRateLimiter(0.001, 1))
	payload := map[string]string{"email": "nobody@corp.local", "password": "x"}

	status, _, _ := srv.do(t, fiber.MethodPost, "/api/auth/login", "", payload)
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/auth/login", "", payload)
	assert.Equal(t, nethttp.StatusTooManyRequests, status)
	assert.Equal(t, apperrors.CodeTooManyRequests, errorCode(body))
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body, _ := srv.do(t, fiber.MethodGet, "/health/live", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body, _ = srv.do(t, fiber.MethodGet, "/health/ready", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body, _ = srv.do(t, fiber.MethodGet, "/health/metrics", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.EqualValues(t, 0, body["live_clients"])
	assert.NotEmpty(t, srv.metrics.Snapshot().Requests)
}

func TestLiveEndpointRejectsPlainHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	status, _, _ := srv.do(t, fiber.MethodGet, "/ws", "", nil)
	assert.Equal(t, nethttp.StatusUpgradeRequired, status)
}
