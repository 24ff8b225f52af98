package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Telegram sends chat messages through the Bot API sendMessage method.
type Telegram struct {
	cfg     config.TelegramConfig
	timeout time.Duration
	logger  *zap.Logger
}

// NewTelegram builds the client. Missing token or chat id turns SendChat into a logged no-op.
func NewTelegram(cfg config.TelegramConfig, timeout time.Duration, logger *zap.Logger) *Telegram {
	return &Telegram{cfg: cfg, timeout: timeout, logger: logger}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Enabled reports whether credentials are configured.
func (t *Telegram) Enabled() bool {
	return strings.TrimSpace(t.cfg.BotToken) != "" && strings.TrimSpace(t.cfg.ChatID) != ""
}

// SendChat posts text in HTML parse mode.
func (t *Telegram) SendChat(ctx context.Context, text string) error {
	if !t.Enabled() {
		t.logger.Debug("telegram not configured; dropping chat message")
		return nil
	}

	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.cfg.APIURL, "/"), t.cfg.BotToken)
	agent := fiber.Post(url)
	agent.Timeout(timeout)
	agent.JSON(sendMessageRequest{ChatID: t.cfg.ChatID, Text: text, ParseMode: "HTML"})

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("telegram sendMessage: %w", errors.Join(errs...))
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("telegram sendMessage: status %d: %s", status, truncateRunes(string(body), 200))
	}
	return nil
}
