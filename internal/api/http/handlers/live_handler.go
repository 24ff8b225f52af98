package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
)

const viewerKey = "live_viewer"

// LiveHandler upgrades clients onto the realtime hub.
type LiveHandler struct {
	hub    *realtime.Hub
	authMW *auth.AuthMiddleware
	logger *zap.Logger
}

// NewLiveHandler constructs handler.
func NewLiveHandler(hub *realtime.Hub, authMW *auth.AuthMiddleware, logger *zap.Logger) *LiveHandler {
	return &LiveHandler{hub: hub, authMW: authMW, logger: logger}
}

// Upgrade rejects plain HTTP requests and resolves the optional ?token= viewer.
// A token that does not resolve is refused; no token means an anonymous viewer.
func (h *LiveHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if raw := c.Query("token"); raw != "" {
		user, err := h.authMW.Authenticate(c.UserContext(), raw)
		if err != nil {
			return err
		}
		c.Locals(viewerKey, user.ID)
	}
	return c.Next()
}

// Serve runs one websocket connection on the hub.
func (h *LiveHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		viewer, _ := conn.Locals(viewerKey).(string)
		h.logger.Debug("live connection opened", zap.String("viewer", viewer))
		h.hub.Serve(conn, viewer)
	})
}
