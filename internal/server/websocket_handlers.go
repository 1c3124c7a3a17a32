package server

import (
	"inertus/internal/featureflags"
	"inertus/internal/middleware"
	"inertus/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// requireUpgrade rejects plain HTTP requests on the websocket route and users for whom
// live notifications are switched off.
func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	userID, _ := principal(c)
	if !s.featureFlags.Enabled(featureflags.LiveNotifications, userID) {
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse{
			Error: "Live notifications are disabled",
		})
	}
	return c.Next()
}

// WebsocketHandler handles GET /ws
// @Summary Live notifications
// @Description Upgrades to a websocket that receives notification events for the principal
// @Tags realtime
// @Param ticket query string false "Single-use ticket from /ws/ticket"
// @Success 101
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals(localUserID).(uint)
		if !ok || userID == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected",
				zap.Uint("user_id", userID), zap.Error(err))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		middleware.Logger.Debug("websocket connected", zap.Uint("user_id", userID))

		go client.WritePump()
		client.ReadPump()
	})
}
