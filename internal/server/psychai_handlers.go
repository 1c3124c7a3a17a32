package server

import (
	"errors"

	"inertus/internal/middleware"
	"inertus/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type psychAIRequest struct {
	Message string `json:"message"`
}

// PsychAIMessage handles POST /psychai/message
// @Summary Talk to PsychAI
// @Description Messages containing crisis keywords get a fixed safety response
// @Tags psychai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body psychAIRequest true "Message"
// @Success 200 {object} service.PsychAIReply
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 502 {object} object{success=bool,error=string}
// @Router /psychai/message [post]
func (s *Server) PsychAIMessage(c *fiber.Ctx) error {
	var req psychAIRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	userID, _ := principal(c)

	reply, err := s.psychAIService.Respond(c.UserContext(), userID, req.Message)
	if err != nil {
		status := models.StatusFor(err)
		body := fiber.Map{"success": false, "error": "Internal server error"}
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
			body["error"] = appErr.Message
			body["code"] = appErr.Code
		}
		if status >= fiber.StatusInternalServerError {
			middleware.LoggerFrom(c.UserContext()).Error("psychai reply failed",
				zap.Int("status", status), zap.Error(err))
		}
		return c.Status(status).JSON(body)
	}
	return c.JSON(reply)
}

// PsychAIHistory handles GET /psychai/history
// @Summary PsychAI history
// @Description Recent exchanges, oldest first
// @Tags psychai
// @Produce json
// @Security BearerAuth
// @Success 200 {array} repository.ChatEntry
// @Router /psychai/history [get]
func (s *Server) PsychAIHistory(c *fiber.Ctx) error {
	userID, _ := principal(c)
	history, err := s.psychAIService.History(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}
