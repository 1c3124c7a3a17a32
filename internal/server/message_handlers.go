package server

import (
	"inertus/internal/service"

	"github.com/gofiber/fiber/v2"
)

type sendMessageRequest struct {
	Content string `json:"content" form:"content"`
}

// ListMessages handles GET /messages
// @Summary Inbox
// @Description Sent and received messages, each newest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Inbox
// @Router /messages [get]
func (s *Server) ListMessages(c *fiber.Ctx) error {
	userID, _ := principal(c)
	inbox, err := s.messageService.ListMessages(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inbox)
}

// GetMessageReceiver handles GET /messages/send/:id
// @Summary Message receiver
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Receiver ID"
// @Success 200 {object} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/send/{id} [get]
func (s *Server) GetMessageReceiver(c *fiber.Ctx) error {
	receiverID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	receiver, err := s.messageService.Receiver(c.UserContext(), receiverID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"receiver": receiver})
}

// SendMessage handles POST /messages/send/:id
// @Summary Send a direct message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Receiver ID"
// @Param request body sendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/send/{id} [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	receiverID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req sendMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	userID, username := principal(c)

	msg, err := s.messageService.SendMessage(c.UserContext(), service.SendMessageInput{
		SenderID:       userID,
		SenderUsername: username,
		ReceiverID:     receiverID,
		Content:        req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// ListNotifications handles GET /notifications
// @Summary Notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	userID, _ := principal(c)
	page := parsePagination(c)
	list, err := s.notificationService.ListNotifications(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
