package server

import (
	"errors"

	"inertus/internal/middleware"
	"inertus/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// errResponseWritten means a helper already wrote the response. Handlers return nil
// so the ErrorHandler does not overwrite it.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 50
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters.
func parsePagination(c *fiber.Ctx) Pagination {
	limit := c.QueryInt("limit", defaultPaginationLimit)
	if limit <= 0 {
		limit = defaultPaginationLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter as a positive uint. On failure it writes a 400
// response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes a JSON or form body. On failure it writes a 400 response and
// returns errResponseWritten.
func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// principal returns the authenticated user ID and username set by AuthRequired.
func principal(c *fiber.Ctx) (uint, string) {
	userID, _ := c.Locals(localUserID).(uint)
	username, _ := c.Locals(localUsername).(string)
	return userID, username
}

// respondError answers with the status matching err's AppError code. Server-side
// failures are logged since their details never reach the client.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.LoggerFrom(c.UserContext()).Error("request error",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	}
	return models.RespondWithError(c, status, err)
}
