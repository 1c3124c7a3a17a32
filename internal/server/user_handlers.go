package server

import (
	"inertus/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Bio       string `json:"bio" form:"bio"`
	Interests string `json:"interests" form:"interests"`
	AvatarURL string `json:"avatar_url" form:"avatar_url"`
}

// GetProfile handles GET /profile/:username
// @Summary View a profile
// @Description The user, their profile (may be null) and recent posts
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} service.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.userService.GetProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// Me handles GET /me
// @Summary Current account
// @Description The caller's own account, including email
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Account
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	userID, _ := principal(c)
	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user.Account())
}

// GetMyProfile handles GET /profile/edit
// @Summary Current profile
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserProfile
// @Router /profile/edit [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, _ := principal(c)
	profile, err := s.userService.GetOwnProfile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles POST /profile/edit
// @Summary Edit profile
// @Description Creates the profile if absent, otherwise overwrites its fields
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "Profile"
// @Success 200 {object} models.UserProfile
// @Router /profile/edit [post]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	userID, _ := principal(c)

	profile, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    userID,
		Bio:       req.Bio,
		Interests: req.Interests,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
