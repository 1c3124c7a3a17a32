package server

import (
	"inertus/internal/service"

	"github.com/gofiber/fiber/v2"
)

type addResourceRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	URL         string `json:"url" form:"url"`
}

type createGroupRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

// ListResources handles GET /resources
// @Summary List resources
// @Tags resources
// @Produce json
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Resource
// @Router /resources [get]
func (s *Server) ListResources(c *fiber.Ctx) error {
	page := parsePagination(c)
	resources, err := s.resourceService.ListResources(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resources)
}

// AddResource handles POST /resources/add
// @Summary Share a resource
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body addResourceRequest true "Resource"
// @Success 201 {object} models.Resource
// @Router /resources/add [post]
func (s *Server) AddResource(c *fiber.Ctx) error {
	var req addResourceRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	userID, _ := principal(c)

	resource, err := s.resourceService.AddResource(c.UserContext(), service.CreateResourceInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resource)
}

// ListGroups handles GET /groups
// @Summary List support groups
// @Tags groups
// @Produce json
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.SupportGroup
// @Router /groups [get]
func (s *Server) ListGroups(c *fiber.Ctx) error {
	page := parsePagination(c)
	groups, err := s.groupService.ListGroups(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}

// CreateGroup handles POST /groups/create
// @Summary Create a support group
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createGroupRequest true "Group"
// @Success 201 {object} models.SupportGroup
// @Router /groups/create [post]
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var req createGroupRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	userID, _ := principal(c)

	group, err := s.groupService.CreateGroup(c.UserContext(), service.CreateGroupInput{
		CreatorID:   userID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// JoinGroup handles GET|POST /groups/:id/join
// @Summary Join a support group
// @Description Idempotent; joined is false when already a member
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} service.JoinResult
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id}/join [post]
func (s *Server) JoinGroup(c *fiber.Ctx) error {
	groupID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, username := principal(c)

	res, err := s.groupService.JoinGroup(c.UserContext(), groupID, userID, username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
