package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// ListUsers handles GET /api/users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	users, err := h.users.ListUsers(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

// ListITUsers handles GET /api/users/it.
func (h *UsersHandler) ListITUsers(c *fiber.Ctx) error {
	if _, ok := auth.UserFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	users, err := h.users.ListITUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

// CreateUser handles POST /api/users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.UserContext(), actor, service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// ImportUsers handles POST /api/users/import.
func (h *UsersHandler) ImportUsers(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	var req dto.ImportUsersRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	report, err := h.users.ImportUsers(c.UserContext(), actor, req.Rows())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewImportUsersResponse(report))
}

// UpdateUser handles PUT /api/users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.UserContext(), actor, c.Params("id"), req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
