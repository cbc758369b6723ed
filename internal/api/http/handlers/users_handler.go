package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admissions-service/internal/api/dto"
	"github.com/spec-kit/admissions-service/internal/auth"
	"github.com/spec-kit/admissions-service/internal/domain"
	"github.com/spec-kit/admissions-service/internal/service"
	apperrors "github.com/spec-kit/admissions-service/pkg/util/errorutil"
)

// UsersHandler exposes hierarchy-scoped user management.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// mapScopeError translates hierarchy failures into the HTTP contract. The
// denied role may be named at this boundary; it is authorization, not
// authentication.
func mapScopeError(err error) error {
	var roleErr *auth.RoleNotManagedError
	switch {
	case errors.As(err, &roleErr):
		return apperrors.NewForbidden(roleErr.Error())
	case errors.Is(err, auth.ErrSchoolRequired):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, auth.ErrSchoolMismatch):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, service.ErrInvalidRole):
		return apperrors.NewValidationError(err.Error(), nil)
	default:
		return apperrors.MapError(err)
	}
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	scope, ok := auth.ScopeFromContext(c)
	if !ok {
		return apperrors.NewForbidden("no managed roles")
	}

	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password, role required")
	}

	user, err := h.users.CreateUser(c.UserContext(), scope, service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.RoleName(req.Role),
		SchoolID: req.SchoolID,
	})
	if err != nil {
		return mapScopeError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	scope, ok := auth.ScopeFromContext(c)
	if !ok {
		return apperrors.NewForbidden("no managed roles")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	users, err := h.users.ListUsers(c.UserContext(), scope, limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /users/:id. The gate has already loaded and authorized
// the target.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	target, ok := auth.TargetUserFromContext(c)
	if !ok {
		return apperrors.NewNotFound("user", nil)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(target)})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	scope, ok := auth.ScopeFromContext(c)
	if !ok {
		return apperrors.NewForbidden("no managed roles")
	}
	target, ok := auth.TargetUserFromContext(c)
	if !ok {
		return apperrors.NewNotFound("user", nil)
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	patch := service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		SchoolID: req.SchoolID,
	}
	if req.Role != nil {
		role := domain.RoleName(*req.Role)
		patch.Role = &role
	}

	updated, err := h.users.UpdateUser(c.UserContext(), scope, target, patch)
	if err != nil {
		return mapScopeError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated)})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	target, ok := auth.TargetUserFromContext(c)
	if !ok {
		return apperrors.NewNotFound("user", nil)
	}
	if err := h.users.DeleteUser(c.UserContext(), target); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

// ResetPassword handles POST /users/:id/reset-password.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	target, ok := auth.TargetUserFromContext(c)
	if !ok {
		return apperrors.NewNotFound("user", nil)
	}

	var req dto.ResetUserPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "new password required")
	}

	if err := h.users.ResetUserPassword(c.UserContext(), target, req.NewPassword); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}
