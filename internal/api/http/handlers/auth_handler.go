package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admissions-service/internal/api/dto"
	"github.com/spec-kit/admissions-service/internal/auth"
	"github.com/spec-kit/admissions-service/internal/service"
	apperrors "github.com/spec-kit/admissions-service/pkg/util/errorutil"
)

// AuthHandler exposes login, logout and the password reset flow.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrIncorrectPassword) {
			return apperrors.NewUnauthorized(err.Error())
		}
		return apperrors.MapError(err)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"principal": dto.NewUserResponse(user),
			"auth":      dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Logout handles POST /auth/logout. It does not run through the gate so a
// second logout with the same, already-revoked token still succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return apperrors.NewUnauthorized("Authorization header missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return apperrors.NewUnauthorized("Token missing")
	}

	if err := h.auth.Logout(c.UserContext(), parts[1]); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	ticket, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrPrincipalNotFound) {
			return apperrors.NewNotFound("principal", nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"ticket":     ticket.Ticket,
			"expires_at": ticket.ExpiresAt,
		},
	})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Ticket == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "ticket and new password required")
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Ticket, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredTicket) {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

// ChangePassword handles POST /auth/password/change (gated).
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "current and new password required")
	}

	if err := h.auth.ChangePassword(c.UserContext(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrIncorrectPassword) {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}
