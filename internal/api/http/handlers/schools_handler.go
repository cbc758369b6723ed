package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/admissions-service/internal/api/dto"
	"github.com/spec-kit/admissions-service/internal/auth"
	"github.com/spec-kit/admissions-service/internal/domain"
	"github.com/spec-kit/admissions-service/internal/service"
	apperrors "github.com/spec-kit/admissions-service/pkg/util/errorutil"
)

// SchoolsHandler exposes the school registration lifecycle.
type SchoolsHandler struct {
	schools *service.SchoolService
}

// NewSchoolsHandler constructs handler.
func NewSchoolsHandler(schoolService *service.SchoolService) *SchoolsHandler {
	return &SchoolsHandler{schools: schoolService}
}

func mapSchoolError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("school", nil)
	case errors.Is(err, service.ErrInvalidRole):
		return apperrors.NewForbidden("not permitted for this school")
	case errors.Is(err, service.ErrInvalidTransition):
		return apperrors.NewValidationError("invalid status transition", nil)
	default:
		return apperrors.MapError(err)
	}
}

// Register handles POST /schools.
func (h *SchoolsHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var req dto.RegisterSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Address == "" {
		return fiber.NewError(http.StatusBadRequest, "name and address required")
	}

	school, err := h.schools.RegisterSchool(c.UserContext(), principal, req.Name, req.Address)
	if err != nil {
		return mapSchoolError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSchoolResponse(school)})
}

// List handles GET /schools.
func (h *SchoolsHandler) List(c *fiber.Ctx) error {
	var status *domain.SchoolStatus
	if q := c.Query("status"); q != "" {
		st := domain.SchoolStatus(q)
		status = &st
	}
	schools, err := h.schools.ListSchools(c.UserContext(), status)
	if err != nil {
		return apperrors.MapError(err)
	}
	resp := make([]dto.SchoolResponse, 0, len(schools))
	for i := range schools {
		resp = append(resp, dto.NewSchoolResponse(&schools[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /schools/:id.
func (h *SchoolsHandler) Get(c *fiber.Ctx) error {
	school, err := h.schools.GetSchool(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapSchoolError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSchoolResponse(school)})
}

// Approve handles POST /schools/:id/approve.
func (h *SchoolsHandler) Approve(c *fiber.Ctx) error {
	return h.review(c, h.schools.ApproveSchool)
}

// Reject handles POST /schools/:id/reject.
func (h *SchoolsHandler) Reject(c *fiber.Ctx) error {
	return h.review(c, h.schools.RejectSchool)
}

func (h *SchoolsHandler) review(c *fiber.Ctx, decide func(context.Context, *domain.User, string, string) (*domain.School, error)) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var req dto.SchoolReviewRequest
	_ = c.BodyParser(&req)

	school, err := decide(c.UserContext(), principal, c.Params("id"), req.Comment)
	if err != nil {
		return mapSchoolError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSchoolResponse(school)})
}

// Resubmit handles POST /schools/:id/resubmit.
func (h *SchoolsHandler) Resubmit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	school, err := h.schools.ResubmitSchool(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return mapSchoolError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSchoolResponse(school)})
}

// History handles GET /schools/:id/history.
func (h *SchoolsHandler) History(c *fiber.Ctx) error {
	history, err := h.schools.StatusHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": history})
}

// UpsertProfile handles PUT /schools/:id/profile.
func (h *SchoolsHandler) UpsertProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var req dto.SchoolProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	profile := &domain.SchoolProfile{
		SchoolID:    c.Params("id"),
		Description: req.Description,
		Phone:       req.Phone,
		Website:     req.Website,
	}
	if err := h.schools.UpsertProfile(c.UserContext(), principal, profile); err != nil {
		return mapSchoolError(err)
	}
	return c.JSON(fiber.Map{"data": profile})
}

// GetProfile handles GET /schools/:id/profile.
func (h *SchoolsHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.schools.GetProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("profile", nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": profile})
}

// AddSpot handles POST /schools/:id/spots.
func (h *SchoolsHandler) AddSpot(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var req dto.SpotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Grade <= 0 || req.Capacity <= 0 {
		return fiber.NewError(http.StatusBadRequest, "grade and capacity must be positive")
	}

	spot := &domain.AdmissionSpot{
		SchoolID: c.Params("id"),
		Grade:    req.Grade,
		Capacity: req.Capacity,
	}
	if err := h.schools.AddSpot(c.UserContext(), principal, spot); err != nil {
		return mapSchoolError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": spot})
}

// ListSpots handles GET /schools/:id/spots.
func (h *SchoolsHandler) ListSpots(c *fiber.Ctx) error {
	spots, err := h.schools.ListSpots(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": spots})
}

// AddGalleryEntry handles POST /schools/:id/gallery.
func (h *SchoolsHandler) AddGalleryEntry(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var req dto.GalleryEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Title == "" || req.ImageURL == "" {
		return fiber.NewError(http.StatusBadRequest, "title and image url required")
	}

	entry := &domain.GalleryEntry{
		SchoolID: c.Params("id"),
		Title:    req.Title,
		ImageURL: req.ImageURL,
	}
	if err := h.schools.AddGalleryEntry(c.UserContext(), principal, entry); err != nil {
		return mapSchoolError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": entry})
}

// ListGallery handles GET /schools/:id/gallery.
func (h *SchoolsHandler) ListGallery(c *fiber.Ctx) error {
	entries, err := h.schools.ListGallery(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": entries})
}
