package handlers

import (
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

// StudentsHandler exposes the student admission workflow.
type StudentsHandler struct {
	students *service.StudentService
}

// NewStudentsHandler constructs handler.
func NewStudentsHandler(studentService *service.StudentService) *StudentsHandler {
	return &StudentsHandler{students: studentService}
}

func mapStudentError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("student", nil)
	case errors.Is(err, service.ErrInvalidRole):
		return apperrors.NewForbidden("not permitted for this school")
	case errors.Is(err, service.ErrInvalidTransition):
		return apperrors.NewValidationError("invalid status transition", nil)
	case errors.Is(err, service.ErrNoCapacity):
		return apperrors.NewValidationError(err.Error(), nil)
	default:
		return apperrors.MapError(err)
	}
}

// Register handles POST /students.
func (h *StudentsHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var req dto.RegisterStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.GuardianEmail == "" || req.Grade <= 0 {
		return fiber.NewError(http.StatusBadRequest, "name, guardian email, grade required")
	}

	student, err := h.students.RegisterStudent(c.UserContext(), principal, req.Name, req.GuardianEmail, req.Grade)
	if err != nil {
		return mapStudentError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStudentResponse(student)})
}

// List handles GET /students.
func (h *StudentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var status *domain.StudentStatus
	if q := c.Query("status"); q != "" {
		st := domain.StudentStatus(q)
		status = &st
	}

	students, err := h.students.ListStudents(c.UserContext(), principal, status)
	if err != nil {
		return mapStudentError(err)
	}
	resp := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		resp = append(resp, dto.NewStudentResponse(&students[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Approve handles POST /students/:id/approve.
func (h *StudentsHandler) Approve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	student, err := h.students.ApproveStudent(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return mapStudentError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewStudentResponse(student)})
}

// IssueDocument handles POST /students/:id/document.
func (h *StudentsHandler) IssueDocument(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	student, err := h.students.IssueAdmissionDocument(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return mapStudentError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewStudentResponse(student)})
}
