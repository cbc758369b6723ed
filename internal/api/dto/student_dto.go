package dto

import (
	"time"

	"github.com/spec-kit/admissions-service/internal/domain"
)

// RegisterStudentRequest payload.
type RegisterStudentRequest struct {
	Name          string `json:"name"`
	GuardianEmail string `json:"guardian_email"`
	Grade         int    `json:"grade"`
}

// StudentResponse serialized student.
type StudentResponse struct {
	ID             string    `json:"id"`
	SchoolID       string    `json:"school_id"`
	Name           string    `json:"name"`
	GuardianEmail  string    `json:"guardian_email"`
	Grade          int       `json:"grade"`
	Status         string    `json:"status"`
	DocumentNumber *string   `json:"document_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewStudentResponse maps a domain student.
func NewStudentResponse(student *domain.Student) StudentResponse {
	return StudentResponse{
		ID:             student.ID,
		SchoolID:       student.SchoolID,
		Name:           student.Name,
		GuardianEmail:  student.GuardianEmail,
		Grade:          student.Grade,
		Status:         string(student.Status),
		DocumentNumber: student.DocumentNumber,
		CreatedAt:      student.CreatedAt,
		UpdatedAt:      student.UpdatedAt,
	}
}
