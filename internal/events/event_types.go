package events

import (
	"time"

	"github.com/spec-kit/admissions-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserCreated            EventType = "user_created"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventSchoolApproved         EventType = "school_approved"
	EventSchoolRejected         EventType = "school_rejected"
	EventStudentAdmitted        EventType = "student_admitted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	UserID       string          `json:"user_id"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Role         domain.RoleName `json:"role"`
	SchoolID     *string         `json:"school_id,omitempty"`
	TempPassword string          `json:"-"`
}

// PasswordResetRequestedPayload payload. The ticket travels out of band via
// the mailer and is excluded from serialized logs.
type PasswordResetRequestedPayload struct {
	Email     string    `json:"email"`
	Ticket    string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SchoolStatusPayload payload for approval and rejection events.
type SchoolStatusPayload struct {
	SchoolID     string              `json:"school_id"`
	SchoolName   string              `json:"school_name"`
	ManagerEmail string              `json:"manager_email"`
	NewStatus    domain.SchoolStatus `json:"new_status"`
	Comment      string              `json:"comment,omitempty"`
}

// StudentAdmittedPayload payload.
type StudentAdmittedPayload struct {
	StudentID      string `json:"student_id"`
	StudentName    string `json:"student_name"`
	GuardianEmail  string `json:"guardian_email"`
	DocumentNumber string `json:"document_number"`
}
