package domain

import "time"

// StudentStatus represents admission workflow states for a student.
type StudentStatus string

const (
	StudentStatusPending  StudentStatus = "PENDING"
	StudentStatusApproved StudentStatus = "APPROVED"
	StudentStatusAdmitted StudentStatus = "ADMITTED"
)

// Student is an applicant registered by an admission manager.
type Student struct {
	ID             string
	SchoolID       string
	Name           string
	GuardianEmail  string
	Grade          int
	Status         StudentStatus
	DocumentNumber *string
	CreatedByID    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
