package domain

import "time"

// SchoolStatus represents lifecycle states of a school registration.
type SchoolStatus string

const (
	SchoolStatusPending  SchoolStatus = "PENDING"
	SchoolStatusApproved SchoolStatus = "APPROVED"
	SchoolStatusRejected SchoolStatus = "REJECTED"
)

// School is a registered institution awaiting or holding approval.
type School struct {
	ID        string
	Name      string
	Address   string
	Status    SchoolStatus
	ManagerID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SchoolProfile holds the public-facing description of an approved school.
type SchoolProfile struct {
	SchoolID    string
	Description string
	Phone       string
	Website     string
	UpdatedAt   time.Time
}

// AdmissionSpot tracks admission capacity for one grade of one school.
type AdmissionSpot struct {
	ID        string
	SchoolID  string
	Grade     int
	Capacity  int
	Remaining int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GalleryEntry is a metadata row for a school gallery item. File storage is
// handled by an external adapter; only the reference is kept here.
type GalleryEntry struct {
	ID        string
	SchoolID  string
	Title     string
	ImageURL  string
	CreatedAt time.Time
}

// SchoolStatusChange records one approval-workflow transition.
type SchoolStatusChange struct {
	ID        string
	SchoolID  string
	OldStatus SchoolStatus
	NewStatus SchoolStatus
	ActorID   string
	Comment   string
	CreatedAt time.Time
}
