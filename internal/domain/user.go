package domain

import "time"

// User is the domain model for every principal in the system: platform
// administrators, inspectors, school managers and admission managers.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         RoleName
	SchoolID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Active reports whether the user has not been soft-deleted.
func (u *User) Active() bool {
	return u.DeletedAt == nil
}
