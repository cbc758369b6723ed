package domain

import "time"

// SessionPrincipal is the snapshot of a user stored in the session cache at
// token issuance and returned by token verification.
type SessionPrincipal struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  RoleName `json:"role"`
}

// Session describes an issued token's server-side record.
type Session struct {
	ID        string
	Principal SessionPrincipal
	IssuedAt  time.Time
	ExpiresAt time.Time
}
