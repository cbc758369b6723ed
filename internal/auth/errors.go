package auth

import (
	"errors"
	"fmt"

	"github.com/spec-kit/admissions-service/internal/domain"
)

// Token verification failures, in the order Verify checks them.
var (
	ErrMalformedToken  = errors.New("malformed token")
	ErrTokenRevoked    = errors.New("token revoked")
	ErrSessionNotFound = errors.New("session not found")
	ErrTokenExpired    = errors.New("token expired")
)

// Authorization failures raised by the role hierarchy checks.
var (
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrSchoolRequired          = errors.New("school id required")
	ErrSchoolMismatch          = errors.New("school id mismatch")
)

// RoleNotManagedError reports an attempt to manage a role outside the
// caller's managed set. The role name is included so the authorization
// boundary can surface it.
type RoleNotManagedError struct {
	Role domain.RoleName
}

func (e *RoleNotManagedError) Error() string {
	return fmt.Sprintf("role %s not authorized", e.Role)
}
