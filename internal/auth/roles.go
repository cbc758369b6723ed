package auth

import (
	"github.com/spec-kit/admissions-service/internal/domain"
)

// managedBy is the static two-tier role hierarchy: each top-tier role owns
// exactly one subordinate role class. It is a fixed table, not stored data.
var managedBy = map[domain.RoleName][]domain.RoleName{
	domain.RoleSuperAdmin:    {domain.RoleInspector},
	domain.RoleSchoolManager: {domain.RoleAdmissionManager},
}

// ManagedScope is the set of roles a principal may create and manage, plus
// an optional mandatory school scope for school-bound managers.
type ManagedScope struct {
	roles    map[domain.RoleName]struct{}
	SchoolID *string
}

// Roles returns the managed role names.
func (s *ManagedScope) Roles() []domain.RoleName {
	out := make([]domain.RoleName, 0, len(s.roles))
	for r := range s.roles {
		out = append(out, r)
	}
	return out
}

// Manages reports whether the scope covers the given role.
func (s *ManagedScope) Manages(role domain.RoleName) bool {
	_, ok := s.roles[role]
	return ok
}

// ResolveManagedRoles computes the managed scope for a principal. Super
// admins manage inspectors with no school restriction; school managers
// manage admission managers within their own school. Any other role has no
// managed scope.
func ResolveManagedRoles(principal *domain.User) (*ManagedScope, error) {
	subordinates, ok := managedBy[principal.Role]
	if !ok {
		return nil, ErrInsufficientPermissions
	}

	scope := &ManagedScope{roles: make(map[domain.RoleName]struct{}, len(subordinates))}
	for _, r := range subordinates {
		scope.roles[r] = struct{}{}
	}

	if principal.Role == domain.RoleSchoolManager {
		if principal.SchoolID == nil || *principal.SchoolID == "" {
			return nil, ErrSchoolRequired
		}
		scope.SchoolID = principal.SchoolID
	}
	return scope, nil
}

// AuthorizeCreate checks that a new principal with the target role and
// school may be created under this scope.
func (s *ManagedScope) AuthorizeCreate(targetRole domain.RoleName, targetSchoolID *string) error {
	if !s.Manages(targetRole) {
		return &RoleNotManagedError{Role: targetRole}
	}
	if s.SchoolID != nil {
		if targetSchoolID == nil || *targetSchoolID == "" {
			return ErrSchoolRequired
		}
		if *targetSchoolID != *s.SchoolID {
			return ErrSchoolMismatch
		}
	}
	return nil
}

// AuthorizeExisting applies the same checks against an already-persisted
// target. The target's role and school come fresh from storage, never from
// client-supplied claims.
func (s *ManagedScope) AuthorizeExisting(target *domain.User) error {
	return s.AuthorizeCreate(target.Role, target.SchoolID)
}
