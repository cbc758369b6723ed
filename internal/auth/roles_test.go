package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admissions-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestResolveManagedRoles_SuperAdmin(t *testing.T) {
	t.Parallel()

	scope, err := ResolveManagedRoles(&domain.User{Role: domain.RoleSuperAdmin})
	require.NoError(t, err)

	assert.True(t, scope.Manages(domain.RoleInspector))
	assert.False(t, scope.Manages(domain.RoleAdmissionManager))
	assert.Nil(t, scope.SchoolID)
}

func TestResolveManagedRoles_SchoolManager(t *testing.T) {
	t.Parallel()

	scope, err := ResolveManagedRoles(&domain.User{
		Role:     domain.RoleSchoolManager,
		SchoolID: strPtr("school-1"),
	})
	require.NoError(t, err)

	assert.True(t, scope.Manages(domain.RoleAdmissionManager))
	assert.False(t, scope.Manages(domain.RoleInspector))
	require.NotNil(t, scope.SchoolID)
	assert.Equal(t, "school-1", *scope.SchoolID)
}

func TestResolveManagedRoles_SchoolManagerWithoutSchool(t *testing.T) {
	t.Parallel()

	_, err := ResolveManagedRoles(&domain.User{Role: domain.RoleSchoolManager})
	assert.ErrorIs(t, err, ErrSchoolRequired)
}

func TestResolveManagedRoles_SubordinatesHaveNoScope(t *testing.T) {
	t.Parallel()

	for _, role := range []domain.RoleName{domain.RoleInspector, domain.RoleAdmissionManager} {
		_, err := ResolveManagedRoles(&domain.User{Role: role, SchoolID: strPtr("school-1")})
		assert.ErrorIs(t, err, ErrInsufficientPermissions, "role %s", role)
	}
}

func TestAuthorizeCreate_CrossHierarchyDenied(t *testing.T) {
	t.Parallel()

	// Super admin manages inspectors only; admission managers belong to
	// school managers.
	scope, err := ResolveManagedRoles(&domain.User{Role: domain.RoleSuperAdmin})
	require.NoError(t, err)

	err = scope.AuthorizeCreate(domain.RoleAdmissionManager, strPtr("school-1"))
	var roleErr *RoleNotManagedError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, domain.RoleAdmissionManager, roleErr.Role)
	assert.Contains(t, roleErr.Error(), "ADMISSION_MANAGER")
}

func TestAuthorizeCreate_SchoolScoping(t *testing.T) {
	t.Parallel()

	scope, err := ResolveManagedRoles(&domain.User{
		Role:     domain.RoleSchoolManager,
		SchoolID: strPtr("school-1"),
	})
	require.NoError(t, err)

	assert.NoError(t, scope.AuthorizeCreate(domain.RoleAdmissionManager, strPtr("school-1")))

	err = scope.AuthorizeCreate(domain.RoleAdmissionManager, nil)
	assert.ErrorIs(t, err, ErrSchoolRequired)

	err = scope.AuthorizeCreate(domain.RoleAdmissionManager, strPtr("school-2"))
	assert.ErrorIs(t, err, ErrSchoolMismatch)
}

func TestAuthorizeExisting_ScopeContainment(t *testing.T) {
	t.Parallel()

	scope, err := ResolveManagedRoles(&domain.User{
		Role:     domain.RoleSchoolManager,
		SchoolID: strPtr("school-1"),
	})
	require.NoError(t, err)

	cases := []struct {
		name   string
		target domain.User
		ok     bool
	}{
		{"own subordinate", domain.User{Role: domain.RoleAdmissionManager, SchoolID: strPtr("school-1")}, true},
		{"other school", domain.User{Role: domain.RoleAdmissionManager, SchoolID: strPtr("school-2")}, false},
		{"unmanaged role", domain.User{Role: domain.RoleInspector, SchoolID: strPtr("school-1")}, false},
		{"top-tier target", domain.User{Role: domain.RoleSuperAdmin}, false},
	}

	for _, tc := range cases {
		err := scope.AuthorizeExisting(&tc.target)
		if tc.ok {
			assert.NoError(t, err, tc.name)
		} else {
			assert.Error(t, err, tc.name)
		}
	}
}
