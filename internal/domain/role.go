package domain

// RoleName enumerates the closed set of roles known to the system.
type RoleName string

const (
	// RoleSuperAdmin administers the platform and manages inspectors.
	RoleSuperAdmin RoleName = "SUPER_ADMIN"
	// RoleInspector reviews and approves school registrations.
	RoleInspector RoleName = "INSPECTOR"
	// RoleSchoolManager owns a single school and manages its admission managers.
	RoleSchoolManager RoleName = "SCHOOL_MANAGER"
	// RoleAdmissionManager processes student admissions for one school.
	RoleAdmissionManager RoleName = "ADMISSION_MANAGER"
)

// Valid reports whether the role name belongs to the closed enumeration.
func (r RoleName) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleInspector, RoleSchoolManager, RoleAdmissionManager:
		return true
	}
	return false
}

// Subordinate reports whether the role is managed by a top-tier role and
// therefore requires a school binding.
func (r RoleName) Subordinate() bool {
	return r == RoleAdmissionManager
}

// SchoolScoped reports whether principals holding the role must carry a
// school reference.
func (r RoleName) SchoolScoped() bool {
	return r == RoleAdmissionManager
}
