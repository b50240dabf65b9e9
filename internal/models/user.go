package models

import "time"

// UserRole represents the fixed role assigned to an authenticated user.
type UserRole string

const (
	RoleStudent             UserRole = "student"
	RoleTutor               UserRole = "tutor"
	RoleAcademicAssistant   UserRole = "academic_assistant"
	RoleDepartmentAssistant UserRole = "department_assistant"
	RoleAdministrator       UserRole = "administrator"
)

// Valid reports whether the role is one of the declared choices.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAcademicAssistant, RoleDepartmentAssistant, RoleAdministrator:
		return true
	}
	return false
}

// IsAuthority reports whether the role may approve or reject events.
func (r UserRole) IsAuthority() bool {
	return r == RoleDepartmentAssistant || r == RoleAdministrator
}

// IsStaff reports whether the role belongs to the staff notification group.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleAcademicAssistant, RoleDepartmentAssistant, RoleAdministrator:
		return true
	}
	return false
}

// DisplayProfile tags the staff profile kind resolved once at creation time.
type DisplayProfile string

const (
	ProfileNone                DisplayProfile = "none"
	ProfileTutor               DisplayProfile = "tutor"
	ProfileAcademicAssistant   DisplayProfile = "academic_assistant"
	ProfileDepartmentAssistant DisplayProfile = "department_assistant"
	ProfileAdministrator       DisplayProfile = "administrator"
)

// ProfileForRole maps a role onto its display profile.
func ProfileForRole(role UserRole) DisplayProfile {
	switch role {
	case RoleTutor:
		return ProfileTutor
	case RoleAcademicAssistant:
		return ProfileAcademicAssistant
	case RoleDepartmentAssistant:
		return ProfileDepartmentAssistant
	case RoleAdministrator:
		return ProfileAdministrator
	}
	return ProfileNone
}

// User represents an application user stored in the users table.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FullName     string         `db:"full_name" json:"full_name"`
	Role         UserRole       `db:"role" json:"role"`
	Profile      DisplayProfile `db:"profile" json:"profile"`
	Active       bool           `db:"active" json:"active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
