package entity

import "time"

// Roles dentro de una empresa.
const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// ValidRole indica si el rol es reconocido.
func ValidRole(r string) bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleEmployee
}

// Membership vincula un usuario con una empresa y un rol.
type Membership struct {
	ID           string
	CompanyID    string
	UserID       string
	Username     string
	Role         string
	DepartmentID *string
	CreatedAt    time.Time
}

// IsManager indica si el miembro recibe avisos administrativos (owner o admin).
func (m *Membership) IsManager() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}
