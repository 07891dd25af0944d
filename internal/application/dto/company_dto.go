package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa. El usuario autenticado queda como owner.
type CreateCompanyRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Username string `json:"username" validate:"max=150"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// AddMemberRequest entrada para unir un usuario a la empresa. El rol owner no se asigna por esta vía.
type AddMemberRequest struct {
	UserID       string  `json:"user_id" validate:"required,min=1,max=100"`
	Username     string  `json:"username" validate:"required,min=1,max=150"`
	Role         string  `json:"role" validate:"required,oneof=admin employee"`
	DepartmentID *string `json:"department_id" validate:"omitempty,max=100"`
}

// MembershipResponse salida de una membresía.
type MembershipResponse struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	DepartmentID *string   `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
