package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

// MaxCompanyNameLen largo máximo del nombre de una empresa, en runas.
const MaxCompanyNameLen = 200

// Company tenant del ledger: productos, movimientos y snapshots cuelgan de ella.
type Company struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCompany valida y construye una empresa nueva con ownerID como dueño.
func NewCompany(name, ownerID string, now time.Time) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" || ownerID == "" || utf8.RuneCountInString(name) > MaxCompanyNameLen {
		return nil, domain.ErrInvalidInput
	}
	now = now.UTC()
	return &Company{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// OwnerMembership membresía owner del creador, con la misma marca de tiempo que la empresa.
func (c *Company) OwnerMembership(username string) *Membership {
	return &Membership{
		ID:        uuid.New().String(),
		CompanyID: c.ID,
		UserID:    c.OwnerID,
		Username:  username,
		Role:      RoleOwner,
		CreatedAt: c.CreatedAt,
	}
}
