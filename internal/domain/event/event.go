// Package event define los eventos de dominio que devuelven las operaciones
// de catálogo y membresías. Un orquestador externo los despacha.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Nombres de eventos.
const (
	TypeProductCreated    = "product.created"
	TypeMembershipCreated = "membership.created"
)

// Event contrato mínimo de un evento de dominio.
type Event interface {
	Type() string
	Company() string
}

// ProductCreated se emite al registrar un producto nuevo.
type ProductCreated struct {
	ProductID   string    `json:"product_id"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	ProductName string    `json:"product_name"`
	CreatedBy   string    `json:"created_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e ProductCreated) Type() string    { return TypeProductCreated }
func (e ProductCreated) Company() string { return e.CompanyID }

// MembershipCreated se emite cuando un usuario se une a una empresa.
type MembershipCreated struct {
	MembershipID string    `json:"membership_id"`
	CompanyID    string    `json:"company_id"`
	CompanyName  string    `json:"company_name"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e MembershipCreated) Type() string    { return TypeMembershipCreated }
func (e MembershipCreated) Company() string { return e.CompanyID }

// Envelope forma serializada de un evento para la cola.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode serializa el evento dentro de un Envelope.
func Encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.Type(), err)
	}
	return json.Marshal(Envelope{Type: e.Type(), Payload: payload})
}

// Decode reconstruye el evento concreto desde su Envelope.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	switch env.Type {
	case TypeProductCreated:
		var e ProductCreated
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return e, nil
	case TypeMembershipCreated:
		var e MembershipCreated
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("tipo de evento desconocido: %q", env.Type)
	}
}
