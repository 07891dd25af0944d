package entity

import "time"

// Tipos de notificación.
const (
	NotificationProductAdded = "product_added"
	NotificationMemberAdded  = "member_added"
)

// Notification aviso persistido para un usuario de una empresa.
type Notification struct {
	ID              string
	CompanyID       string
	RecipientID     string
	Type            string
	Message         string
	RelatedObjectID string
	IsRead          bool
	CreatedAt       time.Time
}
