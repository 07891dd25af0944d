package dto

import "time"

// NotificationResponse salida de un aviso.
type NotificationResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Message         string    `json:"message"`
	RelatedObjectID string    `json:"related_object_id"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// NotificationListResponse bandeja paginada: no leídas primero.
type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
