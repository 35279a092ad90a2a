// notification.go
package model

import "time"

type NotificationType string

const (
	NotificationTypeOrder  NotificationType = "order"
	NotificationTypeSystem NotificationType = "system"
)

type NotificationPriority string

const (
	PriorityNormal NotificationPriority = "normal"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

// RecipientAdmins es el scope reservado para los administradores.
// Cualquier otro valor de recipient_scope es un departmentId o userId.
const RecipientAdmins = "admins"

// Notification la crea únicamente el dispatcher en respuesta a una
// transición; después solo cambia con markRead/markAllRead.
type Notification struct {
	ID             string               `bson:"notification_id" json:"id"`
	RecipientScope string               `bson:"recipient_scope" json:"recipientScope"`
	Type           NotificationType     `bson:"type" json:"type"`
	Priority       NotificationPriority `bson:"priority" json:"priority"`
	Title          string               `bson:"title" json:"title"`
	Message        string               `bson:"message" json:"message"`
	Read           bool                 `bson:"read" json:"read"`
	CreatedAt      time.Time            `bson:"created_at" json:"createdAt"`
	ReadAt         *time.Time           `bson:"read_at,omitempty" json:"readAt,omitempty"`
	Metadata       map[string]string    `bson:"metadata,omitempty" json:"metadata,omitempty"`
}
