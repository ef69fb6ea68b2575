package models

import "time"

// NotificationType enumerates portal notification categories.
type NotificationType string

const (
	NotificationTypeGradeReleased NotificationType = "GRADE_RELEASED"
)

// Notification is a message addressed to a single portal user.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	ReferenceID *string          `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	ReadAt      *time.Time       `db:"read_at" json:"read_at,omitempty"`
}
