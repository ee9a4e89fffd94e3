package models

import "time"

type NotificationType string

const (
	NotificationTaskAssigned NotificationType = "TASK_ASSIGNED"
	NotificationTaskUpdated  NotificationType = "TASK_UPDATED"
)

// Notification is a durable record informing a user of a task event.
// Only IsRead ever changes after creation.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"userId" db:"user_id"`
	TaskID    string           `json:"taskId" db:"task_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}
