// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
// Any status may be set from any other; the progression below is only the usual one.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusReview     TaskStatus = "REVIEW"
	StatusCompleted  TaskStatus = "COMPLETED"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// Task represents the structure of a task in the system.
type Task struct {
	ID           string       `json:"id" db:"id"`
	Title        string       `json:"title" db:"title"`
	Description  string       `json:"description,omitempty" db:"description"`
	DueDate      time.Time    `json:"dueDate" db:"due_date"`
	Priority     TaskPriority `json:"priority" db:"priority"`
	Status       TaskStatus   `json:"status" db:"status"`
	CreatorID    string       `json:"creatorId" db:"creator_id"`
	AssignedToID string       `json:"assignedToId" db:"assigned_to_id"`
	Version      int          `json:"version" db:"version"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
}

// TaskPatch carries the fields of a partial update. Nil fields keep their stored value.
type TaskPatch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	Priority     *TaskPriority
	Status       *TaskStatus
	AssignedToID *string
}

// TaskFilter narrows the task list of a single user.
type TaskFilter struct {
	Status   *TaskStatus
	Priority *TaskPriority
}
