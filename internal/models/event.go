package models

// Live event names pushed to connected clients.
const (
	EventTaskAssigned = "task:assigned"
	EventTaskUpdated  = "task:updated"
	EventConnected    = "connected"
	EventLogout       = "logout"
)

// TaskAssignedEvent is the payload of EventTaskAssigned.
type TaskAssignedEvent struct {
	TaskID       string `json:"taskId"`
	Title        string `json:"title"`
	AssignedToID string `json:"assignedToId"`
}

// TaskUpdatedEvent is the payload of EventTaskUpdated.
type TaskUpdatedEvent struct {
	TaskID string     `json:"taskId"`
	Title  string     `json:"title"`
	Status TaskStatus `json:"status"`
}
