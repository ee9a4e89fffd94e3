package authz

import "taskhub/internal/models"

func IsCreator(t *models.Task, userID string) bool {
	return t != nil && userID != "" && t.CreatorID == userID
}

func IsAssignee(t *models.Task, userID string) bool {
	return t != nil && userID != "" && t.AssignedToID == userID
}

// IsParticipant reports whether userID may see and change the task.
func IsParticipant(t *models.Task, userID string) bool {
	return IsCreator(t, userID) || IsAssignee(t, userID)
}
