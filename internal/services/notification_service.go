package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// Ledger records durable notifications for the task coordinator.
type Ledger interface {
	Create(ctx context.Context, userID, taskID string, typ models.NotificationType, message string) (*models.Notification, error)
}

// NotificationService is the notification ledger facade.
type NotificationService struct {
	repo repositories.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

func (s *NotificationService) Create(ctx context.Context, userID, taskID string, typ models.NotificationType, message string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		TaskID:    taskID,
		Type:      typ,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, storageErr("create notification", err)
	}
	return n, nil
}

func (s *NotificationService) ListUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	list, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return nil, storageErr("list notifications", err)
	}
	return list, nil
}

// MarkRead flips a notification to read without checking who owns it.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return storageErr("mark notification read", s.repo.MarkRead(ctx, id))
}

// MarkReadFor marks the notification read only if it belongs to userID.
// A foreign notification is reported as not found.
func (s *NotificationService) MarkReadFor(ctx context.Context, userID, id string) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storageErr("find notification", err)
	}
	if n.UserID != userID {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if n.IsRead {
		return nil
	}
	return s.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storageErr("mark all notifications read", err)
	}
	return n, nil
}

func assignedMessage(title string) string {
	return fmt.Sprintf("You have been assigned to task: %q", title)
}
