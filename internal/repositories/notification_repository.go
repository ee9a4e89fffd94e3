package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"taskhub/internal/models"
)

// NotificationRepository is the notification ledger. It performs no
// ownership checks; callers decide who may read or mark what.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

const notificationColumns = `id, user_id, task_id, type, message, is_read, created_at`

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := r.db.Rebind(`
		INSERT INTO notifications (id, user_id, task_id, type, message, is_read, created_at)
		VALUES (?,?,?,?,?,?,?)`)
	if _, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.TaskID, n.Type, n.Message, n.IsRead, n.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("creating notification for user %s: %w", n.UserID, err)
	}
	return nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	n := &models.Notification{}
	err := r.db.GetContext(ctx, n, r.db.Rebind(`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notification %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("finding notification %s: %w", id, err)
	}
	return n, nil
}

// ListUnread returns the user's unread notifications, newest first.
func (r *notificationRepository) ListUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	query := r.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = ? AND is_read = ?
		ORDER BY created_at DESC, id DESC`)
	out := []models.Notification{}
	if err := r.db.SelectContext(ctx, &out, query, userID, false); err != nil {
		return nil, fmt.Errorf("listing unread notifications for user %s: %w", userID, err)
	}
	return out, nil
}

// MarkRead is idempotent: an already read notification still counts as a match.
func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE notifications SET is_read = ? WHERE id = ?`), true, id)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?`), true, userID, false)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read for user %s: %w", userID, err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
