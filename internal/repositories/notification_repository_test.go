package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/testutil"
)

func storeNotification(t *testing.T, repo repositories.NotificationRepository, userID string, at time.Time) *models.Notification {
	t.Helper()
	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		TaskID:    uuid.NewString(),
		Type:      models.NotificationTaskAssigned,
		Message:   "assigned",
		CreatedAt: at,
	}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("create notification: %v", err)
	}
	return n
}

func TestListUnreadNewestFirstAndScopedToUser(t *testing.T) {
	repo := repositories.NewNotificationRepository(testutil.NewTestDB(t))
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	older := storeNotification(t, repo, "bob", base)
	newer := storeNotification(t, repo, "bob", base.Add(time.Minute))
	storeNotification(t, repo, "carol", base.Add(2*time.Minute))

	list, err := repo.ListUnread(ctx, "bob")
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("expected newest first, got %s then %s", list[0].ID, list[1].ID)
	}
	for _, n := range list {
		if n.UserID != "bob" {
			t.Fatalf("foreign notification leaked: %+v", n)
		}
		if n.IsRead {
			t.Fatalf("expected unread notification: %+v", n)
		}
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	repo := repositories.NewNotificationRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	n := storeNotification(t, repo, "bob", time.Now())
	for i := 0; i < 2; i++ {
		if err := repo.MarkRead(ctx, n.ID); err != nil {
			t.Fatalf("mark read attempt %d: %v", i+1, err)
		}
	}
	got, err := repo.FindByID(ctx, n.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.IsRead {
		t.Fatal("expected notification to be read")
	}
	list, err := repo.ListUnread(ctx, "bob")
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(list))
	}
}

func TestMarkReadMissing(t *testing.T) {
	repo := repositories.NewNotificationRepository(testutil.NewTestDB(t))
	if err := repo.MarkRead(context.Background(), "missing"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	repo := repositories.NewNotificationRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	storeNotification(t, repo, "bob", time.Now())
	storeNotification(t, repo, "bob", time.Now())
	foreign := storeNotification(t, repo, "carol", time.Now())

	n, err := repo.MarkAllRead(ctx, "bob")
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	got, err := repo.FindByID(ctx, foreign.ID)
	if err != nil {
		t.Fatalf("find foreign: %v", err)
	}
	if got.IsRead {
		t.Fatal("another user's notification was marked read")
	}
}
