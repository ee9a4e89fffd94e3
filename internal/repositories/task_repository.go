package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"taskhub/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	ListForUser(ctx context.Context, userID string, filter models.TaskFilter) ([]models.Task, error)
	// Update applies only the non-nil fields of patch. When expectedVersion is
	// set the write only happens if the stored version still matches.
	Update(ctx context.Context, id string, patch models.TaskPatch, expectedVersion *int) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

const taskColumns = `id, title, description, due_date, priority, status,
       creator_id, assigned_to_id, version, created_at, updated_at`

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	if task.Version == 0 {
		task.Version = 1
	}
	query := r.db.Rebind(`
		INSERT INTO tasks (
			id, title, description, due_date, priority, status,
			creator_id, assigned_to_id, version, created_at, updated_at
		)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.DueDate.UTC(), task.Priority, task.Status,
		task.CreatorID, task.AssignedToID, task.Version, task.CreatedAt.UTC(), task.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("task %s: %w", task.ID, ErrDuplicate)
		}
		return fmt.Errorf("storing task %s: %w", task.ID, err)
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	task := &models.Task{}
	err := r.db.GetContext(ctx, task, r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("finding task %s: %w", id, err)
	}
	return task, nil
}

func (r *taskRepository) ListForUser(ctx context.Context, userID string, filter models.TaskFilter) ([]models.Task, error) {
	conditions := []string{"(creator_id = ? OR assigned_to_id = ?)"}
	args := []interface{}{userID, userID}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *filter.Priority)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY due_date ASC, created_at ASC`

	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing tasks for user %s: %w", userID, err)
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, patch models.TaskPatch, expectedVersion *int) (*models.Task, error) {
	sets := []string{"version = version + 1", "updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, patch.DueDate.UTC())
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.AssignedToID != nil {
		sets = append(sets, "assigned_to_id = ?")
		args = append(args, *patch.AssignedToID)
	}

	where := "id = ?"
	args = append(args, id)
	if expectedVersion != nil {
		where += " AND version = ?"
		args = append(args, *expectedVersion)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	defer tx.Rollback()

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE ` + where
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}

	task := &models.Task{}
	findErr := tx.GetContext(ctx, task, tx.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if findErr != nil && !errors.Is(findErr, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading task %s: %w", id, findErr)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		// no row matched: either the task is gone or the version moved on
		if findErr != nil || expectedVersion == nil {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("task %s version %d: %w", id, *expectedVersion, ErrStaleVersion)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task %s: %w", id, err)
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}
