// internal/services/task_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// Pusher delivers best-effort live events. Implementations never report
// failures; an offline recipient is silently skipped.
type Pusher interface {
	Push(userID, event string, payload any)
}

// TaskService coordinates task writes with the notification ledger and
// live pushes. Persistence always completes before anything is notified.
type TaskService interface {
	Create(ctx context.Context, in CreateTaskInput, creatorID string) (*models.Task, error)
	GetByID(ctx context.Context, id, actorID string) (*models.Task, error)
	List(ctx context.Context, userID string, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id string, in UpdateTaskInput, actorID string) (*models.Task, error)
	Delete(ctx context.Context, id, actorID string) error
}

type taskService struct {
	repo   repositories.TaskRepository
	ledger Ledger
	pusher Pusher
	now    func() time.Time
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository, ledger Ledger, pusher Pusher) TaskService {
	return &taskService{repo: repo, ledger: ledger, pusher: pusher, now: time.Now}
}

func (s *taskService) Create(ctx context.Context, in CreateTaskInput, creatorID string) (*models.Task, error) {
	due, err := in.validate()
	if err != nil {
		return nil, err
	}

	status := models.TaskStatus(in.Status)
	if status == "" {
		status = models.StatusTodo
	}
	now := s.now().UTC()
	task := &models.Task{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      due.UTC(),
		Priority:     models.TaskPriority(in.Priority),
		Status:       status,
		CreatorID:    creatorID,
		AssignedToID: in.AssignedToID,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, storageErr("store task", err)
	}
	log.Infof("[task][create][ok] id=%s creator=%s assignee=%s", task.ID, task.CreatorID, task.AssignedToID)

	// self-assignment notifies the creator too
	if err := s.notifyAssigned(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id, actorID string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr("find task", err)
	}
	if !authz.IsParticipant(task, actorID) {
		return nil, fmt.Errorf("task %s: %w", id, ErrForbidden)
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, userID string, filter models.TaskFilter) ([]models.Task, error) {
	tasks, err := s.repo.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	return tasks, nil
}

func (s *taskService) Update(ctx context.Context, id string, in UpdateTaskInput, actorID string) (*models.Task, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr("find task", err)
	}
	if !authz.IsParticipant(current, actorID) {
		log.Warnf("[task][update][deny] id=%s actor=%s", id, actorID)
		return nil, fmt.Errorf("task %s: %w", id, ErrForbidden)
	}

	patch, err := in.patch()
	if err != nil {
		return nil, err
	}
	if patch == (models.TaskPatch{}) {
		if in.Version != nil && *in.Version != current.Version {
			return nil, fmt.Errorf("%w: task %s version %d is stale", ErrConflict, id, *in.Version)
		}
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, patch, in.Version)
	if err != nil {
		return nil, storageErr("update task", err)
	}
	log.Infof("[task][update][ok] id=%s actor=%s version=%d", id, actorID, updated.Version)

	if updated.Status != current.Status {
		if other := counterpart(current, updated, actorID); other != "" && other != actorID {
			s.pusher.Push(other, models.EventTaskUpdated, models.TaskUpdatedEvent{
				TaskID: updated.ID,
				Title:  updated.Title,
				Status: updated.Status,
			})
		}
	}
	if updated.AssignedToID != current.AssignedToID {
		if err := s.notifyAssigned(ctx, updated); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (s *taskService) Delete(ctx context.Context, id, actorID string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storageErr("find task", err)
	}
	if !authz.IsParticipant(current, actorID) {
		log.Warnf("[task][delete][deny] id=%s actor=%s", id, actorID)
		return fmt.Errorf("task %s: %w", id, ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageErr("delete task", err)
	}
	log.Infof("[task][delete][ok] id=%s actor=%s", id, actorID)
	return nil
}

// notifyAssigned writes the TASK_ASSIGNED ledger row and then pushes the
// live event. A ledger failure stops the push.
func (s *taskService) notifyAssigned(ctx context.Context, task *models.Task) error {
	if _, err := s.ledger.Create(ctx, task.AssignedToID, task.ID, models.NotificationTaskAssigned, assignedMessage(task.Title)); err != nil {
		log.Errorf("[task][notify][err] ledger task=%s assignee=%s: %v", task.ID, task.AssignedToID, err)
		return err
	}
	s.pusher.Push(task.AssignedToID, models.EventTaskAssigned, models.TaskAssignedEvent{
		TaskID:       task.ID,
		Title:        task.Title,
		AssignedToID: task.AssignedToID,
	})
	return nil
}

// counterpart is the party on the other side of the actor: the (new)
// assignee when the creator acts, the creator when the assignee acts.
func counterpart(before, after *models.Task, actorID string) string {
	switch {
	case authz.IsCreator(before, actorID):
		return after.AssignedToID
	case authz.IsAssignee(before, actorID):
		return before.CreatorID
	}
	return ""
}
