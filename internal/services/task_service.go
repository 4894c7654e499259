package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/taskvault/internal/models"
)

const (
	defaultTaskPageSize = 50
	maxTaskPageSize     = 200
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, accountID, id string) (*models.Task, error)
	List(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, accountID, id string) error
	Stats(ctx context.Context, accountID string) (*models.TaskStats, error)
}

// TaskPatch carries the fields of a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	ClearDue    bool
}

// TaskService handles task business logic. Every operation is scoped to one account.
type TaskService struct {
	repo   TaskRepository
	logger *slog.Logger
}

func NewTaskService(repo TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: logger,
	}
}

func (s *TaskService) Create(ctx context.Context, accountID string, task *models.Task) (*models.Task, error) {
	task.AccountID = accountID
	task.Title = strings.TrimSpace(task.Title)
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, s.mapError("failed to create task", accountID, err)
	}
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, accountID, id string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, accountID, id)
	if err != nil {
		return nil, s.mapError("failed to get task", accountID, err)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultTaskPageSize
	}
	if filter.Limit > maxTaskPageSize {
		filter.Limit = maxTaskPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	tasks, err := s.repo.List(ctx, accountID, filter)
	if err != nil {
		return nil, s.mapError("failed to list tasks", accountID, err)
	}
	return tasks, nil
}

// Update applies a partial update to a task owned by accountID
func (s *TaskService) Update(ctx context.Context, accountID, id string, patch TaskPatch) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, accountID, id)
	if err != nil {
		return nil, s.mapError("failed to load task for update", accountID, err)
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.ClearDue {
		task.DueDate = nil
	}

	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return nil, s.mapError("failed to update task", accountID, err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, accountID, id string) error {
	if err := s.repo.Delete(ctx, accountID, id); err != nil {
		return s.mapError("failed to delete task", accountID, err)
	}
	return nil
}

func (s *TaskService) Stats(ctx context.Context, accountID string) (*models.TaskStats, error) {
	stats, err := s.repo.Stats(ctx, accountID)
	if err != nil {
		return nil, s.mapError("failed to compute task stats", accountID, err)
	}
	return stats, nil
}

func (s *TaskService) mapError(msg, accountID string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrBadRequest):
		return models.ErrBadRequest
	}
	s.logger.Error(msg, slog.String("account_id", accountID), slog.Any("error", err))
	return models.ErrInternalServer
}
