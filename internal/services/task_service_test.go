package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_Create_AppliesDefaults(t *testing.T) {
	svc := NewTaskService(&MockTaskRepository{}, slog.Default())

	task, err := svc.Create(context.Background(), "acct-1", &models.Task{Title: "  Write report  "})

	require.NoError(t, err)
	assert.Equal(t, "acct-1", task.AccountID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
}

func TestTaskService_List_ClampsLimit(t *testing.T) {
	var got models.TaskFilter
	repo := &MockTaskRepository{
		ListFunc: func(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error) {
			got = filter
			return []*models.Task{}, nil
		},
	}
	svc := NewTaskService(repo, slog.Default())

	_, err := svc.List(context.Background(), "acct-1", models.TaskFilter{Limit: 1000, Offset: -1})
	require.NoError(t, err)
	assert.Equal(t, 200, got.Limit)
	assert.Equal(t, 0, got.Offset)

	_, err = svc.List(context.Background(), "acct-1", models.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, 50, got.Limit)
}

func TestTaskService_Update_Partial(t *testing.T) {
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	existing := &models.Task{
		ID: "task-1", AccountID: "acct-1", Title: "Old", Description: "keep",
		Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow, DueDate: &due,
	}
	repo := &MockTaskRepository{
		GetByIDFunc: func(ctx context.Context, accountID, id string) (*models.Task, error) {
			assert.Equal(t, "acct-1", accountID)
			return existing, nil
		},
	}
	svc := NewTaskService(repo, slog.Default())

	status := models.TaskStatusDone
	title := " New "
	task, err := svc.Update(context.Background(), "acct-1", "task-1", TaskPatch{Title: &title, Status: &status, ClearDue: true})

	require.NoError(t, err)
	assert.Equal(t, "New", task.Title)
	assert.Equal(t, "keep", task.Description)
	assert.Equal(t, models.TaskStatusDone, task.Status)
	assert.Equal(t, models.TaskPriorityLow, task.Priority)
	assert.Nil(t, task.DueDate)
}

func TestTaskService_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		want    error
	}{
		{"not found", models.ErrNotFound, models.ErrNotFound},
		{"bad request", models.ErrBadRequest, models.ErrBadRequest},
		{"unexpected", errors.New("boom"), models.ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockTaskRepository{
				DeleteFunc: func(ctx context.Context, accountID, id string) error { return tt.repoErr },
			}
			svc := NewTaskService(repo, slog.Default())

			assert.ErrorIs(t, svc.Delete(context.Background(), "acct-1", "task-1"), tt.want)
		})
	}
}
