package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/taskvault/internal/handlers"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/BradenHooton/taskvault/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskHandler_RequiresAuth(t *testing.T) {
	handler := handlers.NewTaskHandler(&handlers.MockTaskService{})

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/api/v1/tasks", nil))

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestTaskHandler_Create(t *testing.T) {
	svc := &handlers.MockTaskService{
		CreateFunc: func(ctx context.Context, accountID string, task *models.Task) (*models.Task, error) {
			assert.Equal(t, "acct-1", accountID)
			task.ID = uuid.NewString()
			return task, nil
		},
	}
	handler := handlers.NewTaskHandler(svc)

	req := handlers.WithAuthContext(handlers.NewTestRequest(t, "POST", "/api/v1/tasks", handlers.CreateTaskRequest{
		Title:    "Ship release",
		Priority: models.TaskPriorityHigh,
	}), "acct-1", "user@example.com")
	w := httptest.NewRecorder()
	handler.Create(w, req)

	var task models.Task
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &task)
	assert.Equal(t, "Ship release", task.Title)
	assert.Equal(t, models.TaskPriorityHigh, task.Priority)
}

func TestTaskHandler_Create_Validation(t *testing.T) {
	handler := handlers.NewTaskHandler(&handlers.MockTaskService{})

	for _, body := range []handlers.CreateTaskRequest{
		{Title: ""},
		{Title: "x", Status: "blocked"},
		{Title: "x", Priority: "urgent"},
	} {
		req := handlers.WithAuthContext(handlers.NewTestRequest(t, "POST", "/api/v1/tasks", body), "acct-1", "user@example.com")
		w := httptest.NewRecorder()
		handler.Create(w, req)

		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	}
}

func TestTaskHandler_List_Filters(t *testing.T) {
	var got models.TaskFilter
	svc := &handlers.MockTaskService{
		ListFunc: func(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error) {
			got = filter
			return []*models.Task{{Title: "a"}}, nil
		},
	}
	handler := handlers.NewTaskHandler(svc)

	req := handlers.WithAuthContext(httptest.NewRequest("GET", "/api/v1/tasks?status=done&priority=low&limit=10&offset=20", nil), "acct-1", "user@example.com")
	w := httptest.NewRecorder()
	handler.List(w, req)

	var resp handlers.TaskListResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Len(t, resp.Tasks, 1)
	assert.Equal(t, models.TaskFilter{Status: "done", Priority: "low", Limit: 10, Offset: 20}, got)

	req = handlers.WithAuthContext(httptest.NewRequest("GET", "/api/v1/tasks?status=archived", nil), "acct-1", "user@example.com")
	w = httptest.NewRecorder()
	handler.List(w, req)
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestTaskHandler_Get_OtherAccountIsNotFound(t *testing.T) {
	id := uuid.NewString()
	svc := &handlers.MockTaskService{
		GetFunc: func(ctx context.Context, accountID, taskID string) (*models.Task, error) {
			assert.Equal(t, "acct-2", accountID)
			assert.Equal(t, id, taskID)
			return nil, models.ErrNotFound
		},
	}
	handler := handlers.NewTaskHandler(svc)

	req := handlers.WithURLParam(
		handlers.WithAuthContext(httptest.NewRequest("GET", "/api/v1/tasks/"+id, nil), "acct-2", "other@example.com"),
		"id", id)
	w := httptest.NewRecorder()
	handler.Get(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}

func TestTaskHandler_Get_MalformedID(t *testing.T) {
	handler := handlers.NewTaskHandler(&handlers.MockTaskService{})

	req := handlers.WithURLParam(
		handlers.WithAuthContext(httptest.NewRequest("GET", "/api/v1/tasks/abc", nil), "acct-1", "user@example.com"),
		"id", "abc")
	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_Update(t *testing.T) {
	id := uuid.NewString()
	var got services.TaskPatch
	svc := &handlers.MockTaskService{
		UpdateFunc: func(ctx context.Context, accountID, taskID string, patch services.TaskPatch) (*models.Task, error) {
			got = patch
			return &models.Task{ID: taskID, Title: "t", Status: *patch.Status}, nil
		},
	}
	handler := handlers.NewTaskHandler(svc)

	status := models.TaskStatusInProgress
	req := handlers.WithURLParam(
		handlers.WithAuthContext(handlers.NewTestRequest(t, "PATCH", "/api/v1/tasks/"+id, handlers.UpdateTaskRequest{Status: &status, ClearDueDate: true}), "acct-1", "user@example.com"),
		"id", id)
	w := httptest.NewRecorder()
	handler.Update(w, req)

	var task models.Task
	handlers.AssertJSONResponse(t, w, http.StatusOK, &task)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	require.NotNil(t, got.Status)
	assert.Nil(t, got.Title)
	assert.True(t, got.ClearDue)
}

func TestTaskHandler_DeleteAndStats(t *testing.T) {
	id := uuid.NewString()
	svc := &handlers.MockTaskService{
		StatsFunc: func(ctx context.Context, accountID string) (*models.TaskStats, error) {
			return &models.TaskStats{Total: 3, Overdue: 1, ByStatus: map[string]int{"todo": 3}}, nil
		},
	}
	handler := handlers.NewTaskHandler(svc)

	req := handlers.WithURLParam(handlers.WithAuthContext(httptest.NewRequest("DELETE", "/api/v1/tasks/"+id, nil), "acct-1", "u@example.com"), "id", id)
	w := httptest.NewRecorder()
	handler.Delete(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = handlers.WithAuthContext(httptest.NewRequest("GET", "/api/v1/tasks/stats", nil), "acct-1", "u@example.com")
	w = httptest.NewRecorder()
	handler.Stats(w, req)

	var stats models.TaskStats
	handlers.AssertJSONResponse(t, w, http.StatusOK, &stats)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Overdue)
}
