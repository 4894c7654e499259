package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/BradenHooton/taskvault/internal/services"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TaskServiceInterface defines the interface for task business logic
type TaskServiceInterface interface {
	Create(ctx context.Context, accountID string, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, accountID, id string) (*models.Task, error)
	List(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, accountID, id string, patch services.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, accountID, id string) error
	Stats(ctx context.Context, accountID string) (*models.TaskStats, error)
}

// TaskHandler handles task HTTP requests. Every route requires an access token.
type TaskHandler struct {
	service TaskServiceInterface
}

func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=5000"`
	Status       *string    `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority     *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

type listTasksQuery struct {
	Status   string `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type TaskListResponse struct {
	Tasks  []*models.Task `json:"tasks"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	q := listTasksQuery{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
	}
	if err := ValidateRequest(q); err != nil {
		writeValidationFailure(w, err)
		return
	}

	limit, offset := parsePagination(r)
	tasks, err := h.service.List(r.Context(), accountID, models.TaskFilter{
		Status:   q.Status,
		Priority: q.Priority,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeTaskError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks, Limit: limit, Offset: offset})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.service.Create(r.Context(), accountID, &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeTaskError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), accountID, id)
	if err != nil {
		writeTaskError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.service.Update(r.Context(), accountID, id, services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ClearDue:    req.ClearDueDate,
	})
	if err != nil {
		writeTaskError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), accountID, id); err != nil {
		writeTaskError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), accountID)
	if err != nil {
		writeTaskError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}

func requireAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return "", false
	}
	return claims.UserID, true
}

// taskIDParam rejects malformed IDs before they reach Postgres
func taskIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		pkghttp.WriteNotFound(w, "Task not found")
		return "", false
	}
	return id, true
}

func writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Task not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid task")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
