package models

import "time"

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOverdue reports whether an unfinished task is past its due date
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != TaskStatusDone && now.After(*t.DueDate)
}

// TaskFilter narrows a task listing. Empty fields match everything.
type TaskFilter struct {
	Status   string
	Priority string
	Limit    int
	Offset   int
}

// TaskStats aggregates an account's tasks
type TaskStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	Overdue    int            `json:"overdue"`
}
