package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/taskvault/internal/database"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{pool: db.Pool}
}

const taskColumns = `id, account_id, title, description, status, priority, due_date, created_at, updated_at`

func scanTaskRow(row rowScanner) (*models.Task, error) {
	var task models.Task

	err := row.Scan(
		&task.ID, &task.AccountID, &task.Title, &task.Description,
		&task.Status, &task.Priority, &task.DueDate, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &task, nil
}

func scanTaskRows(rows pgx.Rows) ([]*models.Task, error) {
	defer rows.Close()

	tasks := make([]*models.Task, 0)

	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.ID = uuid.New().String()

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, account_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + taskColumns

	created, err := scanTaskRow(r.pool.QueryRow(ctx, query,
		task.ID, task.AccountID, task.Title, task.Description,
		task.Status, task.Priority, task.DueDate, task.CreatedAt, task.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return created, nil
}

// GetByID scopes the lookup to the owning account so foreign tasks read as not found
func (r *TaskRepository) GetByID(ctx context.Context, accountID, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND account_id = $2`

	return scanTaskRow(r.pool.QueryRow(ctx, query, id, accountID))
}

func (r *TaskRepository) List(ctx context.Context, accountID string, filter models.TaskFilter) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE account_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR priority = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.pool.Query(ctx, query, accountID, filter.Status, filter.Priority, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	return scanTaskRows(rows)
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.UpdatedAt = time.Now()

	query := `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6, due_date = $7, updated_at = $8
		WHERE id = $1 AND account_id = $2
		RETURNING ` + taskColumns

	return scanTaskRow(r.pool.QueryRow(ctx, query,
		task.ID, task.AccountID, task.Title, task.Description,
		task.Status, task.Priority, task.DueDate, task.UpdatedAt,
	))
}

func (r *TaskRepository) Delete(ctx context.Context, accountID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Stats aggregates task counts for an account in one pass
func (r *TaskRepository) Stats(ctx context.Context, accountID string) (*models.TaskStats, error) {
	query := `
		SELECT status, priority, COUNT(*),
		       COUNT(*) FILTER (WHERE due_date < NOW() AND status <> 'done')
		FROM tasks
		WHERE account_id = $1
		GROUP BY status, priority
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks: %w", err)
	}
	defer rows.Close()

	stats := &models.TaskStats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	for rows.Next() {
		var status, priority string
		var count, overdue int
		if err := rows.Scan(&status, &priority, &count, &overdue); err != nil {
			return nil, fmt.Errorf("failed to scan task stats: %w", err)
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.Overdue += overdue
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task stats: %w", err)
	}

	return stats, nil
}
