package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/taskvault/internal/database"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository persists accounts and their lockout state
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const accountColumns = `id, email, password_hash, display_name, avatar_url, failed_attempts, is_locked, last_failed_attempt, last_login, created_at, updated_at`

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account

	err := scanner.Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.DisplayName, &account.AvatarURL,
		&account.FailedAttempts, &account.IsLocked, &account.LastFailedAttempt, &account.LastLogin,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	return scanAccountRow(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return scanAccountRow(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := `
		INSERT INTO accounts (id, email, password_hash, display_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + accountColumns

	created, err := scanAccountRow(r.pool.QueryRow(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.DisplayName, account.AvatarURL,
		account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return created, nil
}

// IncrementFailedAttempts atomically bumps the failure counter, stamps the failure time
// and locks the account once the new count reaches maxAttempts.
// SET expressions see the pre-update row, so concurrent failures serialize on the row lock
// and every one of them is counted.
func (r *AccountRepository) IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int, at time.Time) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET failed_attempts = failed_attempts + 1,
		    is_locked = is_locked OR failed_attempts + 1 >= $2,
		    last_failed_attempt = $3,
		    updated_at = $3
		WHERE id = $1
		RETURNING ` + accountColumns

	return scanAccountRow(r.pool.QueryRow(ctx, query, id, maxAttempts, at))
}

// ClearLockAndFailures unlocks the account and wipes its failure counter and timestamp
func (r *AccountRepository) ClearLockAndFailures(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET failed_attempts = 0, is_locked = FALSE, last_failed_attempt = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// TouchLastLogin records a completed login and wipes all failure state
func (r *AccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET failed_attempts = 0,
		    is_locked = FALSE,
		    last_failed_attempt = NULL,
		    last_login = $2,
		    updated_at = $2
		WHERE id = $1
		RETURNING ` + accountColumns

	return scanAccountRow(r.pool.QueryRow(ctx, query, id, at))
}
