package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/taskvault/internal/database"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/jackc/pgx/v5"
)

// OTPRepository stores login challenges in Postgres
type OTPRepository struct {
	db *database.DB
}

func NewOTPRepository(db *database.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

const otpColumns = `id, email, code_hash, expires_at, used_at, attempts, created_at`

func scanOTPRow(row rowScanner) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge

	err := row.Scan(
		&challenge.ID, &challenge.Email, &challenge.CodeHash, &challenge.ExpiresAt,
		&challenge.UsedAt, &challenge.Attempts, &challenge.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &challenge, nil
}

// Create issues a new challenge and discards every earlier unused one for the email
func (r *OTPRepository) Create(ctx context.Context, email, codeHash string, expiresAt time.Time) (*models.OTPChallenge, error) {
	var challenge *models.OTPChallenge

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM otp_challenges WHERE email = $1 AND used_at IS NULL`, email); err != nil {
			return fmt.Errorf("failed to supersede challenges: %w", err)
		}

		query := `
			INSERT INTO otp_challenges (email, code_hash, expires_at)
			VALUES ($1, $2, $3)
			RETURNING ` + otpColumns

		created, err := scanOTPRow(tx.QueryRow(ctx, query, email, codeHash, expiresAt))
		if err != nil {
			return err
		}
		challenge = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create otp challenge: %w", err)
	}

	return challenge, nil
}

// FindValid returns the newest unused, unexpired challenge matching the code hash
func (r *OTPRepository) FindValid(ctx context.Context, email, codeHash string) (*models.OTPChallenge, error) {
	query := `
		SELECT ` + otpColumns + `
		FROM otp_challenges
		WHERE email = $1 AND code_hash = $2 AND used_at IS NULL AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanOTPRow(r.db.Pool.QueryRow(ctx, query, email, codeHash))
}

// IncrementAttempts charges a failed guess to the newest live challenge for the email
// and returns its new attempt count. ErrNotFound means no live challenge exists.
func (r *OTPRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	query := `
		UPDATE otp_challenges
		SET attempts = attempts + 1
		WHERE id = (
			SELECT id FROM otp_challenges
			WHERE email = $1 AND used_at IS NULL AND expires_at > NOW()
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING attempts
	`

	var attempts int
	if err := r.db.Pool.QueryRow(ctx, query, email).Scan(&attempts); err != nil {
		return 0, database.MapPostgresError(err)
	}

	return attempts, nil
}

// MarkUsed consumes a challenge; ErrNotFound if it was already consumed
func (r *OTPRepository) MarkUsed(ctx context.Context, id string) error {
	query := `
		UPDATE otp_challenges
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL
	`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark challenge as used: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// PurgeExpired deletes challenges past their expiry
func (r *OTPRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM otp_challenges WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired challenges: %w", err)
	}

	return result.RowsAffected(), nil
}
