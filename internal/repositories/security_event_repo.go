package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/taskvault/internal/database"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SecurityEventRepository is the append-only store behind the audit sink
type SecurityEventRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityEventRepository creates a new SecurityEventRepository
func NewSecurityEventRepository(db *database.DB) *SecurityEventRepository {
	return &SecurityEventRepository{pool: db.Pool}
}

const securityEventColumns = `id, action, actor_email, actor_id, success, failure_reason, ip_address, user_agent, device_fingerprint, metadata, created_at`

// scanSecurityEventRow handles nullable fields and populates a SecurityEvent from a database row
func scanSecurityEventRow(row rowScanner) (*models.SecurityEvent, error) {
	var event models.SecurityEvent

	err := row.Scan(
		&event.ID, &event.Action, &event.ActorEmail, &event.ActorID, &event.Success,
		&event.FailureReason, &event.IPAddress, &event.UserAgent, &event.DeviceFingerprint,
		&event.Metadata, &event.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &event, nil
}

func scanSecurityEventRows(rows pgx.Rows) ([]*models.SecurityEvent, error) {
	defer rows.Close()

	events := make([]*models.SecurityEvent, 0)

	for rows.Next() {
		event, err := scanSecurityEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security event rows: %w", err)
	}

	return events, nil
}

// Create appends a security event
func (r *SecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	query := `
		INSERT INTO security_events (
			action, actor_email, actor_id, success, failure_reason,
			ip_address, user_agent, device_fingerprint, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + securityEventColumns

	result, err := scanSecurityEventRow(r.pool.QueryRow(
		ctx, query,
		event.Action, event.ActorEmail, event.ActorID, event.Success, event.FailureReason,
		event.IPAddress, event.UserAgent, event.DeviceFingerprint, event.Metadata,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create security event: %w", err)
	}

	return result, nil
}

// ListByEmail returns an account's events, newest first
func (r *SecurityEventRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT ` + securityEventColumns + `
		FROM security_events
		WHERE actor_email = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}

	return scanSecurityEventRows(rows)
}

// CountFailuresByIP returns the number of failed events from an IP since the given time
func (r *SecurityEventRepository) CountFailuresByIP(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM security_events
		WHERE ip_address = $1 AND success = FALSE AND created_at >= $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, ipAddress, since).Scan(&count)
	return count, err
}

// CountFailuresByDevice returns the number of failed events from a device fingerprint since the given time
func (r *SecurityEventRepository) CountFailuresByDevice(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM security_events
		WHERE device_fingerprint = $1 AND success = FALSE AND created_at >= $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, fingerprint, since).Scan(&count)
	return count, err
}
