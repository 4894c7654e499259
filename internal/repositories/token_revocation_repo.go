package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/taskvault/internal/database"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRevocationRepository is the deny list consulted for every access token
// and refresh rotation. Rows are kept only until the token would have expired.
type TokenRevocationRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRevocationRepository(db *database.DB) *TokenRevocationRepository {
	return &TokenRevocationRepository{pool: db.Pool}
}

// Revoke records a token as invalid. The first revocation of a JTI wins.
func (r *TokenRevocationRepository) Revoke(ctx context.Context, token *models.RevokedToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO revoked_tokens (jti, account_id, token_type, expires_at, reason)
		VALUES (@jti, @account_id, @token_type, @expires_at, @reason)
		ON CONFLICT (jti) DO NOTHING`,
		pgx.NamedArgs{
			"jti":        token.JTI,
			"account_id": token.AccountID,
			"token_type": token.TokenType,
			"expires_at": token.ExpiresAt,
			"reason":     token.Reason,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to revoke %s token: %w", token.TokenType, database.MapPostgresError(err))
	}
	return nil
}

func (r *TokenRevocationRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&revoked)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return revoked, nil
}

// CleanupExpiredTokens drops deny list rows for tokens past their own expiry
func (r *TokenRevocationRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
