package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"stacks/internal/domain"

	"github.com/google/uuid"
)

// TokenRepository implements the domain.TokenRepository interface using PostgreSQL
type TokenRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTokenRepository creates a new PostgreSQL token repository
func NewTokenRepository(db *sql.DB, logger *slog.Logger) *TokenRepository {
	return &TokenRepository{
		db:     db,
		logger: logger,
	}
}

// ResolveUser returns the user that owns the token, or ErrNotFound.
// Expired tokens resolve the same as missing ones.
func (r *TokenRepository) ResolveUser(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM api_tokens
		WHERE token = $1 AND (expires_at IS NULL OR expires_at > NOW())`

	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, token).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("Token not found or expired")
			return uuid.Nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to resolve token", "error", err)
		return uuid.Nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	return userID, nil
}
