package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"stacks/internal/domain"

	"github.com/google/uuid"
)

// ListRepository implements the domain.ListRepository interface using PostgreSQL
type ListRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewListRepository creates a new PostgreSQL list repository
func NewListRepository(db *sql.DB, logger *slog.Logger) *ListRepository {
	return &ListRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a list by its UUID
func (r *ListRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.List, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM lists
		WHERE id = $1`

	list := &domain.List{}
	var updatedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&list.ID,
		&list.UserID,
		&list.Title,
		&list.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("List not found", "list_id", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to query list",
			"error", err,
			"list_id", id,
		)
		return nil, fmt.Errorf("failed to query list: %w", err)
	}

	if updatedAt.Valid {
		list.UpdatedAt = &updatedAt.Time
	}

	return list, nil
}

// InsertItemAtTop shifts existing positions down and links the item into
// the list at position 0, in one transaction so concurrent inserts cannot
// interleave the shift and the insert.
func (r *ListRepository) InsertItemAtTop(ctx context.Context, listID, itemID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE list_items
		SET position = position + 1
		WHERE list_id = $1`, listID)
	if err != nil {
		r.logger.Error("Failed to shift list positions",
			"error", err,
			"list_id", listID,
		)
		return fmt.Errorf("failed to shift list positions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO list_items (list_id, item_id, position, added_at)
		VALUES ($1, $2, 0, NOW())`, listID, itemID)
	if err != nil {
		r.logger.Error("Failed to insert list item",
			"error", err,
			"list_id", listID,
			"item_id", itemID,
		)
		return fmt.Errorf("failed to insert list item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit list insert: %w", err)
	}

	r.logger.Info("Item added to list",
		"list_id", listID,
		"item_id", itemID,
	)

	return nil
}
