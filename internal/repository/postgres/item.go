package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"stacks/internal/domain"

	"github.com/google/uuid"
)

// ItemRepository implements the domain.ItemRepository interface using PostgreSQL
type ItemRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewItemRepository creates a new PostgreSQL item repository
func NewItemRepository(db *sql.DB, logger *slog.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

const itemColumns = `id, url, title, creator, cover_image_url, type, source, price, created_at, updated_at`

func scanItem(row interface{ Scan(...interface{}) error }) (*domain.Item, error) {
	item := &domain.Item{}
	var creator, coverImageURL, price sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.URL,
		&item.Title,
		&creator,
		&coverImageURL,
		&item.Type,
		&item.Source,
		&price,
		&item.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Handle nullable fields
	if creator.Valid {
		item.Creator = &creator.String
	}
	if coverImageURL.Valid {
		item.CoverImageURL = &coverImageURL.String
	}
	if price.Valid {
		item.Price = &price.String
	}
	if updatedAt.Valid {
		item.UpdatedAt = &updatedAt.Time
	}

	return item, nil
}

// GetByID retrieves an item by its UUID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("Item not found", "item_id", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to query item",
			"error", err,
			"item_id", id,
		)
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	r.logger.Debug("Item found", "item_id", id, "url", item.URL)
	return item, nil
}

// Create inserts a new item
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (
			id, url, title, creator, cover_image_url, type, source, price,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	// Handle nullable fields
	var creator, coverImageURL, price interface{}
	if item.Creator != nil {
		creator = *item.Creator
	}
	if item.CoverImageURL != nil {
		coverImageURL = *item.CoverImageURL
	}
	if item.Price != nil {
		price = *item.Price
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	updatedAt := item.CreatedAt
	if item.UpdatedAt != nil {
		updatedAt = *item.UpdatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.URL,
		item.Title,
		creator,
		coverImageURL,
		item.Type,
		item.Source,
		price,
		item.CreatedAt,
		updatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create item",
			"error", err,
			"item_id", item.ID,
			"url", item.URL,
		)
		return fmt.Errorf("failed to create item: %w", err)
	}

	r.logger.Info("Item created successfully",
		"item_id", item.ID,
		"url", item.URL,
		"type", item.Type,
		"source", item.Source,
	)

	return nil
}

// UpdateCoverImage replaces the cover image URL after re-hosting
func (r *ItemRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverURL string) error {
	query := `
		UPDATE items
		SET cover_image_url = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, coverURL, id)
	if err != nil {
		r.logger.Error("Failed to update cover image",
			"error", err,
			"item_id", id,
		)
		return fmt.Errorf("failed to update cover image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Failed to get rows affected", "error", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		r.logger.Warn("No item found for cover update", "item_id", id)
		return domain.ErrNotFound
	}

	r.logger.Info("Cover image updated successfully",
		"item_id", id,
		"cover_url", coverURL,
	)

	return nil
}

// GetByList retrieves items in a list ordered by position, with cursor
// pagination over the membership added_at timestamp
func (r *ItemRepository) GetByList(ctx context.Context, listID uuid.UUID, cursor *time.Time, limit int) ([]*domain.Item, error) {
	query := `
		SELECT i.id, i.url, i.title, i.creator, i.cover_image_url,
		       i.type, i.source, i.price, i.created_at, i.updated_at,
		       li.added_at
		FROM items i
		JOIN list_items li ON li.item_id = i.id
		WHERE li.list_id = $1 AND ($2::timestamptz IS NULL OR li.added_at < $2)
		ORDER BY li.position ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, listID, cursor, limit)
	if err != nil {
		r.logger.Error("Failed to query list items",
			"error", err,
			"list_id", listID,
		)
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item := &domain.Item{}
		var creator, coverImageURL, price sql.NullString
		var updatedAt sql.NullTime
		var addedAt time.Time

		err := rows.Scan(
			&item.ID,
			&item.URL,
			&item.Title,
			&creator,
			&coverImageURL,
			&item.Type,
			&item.Source,
			&price,
			&item.CreatedAt,
			&updatedAt,
			&addedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if creator.Valid {
			item.Creator = &creator.String
		}
		if coverImageURL.Valid {
			item.CoverImageURL = &coverImageURL.String
		}
		if price.Valid {
			item.Price = &price.String
		}
		if updatedAt.Valid {
			item.UpdatedAt = &updatedAt.Time
		}
		item.AddedAt = &addedAt

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate list items: %w", err)
	}

	r.logger.Debug("List items retrieved", "list_id", listID, "count", len(items))
	return items, nil
}

// ListRemoteCovers finds items whose cover image still points at the
// original source rather than our storage
func (r *ItemRepository) ListRemoteCovers(ctx context.Context, storagePrefix string, limit int) ([]*domain.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE cover_image_url IS NOT NULL
		  AND cover_image_url NOT LIKE $1 || '%'
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, storagePrefix, limit)
	if err != nil {
		r.logger.Error("Failed to query remote covers", "error", err)
		return nil, fmt.Errorf("failed to query remote covers: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate remote covers: %w", err)
	}

	r.logger.Info("Remote covers found", "count", len(items))
	return items, nil
}
