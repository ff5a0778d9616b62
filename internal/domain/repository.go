package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// ItemRepository defines the interface for item data operations
type ItemRepository interface {
	// GetByID retrieves an item by its UUID
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// Create inserts a new item
	Create(ctx context.Context, item *Item) error

	// UpdateCoverImage replaces the cover image URL after re-hosting
	UpdateCoverImage(ctx context.Context, id uuid.UUID, coverURL string) error

	// GetByList retrieves items in a list ordered by position, with
	// cursor pagination over the membership added_at timestamp
	GetByList(ctx context.Context, listID uuid.UUID, cursor *time.Time, limit int) ([]*Item, error)

	// ListRemoteCovers finds items whose cover image still points at the
	// original source rather than our storage
	ListRemoteCovers(ctx context.Context, storagePrefix string, limit int) ([]*Item, error)
}

// ListRepository defines the interface for list data operations
type ListRepository interface {
	// GetByID retrieves a list by its UUID
	GetByID(ctx context.Context, id uuid.UUID) (*List, error)

	// InsertItemAtTop shifts existing positions down and links the item
	// into the list at position 0
	InsertItemAtTop(ctx context.Context, listID, itemID uuid.UUID) error
}

// TokenRepository resolves API credentials to user identities
type TokenRepository interface {
	// ResolveUser returns the user that owns the token, or ErrNotFound
	ResolveUser(ctx context.Context, token string) (uuid.UUID, error)
}

// QueueRepository defines the interface for job queue operations
type QueueRepository interface {
	// Enqueue adds a new job to the queue
	Enqueue(ctx context.Context, jobType string, payload interface{}) error

	// Dequeue retrieves the next job from the queue
	Dequeue(ctx context.Context, jobType string) (*QueueJob, error)

	// Complete marks a job as completed
	Complete(ctx context.Context, jobID string) error

	// Fail marks a job as failed with error details
	Fail(ctx context.Context, jobID string, errorMsg string) error

	// GetPendingCount returns the number of pending jobs
	GetPendingCount(ctx context.Context, jobType string) (int, error)
}

// QueueJob represents a job in the processing queue
type QueueJob struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Status    string                 `json:"status"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt *string                `json:"updated_at"`
}

// Job types
const (
	JobTypeRehostCover   = "rehost_cover"
	JobTypeMigrateCovers = "migrate_covers"
)

// Job statuses
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
