package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"stacks/internal/domain"

	"github.com/google/uuid"
)

// Bound on concurrent image downloads during a migration run
const migrateConcurrency = 4

// Default batch size for one migration job
const migrateBatchSize = 50

// CoverStore re-hosts images into object storage
type CoverStore interface {
	// CopyFromURL downloads an image and stores it under key, returning
	// the public URL of the stored copy
	CopyFromURL(ctx context.Context, imageURL, key string) (string, error)

	// Prefix returns the public URL prefix of the store, used to skip
	// covers that are already re-hosted
	Prefix() string
}

// JobProcessor handles different types of background jobs
type JobProcessor struct {
	logger    *slog.Logger
	itemRepo  domain.ItemRepository
	queueRepo domain.QueueRepository
	store     CoverStore
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(
	logger *slog.Logger,
	itemRepo domain.ItemRepository,
	queueRepo domain.QueueRepository,
	store CoverStore,
) *JobProcessor {
	return &JobProcessor{
		logger:    logger,
		itemRepo:  itemRepo,
		queueRepo: queueRepo,
		store:     store,
	}
}

// ProcessRehostCover re-hosts one item's cover image. The payload carries
// the item ID and the remote image URL captured at scrape time.
func (p *JobProcessor) ProcessRehostCover(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	itemIDStr, ok := payload["item_id"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid item_id in payload")
	}

	itemID, err := uuid.Parse(itemIDStr)
	if err != nil {
		return fmt.Errorf("invalid item_id format: %w", err)
	}

	imageURL, ok := payload["image_url"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid image_url in payload")
	}

	logger.Info("Re-hosting cover image",
		"item_id", itemID,
		"image_url", imageURL,
	)

	storedURL, err := p.rehostCover(ctx, itemID, imageURL)
	if err != nil {
		return err
	}

	logger.Info("Cover image re-hosted",
		"item_id", itemID,
		"stored_url", storedURL,
	)

	return nil
}

// ProcessMigrateCovers sweeps items still carrying remote cover URLs and
// re-hosts them in one batch. Downloads run concurrently but updates are
// applied in the repository's scan order, so a partial failure leaves the
// oldest items migrated first.
func (p *JobProcessor) ProcessMigrateCovers(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	limit := migrateBatchSize
	if v, ok := payload["limit"].(float64); ok && int(v) > 0 {
		limit = int(v)
	}

	items, err := p.itemRepo.ListRemoteCovers(ctx, p.store.Prefix(), limit)
	if err != nil {
		return fmt.Errorf("failed to list remote covers: %w", err)
	}

	if len(items) == 0 {
		logger.Info("No remote covers to migrate")
		return nil
	}

	logger.Info("Migrating remote covers", "count", len(items))

	// Fan out the downloads, collecting stored URLs by input index
	type result struct {
		storedURL string
		err       error
	}
	results := make([]result, len(items))

	var wg sync.WaitGroup
	sem := make(chan struct{}, migrateConcurrency)
	for i, item := range items {
		wg.Add(1)
		go func(i int, id uuid.UUID, imageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			storedURL, err := p.store.CopyFromURL(ctx, imageURL, id.String())
			results[i] = result{storedURL: storedURL, err: err}
		}(i, item.ID, *item.CoverImageURL)
	}
	wg.Wait()

	migrated := 0
	failed := 0
	for i, item := range items {
		if results[i].err != nil {
			logger.Warn("Failed to re-host cover during migration",
				"item_id", item.ID,
				"error", results[i].err,
			)
			failed++
			continue
		}
		if err := p.itemRepo.UpdateCoverImage(ctx, item.ID, results[i].storedURL); err != nil {
			logger.Warn("Failed to update cover during migration",
				"item_id", item.ID,
				"error", err,
			)
			failed++
			continue
		}
		migrated++
	}

	logger.Info("Cover migration batch finished",
		"migrated", migrated,
		"failed", failed,
	)

	// Another full batch probably means more remain; queue a follow-up
	if len(items) == limit {
		if err := p.queueRepo.Enqueue(ctx, domain.JobTypeMigrateCovers, map[string]interface{}{
			"limit": limit,
		}); err != nil {
			logger.Warn("Failed to enqueue follow-up migration", "error", err)
		}
	}

	if migrated == 0 && failed > 0 {
		return fmt.Errorf("cover migration failed for all %d items", failed)
	}

	return nil
}

func (p *JobProcessor) rehostCover(ctx context.Context, itemID uuid.UUID, imageURL string) (string, error) {
	storedURL, err := p.store.CopyFromURL(ctx, imageURL, itemID.String())
	if err != nil {
		return "", fmt.Errorf("failed to re-host cover: %w", err)
	}

	if err := p.itemRepo.UpdateCoverImage(ctx, itemID, storedURL); err != nil {
		return "", fmt.Errorf("failed to update item cover: %w", err)
	}

	return storedURL, nil
}
