package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"stacks/internal/domain"

	"github.com/google/uuid"
)

// createTestLogger creates a logger for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors during tests
	}))
}

type stubItemRepo struct {
	remoteCovers []*domain.Item

	mu      sync.Mutex
	updates []uuid.UUID
	urls    map[uuid.UUID]string
	failFor map[uuid.UUID]bool
}

func (s *stubItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return nil, domain.ErrNotFound
}

func (s *stubItemRepo) Create(ctx context.Context, item *domain.Item) error { return nil }

func (s *stubItemRepo) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[id] {
		return fmt.Errorf("update failed")
	}
	s.updates = append(s.updates, id)
	if s.urls == nil {
		s.urls = make(map[uuid.UUID]string)
	}
	s.urls[id] = coverURL
	return nil
}

func (s *stubItemRepo) GetByList(ctx context.Context, listID uuid.UUID, cursor *time.Time, limit int) ([]*domain.Item, error) {
	return nil, nil
}

func (s *stubItemRepo) ListRemoteCovers(ctx context.Context, storagePrefix string, limit int) ([]*domain.Item, error) {
	if limit < len(s.remoteCovers) {
		return s.remoteCovers[:limit], nil
	}
	return s.remoteCovers, nil
}

type stubQueueRepo struct {
	mu       sync.Mutex
	enqueued []string
}

func (s *stubQueueRepo) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, jobType)
	return nil
}

func (s *stubQueueRepo) Dequeue(ctx context.Context, jobType string) (*domain.QueueJob, error) {
	return nil, nil
}
func (s *stubQueueRepo) Complete(ctx context.Context, jobID string) error { return nil }
func (s *stubQueueRepo) Fail(ctx context.Context, jobID string, errorMsg string) error {
	return nil
}
func (s *stubQueueRepo) GetPendingCount(ctx context.Context, jobType string) (int, error) {
	return 0, nil
}

type stubCoverStore struct {
	mu      sync.Mutex
	copied  []string
	failFor map[string]bool
}

func (s *stubCoverStore) CopyFromURL(ctx context.Context, imageURL, key string) (string, error) {
	s.mu.Lock()
	s.copied = append(s.copied, imageURL)
	fail := s.failFor[imageURL]
	s.mu.Unlock()
	if fail {
		return "", fmt.Errorf("download failed")
	}
	return "https://store.example.com/object/public/covers/" + key + ".jpg", nil
}

func (s *stubCoverStore) Prefix() string {
	return "https://store.example.com/object/public/covers/"
}

func remoteItem(coverURL string) *domain.Item {
	return &domain.Item{ID: uuid.New(), CoverImageURL: &coverURL}
}

func TestProcessRehostCover(t *testing.T) {
	itemID := uuid.New()
	repo := &stubItemRepo{}
	store := &stubCoverStore{}
	processor := NewJobProcessor(createTestLogger(), repo, &stubQueueRepo{}, store)

	payload := map[string]interface{}{
		"item_id":   itemID.String(),
		"image_url": "https://example.com/cover.jpg",
	}

	if err := processor.ProcessRehostCover(context.Background(), payload, createTestLogger()); err != nil {
		t.Fatalf("ProcessRehostCover() error = %v", err)
	}

	if len(repo.updates) != 1 || repo.updates[0] != itemID {
		t.Errorf("updates = %v, want one update for %s", repo.updates, itemID)
	}
	if got := repo.urls[itemID]; got != "https://store.example.com/object/public/covers/"+itemID.String()+".jpg" {
		t.Errorf("stored cover URL = %q", got)
	}
}

func TestProcessRehostCoverBadPayload(t *testing.T) {
	processor := NewJobProcessor(createTestLogger(), &stubItemRepo{}, &stubQueueRepo{}, &stubCoverStore{})

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"missing item_id", map[string]interface{}{"image_url": "https://example.com/x.jpg"}},
		{"invalid item_id", map[string]interface{}{"item_id": "nope", "image_url": "https://example.com/x.jpg"}},
		{"missing image_url", map[string]interface{}{"item_id": uuid.New().String()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := processor.ProcessRehostCover(context.Background(), tt.payload, createTestLogger()); err == nil {
				t.Error("ProcessRehostCover() error = nil, want error")
			}
		})
	}
}

func TestProcessMigrateCoversPreservesOrder(t *testing.T) {
	items := []*domain.Item{
		remoteItem("https://example.com/a.jpg"),
		remoteItem("https://example.com/b.jpg"),
		remoteItem("https://example.com/c.jpg"),
		remoteItem("https://example.com/d.jpg"),
		remoteItem("https://example.com/e.jpg"),
	}
	repo := &stubItemRepo{remoteCovers: items}
	store := &stubCoverStore{}
	processor := NewJobProcessor(createTestLogger(), repo, &stubQueueRepo{}, store)

	if err := processor.ProcessMigrateCovers(context.Background(), map[string]interface{}{}, createTestLogger()); err != nil {
		t.Fatalf("ProcessMigrateCovers() error = %v", err)
	}

	// Updates apply in the repository's scan order even though downloads
	// ran concurrently
	if len(repo.updates) != len(items) {
		t.Fatalf("updated %d items, want %d", len(repo.updates), len(items))
	}
	for i, item := range items {
		if repo.updates[i] != item.ID {
			t.Errorf("update[%d] = %s, want %s", i, repo.updates[i], item.ID)
		}
	}
}

func TestProcessMigrateCoversPartialFailure(t *testing.T) {
	items := []*domain.Item{
		remoteItem("https://example.com/a.jpg"),
		remoteItem("https://example.com/b.jpg"),
		remoteItem("https://example.com/c.jpg"),
	}
	repo := &stubItemRepo{remoteCovers: items}
	store := &stubCoverStore{failFor: map[string]bool{"https://example.com/b.jpg": true}}
	processor := NewJobProcessor(createTestLogger(), repo, &stubQueueRepo{}, store)

	if err := processor.ProcessMigrateCovers(context.Background(), map[string]interface{}{}, createTestLogger()); err != nil {
		t.Fatalf("ProcessMigrateCovers() error = %v", err)
	}

	if len(repo.updates) != 2 {
		t.Fatalf("updated %d items, want 2", len(repo.updates))
	}
	if repo.updates[0] != items[0].ID || repo.updates[1] != items[2].ID {
		t.Errorf("updates = %v, failed item should be skipped", repo.updates)
	}
}

func TestProcessMigrateCoversQueuesFollowUp(t *testing.T) {
	var items []*domain.Item
	for i := 0; i < 4; i++ {
		items = append(items, remoteItem(fmt.Sprintf("https://example.com/%d.jpg", i)))
	}
	repo := &stubItemRepo{remoteCovers: items}
	queue := &stubQueueRepo{}
	processor := NewJobProcessor(createTestLogger(), repo, queue, &stubCoverStore{})

	// Batch limit equal to the result size implies more may remain
	payload := map[string]interface{}{"limit": float64(4)}
	if err := processor.ProcessMigrateCovers(context.Background(), payload, createTestLogger()); err != nil {
		t.Fatalf("ProcessMigrateCovers() error = %v", err)
	}

	if len(queue.enqueued) != 1 || queue.enqueued[0] != domain.JobTypeMigrateCovers {
		t.Errorf("enqueued = %v, want one follow-up migration job", queue.enqueued)
	}
}

func TestProcessMigrateCoversEmpty(t *testing.T) {
	processor := NewJobProcessor(createTestLogger(), &stubItemRepo{}, &stubQueueRepo{}, &stubCoverStore{})

	if err := processor.ProcessMigrateCovers(context.Background(), map[string]interface{}{}, createTestLogger()); err != nil {
		t.Errorf("ProcessMigrateCovers() error = %v, want nil for empty batch", err)
	}
}
