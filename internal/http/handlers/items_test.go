package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"stacks/internal/domain"
	"stacks/internal/http/middleware"

	"github.com/google/uuid"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type stubScraper struct {
	data domain.ItemData
}

func (s *stubScraper) Scrape(ctx context.Context, rawURL string) domain.ItemData {
	return s.data
}

type stubItemRepo struct {
	created    []*domain.Item
	createErr  error
	listItems  []*domain.Item
	listByList uuid.UUID
}

func (s *stubItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return nil, domain.ErrNotFound
}

func (s *stubItemRepo) Create(ctx context.Context, item *domain.Item) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, item)
	return nil
}

func (s *stubItemRepo) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverURL string) error {
	return nil
}

func (s *stubItemRepo) GetByList(ctx context.Context, listID uuid.UUID, cursor *time.Time, limit int) ([]*domain.Item, error) {
	s.listByList = listID
	if len(s.listItems) > limit {
		return s.listItems[:limit], nil
	}
	return s.listItems, nil
}

func (s *stubItemRepo) ListRemoteCovers(ctx context.Context, storagePrefix string, limit int) ([]*domain.Item, error) {
	return nil, nil
}

type stubListRepo struct {
	lists    map[uuid.UUID]*domain.List
	inserted [][2]uuid.UUID
}

func (s *stubListRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.List, error) {
	if list, ok := s.lists[id]; ok {
		return list, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubListRepo) InsertItemAtTop(ctx context.Context, listID, itemID uuid.UUID) error {
	s.inserted = append(s.inserted, [2]uuid.UUID{listID, itemID})
	return nil
}

type stubTokenRepo struct {
	users map[string]uuid.UUID
}

func (s *stubTokenRepo) ResolveUser(ctx context.Context, token string) (uuid.UUID, error) {
	if id, ok := s.users[token]; ok {
		return id, nil
	}
	return uuid.Nil, domain.ErrNotFound
}

type stubQueueRepo struct {
	enqueued []string
}

func (s *stubQueueRepo) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
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
	copyErr error
	copied  []string
	puts    []string
}

func (s *stubCoverStore) CopyFromURL(ctx context.Context, imageURL, key string) (string, error) {
	if s.copyErr != nil {
		return "", s.copyErr
	}
	s.copied = append(s.copied, imageURL)
	return "https://store.example.com/object/public/covers/" + key + ".jpg", nil
}

func (s *stubCoverStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	s.puts = append(s.puts, key)
	return "https://store.example.com/object/public/covers/" + key, nil
}

type testEnv struct {
	userID   uuid.UUID
	listID   uuid.UUID
	itemRepo *stubItemRepo
	listRepo *stubListRepo
	queue    *stubQueueRepo
	store    *stubCoverStore
	handler  http.Handler
}

func newTestEnv(t *testing.T, scraped domain.ItemData) *testEnv {
	t.Helper()

	env := &testEnv{
		userID:   uuid.New(),
		listID:   uuid.New(),
		itemRepo: &stubItemRepo{},
		queue:    &stubQueueRepo{},
		store:    &stubCoverStore{},
	}
	env.listRepo = &stubListRepo{
		lists: map[uuid.UUID]*domain.List{
			env.listID: {ID: env.listID, UserID: env.userID, Title: "Reading"},
		},
	}

	logger := createTestLogger()
	handler := NewItemsHandler(logger, &stubScraper{data: scraped}, env.itemRepo, env.listRepo, env.queue, env.store)
	auth := middleware.NewTokenAuth(&stubTokenRepo{users: map[string]uuid.UUID{"valid-token": env.userID}}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/items/scrape", handler.ScrapeItem)
	mux.HandleFunc("GET /api/v1/lists/{id}/items", handler.GetListItems)
	env.handler = auth.Middleware(mux)

	return env
}

func (env *testEnv) scrapeRequest(t *testing.T, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/items/scrape", bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestScrapeItemSuccess(t *testing.T) {
	cover := "https://example.com/cover.jpg"
	env := newTestEnv(t, domain.ItemData{
		URL:           "https://open.spotify.com/album/abc",
		Title:         "Currents",
		Creator:       "Tame Impala",
		CoverImageURL: cover,
		Type:          domain.TypeAlbum,
		Source:        domain.SourceSpotify,
	})

	rec := env.scrapeRequest(t, "valid-token", ScrapeRequest{
		URL:    "https://open.spotify.com/album/abc?si=x",
		ListID: env.listID.String(),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ScrapeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Success = false")
	}
	if resp.Item.Title != "Currents" {
		t.Errorf("Title = %q", resp.Item.Title)
	}
	if resp.Item.Creator == nil || *resp.Item.Creator != "Tame Impala" {
		t.Errorf("Creator = %v", resp.Item.Creator)
	}

	// Cover re-hosted inline onto our storage
	if resp.Item.CoverImageURL == nil || *resp.Item.CoverImageURL != "https://store.example.com/object/public/covers/"+resp.Item.ID.String()+".jpg" {
		t.Errorf("CoverImageURL = %v, want re-hosted URL", resp.Item.CoverImageURL)
	}
	if len(env.store.copied) != 1 || env.store.copied[0] != cover {
		t.Errorf("copied = %v", env.store.copied)
	}

	if len(env.itemRepo.created) != 1 {
		t.Fatalf("created %d items", len(env.itemRepo.created))
	}
	if len(env.listRepo.inserted) != 1 || env.listRepo.inserted[0][0] != env.listID {
		t.Errorf("inserted = %v", env.listRepo.inserted)
	}
}

func TestScrapeItemCoverRehostFailureQueuesRetry(t *testing.T) {
	env := newTestEnv(t, domain.ItemData{
		URL:           "https://example.com/page",
		Title:         "Page",
		CoverImageURL: "https://example.com/cover.jpg",
		Type:          domain.TypeLink,
		Source:        "example.com",
	})
	env.store.copyErr = fmt.Errorf("download failed")

	rec := env.scrapeRequest(t, "valid-token", ScrapeRequest{
		URL:    "https://example.com/page",
		ListID: env.listID.String(),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp ScrapeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// Item keeps the remote URL and a retry job is queued
	if resp.Item.CoverImageURL == nil || *resp.Item.CoverImageURL != "https://example.com/cover.jpg" {
		t.Errorf("CoverImageURL = %v, want remote URL kept", resp.Item.CoverImageURL)
	}
	if len(env.queue.enqueued) != 1 || env.queue.enqueued[0] != domain.JobTypeRehostCover {
		t.Errorf("enqueued = %v, want rehost job", env.queue.enqueued)
	}
}

func TestScrapeItemScreenshotUploaded(t *testing.T) {
	env := newTestEnv(t, domain.ItemData{
		URL:        "https://example.com/page",
		Title:      "Page",
		Type:       domain.TypeLink,
		Source:     "example.com",
		Screenshot: []byte("png-bytes"),
	})

	rec := env.scrapeRequest(t, "valid-token", ScrapeRequest{
		URL:    "https://example.com/page",
		ListID: env.listID.String(),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp ScrapeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(env.store.puts) != 1 || env.store.puts[0] != resp.Item.ID.String()+".png" {
		t.Errorf("puts = %v, want screenshot upload", env.store.puts)
	}
	if resp.Item.CoverImageURL == nil {
		t.Error("CoverImageURL = nil, want stored screenshot URL")
	}
}

func TestScrapeItemAuthErrors(t *testing.T) {
	env := newTestEnv(t, domain.ItemData{Title: "x"})

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid token", "wrong-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.scrapeRequest(t, tt.token, ScrapeRequest{
				URL:    "https://example.com",
				ListID: env.listID.String(),
			})
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestScrapeItemValidationErrors(t *testing.T) {
	env := newTestEnv(t, domain.ItemData{Title: "x"})

	tests := []struct {
		name       string
		body       ScrapeRequest
		wantStatus int
	}{
		{"missing url", ScrapeRequest{ListID: env.listID.String()}, http.StatusBadRequest},
		{"missing list_id", ScrapeRequest{URL: "https://example.com"}, http.StatusBadRequest},
		{"malformed list_id", ScrapeRequest{URL: "https://example.com", ListID: "nope"}, http.StatusBadRequest},
		{"unknown list", ScrapeRequest{URL: "https://example.com", ListID: uuid.New().String()}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.scrapeRequest(t, "valid-token", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestErrorResponsesAreJSON(t *testing.T) {
	env := newTestEnv(t, domain.ItemData{Title: "x"})

	tests := []struct {
		name       string
		token      string
		body       ScrapeRequest
		wantStatus int
		wantError  string
	}{
		{"missing fields", "valid-token", ScrapeRequest{}, http.StatusBadRequest, "url and list_id are required"},
		{"unknown list", "valid-token", ScrapeRequest{URL: "https://example.com", ListID: uuid.New().String()}, http.StatusNotFound, "List not found"},
		{"invalid token", "bad-token", ScrapeRequest{URL: "https://example.com", ListID: env.listID.String()}, http.StatusUnauthorized, "Unauthorized - invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.scrapeRequest(t, tt.token, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			var resp struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("body is not JSON: %v (body = %s)", err, rec.Body.String())
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestScrapeItemForbiddenForOtherUsersList(t *testing.T) {
	env := newTestEnv(t, domain.ItemData{Title: "x"})

	otherList := uuid.New()
	env.listRepo.lists[otherList] = &domain.List{ID: otherList, UserID: uuid.New(), Title: "Not yours"}

	rec := env.scrapeRequest(t, "valid-token", ScrapeRequest{
		URL:    "https://example.com",
		ListID: otherList.String(),
	})

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestScrapeItemSaveFailure(t *testing.T) {
	env := newTestEnv(t, domain.ItemData{Title: "x", URL: "https://example.com"})
	env.itemRepo.createErr = fmt.Errorf("db down")

	rec := env.scrapeRequest(t, "valid-token", ScrapeRequest{
		URL:    "https://example.com",
		ListID: env.listID.String(),
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestGetListItemsPagination(t *testing.T) {
	env := newTestEnv(t, domain.ItemData{})

	// Memberships are added after their items are created, so the two
	// timestamps differ. The cursor has to track added_at.
	now := time.Now()
	for i := 0; i < 3; i++ {
		addedAt := now.Add(-time.Duration(i) * time.Minute)
		env.itemRepo.listItems = append(env.itemRepo.listItems, &domain.Item{
			ID:        uuid.New(),
			Title:     fmt.Sprintf("Item %d", i),
			CreatedAt: addedAt.Add(-time.Second),
			AddedAt:   &addedAt,
		})
	}

	req := httptest.NewRequest("GET", "/api/v1/lists/"+env.listID.String()+"/items?limit=2", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ItemsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("got %d items, want 2", len(resp.Items))
	}
	if !resp.HasMore {
		t.Error("HasMore = false, want true")
	}
	if resp.Cursor == nil {
		t.Fatal("Cursor = nil, want next cursor")
	}
	wantCursor := env.itemRepo.listItems[1].AddedAt.Format(time.RFC3339)
	if *resp.Cursor != wantCursor {
		t.Errorf("Cursor = %s, want membership added_at %s", *resp.Cursor, wantCursor)
	}
	if env.itemRepo.listByList != env.listID {
		t.Errorf("queried list = %s, want %s", env.itemRepo.listByList, env.listID)
	}
}
