package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"stacks/internal/domain"
	"stacks/internal/http/middleware"

	"github.com/google/uuid"
)

const (
	DefaultPaginationLimit = 25
)

// ItemScraper turns a raw URL into extracted item metadata
type ItemScraper interface {
	Scrape(ctx context.Context, rawURL string) domain.ItemData
}

// CoverStore re-hosts cover images into object storage
type CoverStore interface {
	CopyFromURL(ctx context.Context, imageURL, key string) (string, error)
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type ItemsHandler struct {
	logger    *slog.Logger
	scraper   ItemScraper
	itemRepo  domain.ItemRepository
	listRepo  domain.ListRepository
	queueRepo domain.QueueRepository
	store     CoverStore
}

func NewItemsHandler(
	logger *slog.Logger,
	scraper ItemScraper,
	itemRepo domain.ItemRepository,
	listRepo domain.ListRepository,
	queueRepo domain.QueueRepository,
	store CoverStore,
) *ItemsHandler {
	return &ItemsHandler{
		logger:    logger,
		scraper:   scraper,
		itemRepo:  itemRepo,
		listRepo:  listRepo,
		queueRepo: queueRepo,
		store:     store,
	}
}

// ScrapeRequest is the body of a scrape-and-save request
type ScrapeRequest struct {
	URL    string `json:"url"`
	ListID string `json:"list_id"`
}

// ScrapeResponse wraps the saved item
type ScrapeResponse struct {
	Success bool         `json:"success"`
	Item    *domain.Item `json:"item"`
}

// ItemsResponse represents the paginated response for list items
type ItemsResponse struct {
	Items   []*domain.Item `json:"items"`
	HasMore bool           `json:"has_more"`
	Cursor  *string        `json:"cursor,omitempty"`
}

// writeJSONResponse writes a JSON response to the ResponseWriter
func (h *ItemsHandler) writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeJSONError writes the error envelope with the given status
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ScrapeItem handles POST /api/v1/items/scrape: scrape the URL, save the
// item, and link it into the caller's list at the top position.
func (h *ItemsHandler) ScrapeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.URL == "" || req.ListID == "" {
		writeJSONError(w, "url and list_id are required", http.StatusBadRequest)
		return
	}

	listID, err := uuid.Parse(req.ListID)
	if err != nil {
		writeJSONError(w, "Invalid list_id", http.StatusBadRequest)
		return
	}

	list, err := h.listRepo.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSONError(w, "List not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load list", "error", err, "list_id", listID)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if list.UserID != userID {
		h.logger.Warn("List ownership mismatch",
			"list_id", listID,
			"user_id", userID,
		)
		writeJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	data := h.scraper.Scrape(ctx, req.URL)
	item := data.ToItem()

	h.attachCover(ctx, item, data)

	if err := h.itemRepo.Create(ctx, item); err != nil {
		h.logger.Error("Failed to save item", "error", err, "url", item.URL)
		writeJSONError(w, "Failed to save item", http.StatusInternalServerError)
		return
	}

	if err := h.listRepo.InsertItemAtTop(ctx, listID, item.ID); err != nil {
		h.logger.Error("Failed to add item to list",
			"error", err,
			"list_id", listID,
			"item_id", item.ID,
		)
		writeJSONError(w, "Failed to save item", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, &ScrapeResponse{Success: true, Item: item})
}

// attachCover re-hosts the scraped cover onto our storage. Remote URLs
// are copied inline; when that fails the item keeps the remote URL and a
// background job retries later. Screenshot bytes are uploaded directly.
func (h *ItemsHandler) attachCover(ctx context.Context, item *domain.Item, data domain.ItemData) {
	if data.CoverImageURL != "" {
		storedURL, err := h.store.CopyFromURL(ctx, data.CoverImageURL, item.ID.String())
		if err != nil {
			h.logger.Warn("Inline cover re-host failed, queueing retry",
				"item_id", item.ID,
				"error", err,
			)
			if err := h.queueRepo.Enqueue(ctx, domain.JobTypeRehostCover, map[string]interface{}{
				"item_id":   item.ID.String(),
				"image_url": data.CoverImageURL,
			}); err != nil {
				h.logger.Error("Failed to enqueue cover re-host", "error", err)
			}
			return
		}
		item.CoverImageURL = &storedURL
		return
	}

	if data.Screenshot != nil {
		storedURL, err := h.store.Put(ctx, item.ID.String()+".png", "image/png", bytes.NewReader(data.Screenshot))
		if err != nil {
			h.logger.Warn("Screenshot upload failed", "item_id", item.ID, "error", err)
			return
		}
		item.CoverImageURL = &storedURL
	}
}

// GetListItems handles GET /api/v1/lists/{id}/items with cursor pagination
func (h *ItemsHandler) GetListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	listID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, "Invalid list ID", http.StatusBadRequest)
		return
	}

	list, err := h.listRepo.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSONError(w, "List not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load list", "error", err, "list_id", listID)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if list.UserID != userID {
		writeJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	limit := DefaultPaginationLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	cursor, err := parseCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeJSONError(w, "Invalid cursor", http.StatusBadRequest)
		return
	}

	// Fetch one extra to detect whether more results remain
	items, err := h.itemRepo.GetByList(ctx, listID, cursor, limit+1)
	if err != nil {
		h.logger.Error("Failed to load list items", "error", err, "list_id", listID)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, buildItemsResponse(items, limit))
}

// parseCursor parses a cursor string into a time.Time pointer
func parseCursor(cursorStr string) (*time.Time, error) {
	if cursorStr == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, cursorStr)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// buildItemsResponse creates a paginated response from domain items
func buildItemsResponse(items []*domain.Item, requestedLimit int) *ItemsResponse {
	hasMore := len(items) > requestedLimit
	if hasMore {
		items = items[:requestedLimit]
	}

	if items == nil {
		items = []*domain.Item{}
	}

	response := &ItemsResponse{
		Items:   items,
		HasMore: hasMore,
	}

	if hasMore && len(items) > 0 {
		// The cursor must match the column the next page filters on,
		// the membership added_at, not the item's created_at.
		last := items[len(items)-1]
		cursorAt := last.CreatedAt
		if last.AddedAt != nil {
			cursorAt = *last.AddedAt
		}
		cursorStr := cursorAt.Format(time.RFC3339)
		response.Cursor = &cursorStr
	}

	return response
}
