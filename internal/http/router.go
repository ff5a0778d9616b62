package http

import (
	"log/slog"
	"net/http"

	"stacks/internal/domain"
	"stacks/internal/http/handlers"
	"stacks/internal/http/middleware"
)

type Router struct {
	mux           *http.ServeMux
	auth          *middleware.TokenAuth
	healthHandler *handlers.HealthHandler
	itemsHandler  *handlers.ItemsHandler
}

func NewRouter(
	logger *slog.Logger,
	scraper handlers.ItemScraper,
	itemRepo domain.ItemRepository,
	listRepo domain.ListRepository,
	tokenRepo domain.TokenRepository,
	queueRepo domain.QueueRepository,
	store handlers.CoverStore,
) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		auth:          middleware.NewTokenAuth(tokenRepo, logger),
		healthHandler: handlers.NewHealthHandler(logger),
		itemsHandler:  handlers.NewItemsHandler(logger, scraper, itemRepo, listRepo, queueRepo, store),
	}
}

func (r *Router) SetupRoutes() http.Handler {
	// Health check
	r.mux.HandleFunc("GET /health", r.healthHandler.HandleHealth)

	// API v1 routes - all authenticated
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/items/scrape", r.itemsHandler.ScrapeItem)
	api.HandleFunc("GET /api/v1/lists/{id}/items", r.itemsHandler.GetListItems)
	r.mux.Handle("/api/v1/", r.auth.Middleware(api))

	return middleware.CORS(r.mux)
}
