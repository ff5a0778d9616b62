package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"stacks/internal/domain"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenAuth authenticates requests by resolving the Bearer token to a
// user through the token repository
type TokenAuth struct {
	tokenRepo domain.TokenRepository
	logger    *slog.Logger
}

// NewTokenAuth creates a new token authentication middleware
func NewTokenAuth(tokenRepo domain.TokenRepository, logger *slog.Logger) *TokenAuth {
	return &TokenAuth{
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

// Middleware returns the authentication middleware handler
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			a.logger.Warn("Request rejected - no authorization header",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			writeJSONError(w, "Unauthorized - missing Authorization header", http.StatusUnauthorized)
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			writeJSONError(w, "Unauthorized - malformed Authorization header", http.StatusUnauthorized)
			return
		}

		userID, err := a.tokenRepo.ResolveUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.logger.Warn("Request rejected - invalid token",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeJSONError(w, "Unauthorized - invalid token", http.StatusUnauthorized)
				return
			}
			a.logger.Error("Failed to resolve token", "error", err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeJSONError writes the error envelope with the given status
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// UserID returns the authenticated user from the request context.
// The zero UUID means the request did not pass through TokenAuth.
func UserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
