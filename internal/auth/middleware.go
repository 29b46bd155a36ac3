package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is a type for context keys
type contextKey string

const (
	// ReaderIDKey is the context key for the reader ID
	ReaderIDKey contextKey = "readerId"
)

// Middleware provides authentication middleware for HTTP handlers
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{authService: authService}
}

// RequireAuth is middleware that requires a valid JWT token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
			return
		}

		readerID, err := m.authService.ValidateAccessToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(WithReaderID(r.Context(), readerID)))
	}
}

// OptionalAuth validates a token if present. Requests without a valid
// token act as the default reader.
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readerID := DefaultReaderID
		if token := extractToken(r); token != "" {
			if id, err := m.authService.ValidateAccessToken(token); err == nil {
				readerID = id
			}
		}
		next(w, r.WithContext(WithReaderID(r.Context(), readerID)))
	}
}

// WithReaderID returns a copy of ctx carrying readerID.
func WithReaderID(ctx context.Context, readerID string) context.Context {
	return context.WithValue(ctx, ReaderIDKey, readerID)
}

// GetReaderID extracts the reader ID from the request context, falling
// back to the default reader.
func GetReaderID(ctx context.Context) string {
	if readerID, _ := ctx.Value(ReaderIDKey).(string); readerID != "" {
		return readerID
	}
	return DefaultReaderID
}

// extractToken extracts the JWT token from the Authorization header or query parameter
func extractToken(r *http.Request) string {
	// First check Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// Fall back to query parameter (for EventSource style clients)
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}
