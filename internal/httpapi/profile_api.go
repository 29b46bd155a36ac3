package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/johnrirwin/smartnews/internal/auth"
	"github.com/johnrirwin/smartnews/internal/feed"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/models"
	"github.com/johnrirwin/smartnews/internal/profile"
)

// ProfileAPI serves the reader profile and records reads.
type ProfileAPI struct {
	profiles       *profile.Service
	snapshots      *feed.Store
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewProfileAPI creates a new profile API handler
func NewProfileAPI(profiles *profile.Service, snapshots *feed.Store, authMiddleware *auth.Middleware, logger *logging.Logger) *ProfileAPI {
	return &ProfileAPI{
		profiles:       profiles,
		snapshots:      snapshots,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers profile routes on the given mux
func (api *ProfileAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/profile", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleGetProfile)))
	mux.HandleFunc("/api/profile/read", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleRecordRead)))
}

func (api *ProfileAPI) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	readerID := auth.GetReaderID(r.Context())
	p, err := api.profiles.Get(ctx, readerID)
	if err != nil {
		api.logger.Warn("Serving default profile", logging.WithFields(map[string]interface{}{
			"readerId": readerID,
			"error":    err.Error(),
		}))
	}

	writeJSON(w, http.StatusOK, p)
}

type recordReadRequest struct {
	ArticleID string `json:"articleId"`
	Title     string `json:"title"`
	Category  string `json:"category"`
}

func (api *ProfileAPI) handleRecordRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req recordReadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.ArticleID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "articleId is required")
		return
	}

	readerID := auth.GetReaderID(r.Context())
	entry := models.ReadingEntry{ArticleID: req.ArticleID, Title: req.Title}
	entry.Category, _ = models.ParseCategory(req.Category)

	// The snapshot is authoritative for title and category when the
	// article came from this reader's feed.
	if api.snapshots != nil {
		if article, ok := api.snapshots.Article(readerID, req.ArticleID); ok {
			entry.Title = article.Title
			entry.Category = article.Category
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := api.profiles.RecordRead(ctx, readerID, entry)
	if err != nil {
		api.logger.Error("Failed to record read", logging.WithFields(map[string]interface{}{
			"readerId":  readerID,
			"articleId": req.ArticleID,
			"error":     err.Error(),
		}))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to record read")
		return
	}

	writeJSON(w, http.StatusOK, p)
}
