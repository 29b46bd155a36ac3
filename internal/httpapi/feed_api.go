package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/johnrirwin/smartnews/internal/auth"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/models"
)

// FeedAPI serves the personalized feed, verification, insights and the
// wire headlines.
type FeedAPI struct {
	svc            Services
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewFeedAPI creates a new feed API handler
func NewFeedAPI(svc Services, authMiddleware *auth.Middleware, logger *logging.Logger) *FeedAPI {
	return &FeedAPI{
		svc:            svc,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers feed routes on the given mux
func (api *FeedAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/feed", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleGetFeed)))
	mux.HandleFunc("/api/feed/refresh", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleRefresh)))
	mux.HandleFunc("/api/verify", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleVerify)))
	mux.HandleFunc("/api/insights", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleInsights)))
	mux.HandleFunc("/api/headlines", corsMiddleware(api.handleHeadlines))
}

// handleGetFeed serves the reader's snapshot. The first request for a
// reader loads a batch.
func (api *FeedAPI) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	readerID := auth.GetReaderID(r.Context())
	filter := models.ParseFeedFilter(r.URL.Query().Get("filter"))

	if store := api.svc.Feed.Store(); store != nil {
		if resp, ok := store.Filter(readerID, filter); ok {
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, api.refresh(r.Context(), readerID, filter))
}

func (api *FeedAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	readerID := auth.GetReaderID(r.Context())
	if api.svc.RefreshLimiter != nil && !api.svc.RefreshLimiter.Allow(readerID) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "feed was refreshed moments ago, try again shortly")
		return
	}

	filter := models.ParseFeedFilter(r.URL.Query().Get("filter"))
	writeJSON(w, http.StatusOK, api.refresh(r.Context(), readerID, filter))
}

func (api *FeedAPI) refresh(ctx context.Context, readerID string, filter models.FeedFilter) models.FeedResponse {
	ctx, cancel := context.WithTimeout(ctx, api.svc.aiBudget())
	defer cancel()

	p, err := api.svc.Profiles.Get(ctx, readerID)
	if err != nil {
		api.logger.Warn("Personalizing with default profile", logging.WithFields(map[string]interface{}{
			"readerId": readerID,
			"error":    err.Error(),
		}))
	}

	resp := api.svc.Feed.Refresh(ctx, readerID, p)
	resp.Articles = filter.Apply(resp.Articles)
	resp.TotalCount = len(resp.Articles)
	return resp
}

type verifyRequest struct {
	ArticleID string          `json:"articleId"`
	Article   *models.Article `json:"article"`
}

type verifyResponse struct {
	ArticleID string                    `json:"articleId"`
	Result    models.VerificationResult `json:"result"`
}

func (api *FeedAPI) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	readerID := auth.GetReaderID(r.Context())
	store := api.svc.Feed.Store()

	var article models.Article
	switch {
	case req.ArticleID != "" && store != nil:
		found, ok := store.Article(readerID, req.ArticleID)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "article not found in current feed")
			return
		}
		article = found
	case req.Article != nil && req.Article.Title != "":
		article = *req.Article
	default:
		writeError(w, http.StatusBadRequest, "invalid_input", "articleId or article is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), api.svc.aiBudget())
	defer cancel()

	result := api.svc.FactCheck.Verify(ctx, article)
	if result.Checked() && store != nil && article.ID != "" {
		store.MarkVerified(readerID, article.ID, result.Status)
	}

	writeJSON(w, http.StatusOK, verifyResponse{ArticleID: article.ID, Result: result})
}

func (api *FeedAPI) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var insights models.Insights
	if store := api.svc.Feed.Store(); store != nil {
		insights = store.Insights(auth.GetReaderID(r.Context()))
	} else {
		insights = models.Summarize(nil)
	}
	writeJSON(w, http.StatusOK, insights)
}

func (api *FeedAPI) handleHeadlines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	limit := 30
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	items := []models.Headline{}
	sources := []models.SourceInfo{}
	if api.svc.Headlines != nil {
		items = api.svc.Headlines.Headlines(models.Region(query.Get("region")), limit)
		sources = api.svc.Headlines.Sources()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"headlines": items,
		"sources":   sources,
		"count":     len(items),
	})
}
