package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/johnrirwin/smartnews/internal/assistant"
	"github.com/johnrirwin/smartnews/internal/auth"
	"github.com/johnrirwin/smartnews/internal/feed"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/models"
)

// ChatAPI exposes assistant panels as sessions.
type ChatAPI struct {
	sessions       *assistant.Sessions
	snapshots      *feed.Store
	authMiddleware *auth.Middleware
	aiBudget       time.Duration
	logger         *logging.Logger
}

// NewChatAPI creates a new chat API handler
func NewChatAPI(sessions *assistant.Sessions, snapshots *feed.Store, authMiddleware *auth.Middleware, aiBudget time.Duration, logger *logging.Logger) *ChatAPI {
	return &ChatAPI{
		sessions:       sessions,
		snapshots:      snapshots,
		authMiddleware: authMiddleware,
		aiBudget:       aiBudget,
		logger:         logger,
	}
}

// RegisterRoutes registers chat routes on the given mux
func (api *ChatAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/chat/sessions", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleSessions)))
	mux.HandleFunc("/api/chat/sessions/", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleSessionItem)))
}

type sessionView struct {
	ID         string            `json:"id"`
	State      string            `json:"state"`
	Transcript []models.ChatTurn `json:"transcript"`
}

func viewOf(s *assistant.Session) sessionView {
	return sessionView{
		ID:         s.ID(),
		State:      s.State().String(),
		Transcript: s.Transcript(),
	}
}

func (api *ChatAPI) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := api.sessions.Open(auth.GetReaderID(r.Context()))
	writeJSON(w, http.StatusCreated, viewOf(session))
}

// handleSessionItem routes /api/chat/sessions/{id} and
// /api/chat/sessions/{id}/messages.
func (api *ChatAPI) handleSessionItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/chat/sessions/"), "/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	readerID := auth.GetReaderID(r.Context())
	if id == "" {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		api.getSession(w, id, readerID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		api.closeSession(w, id, readerID)
	case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodPost:
		api.sendMessage(w, r, id, readerID)
	case len(parts) <= 2:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown chat route")
	}
}

func (api *ChatAPI) getSession(w http.ResponseWriter, id, readerID string) {
	session, ok := api.sessions.Get(id, readerID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(session))
}

func (api *ChatAPI) closeSession(w http.ResponseWriter, id, readerID string) {
	if !api.sessions.Close(id, readerID) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendMessageRequest struct {
	Text      string `json:"text"`
	ArticleID string `json:"articleId,omitempty"`
}

type sendMessageResponse struct {
	Reply models.ChatTurn `json:"reply"`
	State string          `json:"state"`
}

func (api *ChatAPI) sendMessage(w http.ResponseWriter, r *http.Request, id, readerID string) {
	session, ok := api.sessions.Get(id, readerID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	var article *models.Article
	if req.ArticleID != "" && api.snapshots != nil {
		if a, ok := api.snapshots.Article(readerID, req.ArticleID); ok {
			article = &a
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), api.aiBudget)
	defer cancel()

	reply, err := session.Send(ctx, req.Text, article)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	case errors.Is(err, assistant.ErrBusy):
		writeError(w, http.StatusConflict, "busy", err.Error())
		return
	case err != nil:
		api.logger.Error("Chat send failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "chat failed")
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{Reply: reply, State: session.State().String()})
}
