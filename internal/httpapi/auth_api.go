package httpapi

import (
	"net/http"

	"github.com/johnrirwin/smartnews/internal/auth"
	"github.com/johnrirwin/smartnews/internal/logging"
)

// SessionAPI hands out anonymous reader tokens.
type SessionAPI struct {
	authService *auth.Service
	logger      *logging.Logger
}

// NewSessionAPI creates a new session API handler
func NewSessionAPI(authService *auth.Service, logger *logging.Logger) *SessionAPI {
	return &SessionAPI{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers session routes on the given mux
func (api *SessionAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/session", corsMiddleware(api.handleSession))
}

func (api *SessionAPI) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var params struct {
		ReaderToken string `json:"readerToken"`
	}
	if err := decodeBody(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	// A still valid token is renewed so the reader keeps its profile.
	if params.ReaderToken != "" {
		if readerID, err := api.authService.ValidateAccessToken(params.ReaderToken); err == nil {
			token, err := api.authService.RenewReaderToken(readerID)
			if err != nil {
				api.logger.Error("Token renewal failed", logging.WithField("error", err.Error()))
				writeError(w, http.StatusInternalServerError, "internal_error", "session renewal failed")
				return
			}
			writeJSON(w, http.StatusOK, token)
			return
		}
	}

	token, err := api.authService.IssueReaderToken()
	if err != nil {
		api.logger.Error("Token issue failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "session start failed")
		return
	}

	api.logger.Info("Reader session started", logging.WithField("readerId", token.ReaderID))
	writeJSON(w, http.StatusCreated, token)
}
