package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnrirwin/smartnews/internal/assistant"
	"github.com/johnrirwin/smartnews/internal/auth"
	"github.com/johnrirwin/smartnews/internal/factcheck"
	"github.com/johnrirwin/smartnews/internal/feed"
	"github.com/johnrirwin/smartnews/internal/headlines"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/profile"
	"github.com/johnrirwin/smartnews/internal/ratelimit"
)

// defaultAIBudget bounds a request that waits on the grounded model when
// Services.AIBudget is unset.
const defaultAIBudget = 2 * time.Minute

// Services bundles what the HTTP layer talks to. Headlines and
// RefreshLimiter are optional. AIBudget bounds a request that waits on the
// grounded model, retries included.
type Services struct {
	Auth           *auth.Service
	Profiles       *profile.Service
	Feed           *feed.Service
	FactCheck      *factcheck.Service
	Chat           *assistant.Sessions
	Headlines      *headlines.Aggregator
	RefreshLimiter ratelimit.RateLimiter
	AIBudget       time.Duration
}

func (s Services) aiBudget() time.Duration {
	if s.AIBudget > 0 {
		return s.AIBudget
	}
	return defaultAIBudget
}

type Server struct {
	svc            Services
	authMiddleware *auth.Middleware
	logger         *logging.Logger
	server         *http.Server
}

func New(svc Services, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		svc:            svc,
		authMiddleware: auth.NewMiddleware(svc.Auth),
		logger:         logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	NewSessionAPI(s.svc.Auth, s.logger).RegisterRoutes(mux, s.corsMiddleware)
	NewProfileAPI(s.svc.Profiles, s.svc.Feed.Store(), s.authMiddleware, s.logger).RegisterRoutes(mux, s.corsMiddleware)
	NewFeedAPI(s.svc, s.authMiddleware, s.logger).RegisterRoutes(mux, s.corsMiddleware)
	NewChatAPI(s.svc.Chat, s.svc.Feed.Store(), s.authMiddleware, s.svc.aiBudget(), s.logger).RegisterRoutes(mux, s.corsMiddleware)

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.svc.aiBudget() + 15*time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
