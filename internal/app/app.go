package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnrirwin/smartnews/internal/assistant"
	"github.com/johnrirwin/smartnews/internal/auth"
	"github.com/johnrirwin/smartnews/internal/cache"
	"github.com/johnrirwin/smartnews/internal/config"
	"github.com/johnrirwin/smartnews/internal/database"
	"github.com/johnrirwin/smartnews/internal/factcheck"
	"github.com/johnrirwin/smartnews/internal/feed"
	"github.com/johnrirwin/smartnews/internal/grounded"
	"github.com/johnrirwin/smartnews/internal/headlines"
	"github.com/johnrirwin/smartnews/internal/httpapi"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/mcp"
	"github.com/johnrirwin/smartnews/internal/models"
	"github.com/johnrirwin/smartnews/internal/profile"
	"github.com/johnrirwin/smartnews/internal/ratelimit"
	"github.com/johnrirwin/smartnews/internal/tagging"
)

// ErrOffline is returned by every grounded query when no API key is configured.
var ErrOffline = errors.New("grounded model not configured: set GEMINI_API_KEY")

// App holds all application dependencies
type App struct {
	Config      *config.Config
	Logger      *logging.Logger
	Cache       cache.Cache
	Grounded    grounded.Client
	Profiles    *profile.Service
	Feed        *feed.Service
	FactCheck   *factcheck.Service
	Assistant   *assistant.Service
	Chat        *assistant.Sessions
	Headlines   *headlines.Aggregator
	AuthService *auth.Service
	HTTPServer  *httpapi.Server
	MCPServer   *mcp.Server

	db             *database.DB
	redisClient    *redis.Client
	ownsRedis      bool
	refreshLimiter ratelimit.RateLimiter
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	app.Logger = logging.New(logging.ParseLevel(cfg.Logging.Level))
	app.Cache = app.initCache()

	client, err := app.initGrounded()
	if err != nil {
		return nil, err
	}
	app.Grounded = client

	tagger := tagging.New()

	if cfg.Headlines.Enabled {
		limiter := ratelimit.New(cfg.Headlines.RateLimit)
		app.Headlines = headlines.New(app.initFetchers(limiter), app.Cache, tagger, app.Logger)
	}

	app.Profiles = profile.NewService(app.initProfileStore(), models.DefaultProfile(), app.Logger)

	feedOpts := []feed.Option{
		feed.WithTagger(tagger),
		feed.WithStore(feed.NewStore(app.Cache, cfg.Cache.TTL)),
	}
	if app.Headlines != nil {
		feedOpts = append(feedOpts, feed.WithHeadlines(app.Headlines))
	}
	app.Feed = feed.NewService(client, app.Logger, feedOpts...)
	app.FactCheck = factcheck.NewService(client, app.Logger)
	app.Assistant = assistant.NewService(client, app.Logger)

	app.Chat, err = assistant.NewSessions(cfg.Server.MaxChatSessions, app.Assistant)
	if err != nil {
		return nil, err
	}

	app.AuthService = auth.NewService(cfg.Auth, app.Logger)

	app.initServers()

	return app, nil
}

// Run starts the application in the appropriate mode
func (a *App) Run(ctx context.Context) error {
	if a.Headlines != nil {
		go a.Headlines.Run(ctx, a.Config.Headlines.RefreshInterval)
	}

	if a.Config.Server.MCPMode {
		return a.runMCPMode(ctx)
	}
	return a.runHTTPMode(ctx)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error("Database close error", logging.WithField("error", err.Error()))
		}
	}

	switch c := a.Cache.(type) {
	case *cache.RedisCache:
		if err := c.Close(); err != nil {
			a.Logger.Error("Redis close error", logging.WithField("error", err.Error()))
		}
	case *cache.MemoryCache:
		c.Stop()
	}

	if a.ownsRedis && a.redisClient != nil {
		_ = a.redisClient.Close()
	}

	_ = a.Logger.Sync()
	return nil
}

func (a *App) initCache() cache.Cache {
	refreshEvery := a.Config.Server.RefreshInterval

	switch a.Config.Cache.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr:   a.Config.Cache.RedisAddr,
			Prefix: cache.DefaultRedisPrefix,
			Logger: a.Logger,
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			a.refreshLimiter = ratelimit.New(refreshEvery)
			return cache.NewMemory(a.Config.Cache.TTL)
		}
		// Use Redis for distributed rate limiting when available
		a.redisClient = redisCache.Client()
		a.refreshLimiter = ratelimit.NewRedis(a.redisClient, "ratelimit:refresh:", refreshEvery)
		a.Logger.Info("Using Redis for distributed rate limiting")
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
		a.refreshLimiter = ratelimit.New(refreshEvery)
		return cache.NewMemory(a.Config.Cache.TTL)
	}
}

// initGrounded builds the Gemini client. Without an API key every query
// fails and each operation serves its fallback.
func (a *App) initGrounded() (grounded.Client, error) {
	ai := a.Config.AI
	if ai.APIKey == "" {
		a.Logger.Warn("GEMINI_API_KEY not set, AI features will return fallbacks")
		return &grounded.Mock{Err: ErrOffline}, nil
	}

	var throttle grounded.Throttle
	if ai.MinInterval > 0 {
		throttle = ratelimit.New(ai.MinInterval)
	}

	client, err := grounded.NewGenAIClient(context.Background(), grounded.Options{
		APIKey:        ai.APIKey,
		Model:         ai.Model,
		Timeout:       ai.Timeout,
		MaxRetries:    ai.MaxRetries,
		RetryInterval: ai.RetryInterval,
		Throttle:      throttle,
		Logger:        a.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init grounded client: %w", err)
	}

	a.Logger.Info("Grounded model ready", logging.WithFields(map[string]interface{}{
		"model":         client.Model(),
		"maxRetries":    ai.MaxRetries,
		"requestBudget": ai.RequestBudget().String(),
	}))
	return client, nil
}

func (a *App) initFetchers(limiter *ratelimit.Limiter) []headlines.Fetcher {
	fetcherConfig := headlines.DefaultConfig()

	// Try to load feeds from config file
	configPath := headlines.FindFeedsConfig(a.Config.Headlines.FeedsConfigPath)
	if configPath != "" {
		feedsConfig, err := headlines.LoadFeedsConfig(configPath)
		if err != nil {
			a.Logger.Warn("Failed to load feeds config, using defaults", logging.WithFields(map[string]interface{}{
				"path":  configPath,
				"error": err.Error(),
			}))
		} else {
			a.Logger.Info("Loaded feeds configuration", logging.WithFields(map[string]interface{}{
				"path":    configPath,
				"sources": len(feedsConfig.Sources),
			}))
			return headlines.CreateFetchersFromConfig(feedsConfig, limiter, fetcherConfig)
		}
	} else {
		a.Logger.Info("No feeds config found, using default sources")
	}

	return headlines.CreateFetchersFromConfig(headlines.GetDefaultFeedsConfig(), limiter, fetcherConfig)
}

// initProfileStore picks the configured backend, falling back to memory
// when it is unreachable.
func (a *App) initProfileStore() profile.Store {
	switch a.Config.Profile.Store {
	case "postgres":
		if store, err := a.initPostgresProfiles(); err != nil {
			a.Logger.Warn("Failed to use PostgreSQL for profiles, using in-memory store", logging.WithField("error", err.Error()))
		} else {
			a.Logger.Info("Using PostgreSQL profile store")
			return store
		}
	case "redis":
		if client, err := a.redis(); err != nil {
			a.Logger.Warn("Failed to use Redis for profiles, using in-memory store", logging.WithField("error", err.Error()))
		} else {
			a.Logger.Info("Using Redis profile store")
			return profile.NewRedisStore(client, profile.DefaultRedisPrefix, 0)
		}
	}

	a.Logger.Info("Using in-memory profile store")
	return profile.NewMemoryStore()
}

func (a *App) initPostgresProfiles() (*database.ProfileStore, error) {
	dbConfig := database.DefaultConfig()
	dbConfig.Host = a.Config.Database.Host
	dbConfig.Port = a.Config.Database.Port
	dbConfig.User = a.Config.Database.User
	dbConfig.Password = a.Config.Database.Password
	dbConfig.Database = a.Config.Database.Database
	dbConfig.SSLMode = a.Config.Database.SSLMode

	db, err := database.New(dbConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a.db = db
	return database.NewProfileStore(db), nil
}

// redis returns the cache's client, or dials one when the cache is in memory.
func (a *App) redis() (*redis.Client, error) {
	if a.redisClient != nil {
		return a.redisClient, nil
	}

	client := redis.NewClient(&redis.Options{Addr: a.Config.Cache.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	a.redisClient = client
	a.ownsRedis = true
	return client, nil
}

func (a *App) initServers() {
	a.HTTPServer = httpapi.New(httpapi.Services{
		Auth:           a.AuthService,
		Profiles:       a.Profiles,
		Feed:           a.Feed,
		FactCheck:      a.FactCheck,
		Chat:           a.Chat,
		Headlines:      a.Headlines,
		RefreshLimiter: a.refreshLimiter,
		AIBudget:       a.Config.AI.RequestBudget(),
	}, a.Logger)

	mcpHandler := mcp.NewHandler(a.Profiles, a.Feed, a.FactCheck, a.Assistant, a.Headlines, a.Logger)
	a.MCPServer = mcp.NewServer(mcpHandler, a.Logger)
}

func (a *App) runMCPMode(ctx context.Context) error {
	a.Logger.Info("Starting MCP server in stdio mode")
	return a.MCPServer.Run(ctx)
}

func (a *App) runHTTPMode(ctx context.Context) error {
	a.Logger.Info("Starting HTTP server", logging.WithField("addr", a.Config.Server.HTTPAddr))

	err := a.HTTPServer.Start(a.Config.Server.HTTPAddr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
