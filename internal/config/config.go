package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Auth      AuthConfig
	AI        AIConfig
	Profile   ProfileConfig
	Headlines HeadlinesConfig
}

// ServerConfig holds HTTP/MCP server configuration
type ServerConfig struct {
	HTTPAddr string
	MCPMode  bool
	// RefreshInterval is the minimum delay between manual feed refreshes
	// for one reader.
	RefreshInterval time.Duration
	MaxChatSessions int
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// AuthConfig holds reader session token configuration
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// AIConfig holds grounded model configuration. An empty APIKey puts the
// server in offline mode where every AI operation returns its fallback.
type AIConfig struct {
	APIKey        string
	Model         string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	MinInterval   time.Duration
}

// RequestBudget is how long a caller should wait for one grounded query with
// all of its retries, assuming the longest jittered backoff.
func (c AIConfig) RequestBudget() time.Duration {
	attempts := time.Duration(c.MaxRetries + 1)
	budget := attempts*(c.Timeout+c.MinInterval) + requestHeadroom

	wait := c.RetryInterval
	for i := 0; i < c.MaxRetries; i++ {
		// backoff waits at most 1.5x the current interval, capped at 8x the first
		budget += wait + wait/2
		if wait < 8*c.RetryInterval {
			wait *= 2
		}
	}
	return budget
}

// ProfileConfig selects where reader profiles live.
type ProfileConfig struct {
	Store string // "memory", "redis" or "postgres"
}

// HeadlinesConfig controls the RSS wire headline signal.
type HeadlinesConfig struct {
	Enabled         bool
	FeedsConfigPath string
	RefreshInterval time.Duration
	RateLimit       time.Duration
}

const (
	DefaultModel         = "gemini-3-flash-preview"
	DefaultAITimeout     = 30 * time.Second
	DefaultMaxRetries    = 1
	DefaultRetryInterval = 500 * time.Millisecond

	requestHeadroom = 5 * time.Second
)

// Load reads an optional .env file, then parses flags and environment
// variables to build configuration. Environment wins over flags.
func Load() *Config {
	_ = godotenv.Load()

	cfg := defaults()

	flag.StringVar(&cfg.Server.HTTPAddr, "http", cfg.Server.HTTPAddr, "HTTP server address")
	flag.BoolVar(&cfg.Server.MCPMode, "mcp", cfg.Server.MCPMode, "Run in MCP stdio mode")
	flag.DurationVar(&cfg.Server.RefreshInterval, "refresh-interval", cfg.Server.RefreshInterval, "Minimum delay between manual feed refreshes per reader")
	flag.DurationVar(&cfg.Cache.TTL, "cache-ttl", cfg.Cache.TTL, "Cache TTL for feed snapshots")
	flag.StringVar(&cfg.Cache.Backend, "cache-backend", cfg.Cache.Backend, "Cache backend: memory or redis")
	flag.StringVar(&cfg.Cache.RedisAddr, "redis-addr", cfg.Cache.RedisAddr, "Redis server address")
	flag.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.Database.Host, "db-host", cfg.Database.Host, "PostgreSQL host")
	flag.IntVar(&cfg.Database.Port, "db-port", cfg.Database.Port, "PostgreSQL port")
	flag.StringVar(&cfg.Database.User, "db-user", cfg.Database.User, "PostgreSQL user")
	flag.StringVar(&cfg.Database.Password, "db-password", cfg.Database.Password, "PostgreSQL password")
	flag.StringVar(&cfg.Database.Database, "db-name", cfg.Database.Database, "PostgreSQL database name")
	flag.StringVar(&cfg.Database.SSLMode, "db-sslmode", cfg.Database.SSLMode, "PostgreSQL SSL mode")
	flag.StringVar(&cfg.AI.Model, "ai-model", cfg.AI.Model, "Grounded model name")
	flag.StringVar(&cfg.Profile.Store, "profile-store", cfg.Profile.Store, "Profile store: memory, redis or postgres")
	flag.StringVar(&cfg.Headlines.FeedsConfigPath, "feeds-config", cfg.Headlines.FeedsConfigPath, "Path to feeds.yaml or feeds.json")

	flag.Parse()

	applyEnvOverrides(cfg)
	return cfg
}

// LoadFromEnv builds configuration from defaults, an optional .env file and
// the environment only. Commands that own their flag parsing use it.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	cfg := defaults()
	applyEnvOverrides(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			RefreshInterval: 10 * time.Second,
			MaxChatSessions: 1024,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       30 * time.Minute,
			RedisAddr: "localhost:6379",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "smartnews",
			SSLMode:  "disable",
		},
		Logging: LoggingConfig{Level: "info"},
		Auth: AuthConfig{
			JWTSecret:      "change-me-in-production",
			JWTIssuer:      "smartnews",
			JWTAudience:    "smartnews-readers",
			AccessTokenTTL: 30 * 24 * time.Hour,
		},
		AI: AIConfig{
			Model:         DefaultModel,
			Timeout:       DefaultAITimeout,
			MaxRetries:    DefaultMaxRetries,
			RetryInterval: DefaultRetryInterval,
			MinInterval:   0,
		},
		Profile: ProfileConfig{Store: "memory"},
		Headlines: HeadlinesConfig{
			Enabled:         true,
			RefreshInterval: 15 * time.Minute,
			RateLimit:       time.Second,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.HTTPAddr, "HTTP_ADDR")
	setBool(&cfg.Server.MCPMode, "MCP_MODE")
	setDuration(&cfg.Server.RefreshInterval, "REFRESH_INTERVAL")
	setInt(&cfg.Server.MaxChatSessions, "MAX_CHAT_SESSIONS")

	setDuration(&cfg.Cache.TTL, "CACHE_TTL")
	setString(&cfg.Cache.Backend, "CACHE_BACKEND")
	setString(&cfg.Cache.RedisAddr, "REDIS_ADDR")

	setString(&cfg.Logging.Level, "LOG_LEVEL")

	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Database, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")

	setString(&cfg.Auth.JWTSecret, "AUTH_JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "AUTH_JWT_ISSUER")
	setString(&cfg.Auth.JWTAudience, "AUTH_JWT_AUDIENCE")
	setDuration(&cfg.Auth.AccessTokenTTL, "AUTH_ACCESS_TOKEN_TTL")

	setString(&cfg.AI.APIKey, "GEMINI_API_KEY")
	if cfg.AI.APIKey == "" {
		setString(&cfg.AI.APIKey, "API_KEY")
	}
	setString(&cfg.AI.Model, "AI_MODEL")
	setDuration(&cfg.AI.Timeout, "AI_TIMEOUT")
	setInt(&cfg.AI.MaxRetries, "AI_MAX_RETRIES")
	setDuration(&cfg.AI.RetryInterval, "AI_RETRY_INTERVAL")
	setDuration(&cfg.AI.MinInterval, "AI_MIN_INTERVAL")

	setString(&cfg.Profile.Store, "PROFILE_STORE")
	cfg.Profile.Store = strings.ToLower(cfg.Profile.Store)

	setBool(&cfg.Headlines.Enabled, "HEADLINES_ENABLED")
	setString(&cfg.Headlines.FeedsConfigPath, "FEEDS_CONFIG_PATH")
	setDuration(&cfg.Headlines.RefreshInterval, "HEADLINES_REFRESH_INTERVAL")
	setDuration(&cfg.Headlines.RateLimit, "HEADLINES_RATE_LIMIT")

	if cfg.AI.MaxRetries < 0 {
		cfg.AI.MaxRetries = 0
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = DefaultAITimeout
	}
	if cfg.AI.RetryInterval <= 0 {
		cfg.AI.RetryInterval = DefaultRetryInterval
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1":
		*dst = true
	case "false", "0":
		*dst = false
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
