package domain

import "time"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Model     ModelConfig     `mapstructure:"model"`
	MongoDB   MongoDBConfig   `mapstructure:"mongodb"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Cache     CacheConfig     `mapstructure:"cache"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ModelConfig holds settings for the chat-completion endpoint. A missing
// APIKey is a startup failure, not a runtime one.
type ModelConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Name      string        `mapstructure:"name"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"` // requests per second
}

// MongoDBConfig holds settings for the primary history store. An empty URI
// selects the embedded SQLite fallback instead.
type MongoDBConfig struct {
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// SQLiteConfig holds settings for the embedded fallback history store.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds completion-cache settings. An empty RedisURL selects an
// in-process LRU cache instead.
type CacheConfig struct {
	RedisURL   string        `mapstructure:"redis_url"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	MaxItems   int           `mapstructure:"max_items"`
}

// CORSConfig holds the allowed cross-origin client addresses.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds per-client API rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerSecond int  `mapstructure:"requests_per_second"`
	Burst             int  `mapstructure:"burst"`
}

// AnalysisConfig holds analysis pipeline policy. These are explicit
// configuration rather than hidden constants so tests can override them.
type AnalysisConfig struct {
	DefaultDisclaimer string  `mapstructure:"default_disclaimer"`
	DefaultUrgency    Urgency `mapstructure:"default_urgency"`
	HistoryMaxLimit   int     `mapstructure:"history_max_limit"`
	HistoryDefault    int     `mapstructure:"history_default_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
