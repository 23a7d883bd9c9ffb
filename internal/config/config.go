// Package config loads service configuration from a config file and
// environment variables using Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/symptom-checker-api/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/symptom-checker/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("SYMPTOM_CHECKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "90s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Model defaults; a missing API key fails validation at startup
	viper.SetDefault("model.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("model.api_key", "")
	viper.SetDefault("model.name", "llama-3.3-70b-versatile")
	viper.SetDefault("model.timeout", "60s")
	viper.SetDefault("model.rate_limit", 5)

	// MongoDB defaults; an empty URI selects the embedded SQLite store
	viper.SetDefault("mongodb.uri", "")
	viper.SetDefault("mongodb.database", "symptom_checker")
	viper.SetDefault("mongodb.collection", "history")
	viper.SetDefault("mongodb.timeout", "10s")

	// SQLite defaults
	viper.SetDefault("sqlite.path", "data/history.db")

	// Cache defaults; an empty Redis URL selects the in-process LRU cache
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.default_ttl", "1h")
	viper.SetDefault("cache.max_items", 512)

	// CORS defaults
	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	// Rate limit defaults
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_second", 10)
	viper.SetDefault("rate_limit.burst", 20)

	// Analysis defaults
	viper.SetDefault("analysis.default_disclaimer",
		"This is an automated, educational analysis and not a medical diagnosis. Consult a healthcare professional.")
	viper.SetDefault("analysis.default_urgency", "routine")
	viper.SetDefault("analysis.history_max_limit", 100)
	viper.SetDefault("analysis.history_default_limit", 50)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetModelConfig returns model endpoint configuration
func (m *Manager) GetModelConfig() *domain.ModelConfig {
	return &m.config.Model
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate model configuration
	if config.Model.BaseURL == "" {
		return fmt.Errorf("model base URL is required")
	}
	if config.Model.APIKey == "" {
		return fmt.Errorf("model API key is required")
	}
	if config.Model.Name == "" {
		return fmt.Errorf("model name is required")
	}

	// Validate storage configuration
	if config.MongoDB.URI == "" && config.SQLite.Path == "" {
		return fmt.Errorf("either a MongoDB URI or a SQLite path is required")
	}

	// Validate analysis configuration
	if config.Analysis.HistoryMaxLimit <= 0 {
		return fmt.Errorf("history max limit must be positive")
	}
	if config.Analysis.HistoryDefault <= 0 || config.Analysis.HistoryDefault > config.Analysis.HistoryMaxLimit {
		return fmt.Errorf("history default limit must be between 1 and %d", config.Analysis.HistoryMaxLimit)
	}
	if !config.Analysis.DefaultUrgency.IsValid() {
		return fmt.Errorf("invalid default urgency: %s", config.Analysis.DefaultUrgency)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
