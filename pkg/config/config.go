package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Engine    EngineConfig    `yaml:"engine"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

// BroadcastConfig contains the observer-connection fabric's settings.
type BroadcastConfig struct {
	MaxConnectionsPerGame int           `yaml:"max_connections_per_game"`
	ReadTimeout           time.Duration `yaml:"read_timeout"`
	WriteTimeout          time.Duration `yaml:"write_timeout"`
	PingInterval          time.Duration `yaml:"ping_interval"`
	MaxMessageSize        int64         `yaml:"max_message_size"`
}

// EngineConfig contains game-engine settings: round/turn shape and the
// rules-variant toggles GameEngine.Config exposes.
type EngineConfig struct {
	MinPlayersPerGame      int           `yaml:"min_players_per_game"`
	MaxPlayersPerGame      int           `yaml:"max_players_per_game"`
	TurnTimeout            time.Duration `yaml:"turn_timeout"`
	RecallWorkersEachRound bool          `yaml:"recall_workers_each_round"`
	MaxAITurns             int           `yaml:"max_ai_turns"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type               string `yaml:"type"`
	ConnectionString   string `yaml:"connection_string"`
	MaxConnections     int    `yaml:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSize    string `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment-specific overrides
	cfg.applyEnvironmentOverrides()

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvironmentOverrides applies environment-specific settings
func (c *Config) applyEnvironmentOverrides() {
	// Override with environment variables if set
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Server.Port)
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		c.Server.Environment = env
	}

	// Apply development overrides if in development mode
	if c.Server.Environment == "development" {
		c.Logging.Level = "debug"
		c.Logging.Format = "text"
		c.Engine.TurnTimeout = 10 * time.Minute
	}
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Server.Port)
	}

	if c.Engine.MaxPlayersPerGame < c.Engine.MinPlayersPerGame {
		return fmt.Errorf("max players (%d) must be >= min players (%d)",
			c.Engine.MaxPlayersPerGame, c.Engine.MinPlayersPerGame)
	}

	if c.Broadcast.MaxConnectionsPerGame < 1 {
		return fmt.Errorf("max connections per game must be at least 1")
	}

	return nil
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}