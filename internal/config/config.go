package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `hcl:"server,block"`
	Database DatabaseConfig `hcl:"database,block"`
	OAuth    OAuthConfig    `hcl:"oauth,block"`
	Session  SessionConfig  `hcl:"session,block"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string `hcl:"host"`
	Port         int    `hcl:"port"`
	Environment  string `hcl:"environment"`
	LogLevel     string `hcl:"log_level"`
	LogFormat    string `hcl:"log_format"`
	ReadTimeout  string `hcl:"read_timeout"`
	WriteTimeout string `hcl:"write_timeout"`
	IdleTimeout  string `hcl:"idle_timeout"`
	TemplatesDir string `hcl:"templates_dir"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string `hcl:"host"`
	Port                  int    `hcl:"port"`
	Name                  string `hcl:"name"`
	User                  string `hcl:"user"`
	Password              string `hcl:"password"`
	SSLMode               string `hcl:"ssl_mode"`
	MaxOpenConnections    int    `hcl:"max_open_connections"`
	MaxIdleConnections    int    `hcl:"max_idle_connections"`
	ConnectionMaxLifetime string `hcl:"connection_max_lifetime"`
}

// OAuthConfig holds the identity-provider settings. SelfURL is the
// externally visible base URL of this application; the callback redirect
// URI is derived from it.
type OAuthConfig struct {
	IssuerURL    string `hcl:"issuer_url"`
	ClientID     string `hcl:"client_id"`
	ClientSecret string `hcl:"client_secret"`
	SelfURL      string `hcl:"self_url"`
}

// SessionConfig holds the session store settings.
type SessionConfig struct {
	TTL           string `hcl:"ttl"`
	CacheCapacity int    `hcl:"cache_capacity"`
	Secure        bool   `hcl:"secure"`
}

// LoadConfig loads and validates the configuration from an HCL file.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var config Config
	if err := hclsimple.DecodeFile(configPath, nil, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.OAuth.IssuerURL == "" {
		return fmt.Errorf("oauth issuer URL is required")
	}
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth client ID is required")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth client secret is required")
	}
	if c.OAuth.SelfURL == "" {
		return fmt.Errorf("self URL is required")
	}

	if c.Session.TTL != "" {
		if _, err := time.ParseDuration(c.Session.TTL); err != nil {
			return fmt.Errorf("invalid session ttl: %w", err)
		}
	}
	if c.Session.CacheCapacity < 0 {
		return fmt.Errorf("session cache capacity must not be negative")
	}

	return nil
}

// GetAddress returns the listen address of the server.
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseDSN returns the PostgreSQL connection string.
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetSessionTTL returns the configured session lifetime, defaulting to
// seven days.
func (c *Config) GetSessionTTL() time.Duration {
	if c.Session.TTL == "" {
		return 7 * 24 * time.Hour
	}
	ttl, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return ttl
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GenerateConfigFromTemplate renders an HCL config from a template using
// the given variables.
func GenerateConfigFromTemplate(templatePath, outputPath string, vars map[string]interface{}) error {
	return generateConfigWithVars(templatePath, outputPath, vars)
}
