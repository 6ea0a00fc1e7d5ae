package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// ConfigData mirrors Config for template-based generation. It is loaded
// from JSON so deployment tooling can feed it.
type ConfigData struct {
	Server   ServerConfigData   `json:"server"`
	Database DatabaseConfigData `json:"database"`
	OAuth    OAuthConfigData    `json:"oauth"`
	Session  SessionConfigData  `json:"session"`
}

// ServerConfigData holds server settings for generation.
type ServerConfigData struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	LogLevel     string `json:"log_level"`
	LogFormat    string `json:"log_format"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
	IdleTimeout  string `json:"idle_timeout"`
	TemplatesDir string `json:"templates_dir"`
}

// DatabaseConfigData holds database settings for generation.
type DatabaseConfigData struct {
	Host                  string `json:"host"`
	Port                  int    `json:"port"`
	Name                  string `json:"name"`
	User                  string `json:"user"`
	Password              string `json:"password"`
	SSLMode               string `json:"ssl_mode"`
	MaxOpenConnections    int    `json:"max_open_connections"`
	MaxIdleConnections    int    `json:"max_idle_connections"`
	ConnectionMaxLifetime string `json:"connection_max_lifetime"`
}

// OAuthConfigData holds identity-provider settings for generation.
type OAuthConfigData struct {
	IssuerURL    string `json:"issuer_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	SelfURL      string `json:"self_url"`
}

// SessionConfigData holds session settings for generation.
type SessionConfigData struct {
	TTL           string `json:"ttl"`
	CacheCapacity int    `json:"cache_capacity"`
	Secure        bool   `json:"secure"`
}

// GenerateConfig renders an HCL config from a template and a data struct.
func GenerateConfig(templatePath, outputPath string, data ConfigData) error {
	templateContent, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	tmpl, err := template.New("config").Funcs(template.FuncMap{
		"default": func(defaultValue, value interface{}) interface{} {
			if value == nil || value == "" || value == 0 {
				return defaultValue
			}
			return value
		},
	}).Parse(string(templateContent))
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadConfigData loads generation data from a JSON file.
func LoadConfigData(dataPath string) (*ConfigData, error) {
	content, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data file: %w", err)
	}

	var data ConfigData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	return &data, nil
}

// GetDefaultConfigData returns default generation data for local
// development.
func GetDefaultConfigData() ConfigData {
	return ConfigData{
		Server: ServerConfigData{
			Host:         "localhost",
			Port:         8080,
			Environment:  "development",
			LogLevel:     "info",
			LogFormat:    "text",
			ReadTimeout:  "30s",
			WriteTimeout: "30s",
			IdleTimeout:  "120s",
			TemplatesDir: "templates",
		},
		Database: DatabaseConfigData{
			Host:                  "localhost",
			Port:                  5432,
			Name:                  "vinylshelf",
			User:                  "vinylshelf",
			Password:              "",
			SSLMode:               "disable",
			MaxOpenConnections:    25,
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: "5m",
		},
		OAuth: OAuthConfigData{
			IssuerURL:    "",
			ClientID:     "",
			ClientSecret: "",
			SelfURL:      "http://localhost:8080",
		},
		Session: SessionConfigData{
			TTL:           "168h",
			CacheCapacity: 1000,
			Secure:        false,
		},
	}
}
