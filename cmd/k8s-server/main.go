// Server entrypoint for Kubernetes: configuration comes from environment
// variables instead of an HCL file.
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"vinylshelf/internal/config"
)

func main() {
	// A .env file is optional; in-cluster the variables come from the
	// deployment spec.
	_ = godotenv.Load()

	cfg := loadConfigFromEnv()

	if err := config.StartServer(cfg); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfigFromEnv() *config.Config {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		port = 8080
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		dbPort = 5432
	}

	cacheCapacity, err := strconv.Atoi(getEnv("SESSION_CACHE_CAPACITY", "1000"))
	if err != nil {
		cacheCapacity = 1000
	}

	return &config.Config{
		Server: config.ServerConfig{
			Host:         getEnv("HOST", "0.0.0.0"),
			Port:         port,
			Environment:  getEnv("MODE", "production"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "text"),
			ReadTimeout:  getEnv("READ_TIMEOUT", "30s"),
			WriteTimeout: getEnv("WRITE_TIMEOUT", "30s"),
			IdleTimeout:  getEnv("IDLE_TIMEOUT", "120s"),
			TemplatesDir: getEnv("TEMPLATES_DIR", "templates"),
		},

		Database: config.DatabaseConfig{
			Host:                  getEnv("DB_HOST", "postgres-service"),
			Port:                  dbPort,
			Name:                  getEnv("DB_NAME", "vinylshelf"),
			User:                  getEnv("DB_USER", "vinylshelf"),
			Password:              getEnv("DB_PASSWORD", ""),
			SSLMode:               getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConnections:    10,
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: getEnv("DB_CONN_MAX_LIFETIME", "5m"),
		},

		OAuth: config.OAuthConfig{
			IssuerURL:    getEnv("OAUTH_SERVER", ""),
			ClientID:     getEnv("OAUTH_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
			SelfURL:      getEnv("SELF_URL", "http://localhost:8080"),
		},

		Session: config.SessionConfig{
			TTL:           getEnv("SESSION_TTL", "168h"),
			CacheCapacity: cacheCapacity,
			Secure:        getEnv("SESSION_SECURE", "") == "true",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
