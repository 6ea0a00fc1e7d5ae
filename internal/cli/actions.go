package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"vinylshelf/internal/build"
	"vinylshelf/internal/config"
)

// configureAction generates a config file from the HCL template.
func configureAction(c *cli.Context) error {
	templatePath := c.String("template")
	outputPath := c.String("output")
	mode := c.String("mode")

	fmt.Printf("Configuring vinylshelf\n")
	fmt.Printf("Template: %s\n", templatePath)
	fmt.Printf("Output: %s\n", outputPath)
	fmt.Printf("Mode: %s\n", mode)

	templatePathAbs := templatePath
	outputPathAbs := outputPath

	if !filepath.IsAbs(templatePath) {
		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		templatePathAbs = filepath.Join(workDir, templatePath)
	}

	if !filepath.IsAbs(outputPath) {
		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		outputPathAbs = filepath.Join(workDir, outputPath)
	}

	if _, err := os.Stat(templatePathAbs); os.IsNotExist(err) {
		return fmt.Errorf("template file does not exist: %s", templatePathAbs)
	}

	vars := getConfigVars(mode)

	if err := config.GenerateConfigFromTemplate(templatePathAbs, outputPathAbs, vars); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	fmt.Printf("Configuration generated: %s\n", outputPathAbs)
	return nil
}

// serverAction loads the config and runs the web server.
func serverAction(c *cli.Context) error {
	configPath := c.String("config")

	fmt.Printf("Starting vinylshelf\n")
	fmt.Printf("Config: %s\n", configPath)
	fmt.Printf("Version: %s\n", build.Version)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s. Run 'configure' command first", configPath)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return config.StartServer(cfg)
}

// migrateAction applies the database migrations without starting the
// server.
func migrateAction(c *cli.Context) error {
	configPath := c.String("config")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return config.RunMigrations(cfg)
}

// versionAction prints build information.
func versionAction(c *cli.Context) error {
	info := build.Info()

	fmt.Printf("vinylshelf\n")
	fmt.Printf("Version: %s\n", info["version"])
	fmt.Printf("Build Number: %s\n", info["number"])
	fmt.Printf("Git Commit: %s\n", info["git_commit"])
	fmt.Printf("Build Time: %s\n", info["build_time"])

	return nil
}

// getConfigVars collects template variables from the environment with
// mode-appropriate defaults.
func getConfigVars(mode string) map[string]interface{} {
	vars := map[string]interface{}{
		"environment": mode,
	}

	setVarFromEnv(vars, "server_host", "HOST", "localhost")
	setVarFromEnv(vars, "server_port", "PORT", 8080)
	setVarFromEnv(vars, "log_level", "LOG_LEVEL", getLogLevelForMode(mode))

	setVarFromEnv(vars, "db_host", "DB_HOST", "localhost")
	setVarFromEnv(vars, "db_port", "DB_PORT", 5432)
	setVarFromEnv(vars, "db_name", "DB_NAME", "vinylshelf")
	setVarFromEnv(vars, "db_user", "DB_USER", "vinylshelf")
	setVarFromEnv(vars, "db_password", "DB_PASSWORD", "")

	setVarFromEnv(vars, "oauth_issuer_url", "OAUTH_SERVER", "")
	setVarFromEnv(vars, "oauth_client_id", "OAUTH_CLIENT_ID", "")
	setVarFromEnv(vars, "oauth_client_secret", "OAUTH_CLIENT_SECRET", "")
	setVarFromEnv(vars, "self_url", "SELF_URL", "http://localhost:8080")

	setVarFromEnv(vars, "session_ttl", "SESSION_TTL", "168h")

	return vars
}

// setVarFromEnv takes the value from the environment or falls back to the
// default.
func setVarFromEnv(vars map[string]interface{}, key, envKey string, defaultValue interface{}) {
	if envValue := os.Getenv(envKey); envValue != "" {
		vars[key] = envValue
	} else {
		vars[key] = defaultValue
	}
}

// getLogLevelForMode maps a configuration mode to a log level.
func getLogLevelForMode(mode string) string {
	switch mode {
	case "production":
		return "warn"
	case "staging":
		return "info"
	default:
		return "debug"
	}
}
