package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

// generateConfigWithVars renders an HCL config template, substituting
// {{var "name" default required}} tags from the given variable map.
func generateConfigWithVars(templatePath, outputPath string, vars map[string]interface{}) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	processedContent := processVarTags(string(content), vars)

	tmpl, err := template.New("config").Parse(processedContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
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

// processVarTags resolves {{var "name" default_value required}} tags.
func processVarTags(content string, vars map[string]interface{}) string {
	varRegex := regexp.MustCompile(`\{\{var\s+"([^"]+)"\s+([^\s}]+)\s+(true|false)\s*\}\}`)

	return varRegex.ReplaceAllStringFunc(content, func(match string) string {
		matches := varRegex.FindStringSubmatch(match)
		if len(matches) != 4 {
			return match
		}

		varName := matches[1]
		defaultValue := matches[2]
		required := matches[3] == "true"

		if value, exists := vars[varName]; exists {
			return formatValue(value)
		}

		if required && (defaultValue == "" || defaultValue == `""`) {
			return `"REQUIRED_VALUE_NOT_SET"`
		}

		return formatValue(parseDefaultValue(defaultValue))
	})
}

// formatValue renders a variable value as an HCL literal.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf(`"%s"`, v)
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%f", v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf(`"%v"`, v)
	}
}

// parseDefaultValue interprets a default value token from the template.
func parseDefaultValue(defaultValue string) interface{} {
	if strings.HasPrefix(defaultValue, `"`) && strings.HasSuffix(defaultValue, `"`) {
		return strings.Trim(defaultValue, `"`)
	}

	if intVal, err := strconv.Atoi(defaultValue); err == nil {
		return intVal
	}

	if boolVal, err := strconv.ParseBool(defaultValue); err == nil {
		return boolVal
	}

	return defaultValue
}
