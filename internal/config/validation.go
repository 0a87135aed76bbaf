package config

import (
	"fmt"
	"strings"
)

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if config.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch config: debounce_ms must not be negative")
	}

	for name, widget := range config.Widgets {
		if err := validateWidgetConfig(widget); err != nil {
			return fmt.Errorf("widget %q: %w", name, err)
		}
	}

	if err := validateProvidersConfig(&config.Providers); err != nil {
		return fmt.Errorf("providers config: %w", err)
	}

	return nil
}

func validateServerConfig(config *ServerConfig) error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

func validateLoggingConfig(config *LoggingConfig) error {
	switch config.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("format must be \"text\" or \"json\", got %q", config.Format)
	}
	return nil
}

func validateWidgetConfig(widget WidgetConfig) error {
	if widget.Template == "" && widget.TemplateFile == "" {
		return fmt.Errorf("needs either template or template_file")
	}
	if widget.Template != "" && widget.TemplateFile != "" {
		return fmt.Errorf("template and template_file are mutually exclusive")
	}

	if widget.TemplateFile != "" && strings.Contains(widget.TemplateFile, "..") {
		return fmt.Errorf("template_file contains path traversal: %s", widget.TemplateFile)
	}

	for _, provider := range widget.Providers {
		if strings.TrimSpace(provider) == "" {
			return fmt.Errorf("provider names must not be empty")
		}
	}

	return nil
}

func validateProvidersConfig(config *ProvidersConfig) error {
	for name, interval := range config.RefreshMS {
		if interval <= 0 {
			return fmt.Errorf("refresh_ms for %q must be positive, got %d", name, interval)
		}
	}

	switch config.Weather.Unit {
	case "", "celsius", "fahrenheit":
	default:
		return fmt.Errorf("weather unit must be \"celsius\" or \"fahrenheit\", got %q", config.Weather.Unit)
	}

	if (config.Weather.Latitude == nil) != (config.Weather.Longitude == nil) {
		return fmt.Errorf("weather latitude and longitude must be set together")
	}
	if config.Weather.Latitude != nil {
		if *config.Weather.Latitude < -90 || *config.Weather.Latitude > 90 {
			return fmt.Errorf("weather latitude %v is out of range", *config.Weather.Latitude)
		}
		if *config.Weather.Longitude < -180 || *config.Weather.Longitude > 180 {
			return fmt.Errorf("weather longitude %v is out of range", *config.Weather.Longitude)
		}
	}

	return nil
}
