// Package config provides configuration management for Lumen using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports YAML files and environment variable
// overrides with a LUMEN_ prefix. It manages server settings, widget
// definitions, provider refresh settings, and file watching options.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig            `yaml:"server" mapstructure:"server"`
	Logging   LoggingConfig           `yaml:"logging" mapstructure:"logging"`
	Watch     WatchConfig             `yaml:"watch" mapstructure:"watch"`
	Widgets   map[string]WidgetConfig `yaml:"widgets" mapstructure:"widgets"`
	Providers ProvidersConfig         `yaml:"providers" mapstructure:"providers"`

	// ConfigFile is the file the configuration was loaded from, when any.
	ConfigFile string `yaml:"-" mapstructure:"-"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type WatchConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	DebounceMS int  `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// WidgetConfig describes one widget: its template, given either inline or as
// a file path relative to the config file, and the providers whose variables
// the template renders against.
type WidgetConfig struct {
	Template     string   `yaml:"template,omitempty" mapstructure:"template"`
	TemplateFile string   `yaml:"template_file,omitempty" mapstructure:"template_file"`
	Providers    []string `yaml:"providers" mapstructure:"providers"`
}

// TemplateSource returns the widget's template text, reading the template
// file relative to baseDir when the template is not inline.
func (w WidgetConfig) TemplateSource(baseDir string) (string, error) {
	if w.Template != "" {
		return w.Template, nil
	}
	if w.TemplateFile == "" {
		return "", fmt.Errorf("widget has neither template nor template_file")
	}

	path := w.TemplateFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", w.TemplateFile, err)
	}
	return string(data), nil
}

type ProvidersConfig struct {
	// RefreshMS overrides a provider's default refresh interval, in
	// milliseconds, keyed by provider name.
	RefreshMS map[string]int `yaml:"refresh_ms,omitempty" mapstructure:"refresh_ms"`

	Weather WeatherConfig `yaml:"weather" mapstructure:"weather"`
}

type WeatherConfig struct {
	// Latitude and Longitude are pointers so an absent coordinate can be
	// told apart from zero; when absent the ip provider's approximate
	// coordinates are used instead.
	Latitude  *float64 `yaml:"latitude,omitempty" mapstructure:"latitude"`
	Longitude *float64 `yaml:"longitude,omitempty" mapstructure:"longitude"`
	Unit      string   `yaml:"unit" mapstructure:"unit"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.ConfigFile = viper.ConfigFileUsed()
	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// BaseDir returns the directory template_file paths resolve against.
func (c *Config) BaseDir() string {
	if c.ConfigFile == "" {
		return "."
	}
	return filepath.Dir(c.ConfigFile)
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "127.0.0.1"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 4200
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if !viper.IsSet("watch.enabled") {
		config.Watch.Enabled = true
	}
	if config.Watch.DebounceMS == 0 {
		config.Watch.DebounceMS = 300
	}
	if config.Providers.Weather.Unit == "" {
		config.Providers.Weather.Unit = "celsius"
	}
	if config.Widgets == nil {
		config.Widgets = make(map[string]WidgetConfig)
	}
}

// Default returns the configuration an empty config file would produce.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}
