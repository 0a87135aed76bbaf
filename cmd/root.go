// Package cmd provides the command-line interface for Lumen.
//
// Configuration is resolved from multiple sources with clear precedence:
//
//	1. Command-line flags (--config, --port, etc.)
//	2. LUMEN_CONFIG_FILE environment variable
//	3. Individual environment variables (LUMEN_SERVER_PORT, etc.)
//	4. Configuration file (.lumen.yml in the current directory)
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lumenbar/lumen/internal/config"
	"github.com/lumenbar/lumen/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "lumen",
	Short: "A reactive template engine and server for desktop status-bar widgets",
	Long: `Lumen renders status-bar widget templates against live system data.

Widget templates combine plain markup with @if/@for/@switch statements and
{{ expression }} interpolations. Built-in providers feed the templates with
system state (cpu, memory, battery, clock, host, ip, weather), and the
server pushes re-rendered markup to connected clients over a websocket.

Quick Start:
  lumen init                      Write a starter .lumen.yml and widget template
  lumen serve                     Start the widget server with live reload
  lumen render <widget>           Render a widget once and print its markup
  lumen validate                  Check widget templates and markup
  lumen providers                 List built-in data providers`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept underscores in flag names (--log_level works like --log-level).
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .lumen.yml, can also use LUMEN_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("LUMEN_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lumen")
	}

	viper.SetEnvPrefix("LUMEN")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is not an error; defaults apply.
	viper.ReadInConfig()
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// newLogger builds the process logger from the loaded configuration.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}
