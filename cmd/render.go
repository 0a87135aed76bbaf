package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lumenbar/lumen/internal/config"
	"github.com/lumenbar/lumen/internal/providers"
	"github.com/lumenbar/lumen/internal/registry"
	"github.com/lumenbar/lumen/internal/renderer"
)

var renderBindingsFile string

var renderCmd = &cobra.Command{
	Use:     "render <widget>",
	Aliases: []string{"r"},
	Short:   "Render a widget once and print its markup",
	Long: `Render a single widget and print the resulting markup to stdout.

By default each provider the widget depends on is refreshed once to supply
variables. With --bindings, variables are read from a YAML file instead and
no provider runs; the file maps provider names to variable maps:

  cpu:
    usage: 42.5
  memory:
    usage: 71.0

Examples:
  lumen render statusbar
  lumen render statusbar --bindings fixtures.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderBindingsFile, "bindings", "b", "", "YAML file of provider variables to render against")
	renderCmd.Flags().Duration("timeout", 10*time.Second, "Per-provider refresh timeout")
}

func runRender(cmd *cobra.Command, args []string) error {
	widgetName := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	reg := registry.NewWidgetRegistry()
	rend := renderer.New(reg, registry.NewTemplateCache(), logger)
	if err := rend.LoadWidgets(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("loading widgets: %w", err)
	}

	widget, ok := reg.Get(widgetName)
	if !ok {
		return fmt.Errorf("widget %q is not defined in the configuration", widgetName)
	}

	if renderBindingsFile != "" {
		if err := seedFromFile(rend, renderBindingsFile); err != nil {
			return err
		}
	} else {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if err := seedFromProviders(cmd.Context(), rend, cfg, widget.Providers, timeout); err != nil {
			return err
		}
	}

	markup, err := rend.RenderWidget(widgetName)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", widgetName, err)
	}

	fmt.Println(markup)
	return nil
}

func seedFromFile(rend *renderer.Renderer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading bindings file: %w", err)
	}

	var bindings map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &bindings); err != nil {
		return fmt.Errorf("parsing bindings file %s: %w", path, err)
	}

	for provider, variables := range bindings {
		rend.SetVariables(provider, variables)
	}
	return nil
}

func seedFromProviders(ctx context.Context, rend *renderer.Renderer, cfg *config.Config, names []string, timeout time.Duration) error {
	byName := make(map[string]providers.Provider)
	for _, p := range providers.Builtin(cfg) {
		byName[p.Name()] = p
	}

	for _, name := range names {
		provider, ok := byName[name]
		if !ok {
			return fmt.Errorf("unknown provider %q", name)
		}

		refreshCtx, cancel := context.WithTimeout(ctx, timeout)
		variables, err := provider.Refresh(refreshCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("refreshing provider %s: %w", name, err)
		}
		rend.SetVariables(name, variables)
	}
	return nil
}
