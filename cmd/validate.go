package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenbar/lumen/internal/registry"
	"github.com/lumenbar/lumen/internal/renderer"
	"github.com/lumenbar/lumen/internal/template"
)

var validateBindingsFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check widget templates and their rendered markup",
	Long: `Compile every configured widget template and check the rendered markup
for malformed HTML (unclosed or mismatched tags).

Templates are rendered against one refresh of each provider the widget
depends on, or against a YAML bindings file (see "lumen render --bindings").

Examples:
  lumen validate
  lumen validate --bindings fixtures.yml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateBindingsFile, "bindings", "b", "", "YAML file of provider variables to render against")
	validateCmd.Flags().Duration("timeout", 10*time.Second, "Per-provider refresh timeout")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	if len(cfg.Widgets) == 0 {
		fmt.Println("No widgets configured.")
		return nil
	}

	names := make([]string, 0, len(cfg.Widgets))
	for name := range cfg.Widgets {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := registry.NewWidgetRegistry()
	rend := renderer.New(reg, registry.NewTemplateCache(), logger)

	failures := 0
	compiled := make([]string, 0, len(names))
	for _, name := range names {
		source, err := cfg.Widgets[name].TemplateSource(cfg.BaseDir())
		if err != nil {
			fmt.Printf("✗ %s: %v\n", name, err)
			failures++
			continue
		}
		if _, err := template.Compile(source); err != nil {
			fmt.Printf("✗ %s: %v\n", name, err)
			failures++
			continue
		}
		compiled = append(compiled, name)
	}

	if failures == len(names) {
		return fmt.Errorf("%d of %d widget(s) failed validation", failures, len(names))
	}

	// Render the compilable widgets and check the produced markup.
	if err := rend.LoadWidgets(cmd.Context(), cfg); err != nil {
		logger.Warn(cmd.Context(), err, "some widgets failed to load")
	}
	if validateBindingsFile != "" {
		if err := seedFromFile(rend, validateBindingsFile); err != nil {
			return err
		}
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	for _, name := range compiled {
		widget, ok := reg.Get(name)
		if !ok {
			continue
		}

		if validateBindingsFile == "" {
			if err := seedFromProviders(cmd.Context(), rend, cfg, widget.Providers, timeout); err != nil {
				fmt.Printf("? %s: compiles; markup not checked (%v)\n", name, err)
				continue
			}
		}

		markup, err := rend.RenderWidget(name)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", name, err)
			failures++
			continue
		}
		if err := renderer.ValidateMarkup(markup); err != nil {
			fmt.Printf("✗ %s: %v\n", name, err)
			failures++
			continue
		}

		fmt.Printf("✓ %s\n", name)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d widget(s) failed validation", failures, len(names))
	}
	return nil
}
