package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lumenbar/lumen/internal/config"
)

var initCmd = &cobra.Command{
	Use:     "init [dir]",
	Aliases: []string{"i"},
	Short:   "Write a starter configuration and widget template",
	Long: `Create a .lumen.yml configuration file and a sample widget template.
If no directory is given, files are created in the current directory.

Examples:
  lumen init                      # Initialize in the current directory
  lumen init my-bar               # Initialize in a new directory 'my-bar'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
}

const starterTemplate = `<div class="statusbar">
  <span class="clock">{{ clock.time }}</span>
  <span class="cpu">cpu {{ cpu.usage }}%</span>
  @if (memory.usage > 90) {
    <span class="memory alert">mem {{ memory.usage }}%</span>
  } @else {
    <span class="memory">mem {{ memory.usage }}%</span>
  }
</div>
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating project directory: %w", err)
		}
	}

	cfg := config.Default()
	cfg.Widgets = map[string]config.WidgetConfig{
		"statusbar": {
			TemplateFile: filepath.Join("widgets", "statusbar.tpl"),
			Providers:    []string{"clock", "cpu", "memory"},
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	configPath := filepath.Join(dir, ".lumen.yml")
	if err := writeProjectFile(configPath, data); err != nil {
		return err
	}

	widgetDir := filepath.Join(dir, "widgets")
	if err := os.MkdirAll(widgetDir, 0o755); err != nil {
		return fmt.Errorf("creating widgets directory: %w", err)
	}
	templatePath := filepath.Join(widgetDir, "statusbar.tpl")
	if err := writeProjectFile(templatePath, []byte(starterTemplate)); err != nil {
		return err
	}

	fmt.Printf("Initialized lumen project in %s\n", dir)
	fmt.Printf("  %s\n", configPath)
	fmt.Printf("  %s\n", templatePath)
	fmt.Println("\nRun \"lumen serve\" to start the widget server.")
	return nil
}

func writeProjectFile(path string, data []byte) error {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
