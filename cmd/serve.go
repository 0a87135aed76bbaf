package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lumenbar/lumen/internal/config"
	"github.com/lumenbar/lumen/internal/logging"
	"github.com/lumenbar/lumen/internal/providers"
	"github.com/lumenbar/lumen/internal/registry"
	"github.com/lumenbar/lumen/internal/renderer"
	"github.com/lumenbar/lumen/internal/server"
	"github.com/lumenbar/lumen/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the widget server with live updates",
	Long: `Start the widget server. Providers poll system state on their refresh
intervals, changed variables re-render the widgets that depend on them, and
updated markup is pushed to websocket clients.

When watching is enabled (the default), edits to the config file or widget
template files reload widgets without restarting the server.

Examples:
  lumen serve                     # Serve widgets from .lumen.yml
  lumen serve --port 5000         # Override the listen port
  lumen serve --no-watch          # Disable file watching`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 4200, "Port to serve on")
	serveCmd.Flags().String("host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().Bool("no-watch", false, "Disable config and template file watching")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	noWatch, _ := cmd.Flags().GetBool("no-watch")
	watchEnabled := cfg.Watch.Enabled && !noWatch

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info(ctx, "shutting down")
		cancel()
	}()

	reg := registry.NewWidgetRegistry()
	cache := registry.NewTemplateCache()
	rend := renderer.New(reg, cache, logger)

	if err := rend.LoadWidgets(ctx, cfg); err != nil {
		logger.Warn(ctx, err, "some widgets failed to load")
	}
	if reg.Count() == 0 {
		logger.Warn(ctx, nil, "no widgets configured; the server will serve an empty widget list")
	}

	manager := providers.NewManager(logger, providers.Builtin(cfg)...)
	manager.Start(ctx)
	go rend.Run(ctx, manager.Outputs())

	if watchEnabled {
		fw, err := startWatcher(ctx, cfg, reg, rend, logger)
		if err != nil {
			logger.Warn(ctx, err, "file watching disabled")
		} else {
			defer fw.Stop()
		}
	}

	srv := server.New(cfg.Server, reg, rend, logger)
	fmt.Printf("Lumen serving %d widget(s) at http://%s\n", reg.Count(), srv.Addr())

	return srv.Run(ctx)
}

// startWatcher watches the config file and widget directory, reloading
// widgets on debounced changes.
func startWatcher(ctx context.Context, cfg *config.Config, reg *registry.WidgetRegistry, rend *renderer.Renderer, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.New(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, logger)
	if err != nil {
		return nil, err
	}

	fw.AddFilter(watcher.WidgetFilter)
	if err := fw.AddRecursive(cfg.BaseDir()); err != nil {
		fw.Stop()
		return nil, err
	}

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, event := range events {
			logger.Info(ctx, "file changed", "path", event.Path, "type", event.Type.String())
		}
		return reloadWidgets(ctx, reg, rend, logger)
	})

	fw.Start(ctx)
	logger.Info(ctx, "watching for changes", "dir", cfg.BaseDir())
	return fw, nil
}

// reloadWidgets re-reads the configuration and replaces the widget set.
// Widgets removed from the config are dropped from the registry.
func reloadWidgets(ctx context.Context, reg *registry.WidgetRegistry, rend *renderer.Renderer, logger logging.Logger) error {
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("re-reading config: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("reloading configuration: %w", err)
	}

	for _, widget := range reg.GetAll() {
		if _, ok := cfg.Widgets[widget.Name]; !ok {
			reg.Remove(widget.Name)
		}
	}

	if err := rend.LoadWidgets(ctx, cfg); err != nil {
		logger.Warn(ctx, err, "some widgets failed to reload")
	}
	logger.Info(ctx, "widgets reloaded", "count", reg.Count())
	return nil
}
