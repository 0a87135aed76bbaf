// Package server exposes rendered widgets over HTTP: a JSON API for widget
// state and a websocket endpoint that streams re-render updates to bar
// frontends.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/lumenbar/lumen/internal/config"
	"github.com/lumenbar/lumen/internal/logging"
	"github.com/lumenbar/lumen/internal/registry"
	"github.com/lumenbar/lumen/internal/renderer"
)

// Server serves widget state and streams updates.
type Server struct {
	cfg      config.ServerConfig
	registry *registry.WidgetRegistry
	renderer *renderer.Renderer
	logger   logging.Logger
	hub      *hub
}

// New creates a server over the given registry and renderer
func New(cfg config.ServerConfig, reg *registry.WidgetRegistry, rend *renderer.Renderer, logger logging.Logger) *Server {
	logger = logger.WithComponent("server")
	return &Server{
		cfg:      cfg,
		registry: reg,
		renderer: rend,
		logger:   logger,
		hub:      newHub(logger),
	}
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/widgets", s.handleWidgets)
	mux.HandleFunc("/api/widgets/", s.handleWidget)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Run serves HTTP and relays renderer updates to websocket clients until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	updates := s.renderer.Subscribe()
	defer s.renderer.Unsubscribe(updates)

	go s.relay(ctx, updates)

	httpServer := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()

	s.logger.Info(ctx, "server listening", "addr", s.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.hub.closeAll()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// relay converts renderer updates into websocket frames.
func (s *Server) relay(ctx context.Context, updates <-chan renderer.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.hub.broadcast(ctx, toMessage(update))
		}
	}
}

func toMessage(update renderer.Update) UpdateMessage {
	message := UpdateMessage{
		Type:      "update",
		Widget:    update.Widget,
		Markup:    update.Markup,
		Timestamp: update.Timestamp,
	}
	if update.Err != nil {
		message.Type = "error"
		message.Error = update.Err.Error()
	}
	return message
}

func (s *Server) handleWidgets(w http.ResponseWriter, r *http.Request) {
	widgets := s.registry.GetAll()

	summaries := make([]WidgetSummary, 0, len(widgets))
	for _, widget := range widgets {
		summaries = append(summaries, WidgetSummary{
			Name:      widget.Name,
			Providers: widget.Providers,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })

	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/widgets/")
	if name == "" || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}

	if _, ok := s.registry.Get(name); !ok {
		http.NotFound(w, r)
		return
	}

	markup, err := s.renderer.RenderWidget(name)
	if err != nil {
		s.logger.Error(r.Context(), err, "render failed", "widget", name)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, WidgetState{Name: name, Markup: markup})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
