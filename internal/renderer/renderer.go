// Package renderer drives the reactive render loop: it owns the widget
// registry and the latest provider variables, re-renders every widget
// affected by a provider emission or widget change, and publishes the
// resulting markup to subscribers.
package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumenbar/lumen/internal/config"
	"github.com/lumenbar/lumen/internal/logging"
	"github.com/lumenbar/lumen/internal/providers"
	"github.com/lumenbar/lumen/internal/registry"
	"github.com/lumenbar/lumen/internal/template"
)

// Update is one published render result. Err is set when the render failed;
// the previous markup stays on screen and the error is surfaced instead of
// silently degraded.
type Update struct {
	Widget    string
	Markup    string
	Err       error
	Timestamp time.Time
}

// Renderer re-renders widgets whenever their provider variables change.
type Renderer struct {
	registry *registry.WidgetRegistry
	cache    *registry.TemplateCache
	logger   logging.Logger

	mutex     sync.RWMutex
	variables map[string]map[string]interface{}

	subMutex    sync.Mutex
	subscribers []chan Update
}

// New creates a renderer over the given registry
func New(reg *registry.WidgetRegistry, cache *registry.TemplateCache, logger logging.Logger) *Renderer {
	return &Renderer{
		registry:  reg,
		cache:     cache,
		logger:    logger.WithComponent("renderer"),
		variables: make(map[string]map[string]interface{}),
	}
}

// LoadWidgets compiles every widget in the configuration and registers it.
// A widget that fails to compile is skipped with an error so the remaining
// widgets still come up.
func (r *Renderer) LoadWidgets(ctx context.Context, cfg *config.Config) error {
	var firstErr error

	for name, widgetCfg := range cfg.Widgets {
		if err := r.loadWidget(name, widgetCfg, cfg.BaseDir()); err != nil {
			r.logger.Error(ctx, err, "failed to load widget", "widget", name)
			if firstErr == nil {
				firstErr = fmt.Errorf("widget %q: %w", name, err)
			}
		}
	}

	return firstErr
}

func (r *Renderer) loadWidget(name string, widgetCfg config.WidgetConfig, baseDir string) error {
	source, err := widgetCfg.TemplateSource(baseDir)
	if err != nil {
		return err
	}

	tmpl, err := r.cache.Compile(source)
	if err != nil {
		return err
	}

	r.registry.Register(&registry.WidgetInfo{
		Name:      name,
		Source:    source,
		Template:  tmpl,
		Providers: widgetCfg.Providers,
		LastMod:   time.Now(),
	})
	return nil
}

// Subscribe returns a channel receiving every published update.
func (r *Renderer) Subscribe() <-chan Update {
	r.subMutex.Lock()
	defer r.subMutex.Unlock()

	ch := make(chan Update, 100)
	r.subscribers = append(r.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (r *Renderer) Unsubscribe(ch <-chan Update) {
	r.subMutex.Lock()
	defer r.subMutex.Unlock()

	for i, sub := range r.subscribers {
		if sub == ch {
			close(sub)
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			break
		}
	}
}

func (r *Renderer) publish(update Update) {
	r.subMutex.Lock()
	defer r.subMutex.Unlock()

	for _, sub := range r.subscribers {
		select {
		case sub <- update:
		default:
			// Skip if channel is full
		}
	}
}

// Run consumes provider outputs and registry events until ctx is cancelled,
// re-rendering affected widgets on every change.
func (r *Renderer) Run(ctx context.Context, outputs <-chan providers.Output) {
	events := r.registry.Watch()
	defer r.registry.UnWatch(events)

	for {
		select {
		case <-ctx.Done():
			return

		case output, ok := <-outputs:
			if !ok {
				return
			}
			r.Apply(ctx, output)

		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type != registry.EventTypeRemoved {
				r.renderWidget(ctx, event.Widget)
			}
		}
	}
}

// Apply records a provider emission and re-renders every widget that
// depends on the provider. Emissions that carry an error leave the last
// good variables in place.
func (r *Renderer) Apply(ctx context.Context, output providers.Output) {
	if output.Err != nil {
		r.logger.Warn(ctx, output.Err, "provider emitted error", "provider", output.Provider)
		return
	}

	r.mutex.Lock()
	r.variables[output.Provider] = output.Variables
	r.mutex.Unlock()

	for _, widget := range r.registry.DependentsOf(output.Provider) {
		r.renderWidget(ctx, widget)
	}
}

func (r *Renderer) renderWidget(ctx context.Context, widget *registry.WidgetInfo) {
	markup, err := r.render(widget)
	if err != nil {
		r.logger.Error(ctx, err, "widget render failed", "widget", widget.Name)
		r.publish(Update{Widget: widget.Name, Err: err, Timestamp: time.Now()})
		return
	}

	r.publish(Update{Widget: widget.Name, Markup: markup, Timestamp: time.Now()})
}

// RenderWidget renders a registered widget against the current provider
// variables.
func (r *Renderer) RenderWidget(name string) (string, error) {
	widget, ok := r.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("widget %q is not registered", name)
	}
	return r.render(widget)
}

func (r *Renderer) render(widget *registry.WidgetInfo) (string, error) {
	out, err := widget.Template.Render(r.bindings())
	if err != nil {
		return "", err
	}
	return out.Markup(), nil
}

// bindings builds a fresh bindings snapshot: one variable per provider,
// holding that provider's latest variable map.
func (r *Renderer) bindings() *template.Bindings {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	b := template.NewBindings()
	for provider, variables := range r.variables {
		b.Variables[provider] = variables
	}
	return b
}

// SetVariables records variables for a provider without triggering any
// re-render. One-shot rendering seeds state through here before calling
// RenderWidget.
func (r *Renderer) SetVariables(provider string, variables map[string]interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.variables[provider] = variables
}

// Variables returns a copy of the latest variables for one provider.
func (r *Renderer) Variables(provider string) (map[string]interface{}, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	variables, ok := r.variables[provider]
	if !ok {
		return nil, false
	}

	snapshot := make(map[string]interface{}, len(variables))
	for k, v := range variables {
		snapshot[k] = v
	}
	return snapshot, true
}
