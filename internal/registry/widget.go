// Package registry tracks the widgets a Lumen instance hosts: their
// compiled templates, the providers they depend on, and a watch channel
// facility for reacting to widget changes.
package registry

import (
	"sync"
	"time"

	"github.com/lumenbar/lumen/internal/template"
)

// WidgetRegistry manages all configured widgets
type WidgetRegistry struct {
	widgets  map[string]*WidgetInfo
	mutex    sync.RWMutex
	watchers []chan WidgetEvent
}

// WidgetInfo holds a widget's compiled template and metadata
type WidgetInfo struct {
	Name      string
	Source    string
	Template  *template.Template
	Providers []string
	LastMod   time.Time
}

// DependsOn reports whether the widget renders from the named provider.
func (w *WidgetInfo) DependsOn(provider string) bool {
	for _, p := range w.Providers {
		if p == provider {
			return true
		}
	}
	return false
}

// WidgetEvent represents a change in the widget registry
type WidgetEvent struct {
	Type      EventType
	Widget    *WidgetInfo
	Timestamp time.Time
}

// EventType represents the type of widget event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// NewWidgetRegistry creates a new widget registry
func NewWidgetRegistry() *WidgetRegistry {
	return &WidgetRegistry{
		widgets:  make(map[string]*WidgetInfo),
		watchers: make([]chan WidgetEvent, 0),
	}
}

// Register adds or updates a widget in the registry
func (r *WidgetRegistry) Register(widget *WidgetInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.widgets[widget.Name]; exists {
		eventType = EventTypeUpdated
	}

	r.widgets[widget.Name] = widget

	r.notify(WidgetEvent{
		Type:      eventType,
		Widget:    widget,
		Timestamp: time.Now(),
	})
}

// Get retrieves a widget by name
func (r *WidgetRegistry) Get(name string) (*WidgetInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	widget, exists := r.widgets[name]
	return widget, exists
}

// GetAll returns all registered widgets
func (r *WidgetRegistry) GetAll() map[string]*WidgetInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]*WidgetInfo, len(r.widgets))
	for name, widget := range r.widgets {
		result[name] = widget
	}
	return result
}

// DependentsOf returns the widgets that render from the named provider.
func (r *WidgetRegistry) DependentsOf(provider string) []*WidgetInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var dependents []*WidgetInfo
	for _, widget := range r.widgets {
		if widget.DependsOn(provider) {
			dependents = append(dependents, widget)
		}
	}
	return dependents
}

// Remove removes a widget from the registry
func (r *WidgetRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	widget, exists := r.widgets[name]
	if !exists {
		return
	}

	delete(r.widgets, name)

	r.notify(WidgetEvent{
		Type:      EventTypeRemoved,
		Widget:    widget,
		Timestamp: time.Now(),
	})
}

// notify fans an event out to all watchers. Callers hold the mutex.
func (r *WidgetRegistry) notify(event WidgetEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives widget events
func (r *WidgetRegistry) Watch() <-chan WidgetEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan WidgetEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *WidgetRegistry) UnWatch(ch <-chan WidgetEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered widgets
func (r *WidgetRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.widgets)
}
