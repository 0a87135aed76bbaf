package server

import "time"

// UpdateMessage is the JSON frame pushed to websocket clients whenever a
// widget re-renders.
type UpdateMessage struct {
	Type      string    `json:"type"` // "update" or "error"
	Widget    string    `json:"widget"`
	Markup    string    `json:"markup,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WidgetSummary describes one widget in the /api/widgets listing.
type WidgetSummary struct {
	Name      string   `json:"name"`
	Providers []string `json:"providers"`
}

// WidgetState is the /api/widgets/{name} response: the widget's latest
// markup rendered against current provider variables.
type WidgetState struct {
	Name   string `json:"name"`
	Markup string `json:"markup"`
}
