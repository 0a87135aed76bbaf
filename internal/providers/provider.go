// Package providers implements the data sources widgets render from: system
// readings (cpu, memory, battery, host), the clock, and network queries (ip,
// weather). Each provider is polled on its own interval by the Manager, and
// refreshed variable sets are fanned into a single output channel.
package providers

import (
	"context"
	"time"
)

// Provider is one named source of template variables.
type Provider interface {
	// Name is the identifier widgets use to declare the dependency and the
	// top-level key its variables appear under in template bindings.
	Name() string

	// RefreshInterval is how often the manager polls the provider.
	RefreshInterval() time.Duration

	// Refresh produces a fresh variable set.
	Refresh(ctx context.Context) (map[string]interface{}, error)
}

// Output is one emission from a provider: either a variable set or the error
// that refreshing produced.
type Output struct {
	Provider  string
	Variables map[string]interface{}
	Err       error
	Timestamp time.Time
}
