package providers

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/lumenbar/lumen/internal/config"
	"github.com/lumenbar/lumen/internal/errors"
	"github.com/lumenbar/lumen/internal/logging"
)

// Manager polls a set of providers, each on its own goroutine and interval,
// and fans their outputs into one channel. Identical consecutive variable
// sets are suppressed so downstream re-renders only happen on real change.
type Manager struct {
	providers map[string]Provider
	logger    logging.Logger
	out       chan Output
	wg        sync.WaitGroup
}

// NewManager creates a manager over the given providers
func NewManager(logger logging.Logger, providers ...Provider) *Manager {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Manager{
		providers: byName,
		logger:    logger.WithComponent("providers"),
		out:       make(chan Output, 64),
	}
}

// Outputs returns the channel provider emissions arrive on. It is closed
// after Start's context is cancelled and all provider goroutines have
// drained.
func (m *Manager) Outputs() <-chan Output {
	return m.out
}

// Get returns a provider by name.
func (m *Manager) Get(name string) (Provider, bool) {
	p, ok := m.providers[name]
	return p, ok
}

// Names returns the managed provider names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start launches one polling goroutine per provider. Each refreshes
// immediately, then on its interval, until ctx is cancelled. The output
// channel closes once every goroutine has stopped.
func (m *Manager) Start(ctx context.Context) {
	for _, provider := range m.providers {
		m.wg.Add(1)
		go m.poll(ctx, provider)
	}

	go func() {
		m.wg.Wait()
		close(m.out)
	}()
}

func (m *Manager) poll(ctx context.Context, provider Provider) {
	defer m.wg.Done()

	var lastEmitted map[string]interface{}

	refresh := func() {
		variables, err := provider.Refresh(ctx)
		if err != nil {
			perr := errors.NewProviderError(provider.Name(), "refresh failed", err)
			m.logger.Error(ctx, perr, "provider refresh failed", "provider", provider.Name())
			m.emit(ctx, Output{Provider: provider.Name(), Err: perr, Timestamp: time.Now()})
			return
		}

		// Unchanged readings are not re-emitted.
		if reflect.DeepEqual(variables, lastEmitted) {
			return
		}
		lastEmitted = variables

		m.emit(ctx, Output{Provider: provider.Name(), Variables: variables, Timestamp: time.Now()})
	}

	refresh()

	ticker := time.NewTicker(provider.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func (m *Manager) emit(ctx context.Context, output Output) {
	select {
	case m.out <- output:
	case <-ctx.Done():
	}
}

// Builtin constructs the built-in provider set from configuration, applying
// per-provider refresh interval overrides.
func Builtin(cfg *config.Config) []Provider {
	ip := NewIPProvider(refreshInterval(cfg, "ip", time.Hour))

	return []Provider{
		NewClockProvider(refreshInterval(cfg, "clock", time.Second)),
		NewHostProvider(refreshInterval(cfg, "host", time.Minute)),
		NewCPUProvider(refreshInterval(cfg, "cpu", 5*time.Second)),
		NewMemoryProvider(refreshInterval(cfg, "memory", 5*time.Second)),
		NewDiskProvider(refreshInterval(cfg, "disk", time.Minute)),
		NewBatteryProvider(refreshInterval(cfg, "battery", time.Minute)),
		ip,
		NewWeatherProvider(refreshInterval(cfg, "weather", time.Hour), cfg.Providers.Weather, ip),
	}
}

// BuiltinNames returns the names of all built-in providers, sorted.
func BuiltinNames() []string {
	return []string{"battery", "clock", "cpu", "disk", "host", "ip", "memory", "weather"}
}

func refreshInterval(cfg *config.Config, name string, fallback time.Duration) time.Duration {
	if ms, ok := cfg.Providers.RefreshMS[name]; ok && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
