package renderer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenbar/lumen/internal/config"
	"github.com/lumenbar/lumen/internal/logging"
	"github.com/lumenbar/lumen/internal/providers"
	"github.com/lumenbar/lumen/internal/registry"
)

func testLogger() logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LevelError
	return logging.NewLogger(cfg)
}

func newTestRenderer() *Renderer {
	return New(registry.NewWidgetRegistry(), registry.NewTemplateCache(), testLogger())
}

func cpuOutput(usage float64) providers.Output {
	return providers.Output{
		Provider:  "cpu",
		Variables: map[string]interface{}{"usage": usage},
		Timestamp: time.Now(),
	}
}

func loadConfig(widgets map[string]config.WidgetConfig) *config.Config {
	cfg := config.Default()
	cfg.Widgets = widgets
	return cfg
}

func receiveUpdate(t *testing.T, updates <-chan Update) Update {
	t.Helper()
	select {
	case update := <-updates:
		return update
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func TestRenderer_LoadWidgets(t *testing.T) {
	r := newTestRenderer()

	err := r.LoadWidgets(context.Background(), loadConfig(map[string]config.WidgetConfig{
		"cpu": {Template: "cpu: {{ cpu.usage }}%", Providers: []string{"cpu"}},
	}))
	require.NoError(t, err)

	widget, ok := r.registry.Get("cpu")
	require.True(t, ok)
	assert.Equal(t, []string{"cpu"}, widget.Providers)
}

func TestRenderer_LoadWidgets_CompileErrorIsReported(t *testing.T) {
	r := newTestRenderer()

	err := r.LoadWidgets(context.Background(), loadConfig(map[string]config.WidgetConfig{
		"broken": {Template: "{{ unterminated", Providers: []string{"cpu"}},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestRenderer_LoadWidgets_FromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpu.tpl"), []byte("{{ cpu.usage }}"), 0644))

	cfg := loadConfig(map[string]config.WidgetConfig{
		"cpu": {TemplateFile: "cpu.tpl", Providers: []string{"cpu"}},
	})
	cfg.ConfigFile = filepath.Join(dir, ".lumen.yml")

	r := newTestRenderer()
	require.NoError(t, r.LoadWidgets(context.Background(), cfg))

	widget, ok := r.registry.Get("cpu")
	require.True(t, ok)
	assert.Equal(t, "{{ cpu.usage }}", widget.Source)
}

func TestRenderer_ApplyRerendersDependents(t *testing.T) {
	r := newTestRenderer()
	require.NoError(t, r.LoadWidgets(context.Background(), loadConfig(map[string]config.WidgetConfig{
		"cpu":   {Template: "cpu: {{ cpu.usage }}%", Providers: []string{"cpu"}},
		"clock": {Template: "{{ clock.time }}", Providers: []string{"clock"}},
	})))

	updates := r.Subscribe()
	defer r.Unsubscribe(updates)

	r.Apply(context.Background(), cpuOutput(42.5))

	update := receiveUpdate(t, updates)
	assert.Equal(t, "cpu", update.Widget)
	assert.Equal(t, "cpu: 42.5%", update.Markup)
	assert.NoError(t, update.Err)

	// The clock widget does not depend on cpu; no second update arrives.
	select {
	case update := <-updates:
		t.Fatalf("unexpected update for %s", update.Widget)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRenderer_ApplyErrorOutputKeepsLastVariables(t *testing.T) {
	r := newTestRenderer()
	require.NoError(t, r.LoadWidgets(context.Background(), loadConfig(map[string]config.WidgetConfig{
		"cpu": {Template: "{{ cpu.usage }}", Providers: []string{"cpu"}},
	})))

	r.Apply(context.Background(), cpuOutput(10))
	r.Apply(context.Background(), providers.Output{Provider: "cpu", Err: errors.New("read failed")})

	markup, err := r.RenderWidget("cpu")
	require.NoError(t, err)
	assert.Equal(t, "10", markup)
}

func TestRenderer_RenderErrorIsPublished(t *testing.T) {
	r := newTestRenderer()
	require.NoError(t, r.LoadWidgets(context.Background(), loadConfig(map[string]config.WidgetConfig{
		// References a provider that never emits, so evaluation fails.
		"cpu": {Template: "{{ memory.usage }}", Providers: []string{"cpu"}},
	})))

	updates := r.Subscribe()
	defer r.Unsubscribe(updates)

	r.Apply(context.Background(), cpuOutput(10))

	update := receiveUpdate(t, updates)
	assert.Equal(t, "cpu", update.Widget)
	require.Error(t, update.Err)
	assert.Empty(t, update.Markup)
}

func TestRenderer_RenderWidgetUnknown(t *testing.T) {
	_, err := newTestRenderer().RenderWidget("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRenderer_RunConsumesOutputs(t *testing.T) {
	r := newTestRenderer()
	require.NoError(t, r.LoadWidgets(context.Background(), loadConfig(map[string]config.WidgetConfig{
		"cpu": {Template: "{{ cpu.usage }}", Providers: []string{"cpu"}},
	})))

	updates := r.Subscribe()
	defer r.Unsubscribe(updates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outputs := make(chan providers.Output, 1)
	go r.Run(ctx, outputs)

	outputs <- cpuOutput(33)

	update := receiveUpdate(t, updates)
	assert.Equal(t, "33", update.Markup)
}

func TestRenderer_RegistryUpdateTriggersRender(t *testing.T) {
	r := newTestRenderer()

	updates := r.Subscribe()
	defer r.Unsubscribe(updates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outputs := make(chan providers.Output)
	go r.Run(ctx, outputs)

	// Give Run a moment to install its registry watch.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, r.loadWidget("static", config.WidgetConfig{Template: "hello"}, "."))

	update := receiveUpdate(t, updates)
	assert.Equal(t, "static", update.Widget)
	assert.Equal(t, "hello", update.Markup)
}

func TestRenderer_Variables(t *testing.T) {
	r := newTestRenderer()
	r.Apply(context.Background(), cpuOutput(55))

	variables, ok := r.Variables("cpu")
	require.True(t, ok)
	assert.Equal(t, 55.0, variables["usage"])

	_, ok = r.Variables("memory")
	assert.False(t, ok)
}

func TestValidateMarkup(t *testing.T) {
	assert.NoError(t, ValidateMarkup("plain text"))
	assert.NoError(t, ValidateMarkup("<div><span>cpu</span></div>"))
	assert.NoError(t, ValidateMarkup(`<img src="icon.png"> 42%`))
	assert.NoError(t, ValidateMarkup(""))

	assert.Error(t, ValidateMarkup("<div><span>cpu</div>"))
	assert.Error(t, ValidateMarkup("<div>open"))
	assert.Error(t, ValidateMarkup("stray</div>"))
}
