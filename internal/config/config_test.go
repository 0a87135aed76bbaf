package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromYAML(t *testing.T, content string) (*Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, ".lumen.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	config, err := loadFromYAML(t, "")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 4200, config.Server.Port)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
	assert.True(t, config.Watch.Enabled)
	assert.Equal(t, 300, config.Watch.DebounceMS)
	assert.Equal(t, "celsius", config.Providers.Weather.Unit)
	assert.NotNil(t, config.Widgets)
}

func TestLoad_FullConfig(t *testing.T) {
	config, err := loadFromYAML(t, `
server:
  host: 0.0.0.0
  port: 8090
  allowed_origins:
    - http://localhost:8090
logging:
  level: debug
  format: json
watch:
  enabled: false
  debounce_ms: 150
widgets:
  clock:
    template: "{{ clock.time }}"
    providers: [clock]
  cpu:
    template_file: cpu.tpl
    providers: [cpu, memory]
providers:
  refresh_ms:
    cpu: 2000
  weather:
    latitude: 52.52
    longitude: 13.4
    unit: fahrenheit
`)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, []string{"http://localhost:8090"}, config.Server.AllowedOrigins)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.False(t, config.Watch.Enabled)
	assert.Equal(t, 150, config.Watch.DebounceMS)

	require.Contains(t, config.Widgets, "clock")
	assert.Equal(t, "{{ clock.time }}", config.Widgets["clock"].Template)
	assert.Equal(t, []string{"clock"}, config.Widgets["clock"].Providers)
	assert.Equal(t, "cpu.tpl", config.Widgets["cpu"].TemplateFile)

	assert.Equal(t, 2000, config.Providers.RefreshMS["cpu"])
	require.NotNil(t, config.Providers.Weather.Latitude)
	assert.Equal(t, 52.52, *config.Providers.Weather.Latitude)
	assert.Equal(t, "fahrenheit", config.Providers.Weather.Unit)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"invalid port",
			"server:\n  port: 70000\n",
			"not in valid range",
		},
		{
			"dangerous host",
			"server:\n  host: \"evil;rm\"\n",
			"dangerous character",
		},
		{
			"bad log format",
			"logging:\n  format: xml\n",
			"format must be",
		},
		{
			"widget without template",
			"widgets:\n  empty:\n    providers: [clock]\n",
			"needs either template or template_file",
		},
		{
			"widget with both templates",
			"widgets:\n  both:\n    template: x\n    template_file: y.tpl\n",
			"mutually exclusive",
		},
		{
			"template path traversal",
			"widgets:\n  sneaky:\n    template_file: ../../etc/passwd\n",
			"path traversal",
		},
		{
			"negative refresh",
			"providers:\n  refresh_ms:\n    cpu: -5\n",
			"must be positive",
		},
		{
			"latitude without longitude",
			"providers:\n  weather:\n    latitude: 52.52\n",
			"must be set together",
		},
		{
			"bad weather unit",
			"providers:\n  weather:\n    unit: kelvin\n",
			"weather unit must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFromYAML(t, tt.content)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWidgetConfig_TemplateSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bar.tpl"), []byte("{{ cpu.usage }}%"), 0644))

	inline := WidgetConfig{Template: "inline"}
	source, err := inline.TemplateSource(dir)
	require.NoError(t, err)
	assert.Equal(t, "inline", source)

	fromFile := WidgetConfig{TemplateFile: "bar.tpl"}
	source, err = fromFile.TemplateSource(dir)
	require.NoError(t, err)
	assert.Equal(t, "{{ cpu.usage }}%", source)

	missing := WidgetConfig{TemplateFile: "gone.tpl"}
	_, err = missing.TemplateSource(dir)
	require.Error(t, err)
}

func TestConfig_BaseDir(t *testing.T) {
	config := &Config{ConfigFile: "/etc/lumen/.lumen.yml"}
	assert.Equal(t, "/etc/lumen", config.BaseDir())

	assert.Equal(t, ".", (&Config{}).BaseDir())
}
