package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lumenbar/lumen/internal/config"
	"github.com/lumenbar/lumen/internal/logging"
	"github.com/lumenbar/lumen/internal/providers"
	"github.com/lumenbar/lumen/internal/registry"
	"github.com/lumenbar/lumen/internal/renderer"
	"github.com/lumenbar/lumen/internal/template"
)

func TestStarterTemplateCompiles(t *testing.T) {
	tmpl, err := template.Compile(starterTemplate)
	require.NoError(t, err)
	assert.Equal(t, starterTemplate, tmpl.Source())
}

func TestInitCreatesProjectFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "my-bar")

	initForce = false
	require.NoError(t, runInit(initCmd, []string{target}))

	data, err := os.ReadFile(filepath.Join(target, ".lumen.yml"))
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	require.Contains(t, cfg.Widgets, "statusbar")
	assert.Equal(t, []string{"clock", "cpu", "memory"}, cfg.Widgets["statusbar"].Providers)

	source, err := cfg.Widgets["statusbar"].TemplateSource(target)
	require.NoError(t, err)
	_, err = template.Compile(source)
	require.NoError(t, err)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()

	initForce = false
	require.NoError(t, runInit(initCmd, []string{dir}))

	err := runInit(initCmd, []string{dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	initForce = true
	defer func() { initForce = false }()
	require.NoError(t, runInit(initCmd, []string{dir}))
}

func TestSeedFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yml")
	require.NoError(t, os.WriteFile(path, []byte("cpu:\n  usage: 42.5\nmemory:\n  usage: 71.0\n"), 0o644))

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelError,
		Format: "text",
		Output: os.Stderr,
	})
	rend := renderer.New(registry.NewWidgetRegistry(), registry.NewTemplateCache(), logger)

	require.NoError(t, seedFromFile(rend, path))

	variables, ok := rend.Variables("cpu")
	require.True(t, ok)
	assert.Equal(t, 42.5, variables["usage"])

	_, ok = rend.Variables("battery")
	assert.False(t, ok)
}

func TestSeedFromFile_MissingFile(t *testing.T) {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelError,
		Format: "text",
		Output: os.Stderr,
	})
	rend := renderer.New(registry.NewWidgetRegistry(), registry.NewTemplateCache(), logger)

	err := seedFromFile(rend, filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading bindings file")
}

func TestProviderVariablesCoverBuiltins(t *testing.T) {
	for _, name := range providers.BuiltinNames() {
		assert.Contains(t, providerVariables, name)
	}
}
