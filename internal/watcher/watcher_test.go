package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenbar/lumen/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelError,
		Format: "text",
		Output: os.Stderr,
	})
}

func newTestWatcher(t *testing.T, delay time.Duration) *FileWatcher {
	t.Helper()
	fw, err := New(delay, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { fw.Stop() })
	return fw
}

func TestFileWatcher_ReceivesDebouncedEvents(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t, 50*time.Millisecond)
	require.NoError(t, fw.AddPath(dir))

	received := make(chan []ChangeEvent, 1)
	fw.AddHandler(func(events []ChangeEvent) error {
		select {
		case received <- events:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	path := filepath.Join(dir, "widget.tpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ cpu.usage }}"), 0o644))

	select {
	case events := <-received:
		require.NotEmpty(t, events)
		assert.Equal(t, path, events[0].Path)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change events")
	}
}

func TestFileWatcher_FiltersExcludePaths(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t, 30*time.Millisecond)
	require.NoError(t, fw.AddPath(dir))
	fw.AddFilter(WidgetFilter)

	var mutex sync.Mutex
	var seen []string
	fw.AddHandler(func(events []ChangeEvent) error {
		mutex.Lock()
		defer mutex.Unlock()
		for _, event := range events {
			seen = append(seen, filepath.Base(event.Path))
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bar.yml"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return len(seen) > 0
	}, 3*time.Second, 20*time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()
	assert.Contains(t, seen, "bar.yml")
	assert.NotContains(t, seen, "notes.txt")
}

func TestFileWatcher_BurstCollapsesToOneBatch(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t, 100*time.Millisecond)
	require.NoError(t, fw.AddPath(dir))

	batches := make(chan []ChangeEvent, 10)
	fw.AddHandler(func(events []ChangeEvent) error {
		batches <- events
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	path := filepath.Join(dir, "config.yml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("rev"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case events := <-batches:
		// Rapid writes to the same file produce a single deduplicated event.
		assert.Len(t, events, 1)
		assert.Equal(t, path, events[0].Path)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}

func TestDebouncer_DeduplicatesByPath(t *testing.T) {
	d := &Debouncer{
		delay:  time.Millisecond,
		events: make(chan ChangeEvent, 10),
		output: make(chan []ChangeEvent, 1),
	}

	now := time.Now()
	d.pending = []ChangeEvent{
		{Type: EventTypeCreated, Path: "a.tpl", ModTime: now},
		{Type: EventTypeModified, Path: "b.yml", ModTime: now},
		{Type: EventTypeModified, Path: "a.tpl", ModTime: now.Add(time.Second)},
	}
	d.flush()

	events := <-d.output
	require.Len(t, events, 2)
	assert.Equal(t, "a.tpl", events[0].Path)
	assert.Equal(t, EventTypeModified, events[0].Type)
	assert.Equal(t, "b.yml", events[1].Path)
}

func TestDebouncer_FlushWithNoPendingIsSilent(t *testing.T) {
	d := &Debouncer{
		delay:  time.Millisecond,
		output: make(chan []ChangeEvent, 1),
	}
	d.flush()

	select {
	case events := <-d.output:
		t.Fatalf("unexpected batch: %v", events)
	default:
	}
}

func TestFilters(t *testing.T) {
	assert.True(t, ConfigFilter("widgets/bar.yml"))
	assert.True(t, ConfigFilter(".lumen.yaml"))
	assert.False(t, ConfigFilter("bar.tpl"))

	assert.True(t, TemplateFilter("widgets/clock.tpl"))
	assert.False(t, TemplateFilter("clock.html"))

	assert.True(t, WidgetFilter("a.yml"))
	assert.True(t, WidgetFilter("a.tpl"))
	assert.False(t, WidgetFilter("a.go"))
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "created", EventTypeCreated.String())
	assert.Equal(t, "modified", EventTypeModified.String())
	assert.Equal(t, "deleted", EventTypeDeleted.String())
	assert.Equal(t, "renamed", EventTypeRenamed.String())
	assert.Equal(t, "unknown", EventType(42).String())
}

func TestAddRecursive_WatchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "widgets")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	fw := newTestWatcher(t, 30*time.Millisecond)
	require.NoError(t, fw.AddRecursive(dir))

	received := make(chan []ChangeEvent, 1)
	fw.AddHandler(func(events []ChangeEvent) error {
		select {
		case received <- events:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	path := filepath.Join(sub, "clock.tpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ clock.time }}"), 0o644))

	select {
	case events := <-received:
		require.NotEmpty(t, events)
		assert.Equal(t, path, events[0].Path)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change events")
	}
}
