package widget

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSidebarWatcherValidates(t *testing.T) {
	t.Parallel()

	_, err := NewSidebarWatcher(WatcherOptions{Apply: func([]Sidebar) {}})
	require.Error(t, err)

	_, err = NewSidebarWatcher(WatcherOptions{Path: "sidebars.yaml"})
	require.Error(t, err)
}

func TestSidebarWatcherAppliesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sidebars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sidebars:\n  - id: primary\n"), 0o600))

	applied := make(chan []Sidebar, 4)
	watcher, err := NewSidebarWatcher(WatcherOptions{
		Path:     path,
		Apply:    func(s []Sidebar) { applied <- s },
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, watcher.Start())
	t.Cleanup(func() { _ = watcher.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("sidebars:\n  - id: primary\n  - id: footer\n"), 0o600))

	select {
	case sidebars := <-applied:
		require.Len(t, sidebars, 2)
		assert.Equal(t, "footer", sidebars[1].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("expected sidebars to be reloaded")
	}
}

func TestSidebarWatcherIgnoresInvalidFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sidebars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sidebars:\n  - id: primary\n"), 0o600))

	applied := make(chan []Sidebar, 4)
	watcher, err := NewSidebarWatcher(WatcherOptions{
		Path:     path,
		Apply:    func(s []Sidebar) { applied <- s },
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("sidebars:\n  - name: no id\n"), 0o600))
	watcher.reload()
	assert.Empty(t, applied)
}
