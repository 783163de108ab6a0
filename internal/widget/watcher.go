package widget

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	applog "newsrecs/app/internal/log"
)

const defaultWatchDebounce = 500 * time.Millisecond

// SidebarWatcher reloads the sidebars file when it changes on disk and hands the result to
// apply. The containing directory is watched so editors that save by renaming are picked up.
type SidebarWatcher struct {
	path     string
	fallback []Sidebar
	apply    func([]Sidebar)
	debounce time.Duration
	logger   *logrus.Entry

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	mu      sync.Mutex
	pending time.Time
	last    []byte
}

// WatcherOptions configures NewSidebarWatcher.
type WatcherOptions struct {
	Path     string
	Fallback []Sidebar
	Apply    func([]Sidebar)
	Debounce time.Duration
	Logger   *logrus.Logger
}

// NewSidebarWatcher validates the options. Call Start to begin watching.
func NewSidebarWatcher(opts WatcherOptions) (*SidebarWatcher, error) {
	if opts.Path == "" {
		return nil, eris.New("sidebars path is required")
	}
	if opts.Apply == nil {
		return nil, eris.New("apply callback is required")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}

	return &SidebarWatcher{
		path:     filepath.Clean(opts.Path),
		fallback: opts.Fallback,
		apply:    opts.Apply,
		debounce: debounce,
		logger:   applog.Component(opts.Logger, "sidebar_watcher"),
		done:     make(chan struct{}),
	}, nil
}

// Start records the current file content and begins watching its directory.
func (w *SidebarWatcher) Start() error {
	current, err := os.ReadFile(w.path)
	if err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "reading sidebars file %s", w.path)
	}
	w.last = current

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "creating sidebars watcher")
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return eris.Wrapf(err, "watching %s", dir)
	}
	w.fsWatcher = fsw

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends the watch loop and waits for it. Safe to call more than once.
func (w *SidebarWatcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

func (w *SidebarWatcher) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.WithField("error", err.Error()).Error("sidebars watcher error")

		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *SidebarWatcher) processPending() {
	w.mu.Lock()
	ready := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
	if ready {
		w.pending = time.Time{}
	}
	w.mu.Unlock()

	if ready {
		w.reload()
	}
}

func (w *SidebarWatcher) reload() {
	current, err := os.ReadFile(w.path)
	if err != nil && !os.IsNotExist(err) {
		w.logger.WithField("error", err.Error()).Error("reading sidebars file")
		return
	}
	if bytes.Equal(current, w.last) {
		return
	}

	sidebars, err := LoadSidebars(w.path, w.fallback)
	if err != nil {
		// Keep serving the previous definitions until the file is fixed.
		w.logger.WithField("error", err.Error()).Warn("ignoring invalid sidebars file")
		return
	}

	w.last = current
	w.logger.WithField("sidebars", len(sidebars)).Info("sidebars reloaded")
	w.apply(sidebars)
}
