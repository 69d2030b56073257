package perception

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// CorpusWatcher watches the intents override file and hot-reloads the
// classifier table when it changes. The parent directory is watched rather
// than the file itself, because editors replace files via rename and that
// breaks a direct file watch.
type CorpusWatcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	classifier  *Classifier
	path        string // absolute path to the intents file
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats CorpusWatcherStats
}

// CorpusWatcherStats tracks watcher activity for debugging.
type CorpusWatcherStats struct {
	Reloads       int
	Rejected      int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// NewCorpusWatcher creates a watcher for the given intents file.
// The file does not need to exist yet; a later create triggers a reload.
func NewCorpusWatcher(path string, classifier *Classifier) (*CorpusWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &CorpusWatcher{
		watcher:     watcher,
		classifier:  classifier,
		path:        abs,
		debounceMap: make(map[string]time.Time),
		debounceDur: 200 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching the intents file. Non-blocking; the event loop runs
// in a goroutine until Stop or context cancellation.
func (cw *CorpusWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil // Already running
	}
	cw.running = true
	cw.mu.Unlock()

	dir := filepath.Dir(cw.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.WatchWarn("Failed to create intents directory %s: %v (continuing anyway)", dir, err)
	}

	if err := cw.watcher.Add(dir); err != nil {
		logging.WatchWarn("Initial watch failed for %s: %v", dir, err)
	} else {
		logging.Watch("Watching intents file: %s", cw.path)
	}

	go cw.run(ctx)

	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (cw *CorpusWatcher) Stop() {
	cw.mu.Lock()
	if !cw.running {
		cw.mu.Unlock()
		return
	}
	cw.running = false
	cw.mu.Unlock()

	close(cw.stopCh)
	<-cw.doneCh

	if err := cw.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("Error closing corpus watcher: %v", err)
	}
	logging.Watch("Corpus watcher stopped")
}

// run is the main event loop.
func (cw *CorpusWatcher) run(ctx context.Context) {
	defer close(cw.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("Corpus watcher: context cancelled")
			return

		case <-cw.stopCh:
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("Corpus watcher error: %v", err)
			cw.mu.Lock()
			cw.stats.Errors++
			cw.mu.Unlock()

		case <-debounceTicker.C:
			cw.processDebouncedEvents()
		}
	}
}

// handleEvent records an event for the intents file; other files in the
// directory are ignored.
func (cw *CorpusWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != cw.path {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	case event.Op&fsnotify.Remove != 0:
		// Keep the installed corpus when the override disappears.
		logging.Watch("Intents file removed, keeping current corpus")
		return
	default:
		return // Ignore chmod, etc.
	}

	logging.WatchDebug("Corpus watcher: %s event for %s", eventType, event.Name)

	cw.mu.Lock()
	cw.stats.LastEventTime = time.Now()
	cw.stats.LastEventType = eventType
	cw.debounceMap[event.Name] = time.Now()
	cw.mu.Unlock()
}

// processDebouncedEvents reloads once events have settled past the debounce
// window. Rapid consecutive saves collapse into a single reload.
func (cw *CorpusWatcher) processDebouncedEvents() {
	cw.mu.Lock()
	now := time.Now()
	reload := false
	for path, eventTime := range cw.debounceMap {
		if now.Sub(eventTime) >= cw.debounceDur {
			delete(cw.debounceMap, path)
			reload = true
		}
	}
	cw.mu.Unlock()

	if reload {
		cw.Reload()
	}
}

// Reload reads, validates, and installs the intents file. An unreadable or
// invalid file leaves the previous corpus installed. Also usable as a manual
// trigger at startup.
func (cw *CorpusWatcher) Reload() {
	corpus, err := LoadCorpusFile(cw.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.WatchDebug("Intents file gone before reload: %s", cw.path)
			return
		}
		logging.WatchWarn("Rejected intents file %s: %v (keeping previous corpus)", cw.path, err)
		cw.mu.Lock()
		cw.stats.Rejected++
		cw.mu.Unlock()
		return
	}

	if err := cw.classifier.SetCorpus(corpus); err != nil {
		logging.WatchWarn("Rejected intents file %s: %v (keeping previous corpus)", cw.path, err)
		cw.mu.Lock()
		cw.stats.Rejected++
		cw.mu.Unlock()
		return
	}

	cw.mu.Lock()
	cw.stats.Reloads++
	cw.mu.Unlock()
	logging.Watch("Reloaded intents file: %s (%d entries)", cw.path, len(corpus))
}

// GetStats returns the current watcher statistics.
func (cw *CorpusWatcher) GetStats() CorpusWatcherStats {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.stats
}

// IsWatching returns true if the watcher is currently running.
func (cw *CorpusWatcher) IsWatching() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.running
}
