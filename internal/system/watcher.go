package system

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aureum-app/settings/internal/preference"
)

// AppearanceWatcher turns an AppearanceDetector into a push source: Run polls
// the detector and notifies subscribers whenever the appearance changes.
type AppearanceWatcher struct {
	detector AppearanceDetector
	poll     time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	subs   map[int]func(preference.Theme)
	nextID int
	last   preference.Theme
	seen   bool
}

// NewAppearanceWatcher creates a watcher. If pollInterval is <= 0, it
// defaults to 2s.
func NewAppearanceWatcher(detector AppearanceDetector, pollInterval time.Duration) *AppearanceWatcher {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &AppearanceWatcher{
		detector: detector,
		poll:     pollInterval,
		logger:   slog.Default(),
		subs:     make(map[int]func(preference.Theme)),
	}
}

// Current queries the detector directly.
func (w *AppearanceWatcher) Current() (preference.Theme, bool) {
	return w.detector.Current()
}

// Subscribe registers fn for appearance changes and returns a function that
// removes it. The returned function is safe to call more than once.
func (w *AppearanceWatcher) Subscribe(fn func(preference.Theme)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			w.mu.Unlock()
		})
	}
}

// Run polls until ctx is cancelled.
func (w *AppearanceWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	w.Check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check performs one poll and notifies subscribers if the appearance differs
// from the previous poll. The first successful poll only records a baseline.
// Returns true if subscribers were notified.
func (w *AppearanceWatcher) Check() bool {
	theme, ok := w.detector.Current()
	if !ok {
		return false
	}

	w.mu.Lock()
	if !w.seen {
		w.seen = true
		w.last = theme
		w.mu.Unlock()
		return false
	}
	if theme == w.last {
		w.mu.Unlock()
		return false
	}
	w.last = theme
	subs := make([]func(preference.Theme), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	w.logger.Debug("system appearance changed", "theme", theme)
	for _, fn := range subs {
		fn(theme)
	}
	return true
}
