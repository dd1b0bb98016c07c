package i18n

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/system"
)

// DefaultPollInterval is how often the listener rereads the device locale.
const DefaultPollInterval = 5 * time.Second

// Option describes one selectable language mode.
type Option struct {
	Code       preference.LanguageMode `json:"code"`
	Name       string                  `json:"name"`
	NativeName string                  `json:"native_name"`
	Flag       string                  `json:"flag"`
}

var options = []Option{
	{Code: preference.LanguageModeAuto, Name: "Automatic (System)", NativeName: "Automático (Sistema)", Flag: "📱"},
	{Code: preference.LanguageModeEnglish, Name: "English", NativeName: "English", Flag: "🇺🇸"},
	{Code: preference.LanguageModeSpanish, Name: "Spanish", NativeName: "Español", Flag: "🇸🇻"},
}

// Manager applies the persisted language mode to the catalog and, while
// the mode is auto, follows the device locale through a polling listener.
type Manager struct {
	store    *preference.Store[preference.LanguageMode]
	locales  system.LocaleSource
	catalog  *Catalog
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	current   preference.Language
	lastKnown preference.Language
	subs      map[int]func(preference.Language)
	nextID    int

	listenMu sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewManager creates a Manager. If pollInterval is <= 0, it defaults to
// DefaultPollInterval. Until Init runs, CurrentLanguage reports the
// default language.
func NewManager(store *preference.Store[preference.LanguageMode], locales system.LocaleSource, catalog *Catalog, pollInterval time.Duration) *Manager {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Manager{
		store:    store,
		locales:  locales,
		catalog:  catalog,
		interval: pollInterval,
		logger:   slog.Default(),
		current:  preference.DefaultLanguage,
		subs:     make(map[int]func(preference.Language)),
	}
}

// Init loads the persisted mode and applies the resolved language. When no
// mode is stored, auto is persisted. A storage read failure applies the
// default language without persisting anything.
func (m *Manager) Init(ctx context.Context) preference.Language {
	mode, ok, err := m.store.Lookup(ctx)
	if err != nil {
		m.logger.Error("initializing language failed, using default", "error", err)
		m.apply(preference.DefaultLanguage)
		return preference.DefaultLanguage
	}
	if !ok {
		mode = preference.LanguageModeAuto
		if err := m.store.Save(ctx, mode); err != nil {
			m.logger.Warn("persisting default language mode failed", "error", err)
		}
	}

	lang := preference.ResolveLanguage(mode, m.deviceLanguage())
	m.apply(lang)
	m.logger.Info("language initialized", "mode", mode, "language", lang)
	return lang
}

// ChangeLanguage validates mode, applies the resolved language, and
// persists the mode. Unlike the other operations it returns its errors.
func (m *Manager) ChangeLanguage(ctx context.Context, mode preference.LanguageMode) error {
	parsed, err := preference.ParseLanguageMode(string(mode))
	if err != nil {
		return fmt.Errorf("unsupported language mode: %w", err)
	}

	lang := preference.ResolveLanguage(parsed, m.deviceLanguage())
	m.apply(lang)
	if err := m.store.Save(ctx, parsed); err != nil {
		return fmt.Errorf("changing language: %w", err)
	}
	m.logger.Info("language mode changed", "mode", parsed, "language", lang)
	return nil
}

// CurrentLanguage returns the applied language.
func (m *Manager) CurrentLanguage() preference.Language {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CurrentMode returns the persisted mode, or auto when none is stored.
func (m *Manager) CurrentMode(ctx context.Context) preference.LanguageMode {
	if mode, ok := m.store.Load(ctx); ok {
		return mode
	}
	return preference.LanguageModeAuto
}

// Options returns the selectable language modes.
func (m *Manager) Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// CurrentOption returns the Option for the persisted mode.
func (m *Manager) CurrentOption(ctx context.Context) Option {
	mode := m.CurrentMode(ctx)
	for _, o := range options {
		if o.Code == mode {
			return o
		}
	}
	return options[0]
}

// T translates key into the applied language.
func (m *Manager) T(key string, args ...any) string {
	return m.catalog.T(m.CurrentLanguage(), key, args...)
}

// Catalog returns the underlying catalog.
func (m *Manager) Catalog() *Catalog { return m.catalog }

// Subscribe registers fn to be called with every newly applied language.
// The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(preference.Language)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// StartListener begins polling the device locale every poll interval.
// Calling it while a listener is running does nothing.
func (m *Manager) StartListener(ctx context.Context) {
	m.listenMu.Lock()
	defer m.listenMu.Unlock()
	if m.cancel != nil {
		return
	}

	m.mu.Lock()
	m.lastKnown = m.deviceLanguage()
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx, m.done)
	m.logger.Debug("language listener started", "interval", m.interval)
}

// StopListener stops the poll and forgets the last observed device
// language. It waits for an in-flight poll to finish.
func (m *Manager) StopListener() {
	m.listenMu.Lock()
	defer m.listenMu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil

	m.mu.Lock()
	m.lastKnown = ""
	m.mu.Unlock()
	m.logger.Debug("language listener stopped")
}

// Listening reports whether the poll is running.
func (m *Manager) Listening() bool {
	m.listenMu.Lock()
	defer m.listenMu.Unlock()
	return m.cancel != nil
}

func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll runs one listener iteration. When the persisted mode is auto and the
// device language differs from the last observation, the new language is
// applied. The persisted mode is never changed. Returns true if a language
// was applied.
func (m *Manager) Poll(ctx context.Context) bool {
	if m.CurrentMode(ctx) != preference.LanguageModeAuto {
		return false
	}
	device := m.deviceLanguage()

	m.mu.Lock()
	if m.lastKnown == "" {
		m.lastKnown = device
		m.mu.Unlock()
		return false
	}
	if device == m.lastKnown {
		m.mu.Unlock()
		return false
	}
	m.lastKnown = device
	m.mu.Unlock()

	if device == m.CurrentLanguage() {
		return false
	}
	m.apply(device)
	m.logger.Info("device language changed", "language", device)
	return true
}

func (m *Manager) deviceLanguage() preference.Language {
	return DeviceLanguage(m.locales, m.logger)
}

func (m *Manager) apply(lang preference.Language) {
	m.mu.Lock()
	if m.current == lang {
		m.mu.Unlock()
		return
	}
	m.current = lang
	subs := make([]func(preference.Language), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(lang)
	}
}
