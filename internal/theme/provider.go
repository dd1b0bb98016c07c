// Package theme provides the appearance context: the user's theme mode,
// the resolved light or dark value, and change notifications for consumers.
package theme

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/system"
)

// Colors are the chrome background colours pushed for each appearance.
type Colors struct {
	Dark  string
	Light string
}

// DefaultColors matches the application palette.
var DefaultColors = Colors{Dark: "#0f172a", Light: "#ffffff"}

// For returns the colour for t.
func (c Colors) For(t preference.Theme) string {
	if t.IsDark() {
		return c.Dark
	}
	return c.Light
}

// State is a snapshot of the provider.
type State struct {
	Mode     preference.ThemeMode `json:"mode"`
	Resolved preference.Theme     `json:"resolved"`
	IsDark   bool                 `json:"is_dark"`
	Loading  bool                 `json:"loading"`
}

func initialState() State {
	return State{
		Mode:     preference.ThemeModeSystem,
		Resolved: preference.DefaultTheme,
		IsDark:   preference.DefaultTheme.IsDark(),
		Loading:  true,
	}
}

// Appearance is the OS appearance signal. Implemented by
// system.AppearanceWatcher.
type Appearance interface {
	Current() (preference.Theme, bool)
	Subscribe(fn func(preference.Theme)) func()
}

// Provider owns the theme state between Start and Stop.
type Provider struct {
	store      *preference.Store[preference.ThemeMode]
	appearance Appearance
	chrome     system.ChromeSetter
	colors     Colors
	logger     *slog.Logger

	mu          sync.Mutex
	state       State
	signal      preference.Theme
	signalOK    bool
	signalSeq   int
	live        bool
	gen         int
	modeSet     bool
	unsubscribe func()
	loaded      chan struct{}
	subs        map[int]func(State)
	nextID      int

	persistMu sync.Mutex
	pending   sync.WaitGroup
}

// NewProvider creates a Provider. chrome may be nil.
func NewProvider(store *preference.Store[preference.ThemeMode], appearance Appearance, chrome system.ChromeSetter, colors Colors) *Provider {
	if colors.Dark == "" {
		colors.Dark = DefaultColors.Dark
	}
	if colors.Light == "" {
		colors.Light = DefaultColors.Light
	}
	loaded := make(chan struct{})
	close(loaded)
	return &Provider{
		store:      store,
		appearance: appearance,
		chrome:     chrome,
		colors:     colors,
		logger:     slog.Default(),
		state:      initialState(),
		loaded:     loaded,
		subs:       make(map[int]func(State)),
	}
}

// Start subscribes to appearance changes and loads the persisted mode in
// the background. State reports Loading until the load completes. Calling
// Start on a running provider does nothing.
func (p *Provider) Start(ctx context.Context) {
	p.mu.Lock()
	if p.live {
		p.mu.Unlock()
		return
	}
	p.live = true
	p.gen++
	p.modeSet = false
	p.state = initialState()
	p.loaded = make(chan struct{})
	gen, loaded := p.gen, p.loaded
	p.mu.Unlock()

	unsub := p.appearance.Subscribe(p.onAppearance)
	p.mu.Lock()
	if p.live && p.gen == gen {
		p.unsubscribe = unsub
		unsub = nil
	}
	p.mu.Unlock()
	if unsub != nil {
		unsub()
	}

	go p.load(ctx, gen, loaded)
}

// Ready is closed once the current load has completed or been discarded.
func (p *Provider) Ready() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *Provider) load(ctx context.Context, gen int, loaded chan struct{}) {
	defer close(loaded)

	// A read failure falls back in memory only; the stored mode is kept.
	mode, ok, err := p.store.Lookup(ctx)
	switch {
	case err != nil:
		p.logger.Warn("reading theme mode failed, using system", "error", err)
		mode = preference.ThemeModeSystem
	case !ok:
		mode = preference.ThemeModeSystem
		if err := p.store.Save(ctx, mode); err != nil {
			p.logger.Warn("persisting default theme mode failed", "error", err)
		}
	}

	p.mu.Lock()
	seq := p.signalSeq
	p.mu.Unlock()
	signal, signalOK := p.appearance.Current()

	p.mu.Lock()
	if !p.live || p.gen != gen {
		p.mu.Unlock()
		p.logger.Debug("discarding theme load after stop")
		return
	}
	if !p.modeSet {
		p.state.Mode = mode
	}
	// A push that arrived after the read above is newer.
	if p.signalSeq == seq {
		p.signal, p.signalOK = signal, signalOK
	}
	p.state.Loading = false
	state, _, subs := p.recomputeLocked()
	p.mu.Unlock()

	p.logger.Debug("theme loaded", "mode", state.Mode, "resolved", state.Resolved)
	p.publish(ctx, state, true, subs)
}

// Stop unsubscribes from appearance changes and discards any load still in
// flight. It waits for pending mode writes.
func (p *Provider) Stop() {
	p.mu.Lock()
	p.live = false
	unsub := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	p.pending.Wait()
}

// State returns the current snapshot. While loading, Loading is true and
// the mode is system resolved to light, unless SetMode was called before
// the load finished; then the chosen mode is reported.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetMode updates the mode in memory and persists it in the background.
// Persistence failures are logged, not returned; the in-memory value stands.
func (p *Provider) SetMode(ctx context.Context, mode preference.ThemeMode) error {
	parsed, err := preference.ParseThemeMode(string(mode))
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.state.Mode = parsed
	p.modeSet = true
	state, changed, subs := p.recomputeLocked()
	p.mu.Unlock()

	p.persist(ctx)
	p.publish(ctx, state, changed, subs)
	return nil
}

// Toggle switches light to dark and anything else to light.
func (p *Provider) Toggle(ctx context.Context) (preference.ThemeMode, error) {
	next := preference.ThemeModeLight
	if p.State().Mode == preference.ThemeModeLight {
		next = preference.ThemeModeDark
	}
	return next, p.SetMode(ctx, next)
}

// Subscribe registers fn for every state change. The returned function
// removes the subscription.
func (p *Provider) Subscribe(fn func(State)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) onAppearance(t preference.Theme) {
	p.mu.Lock()
	if !p.live {
		p.mu.Unlock()
		return
	}
	p.signal, p.signalOK = t, true
	p.signalSeq++
	if p.state.Loading || p.state.Mode != preference.ThemeModeSystem {
		p.mu.Unlock()
		return
	}
	state, changed, subs := p.recomputeLocked()
	p.mu.Unlock()

	p.publish(context.Background(), state, changed, subs)
}

// persist writes the latest in-memory mode. Writes are serialised so the
// last one always carries the newest mode.
func (p *Provider) persist(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		p.persistMu.Lock()
		defer p.persistMu.Unlock()

		mode := p.State().Mode
		if err := p.store.Save(ctx, mode); err != nil {
			p.logger.Error("persisting theme mode failed", "mode", mode, "error", err)
		}
	}()
}

// recomputeLocked resolves the theme and copies the subscriber list.
// Callers hold p.mu.
func (p *Provider) recomputeLocked() (State, bool, []func(State)) {
	resolved := preference.ResolveTheme(p.state.Mode, p.signal, p.signalOK)
	changed := resolved != p.state.Resolved
	p.state.Resolved = resolved
	p.state.IsDark = resolved.IsDark()

	subs := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	return p.state, changed, subs
}

func (p *Provider) publish(ctx context.Context, state State, resolvedChanged bool, subs []func(State)) {
	for _, fn := range subs {
		fn(state)
	}
	if !resolvedChanged || p.chrome == nil {
		return
	}
	color := p.colors.For(state.Resolved)
	if err := p.chrome.SetBackgroundColor(ctx, color); err != nil && !errors.Is(err, system.ErrChromeUnavailable) {
		p.logger.Warn("updating chrome colour failed", "color", color, "error", err)
	}
}
