package theme

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/storage"
)

// --- Fakes ---

type fakeAppearance struct {
	mu    sync.Mutex
	theme preference.Theme
	ok    bool
	subs  map[int]func(preference.Theme)
	next  int
}

func newFakeAppearance(t preference.Theme, ok bool) *fakeAppearance {
	return &fakeAppearance{theme: t, ok: ok, subs: make(map[int]func(preference.Theme))}
}

func (f *fakeAppearance) Current() (preference.Theme, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.theme, f.ok
}

func (f *fakeAppearance) Subscribe(fn func(preference.Theme)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeAppearance) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeAppearance) emit(t preference.Theme) {
	f.mu.Lock()
	f.theme, f.ok = t, true
	subs := make([]func(preference.Theme), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(t)
	}
}

type recordingChrome struct {
	mu     sync.Mutex
	colors []string
	err    error
}

func (r *recordingChrome) SetBackgroundColor(_ context.Context, color string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = append(r.colors, color)
	return r.err
}

func (r *recordingChrome) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.colors) == 0 {
		return ""
	}
	return r.colors[len(r.colors)-1]
}

// blockingKV holds GetPreference until release is closed.
type blockingKV struct {
	preference.KV
	release chan struct{}
}

func (b *blockingKV) GetPreference(ctx context.Context, key string) (string, error) {
	<-b.release
	return b.KV.GetPreference(ctx, key)
}

type failingWriteKV struct {
	preference.KV
}

func (failingWriteKV) SetPreference(context.Context, string, string) error {
	return errors.New("disk full")
}

type failingReadKV struct {
	preference.KV
}

func (failingReadKV) GetPreference(context.Context, string) (string, error) {
	return "", errors.New("database is locked")
}

// stalePushAppearance delivers a push while Current is still returning the
// value it read before the push.
type stalePushAppearance struct {
	*fakeAppearance
	push preference.Theme
	once sync.Once
}

func (s *stalePushAppearance) Current() (preference.Theme, bool) {
	stale, ok := s.fakeAppearance.Current()
	s.once.Do(func() { s.emit(s.push) })
	return stale, ok
}

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func waitReady(t *testing.T, p *Provider) {
	t.Helper()
	select {
	case <-p.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("provider did not finish loading")
	}
}

func startedProvider(t *testing.T, kv preference.KV, app *fakeAppearance, chrome *recordingChrome) *Provider {
	t.Helper()
	var p *Provider
	if chrome != nil {
		p = NewProvider(preference.NewThemeStore(kv), app, chrome, Colors{})
	} else {
		p = NewProvider(preference.NewThemeStore(kv), app, nil, Colors{})
	}
	p.Start(context.Background())
	t.Cleanup(p.Stop)
	waitReady(t, p)
	return p
}

// --- Tests ---

func TestProvider_InitialStateIsSafeDefault(t *testing.T) {
	kv := &blockingKV{KV: testStore(t), release: make(chan struct{})}
	p := NewProvider(preference.NewThemeStore(kv), newFakeAppearance(preference.ThemeDark, true), nil, Colors{})
	p.Start(context.Background())
	defer p.Stop()
	defer close(kv.release)

	s := p.State()
	if !s.Loading || s.Mode != preference.ThemeModeSystem || s.Resolved != preference.ThemeLight {
		t.Errorf("loading state = %+v, want system/light/loading", s)
	}
}

func TestProvider_EmptyStorePersistsSystem(t *testing.T) {
	store := testStore(t)
	p := startedProvider(t, store, newFakeAppearance(preference.ThemeDark, true), nil)

	s := p.State()
	if s.Loading || s.Mode != preference.ThemeModeSystem || s.Resolved != preference.ThemeDark {
		t.Errorf("state = %+v, want system resolved to dark", s)
	}
	raw, err := store.GetPreference(context.Background(), preference.ThemeKey)
	if err != nil || raw != "system" {
		t.Errorf("persisted = (%q, %v), want system", raw, err)
	}
}

func TestProvider_ReadFailureKeepsStoredMode(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if err := store.SetPreference(ctx, preference.ThemeKey, "dark"); err != nil {
		t.Fatal(err)
	}
	p := startedProvider(t, failingReadKV{KV: store}, newFakeAppearance(preference.ThemeLight, true), nil)

	if s := p.State(); s.Loading || s.Mode != preference.ThemeModeSystem {
		t.Errorf("state = %+v, want in-memory system fallback", s)
	}
	p.Stop()

	raw, err := store.GetPreference(ctx, preference.ThemeKey)
	if err != nil || raw != "dark" {
		t.Errorf("stored = (%q, %v), read failure must not overwrite dark", raw, err)
	}
}

func TestProvider_PushDuringLoadIsKept(t *testing.T) {
	app := &stalePushAppearance{fakeAppearance: newFakeAppearance(preference.ThemeLight, true), push: preference.ThemeDark}
	p := NewProvider(preference.NewThemeStore(testStore(t)), app, nil, Colors{})
	p.Start(context.Background())
	defer p.Stop()
	waitReady(t, p)

	if s := p.State(); s.Resolved != preference.ThemeDark {
		t.Errorf("resolved = %q, the push during load must win over the stale read", s.Resolved)
	}
}

func TestProvider_LoadsPersistedMode(t *testing.T) {
	store := testStore(t)
	if err := store.SetPreference(context.Background(), preference.ThemeKey, "dark"); err != nil {
		t.Fatal(err)
	}
	p := startedProvider(t, store, newFakeAppearance(preference.ThemeLight, true), nil)

	if s := p.State(); s.Mode != preference.ThemeModeDark || !s.IsDark {
		t.Errorf("state = %+v, want dark", s)
	}
}

func TestProvider_UnavailableSignalDefaultsLight(t *testing.T) {
	p := startedProvider(t, testStore(t), newFakeAppearance("", false), nil)

	if s := p.State(); s.Resolved != preference.ThemeLight {
		t.Errorf("resolved = %q, want light", s.Resolved)
	}
}

func TestProvider_FollowsSystemChanges(t *testing.T) {
	app := newFakeAppearance(preference.ThemeLight, true)
	p := startedProvider(t, testStore(t), app, nil)

	var got []State
	p.Subscribe(func(s State) { got = append(got, s) })

	app.emit(preference.ThemeDark)
	if s := p.State(); s.Resolved != preference.ThemeDark {
		t.Errorf("resolved = %q after system change, want dark", s.Resolved)
	}
	if len(got) != 1 || got[0].Resolved != preference.ThemeDark {
		t.Errorf("notifications = %+v", got)
	}
}

func TestProvider_ExplicitModeIgnoresSystem(t *testing.T) {
	app := newFakeAppearance(preference.ThemeLight, true)
	p := startedProvider(t, testStore(t), app, nil)

	if err := p.SetMode(context.Background(), preference.ThemeModeLight); err != nil {
		t.Fatal(err)
	}
	app.emit(preference.ThemeDark)
	if s := p.State(); s.Resolved != preference.ThemeLight {
		t.Errorf("resolved = %q, explicit light must ignore system", s.Resolved)
	}
}

func TestProvider_SetModePersists(t *testing.T) {
	store := testStore(t)
	p := startedProvider(t, store, newFakeAppearance(preference.ThemeLight, true), nil)

	if err := p.SetMode(context.Background(), preference.ThemeModeDark); err != nil {
		t.Fatal(err)
	}
	if s := p.State(); s.Mode != preference.ThemeModeDark || s.Resolved != preference.ThemeDark {
		t.Errorf("state = %+v, want dark immediately", s)
	}
	p.Stop()

	raw, err := store.GetPreference(context.Background(), preference.ThemeKey)
	if err != nil || raw != "dark" {
		t.Errorf("persisted = (%q, %v), want dark", raw, err)
	}
}

func TestProvider_SetModeRejectsInvalid(t *testing.T) {
	p := startedProvider(t, testStore(t), newFakeAppearance(preference.ThemeLight, true), nil)

	err := p.SetMode(context.Background(), preference.ThemeMode("sepia"))
	if !errors.Is(err, preference.ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
}

func TestProvider_PersistFailureKeepsMemoryValue(t *testing.T) {
	store := testStore(t)
	p := startedProvider(t, failingWriteKV{KV: store}, newFakeAppearance(preference.ThemeLight, true), nil)

	if err := p.SetMode(context.Background(), preference.ThemeModeDark); err != nil {
		t.Fatalf("SetMode should not surface persistence errors: %v", err)
	}
	if s := p.State(); s.Mode != preference.ThemeModeDark {
		t.Errorf("mode = %q, want dark in memory", s.Mode)
	}
}

func TestProvider_SystemDarkSystemRestoresSignal(t *testing.T) {
	app := newFakeAppearance(preference.ThemeDark, true)
	p := startedProvider(t, testStore(t), app, nil)
	ctx := context.Background()

	if err := p.SetMode(ctx, preference.ThemeModeLight); err != nil {
		t.Fatal(err)
	}
	app.emit(preference.ThemeLight)
	app.emit(preference.ThemeDark)
	if err := p.SetMode(ctx, preference.ThemeModeSystem); err != nil {
		t.Fatal(err)
	}
	if s := p.State(); s.Resolved != preference.ThemeDark {
		t.Errorf("resolved = %q, want the current system value dark", s.Resolved)
	}
}

func TestProvider_Toggle(t *testing.T) {
	p := startedProvider(t, testStore(t), newFakeAppearance(preference.ThemeLight, true), nil)
	ctx := context.Background()

	tests := []struct {
		from preference.ThemeMode
		want preference.ThemeMode
	}{
		{preference.ThemeModeLight, preference.ThemeModeDark},
		{preference.ThemeModeDark, preference.ThemeModeLight},
		{preference.ThemeModeSystem, preference.ThemeModeLight},
	}
	for _, tt := range tests {
		if err := p.SetMode(ctx, tt.from); err != nil {
			t.Fatal(err)
		}
		got, err := p.Toggle(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want || p.State().Mode != tt.want {
			t.Errorf("Toggle from %s = %s, want %s", tt.from, got, tt.want)
		}
	}
}

func TestProvider_PushesChromeColour(t *testing.T) {
	chrome := &recordingChrome{}
	p := startedProvider(t, testStore(t), newFakeAppearance(preference.ThemeLight, true), chrome)

	if got := chrome.last(); got != "#ffffff" {
		t.Errorf("chrome after load = %q, want #ffffff", got)
	}
	if err := p.SetMode(context.Background(), preference.ThemeModeDark); err != nil {
		t.Fatal(err)
	}
	if got := chrome.last(); got != "#0f172a" {
		t.Errorf("chrome after dark = %q, want #0f172a", got)
	}
}

func TestProvider_ChromeFailureIsNotFatal(t *testing.T) {
	chrome := &recordingChrome{err: errors.New("no terminal")}
	p := startedProvider(t, testStore(t), newFakeAppearance(preference.ThemeLight, true), chrome)

	if err := p.SetMode(context.Background(), preference.ThemeModeDark); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if s := p.State(); s.Resolved != preference.ThemeDark {
		t.Errorf("resolved = %q, want dark despite chrome failure", s.Resolved)
	}
}

func TestProvider_StopDiscardsLateLoad(t *testing.T) {
	store := testStore(t)
	if err := store.SetPreference(context.Background(), preference.ThemeKey, "dark"); err != nil {
		t.Fatal(err)
	}
	kv := &blockingKV{KV: store, release: make(chan struct{})}
	app := newFakeAppearance(preference.ThemeLight, true)
	p := NewProvider(preference.NewThemeStore(kv), app, nil, Colors{})

	p.Start(context.Background())
	p.Stop()
	close(kv.release)
	waitReady(t, p)

	if s := p.State(); !s.Loading || s.Mode != preference.ThemeModeSystem {
		t.Errorf("state = %+v, late load must be discarded", s)
	}
	if n := app.subscribers(); n != 0 {
		t.Errorf("appearance subscribers = %d after stop, want 0", n)
	}
}

func TestProvider_SetModeDuringLoadWins(t *testing.T) {
	store := testStore(t)
	if err := store.SetPreference(context.Background(), preference.ThemeKey, "dark"); err != nil {
		t.Fatal(err)
	}
	kv := &blockingKV{KV: store, release: make(chan struct{})}
	p := NewProvider(preference.NewThemeStore(kv), newFakeAppearance(preference.ThemeLight, true), nil, Colors{})
	p.Start(context.Background())
	defer p.Stop()

	if err := p.SetMode(context.Background(), preference.ThemeModeLight); err != nil {
		t.Fatal(err)
	}
	if s := p.State(); !s.Loading || s.Mode != preference.ThemeModeLight {
		t.Errorf("state during load = %+v, want the chosen mode while still loading", s)
	}
	close(kv.release)
	waitReady(t, p)

	if s := p.State(); s.Mode != preference.ThemeModeLight {
		t.Errorf("mode = %q, user choice during load must win", s.Mode)
	}
}

func TestColors_For(t *testing.T) {
	c := Colors{Dark: "#000000", Light: "#eeeeee"}
	if c.For(preference.ThemeDark) != "#000000" || c.For(preference.ThemeLight) != "#eeeeee" {
		t.Errorf("Colors.For mismatch: %+v", c)
	}
}
