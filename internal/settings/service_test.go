package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/aureum-app/settings/internal/i18n"
	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/profile"
	"github.com/aureum-app/settings/internal/storage"
	"github.com/aureum-app/settings/internal/theme"
)

// --- Mocks ---

type mockTheme struct{ state theme.State }

func (m mockTheme) State() theme.State { return m.state }

type mockLanguage struct {
	mode preference.LanguageMode
	lang preference.Language
}

func (m mockLanguage) CurrentMode(context.Context) preference.LanguageMode { return m.mode }
func (m mockLanguage) CurrentLanguage() preference.Language                { return m.lang }
func (m mockLanguage) CurrentOption(context.Context) i18n.Option {
	return i18n.Option{Code: m.mode}
}
func (m mockLanguage) Options() []i18n.Option {
	return []i18n.Option{{Code: preference.LanguageModeAuto}, {Code: preference.LanguageModeEnglish}, {Code: preference.LanguageModeSpanish}}
}

type mockProfile struct {
	p   profile.Profile
	err error
}

func (m mockProfile) GetProfile() (profile.Profile, error) { return m.p, m.err }

func newTestService(t *testing.T, p mockProfile) (*Service, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	th := mockTheme{state: theme.State{Mode: preference.ThemeModeDark, Resolved: preference.ThemeDark, IsDark: true}}
	lang := mockLanguage{mode: preference.LanguageModeAuto, lang: preference.LanguageSpanish}
	return NewService(th, lang, p, store), store
}

// --- Tests ---

func TestNotifications_Defaults(t *testing.T) {
	svc, _ := newTestService(t, mockProfile{})

	if got := svc.Notifications(context.Background()); got != DefaultNotifications {
		t.Errorf("Notifications = %+v, want defaults %+v", got, DefaultNotifications)
	}
}

func TestSetNotification(t *testing.T) {
	svc, store := newTestService(t, mockProfile{})
	ctx := context.Background()

	got, err := svc.SetNotification(ctx, "Email", true)
	if err != nil {
		t.Fatalf("SetNotification: %v", err)
	}
	if !got.Email || !got.Push || !got.AutoSync {
		t.Errorf("after enabling email = %+v", got)
	}

	got, err = svc.SetNotification(ctx, "push", false)
	if err != nil {
		t.Fatalf("SetNotification: %v", err)
	}
	if got.Push {
		t.Error("push should be disabled")
	}

	raw, err := store.GetPreference(ctx, "notifications.push")
	if err != nil || raw != "false" {
		t.Errorf("stored push = (%q, %v), want false", raw, err)
	}
}

func TestSetNotification_Unknown(t *testing.T) {
	svc, _ := newTestService(t, mockProfile{})

	_, err := svc.SetNotification(context.Background(), "sms", true)
	if !errors.Is(err, ErrUnknownToggle) {
		t.Errorf("err = %v, want ErrUnknownToggle", err)
	}
}

func TestNotifications_CorruptRowUsesDefault(t *testing.T) {
	svc, store := newTestService(t, mockProfile{})
	ctx := context.Background()

	if err := store.SetPreference(ctx, ToggleAutoSync.Key(), "maybe"); err != nil {
		t.Fatal(err)
	}
	if got := svc.Notifications(ctx); !got.AutoSync {
		t.Error("corrupt auto_sync should fall back to default true")
	}
}

func TestSnapshot(t *testing.T) {
	svc, _ := newTestService(t, mockProfile{p: profile.Profile{Name: "Ana"}})

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.Theme.IsDark {
		t.Error("expected dark theme in snapshot")
	}
	if snap.Language.Mode != preference.LanguageModeAuto || snap.Language.Resolved != preference.LanguageSpanish {
		t.Errorf("language = %+v", snap.Language)
	}
	if len(snap.Language.Options) != 3 {
		t.Errorf("options = %d, want 3", len(snap.Language.Options))
	}
	if snap.Profile.Name != "Ana" {
		t.Errorf("profile = %+v", snap.Profile)
	}
	if snap.Notifications != DefaultNotifications {
		t.Errorf("notifications = %+v", snap.Notifications)
	}
}

func TestSnapshot_ProfileError(t *testing.T) {
	svc, _ := newTestService(t, mockProfile{err: errors.New("db gone")})

	if _, err := svc.Snapshot(context.Background()); err == nil {
		t.Error("expected profile error")
	}
}

func TestParseToggle(t *testing.T) {
	for _, name := range []string{"email", " PUSH ", "auto_sync"} {
		if _, err := ParseToggle(name); err != nil {
			t.Errorf("ParseToggle(%q): %v", name, err)
		}
	}
	if _, err := ParseToggle("autoSync"); err == nil {
		t.Error("expected error for camelCase name")
	}
}
