// Package settings assembles the settings screen: theme and language state,
// the user profile, and the notification toggles.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aureum-app/settings/internal/i18n"
	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/profile"
	"github.com/aureum-app/settings/internal/storage"
	"github.com/aureum-app/settings/internal/theme"
)

// ErrUnknownToggle is returned for notification names outside the toggle set.
var ErrUnknownToggle = errors.New("unknown notification toggle")

// Toggle names a notification switch.
type Toggle string

const (
	ToggleEmail    Toggle = "email"
	TogglePush     Toggle = "push"
	ToggleAutoSync Toggle = "auto_sync"
)

// Toggles lists every notification switch in display order.
var Toggles = []Toggle{ToggleEmail, TogglePush, ToggleAutoSync}

// Key returns the preference key the toggle is stored under.
func (t Toggle) Key() string { return "notifications." + string(t) }

// ParseToggle validates name as a Toggle.
func ParseToggle(name string) (Toggle, error) {
	t := Toggle(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Toggles {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownToggle, name)
}

// Notifications holds the toggle values.
type Notifications struct {
	Email    bool `json:"email"`
	Push     bool `json:"push"`
	AutoSync bool `json:"auto_sync"`
}

// DefaultNotifications applies to toggles that were never set.
var DefaultNotifications = Notifications{Email: false, Push: true, AutoSync: true}

func (n *Notifications) field(t Toggle) *bool {
	switch t {
	case ToggleEmail:
		return &n.Email
	case TogglePush:
		return &n.Push
	default:
		return &n.AutoSync
	}
}

// LanguageState is the language section of a Snapshot.
type LanguageState struct {
	Mode     preference.LanguageMode `json:"mode"`
	Resolved preference.Language     `json:"resolved"`
	Current  i18n.Option             `json:"current"`
	Options  []i18n.Option           `json:"options"`
}

// Snapshot is everything the settings screen renders.
type Snapshot struct {
	Theme         theme.State     `json:"theme"`
	Language      LanguageState   `json:"language"`
	Profile       profile.Profile `json:"profile"`
	Notifications Notifications   `json:"notifications"`
}

// ThemeSource reports the theme state. Implemented by theme.Provider.
type ThemeSource interface {
	State() theme.State
}

// LanguageSource reports the language state. Implemented by i18n.Manager.
type LanguageSource interface {
	CurrentMode(ctx context.Context) preference.LanguageMode
	CurrentLanguage() preference.Language
	CurrentOption(ctx context.Context) i18n.Option
	Options() []i18n.Option
}

// ProfileSource reads the user profile. Implemented by profile.Manager.
type ProfileSource interface {
	GetProfile() (profile.Profile, error)
}

// Service reads and writes the settings screen state.
type Service struct {
	theme    ThemeSource
	language LanguageSource
	profile  ProfileSource
	kv       preference.KV
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(themeSrc ThemeSource, language LanguageSource, profiles ProfileSource, kv preference.KV) *Service {
	return &Service{
		theme:    themeSrc,
		language: language,
		profile:  profiles,
		kv:       kv,
		logger:   slog.Default(),
	}
}

// Snapshot collects the current settings.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	p, err := s.profile.GetProfile()
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading profile: %w", err)
	}
	return Snapshot{
		Theme:         s.theme.State(),
		Language:      s.Language(ctx),
		Profile:       p,
		Notifications: s.Notifications(ctx),
	}, nil
}

// Language returns the language section of the settings screen.
func (s *Service) Language(ctx context.Context) LanguageState {
	return LanguageState{
		Mode:     s.language.CurrentMode(ctx),
		Resolved: s.language.CurrentLanguage(),
		Current:  s.language.CurrentOption(ctx),
		Options:  s.language.Options(),
	}
}

// Notifications returns the toggle values. Missing, corrupt, or unreadable
// rows take their default.
func (s *Service) Notifications(ctx context.Context) Notifications {
	n := DefaultNotifications
	for _, t := range Toggles {
		raw, err := s.kv.GetPreference(ctx, t.Key())
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("reading notification toggle failed", "toggle", t, "error", err)
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.logger.Warn("ignoring corrupt notification toggle", "toggle", t, "value", raw)
			continue
		}
		*n.field(t) = v
	}
	return n
}

// SetNotification persists one toggle and returns the updated values.
func (s *Service) SetNotification(ctx context.Context, name string, enabled bool) (Notifications, error) {
	t, err := ParseToggle(name)
	if err != nil {
		return Notifications{}, err
	}
	if err := s.kv.SetPreference(ctx, t.Key(), strconv.FormatBool(enabled)); err != nil {
		return Notifications{}, fmt.Errorf("saving toggle %s: %w", t, err)
	}
	s.logger.Info("notification toggle changed", "toggle", t, "enabled", enabled)
	return s.Notifications(ctx), nil
}
