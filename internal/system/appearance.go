// Package system reads the OS-level signals that "follow system" modes track:
// the appearance scheme, the device locale list, and the chrome colour of
// the hosting terminal.
package system

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/aureum-app/settings/internal/preference"
)

// AppearanceEnv overrides OS detection when set to "light" or "dark".
const AppearanceEnv = "AUREUM_APPEARANCE"

// AppearanceDetector reports the current OS appearance.
type AppearanceDetector interface {
	// Current returns the OS appearance and whether it could be determined.
	Current() (preference.Theme, bool)
}

// OSAppearance detects the appearance from platform settings.
type OSAppearance struct {
	goos   string
	getenv func(string) string
	run    func(name string, args ...string) ([]byte, error)
}

// NewOSAppearance returns a detector for the running platform.
func NewOSAppearance() *OSAppearance {
	return &OSAppearance{
		goos:   runtime.GOOS,
		getenv: os.Getenv,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

func (a *OSAppearance) Current() (preference.Theme, bool) {
	if v := a.getenv(AppearanceEnv); v != "" {
		return preference.ParseTheme(v)
	}
	switch a.goos {
	case "darwin":
		return a.darwin()
	case "linux":
		return a.linux()
	default:
		return "", false
	}
}

// darwin reads AppleInterfaceStyle; the key is absent in light mode.
func (a *OSAppearance) darwin() (preference.Theme, bool) {
	out, err := a.run("defaults", "read", "-g", "AppleInterfaceStyle")
	if err != nil {
		return preference.ThemeLight, true
	}
	if strings.EqualFold(strings.TrimSpace(string(out)), "dark") {
		return preference.ThemeDark, true
	}
	return preference.ThemeLight, true
}

func (a *OSAppearance) linux() (preference.Theme, bool) {
	// GNOME 42+ color-scheme: 'default', 'prefer-dark' or 'prefer-light'.
	if out, err := a.run("gsettings", "get", "org.gnome.desktop.interface", "color-scheme"); err == nil {
		lower := strings.ToLower(string(out))
		switch {
		case strings.Contains(lower, "dark"):
			return preference.ThemeDark, true
		case strings.Contains(lower, "light"), strings.Contains(lower, "default"):
			return preference.ThemeLight, true
		}
	}

	if out, err := a.run("gsettings", "get", "org.gnome.desktop.interface", "gtk-theme"); err == nil {
		if strings.Contains(strings.ToLower(string(out)), "dark") {
			return preference.ThemeDark, true
		}
		return preference.ThemeLight, true
	}

	return "", false
}
