// Package preference holds the tri-state preference modes, the pure
// resolver that maps a mode and an external signal to a concrete value, and
// the persisted store for a single mode record.
package preference

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned when a string is not a member of a mode set.
var ErrInvalidMode = errors.New("invalid preference mode")

// ThemeMode is the user's appearance selection.
type ThemeMode string

const (
	ThemeModeLight  ThemeMode = "light"
	ThemeModeDark   ThemeMode = "dark"
	ThemeModeSystem ThemeMode = "system"
)

// Theme is a resolved appearance. It is never "system".
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme is used when the OS appearance cannot be read.
const DefaultTheme = ThemeLight

// LanguageMode is the user's language selection.
type LanguageMode string

const (
	LanguageModeEnglish LanguageMode = "en"
	LanguageModeSpanish LanguageMode = "es"
	LanguageModeAuto    LanguageMode = "auto"
)

// Language is a resolved, supported locale code. It is never "auto".
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
)

// DefaultLanguage is used when the device locale is missing or unsupported.
const DefaultLanguage = LanguageEnglish

// SupportedLanguages lists the languages that have translation catalogs.
var SupportedLanguages = []Language{LanguageEnglish, LanguageSpanish}

// ParseThemeMode validates s as a ThemeMode.
func ParseThemeMode(s string) (ThemeMode, error) {
	switch m := ThemeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ThemeModeLight, ThemeModeDark, ThemeModeSystem:
		return m, nil
	}
	return "", fmt.Errorf("%w: theme %q (want light, dark or system)", ErrInvalidMode, s)
}

// ParseTheme validates s as a resolved Theme.
func ParseTheme(s string) (Theme, bool) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, true
	}
	return "", false
}

// ParseLanguageMode validates s as a LanguageMode.
func ParseLanguageMode(s string) (LanguageMode, error) {
	m := LanguageMode(strings.ToLower(strings.TrimSpace(s)))
	if m == LanguageModeAuto {
		return m, nil
	}
	if IsSupported(Language(m)) {
		return m, nil
	}
	return "", fmt.Errorf("%w: language %q (want auto, en or es)", ErrInvalidMode, s)
}

// IsSupported reports whether lang has a catalog.
func IsSupported(lang Language) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// IsDark reports whether t is the dark appearance.
func (t Theme) IsDark() bool { return t == ThemeDark }
