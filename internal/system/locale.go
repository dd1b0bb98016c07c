package system

import (
	"os"
	"strings"
)

// LocaleSource lists the device locales in preference order.
// No change notification exists; callers poll.
type LocaleSource interface {
	Locales() ([]string, error)
}

// EnvLocales reads the POSIX locale environment.
type EnvLocales struct {
	getenv func(string) string
}

// NewEnvLocales returns a LocaleSource backed by the process environment.
func NewEnvLocales() *EnvLocales {
	return &EnvLocales{getenv: os.Getenv}
}

// Locales returns the normalised locales from LANGUAGE (a colon-separated
// list), LC_ALL, LC_MESSAGES and LANG, in that order, without duplicates.
// The C and POSIX locales are skipped.
func (e *EnvLocales) Locales() ([]string, error) {
	var raw []string
	if v := e.getenv("LANGUAGE"); v != "" {
		raw = append(raw, strings.Split(v, ":")...)
	}
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := e.getenv(key); v != "" {
			raw = append(raw, v)
		}
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		loc := NormalizeLocale(r)
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out, nil
}

// NormalizeLocale converts a POSIX locale such as "es_SV.UTF-8@euro" into a
// BCP 47 style tag ("es-SV"). Returns "" for C, POSIX and blank input.
func NormalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(s, "_", "-")
}
