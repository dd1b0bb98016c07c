package config

import (
	"fmt"
	"os"
	"strconv"
)

// ConfigBackend is the persistent layer under the AUREUM_* environment:
// the `defaults` domain com.aureum.app on macOS, a JSON file elsewhere.
// `aureum config set` writes through it; Load reads it once at startup.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}

// applyBackend copies stored values onto cfg. Values that fail the key's
// validation (an unparseable poll interval, a colour that is not #rrggbb,
// a port out of range) are reported and skipped, so the default or a
// previous layer stands. Only read failures abort the load.
func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		raw, ok, err := readBackend(b, s)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] ignoring config key %s=%q: %v. Using default value.\n", s.key, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

// readBackend returns the stored value for s in its textual form. Integer
// keys go through GetInt so the macOS -int encoding round-trips.
func readBackend(b ConfigBackend, s keySpec) (string, bool, error) {
	if s.typ == kInt {
		i, ok, err := b.GetInt(s.key)
		if err != nil || !ok {
			return "", ok, err
		}
		return strconv.Itoa(i), true, nil
	}
	raw, ok, err := b.GetString(s.key)
	if err != nil || !ok || raw == "" {
		return "", false, err
	}
	return raw, true, nil
}
