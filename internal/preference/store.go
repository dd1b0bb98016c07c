package preference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aureum-app/settings/internal/storage"
)

// Storage keys for the persisted mode records.
const (
	ThemeKey    = "@aureum_theme_preference"
	LanguageKey = "@aureum_language_preference"
)

// KV is the key-value storage a Store persists into.
// Implemented by storage.Store; missing keys return storage.ErrNotFound.
type KV interface {
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
}

// Store persists a single mode value under a fixed key.
type Store[M ~string] struct {
	kv     KV
	key    string
	parse  func(string) (M, error)
	logger *slog.Logger
}

// NewStore creates a Store for key using parse to validate loaded values.
func NewStore[M ~string](kv KV, key string, parse func(string) (M, error)) *Store[M] {
	return &Store[M]{
		kv:     kv,
		key:    key,
		parse:  parse,
		logger: slog.Default(),
	}
}

// NewThemeStore returns the store for the theme mode record.
func NewThemeStore(kv KV) *Store[ThemeMode] {
	return NewStore(kv, ThemeKey, ParseThemeMode)
}

// NewLanguageStore returns the store for the language mode record.
func NewLanguageStore(kv KV) *Store[LanguageMode] {
	return NewStore(kv, LanguageKey, ParseLanguageMode)
}

// Key returns the storage key this store writes.
func (s *Store[M]) Key() string { return s.key }

// Load returns the persisted mode. The bool is false when nothing is stored,
// the stored value is not a valid mode, or storage could not be read.
func (s *Store[M]) Load(ctx context.Context) (M, bool) {
	m, ok, err := s.Lookup(ctx)
	if err != nil {
		s.logger.Warn("reading preference failed, using default", "key", s.key, "error", err)
		return m, false
	}
	return m, ok
}

// Lookup is like Load but reports storage read failures instead of
// logging them. Missing and corrupt values are not errors.
func (s *Store[M]) Lookup(ctx context.Context) (M, bool, error) {
	var zero M
	raw, err := s.kv.GetPreference(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("reading %s: %w", s.key, err)
	}
	m, err := s.parse(raw)
	if err != nil {
		s.logger.Warn("ignoring corrupt preference", "key", s.key, "value", raw, "error", err)
		return zero, false, nil
	}
	return m, true, nil
}

// Save persists m. Callers that treat persistence as best-effort log the
// returned error and continue.
func (s *Store[M]) Save(ctx context.Context, m M) error {
	parsed, err := s.parse(string(m))
	if err != nil {
		return err
	}
	if err := s.kv.SetPreference(ctx, s.key, string(parsed)); err != nil {
		return fmt.Errorf("saving %s: %w", s.key, err)
	}
	return nil
}
