package profile

import (
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProfileStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type ProfileStore interface {
	SetProfileKey(key, value string) error
	GetProfileKey(key string) (string, error)
	GetAllProfileKeys() (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached, structured access to the user profile stored in SQLite.
type Manager struct {
	store ProfileStore
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store ProfileStore) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store ProfileStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// GetProfile reads all profile keys from storage (or cache) and assembles
// a structured Profile. Returns a zero-value Profile on empty store.
func (m *Manager) GetProfile() (Profile, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		p := *m.cached
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	// Slow path: write lock for cache miss.
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return *m.cached, nil
	}

	keys, err := m.store.GetAllProfileKeys()
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile keys: %w", err)
	}

	p := buildProfile(keys)
	m.cached = &p
	m.cachedAt = m.clock.Now()
	return p, nil
}

// EnsureID assigns a random id to the profile if it has none and returns it.
func (m *Manager) EnsureID() (string, error) {
	p, err := m.GetProfile()
	if err != nil {
		return "", err
	}
	if p.ID != "" {
		return p.ID, nil
	}

	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.SetProfileKey(KeyID, id); err != nil {
		return "", fmt.Errorf("assigning profile id: %w", err)
	}
	m.cached = nil
	slog.Info("assigned profile id", "id", id)
	return id, nil
}

// Validate reports whether value may be stored under key.
func Validate(key, value string) error {
	if !editableKeys[key] {
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownField, key, strings.Join(Fields(), ", "))
	}
	if key == KeyEmail && value != "" {
		if _, err := mail.ParseAddress(value); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidEmail, value, err)
		}
	}
	return nil
}

// SetField validates and persists one editable profile key, then
// invalidates the cache.
func (m *Manager) SetField(key, value string) error {
	return m.SetFields(map[string]string{key: value})
}

// SetFields validates every field before writing any of them, so an
// invalid entry leaves the stored profile untouched. Keys are written in
// sorted order.
func (m *Manager) SetFields(fields map[string]string) error {
	clean := make(map[string]string, len(fields))
	for key, value := range fields {
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if err := Validate(key, value); err != nil {
			return err
		}
		clean[key] = value
	}
	keys := make([]string, 0, len(clean))
	for key := range clean {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.cached = nil }()

	for _, key := range keys {
		if err := m.store.SetProfileKey(key, clean[key]); err != nil {
			return fmt.Errorf("setting profile key %q: %w", key, err)
		}
	}
	return nil
}

// Summary returns a one-line description of the profile for the CLI.
func (m *Manager) Summary() (string, error) {
	p, err := m.GetProfile()
	if err != nil {
		return "", fmt.Errorf("getting profile for summary: %w", err)
	}
	return Describe(p), nil
}

// Describe renders p as "Name <email> (role)", omitting empty parts.
func Describe(p Profile) string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	if p.Email != "" {
		parts = append(parts, "<"+p.Email+">")
	}
	if p.Role != "" {
		parts = append(parts, "("+p.Role+")")
	}
	if len(parts) == 0 {
		return "User profile: not yet configured."
	}
	return strings.Join(parts, " ")
}

// buildProfile assembles a Profile from flat key-value pairs. Unknown keys
// are ignored.
func buildProfile(keys map[string]string) Profile {
	return Profile{
		ID:    keys[KeyID],
		Name:  keys[KeyName],
		Email: keys[KeyEmail],
		Role:  keys[KeyRole],
	}
}
