package profile

import (
	"fmt"
	"log/slog"
	"sync"
)

// Store defines the persistence operations the Manager needs.
// Implemented by storage.JSONStore and storage.SQLiteStore.
type Store interface {
	LoadProfile() (map[string]string, error)
	SaveProfile(map[string]string) error
}

// Manager owns the in-memory profile. It is loaded once and written
// through to the store on every mutation.
type Manager struct {
	store Store

	mu     sync.RWMutex
	data   Profile
	loaded bool
}

// NewManager creates a Manager. Call Load before reading.
func NewManager(store Store) *Manager {
	return &Manager{store: store, data: Profile{}}
}

// Load reads the profile from the store. A missing or unreadable profile
// yields an empty one; the failure is only logged. Subsequent calls are
// no-ops.
func (m *Manager) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return
	}
	m.loaded = true

	keys, err := m.store.LoadProfile()
	if err != nil {
		slog.Warn("profile unavailable, starting empty", "error", err)
		return
	}
	m.data = Profile(keys).Clone()
}

// Get returns the value stored under key.
func (m *Manager) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Name returns the user's name, or "" when it was never recorded.
func (m *Manager) Name() string {
	v, _ := m.Get(KeyName)
	return v
}

// Set stores value under key and persists the whole profile immediately.
// The in-memory value is kept even when the save fails.
func (m *Manager) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	snapshot := m.data.Clone()
	m.mu.Unlock()

	if err := m.store.SaveProfile(snapshot); err != nil {
		return fmt.Errorf("saving profile key %q: %w", key, err)
	}
	return nil
}

// All returns a copy of the profile.
func (m *Manager) All() Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Clone()
}

// Summary renders the profile as the fact line injected into prompts.
// Returns "" when nothing is known.
func (m *Manager) Summary() string {
	name := m.Name()
	if name == "" {
		return ""
	}
	return fmt.Sprintf("The user's name is %s.", name)
}
