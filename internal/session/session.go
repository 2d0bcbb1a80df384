// Package session holds what the assistant remembers between questions:
// the persisted user profile and a short, bounded list of recent exchanges.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kalambet/deskmate/internal/profile"
	"github.com/kalambet/deskmate/internal/storage"
)

// Exchange is one question/answer pair kept in short memory.
type Exchange = storage.Exchange

// DefaultMemoryCap is the number of exchanges kept when no cap is given.
const DefaultMemoryCap = 4

// Fixed replies for the name intents.
const (
	NameAcknowledged = "Nice to meet you! I'll remember your name."
	NameUnknown      = "You haven't told me your name yet."
)

// Store is the persistence the session needs.
type Store interface {
	profile.Store
	LoadMemory() ([]storage.Exchange, error)
	SaveMemory([]storage.Exchange) error
}

// Session is owned by the composition root and shared by reference with
// the presentation layer. Mutations happen on the worker answering a
// question; readers look at it after the reply has been delivered.
type Session struct {
	store   Store
	profile *profile.Manager
	cap     int

	mu     sync.Mutex
	memory []Exchange
}

// New creates a Session bounded to memoryCap exchanges. Call Load before use.
func New(store Store, memoryCap int) *Session {
	if memoryCap < 1 {
		memoryCap = DefaultMemoryCap
	}
	return &Session{
		store:   store,
		profile: profile.NewManager(store),
		cap:     memoryCap,
	}
}

// Load reads the profile and the short memory. Missing or unreadable data
// both yield empty defaults.
func (s *Session) Load() {
	s.profile.Load()

	mem, err := s.store.LoadMemory()
	if err != nil {
		slog.Warn("short memory unavailable, starting empty", "error", err)
		mem = nil
	}
	if len(mem) > s.cap {
		mem = mem[len(mem)-s.cap:]
	}

	s.mu.Lock()
	s.memory = append([]Exchange(nil), mem...)
	s.mu.Unlock()
}

// Cap returns the maximum number of exchanges kept.
func (s *Session) Cap() int { return s.cap }

// RecordUserName extracts the name from raw, stores and persists it, and
// returns the fixed acknowledgment. Any fragment is accepted, even "".
func (s *Session) RecordUserName(raw string) (string, error) {
	if err := s.SetUserName(ExtractName(raw)); err != nil {
		return "", err
	}
	return NameAcknowledged, nil
}

// SetUserName stores name verbatim.
func (s *Session) SetUserName(name string) error {
	return s.profile.Set(profile.KeyName, name)
}

// RecallUserName answers "what is my name". A recorded empty name is
// echoed as is; only a name never recorded gets NameUnknown.
func (s *Session) RecallUserName() string {
	name, ok := s.profile.Get(profile.KeyName)
	if !ok {
		return NameUnknown
	}
	return fmt.Sprintf("Your name is %s.", name)
}

// BuildContext renders the profile fact line followed by one line per
// remembered question. Answers are not replayed. Returns "" when nothing
// is known.
func (s *Session) BuildContext() string {
	var lines []string
	if fact := s.profile.Summary(); fact != "" {
		lines = append(lines, fact)
	}

	s.mu.Lock()
	for _, e := range s.memory {
		lines = append(lines, fmt.Sprintf("Previously discussed: %s.", e.User))
	}
	s.mu.Unlock()

	return strings.Join(lines, "\n")
}

// LastExchange returns the most recent exchange, if any.
func (s *Session) LastExchange() (Exchange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.memory) == 0 {
		return Exchange{}, false
	}
	return s.memory[len(s.memory)-1], true
}

// RecordExchange appends the pair, drops the oldest entries beyond the cap
// and persists the whole sequence. The in-memory list is updated even if
// the save fails; the error is returned.
func (s *Session) RecordExchange(user, assistant string) error {
	s.mu.Lock()
	s.memory = append(s.memory, Exchange{User: user, Assistant: assistant})
	if len(s.memory) > s.cap {
		s.memory = append([]Exchange(nil), s.memory[len(s.memory)-s.cap:]...)
	}
	snapshot := append([]Exchange(nil), s.memory...)
	s.mu.Unlock()

	if err := s.store.SaveMemory(snapshot); err != nil {
		return fmt.Errorf("saving short memory: %w", err)
	}
	return nil
}

// ClearMemory forgets every exchange and persists the empty list.
func (s *Session) ClearMemory() error {
	s.mu.Lock()
	s.memory = nil
	s.mu.Unlock()

	if err := s.store.SaveMemory(nil); err != nil {
		return fmt.Errorf("saving short memory: %w", err)
	}
	return nil
}

// Memory returns a copy of the remembered exchanges, oldest first.
func (s *Session) Memory() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Exchange{}, s.memory...)
}

// Profile returns a copy of the profile.
func (s *Session) Profile() profile.Profile {
	return s.profile.All()
}
