package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	profileFile  = "profile.json"
	memoryFile   = "memory.json"
	positionFile = "position.json"
)

// JSONStore keeps each unit in its own JSON file under dir. Every save
// rewrites the whole file.
type JSONStore struct {
	dir string
	mu  sync.Mutex
}

// OpenJSON creates dir if needed and returns a JSONStore rooted there.
func OpenJSON(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

// Dir returns the directory holding the files.
func (s *JSONStore) Dir() string { return s.dir }

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) LoadProfile() (map[string]string, error) {
	p := map[string]string{}
	if _, err := s.read(profileFile, &p); err != nil {
		return map[string]string{}, err
	}
	if p == nil {
		p = map[string]string{}
	}
	return p, nil
}

func (s *JSONStore) SaveProfile(p map[string]string) error {
	if p == nil {
		p = map[string]string{}
	}
	return s.write(profileFile, p)
}

func (s *JSONStore) LoadMemory() ([]Exchange, error) {
	var m []Exchange
	if _, err := s.read(memoryFile, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *JSONStore) SaveMemory(m []Exchange) error {
	if m == nil {
		m = []Exchange{}
	}
	return s.write(memoryFile, m)
}

func (s *JSONStore) LoadPosition() (Position, error) {
	var p Position
	found, err := s.read(positionFile, &p)
	if err != nil {
		return Position{}, err
	}
	if !found {
		return Position{}, ErrNotFound
	}
	return p, nil
}

func (s *JSONStore) SavePosition(p Position) error {
	return s.write(positionFile, p)
}

// read decodes name into v. A missing file is not an error and reports
// found=false.
func (s *JSONStore) read(name string, v any) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", name, err)
	}
	return true, nil
}

func (s *JSONStore) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
