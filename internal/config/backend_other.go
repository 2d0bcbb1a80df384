//go:build !darwin

package config

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
)

func defaultDataDir() string {
	return xdgPath("XDG_DATA_HOME", ".local/share", "")
}

func apiKeyHint(account string) string {
	return fmt.Sprintf(" or the secrets file %s (service: %s, account: %s)", secretsFilePath(), secretService, account)
}

func configFilePath() string {
	return xdgPath("XDG_CONFIG_HOME", ".config", "config.json")
}

// fileBackend keeps settings as one flat JSON object under
// $XDG_CONFIG_HOME/deskmate/config.json. Keys are the dotted config names.
type fileBackend struct {
	path string

	mu   sync.Mutex
	data map[string]any
}

func newPlatformBackend() ConfigBackend {
	return newFileBackend(configFilePath())
}

// newFileBackend loads path. An unreadable file is reported and treated
// as empty so defaults apply.
func newFileBackend(path string) *fileBackend {
	b := &fileBackend{path: path, data: make(map[string]any)}
	if _, err := readJSONFile(path, &b.data); err != nil {
		slog.Warn("ignoring config file", "path", path, "error", err)
		b.data = make(map[string]any)
	}
	return b
}

func (b *fileBackend) get(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	return v, ok
}

func (b *fileBackend) set(key string, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v == nil {
		delete(b.data, key)
	} else {
		b.data[key] = v
	}
	if err := writeJSONFile(b.path, b.data); err != nil {
		return fmt.Errorf("saving config file: %w", err)
	}
	return nil
}

func (b *fileBackend) GetString(key string) (string, bool, error) {
	v, ok := b.get(key)
	if !ok {
		return "", false, nil
	}
	if s, ok := v.(string); ok {
		return s, true, nil
	}
	return fmt.Sprintf("%v", v), true, nil
}

// GetInt accepts JSON numbers and numeric strings, since hand-edited files
// often quote them.
func (b *fileBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.get(key)
	if !ok {
		return 0, false, nil
	}
	switch val := v.(type) {
	case float64:
		if val < math.MinInt || val > math.MaxInt || val != math.Trunc(val) {
			return 0, true, fmt.Errorf("value %v for %s is not a valid integer", val, key)
		}
		return int(val), true, nil
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("invalid type %T for %s", v, key)
	}
}

func (b *fileBackend) SetString(key, val string) error { return b.set(key, val) }

func (b *fileBackend) SetInt(key string, val int) error { return b.set(key, val) }

func (b *fileBackend) Delete(key string) error { return b.set(key, nil) }
