package config

import (
	"fmt"
	"strconv"
)

// KeyInfo is one row of `deskmate config show`.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
	// Secret values are never rendered; Value only says whether one is set.
	Secret bool
	// Default reports that the value matches the built-in default.
	Default bool
}

const (
	secretSet   = "(set)"
	secretUnset = "(not set)"
)

// ShowAll lists every config key with its effective value in cfg.
func ShowAll(cfg Config) []KeyInfo {
	base := defaults()
	result := make([]KeyInfo, 0, len(specs))
	for _, s := range specs {
		info := KeyInfo{Key: s.key, EnvVar: s.env, Secret: s.secret}
		cur := fmt.Sprintf("%v", s.extract(cfg))
		if s.secret {
			info.Value = secretUnset
			if cur != "" {
				info.Value = secretSet
			}
		} else {
			info.Value = cur
		}
		info.Default = cur == fmt.Sprintf("%v", s.extract(base))
		result = append(result, info)
	}
	return result
}

// SetKey persists key in the platform backend. Secrets are rejected; they
// come from the environment or the secret store.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), key, value)
}

func setKeyWith(b ConfigBackend, key, value string) error {
	s, ok := findSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		return fmt.Errorf("cannot set secret %q via config; use environment variable %s", key, s.env)
	}
	if s.typ == kInt {
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		return b.SetInt(key, i)
	}
	return b.SetString(key, value)
}

// UnsetKey removes key from the platform backend so the default applies again.
func UnsetKey(key string) error {
	return unsetKeyWith(newPlatformBackend(), key)
}

func unsetKeyWith(b ConfigBackend, key string) error {
	s, ok := findSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		return fmt.Errorf("secret %q is not stored in config", key)
	}
	return b.Delete(key)
}

func findSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// ValidKeys returns the keys accepted by SetKey.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
