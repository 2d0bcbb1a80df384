//go:build darwin

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultsDomain = "com.deskmate.app"

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "deskmate-data"
	}
	return filepath.Join(home, "Library", "Application Support", "deskmate")
}

func apiKeyHint(account string) string {
	return fmt.Sprintf(" or the login keychain (service: %s, account: %s)", secretService, account)
}

// errNotFound is returned by runTool for a missing entry: `defaults` exits
// with status 1 and `security` with 44.
var errNotFound = errors.New("not found")

// runTool runs a macOS command-line tool and returns its trimmed stdout.
func runTool(name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && (exitErr.ExitCode() == 1 || exitErr.ExitCode() == 44) {
			return "", errNotFound
		}
		return "", fmt.Errorf("%s %s: %w: %s", name, args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// defaultsBackend keeps settings in the user defaults domain
// com.deskmate.app, editable with `defaults write`.
type defaultsBackend struct {
	domain string
}

func newPlatformBackend() ConfigBackend {
	return defaultsBackend{domain: defaultsDomain}
}

func (b defaultsBackend) GetString(key string) (string, bool, error) {
	val, err := runTool("defaults", "read", b.domain, key)
	if errors.Is(err, errNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return val, true, nil
}

func (b defaultsBackend) GetInt(key string) (int, bool, error) {
	raw, ok, err := b.GetString(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, true, nil
}

func (b defaultsBackend) SetString(key, val string) error {
	_, err := runTool("defaults", "write", b.domain, key, "-string", val)
	return err
}

func (b defaultsBackend) SetInt(key string, val int) error {
	_, err := runTool("defaults", "write", b.domain, key, "-int", strconv.Itoa(val))
	return err
}

func (b defaultsBackend) Delete(key string) error {
	_, err := runTool("defaults", "delete", b.domain, key)
	if errors.Is(err, errNotFound) {
		return nil
	}
	return err
}
