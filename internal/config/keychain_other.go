//go:build !darwin

package config

import (
	"fmt"
	"sync"
)

// Without a system keychain, secrets live in a 0600 JSON file keyed by
// service then account.
type secretsFile map[string]map[string]string

var secretsMu sync.Mutex

func secretsFilePath() string {
	return xdgPath("XDG_DATA_HOME", ".local/share", "secrets.json")
}

func loadSecrets() (secretsFile, error) {
	secrets := secretsFile{}
	found, err := readJSONFile(secretsFilePath(), &secrets)
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("secrets file %s does not exist", secretsFilePath())
	}
	return secrets, nil
}

func keychainGet(service, account string) ([]byte, error) {
	secretsMu.Lock()
	defer secretsMu.Unlock()

	secrets, err := loadSecrets()
	if err != nil {
		return nil, err
	}
	val, ok := secrets[service][account]
	if !ok {
		return nil, fmt.Errorf("no secret for %s/%s", service, account)
	}
	return []byte(val), nil
}

func keychainSet(service, account, value string) error {
	secretsMu.Lock()
	defer secretsMu.Unlock()

	secrets, err := loadSecrets()
	if err != nil {
		// A missing or corrupt file is replaced rather than blocking the write.
		secrets = secretsFile{}
	}
	if secrets[service] == nil {
		secrets[service] = map[string]string{}
	}
	secrets[service][account] = value

	return writeJSONFile(secretsFilePath(), secrets)
}
