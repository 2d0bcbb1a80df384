//go:build darwin

package config

import "fmt"

// Secrets are generic passwords in the login keychain.

func keychainGet(service, account string) ([]byte, error) {
	val, err := runTool("security", "find-generic-password", "-s", service, "-a", account, "-w")
	if err != nil {
		return nil, fmt.Errorf("keychain %s/%s: %w", service, account, err)
	}
	return []byte(val), nil
}

func keychainSet(service, account, value string) error {
	_, err := runTool("security", "add-generic-password", "-U", "-s", service, "-a", account, "-w", value)
	return err
}
