//go:build !darwin

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// secretsFilePath is the token store used where no OS keychain is wired:
// a fileBackend under XDG_DATA_HOME, written 0600 like the config file.
func secretsFilePath() string {
	return filepath.Join(defaultDataDir(), "secrets.json")
}

func secretKey(service, account string) string {
	return service + "/" + account
}

func keychainGet(service, account string) ([]byte, error) {
	path := secretsFilePath()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("secret store not available: %w", err)
	}
	v, ok, err := newFileBackend(path).GetString(secretKey(service, account))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no secret for %s", secretKey(service, account))
	}
	return []byte(v), nil
}

func keychainSet(service, account, value string) error {
	return newFileBackend(secretsFilePath()).SetString(secretKey(service, account), value)
}
