//go:build darwin

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultsDomain = "com.aureum.app"

// defaultsTimeout bounds each `defaults` call; cfprefsd can stall.
const defaultsTimeout = 3 * time.Second

func defaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "aureum")
	}
	return "aureum-data"
}

// darwinBackend keeps settings in the app's UserDefaults domain, so they
// can also be inspected with `defaults read com.aureum.app`.
type darwinBackend struct {
	domain string
	run    func(ctx context.Context, args ...string) ([]byte, error)
}

func newPlatformBackend() ConfigBackend {
	return &darwinBackend{domain: defaultsDomain, run: runDefaults}
}

func runDefaults(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "defaults", args...).CombinedOutput()
}

// call runs `defaults <verb> <domain> <key> [args]`. Reading or deleting a
// missing key makes `defaults` exit 1; that is reported as found=false
// rather than an error.
func (b *darwinBackend) call(verb, key string, args ...string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultsTimeout)
	defer cancel()

	out, err := b.run(ctx, append([]string{verb, b.domain, key}, args...)...)
	s := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if verb != "write" && errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("defaults %s %s: %w (%s)", verb, key, err, s)
	}
	return s, true, nil
}

func (b *darwinBackend) GetString(key string) (string, bool, error) {
	return b.call("read", key)
}

func (b *darwinBackend) GetInt(key string) (int, bool, error) {
	s, ok, err := b.call("read", key)
	if !ok || err != nil {
		return 0, ok, err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, true, nil
}

func (b *darwinBackend) SetString(key, val string) error {
	_, _, err := b.call("write", key, "-string", val)
	return err
}

func (b *darwinBackend) SetInt(key string, val int) error {
	_, _, err := b.call("write", key, "-int", strconv.Itoa(val))
	return err
}

// Delete removes key. Unsetting a key that was never written succeeds.
func (b *darwinBackend) Delete(key string) error {
	_, _, err := b.call("delete", key)
	return err
}
