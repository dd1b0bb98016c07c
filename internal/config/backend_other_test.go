//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aureum", "config.json")
	b := newFileBackend(path)

	if err := b.SetInt("server.port", 4300); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if err := b.SetString("log.level", "debug"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	reopened := newFileBackend(path)
	if v, ok, err := reopened.GetInt("server.port"); err != nil || !ok || v != 4300 {
		t.Errorf("GetInt = (%d, %v, %v)", v, ok, err)
	}
	if v, ok, err := reopened.GetString("log.level"); err != nil || !ok || v != "debug" {
		t.Errorf("GetString = (%q, %v, %v)", v, ok, err)
	}

	if err := reopened.Delete("log.level"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := newFileBackend(path).GetString("log.level"); ok {
		t.Error("deleted key still present")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestFileBackend_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := newFileBackend(path)
	if _, ok, err := b.GetString("log.level"); ok || err != nil {
		t.Errorf("corrupt file should read as empty, got ok=%v err=%v", ok, err)
	}
}

func TestFileBackend_LoadWith(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server.port": 4555, "theme.watch_interval": "3s"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadWith(newFileBackend(path), &mockKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4555 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Theme.WatchInterval.String() != "3s" {
		t.Errorf("Theme.WatchInterval = %v", cfg.Theme.WatchInterval)
	}
}

func TestSecretsFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if err := keychainSet("aureum", "api_token", "tok-1"); err != nil {
		t.Fatalf("keychainSet: %v", err)
	}
	got, err := platformKeychain{}.Get("aureum", "api_token")
	if err != nil || got != "tok-1" {
		t.Errorf("Get = (%q, %v), want tok-1", got, err)
	}
	if _, err := keychainGet("aureum", "missing"); err == nil {
		t.Error("expected error for missing account")
	}

	info, err := os.Stat(secretsFilePath())
	if err != nil {
		t.Fatalf("stat secrets file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("secrets file mode = %o, want 600", perm)
	}
}

func TestSecretsFile_Missing(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if _, err := (platformKeychain{}).Get("aureum", "api_token"); err == nil {
		t.Error("expected error without a secrets file")
	}
	cfg, err := loadWith(newFileBackend(filepath.Join(t.TempDir(), "config.json")), platformKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.APIToken != "" {
		t.Errorf("APIToken = %q, want empty", cfg.Server.APIToken)
	}
}
