package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Keychain coordinates for the local API token.
const (
	keychainService = "aureum"
	apiTokenAccount = "api_token"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Log      LogConfig
	Locale   LocaleConfig
	Theme    ThemeConfig
	Scaffold ScaffoldConfig
}

type ServerConfig struct {
	Port     int
	APIToken string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type LocaleConfig struct {
	PollInterval time.Duration
}

type ThemeConfig struct {
	WatchInterval time.Duration
	DarkColor     string
	LightColor    string
}

type ScaffoldConfig struct {
	SrcDir    string
	BackupDir string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Log: LogConfig{
			Level: "info",
		},
		Locale: LocaleConfig{
			PollInterval: 5 * time.Second,
		},
		Theme: ThemeConfig{
			WatchInterval: 2 * time.Second,
			DarkColor:     "#0f172a",
			LightColor:    "#ffffff",
		},
		Scaffold: ScaffoldConfig{
			SrcDir:    "src",
			BackupDir: "backup-pre-migration",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.aureum.app) and the API
// token lives in the macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/aureum/config.json
// and the token lives in $XDG_DATA_HOME/aureum/secrets.json.
//
// Environment variables (AUREUM_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), platformKeychain{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try platform keychain for the API token if still empty.
	if cfg.Server.APIToken == "" {
		if token, err := kc.Get(keychainService, apiTokenAccount); err == nil && token != "" {
			cfg.Server.APIToken = token
		}
	}

	return cfg, nil
}

// EnsureAPIToken returns the configured API token, generating and storing a
// new one in the platform secret store when none exists.
func EnsureAPIToken(cfg *Config) (string, error) {
	return ensureAPIToken(cfg, platformKeychain{})
}

func ensureAPIToken(cfg *Config, kc keychain) (string, error) {
	if cfg.Server.APIToken != "" {
		return cfg.Server.APIToken, nil
	}
	token := uuid.NewString()
	if err := kc.Set(keychainService, apiTokenAccount, token); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	cfg.Server.APIToken = token
	return token, nil
}

// platformKeychain reads and writes the platform secret store.
type platformKeychain struct{}

func (platformKeychain) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (platformKeychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}
