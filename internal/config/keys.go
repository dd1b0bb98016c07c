package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key      string
	typ      keyType
	env      string
	secret   bool
	validate func(string) error
	apply    func(cfg *Config, v any)
	extract  func(cfg Config) any
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validColor(s string) error {
	if !hexColor.MatchString(s) {
		return fmt.Errorf("%q is not a #rrggbb colour", s)
	}
	return nil
}

// Bounds for the appearance and locale polling intervals.
const (
	minInterval = 100 * time.Millisecond
	maxInterval = time.Hour
)

func validInterval(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil // reported by parse
	}
	if d < minInterval || d > maxInterval {
		return fmt.Errorf("%s is outside %s..%s", d, minInterval, maxInterval)
	}
	return nil
}

func validPort(s string) error {
	p, err := strconv.Atoi(s)
	if err != nil {
		return nil // reported by parse
	}
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d is outside 1..65535", p)
	}
	return nil
}

func validLevel(s string) error {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("%q is not one of debug, info, warn, error", s)
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "AUREUM_SERVER_PORT",
		validate: validPort,
		apply:    func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract:  func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "AUREUM_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "storage.data_dir", typ: kString, env: "AUREUM_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "AUREUM_LOG_LEVEL",
		validate: validLevel,
		apply:    func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract:  func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "locale.poll_interval", typ: kDuration, env: "AUREUM_LOCALE_POLL_INTERVAL",
		validate: validInterval,
		apply:    func(cfg *Config, v any) { cfg.Locale.PollInterval = v.(time.Duration) },
		extract:  func(cfg Config) any { return cfg.Locale.PollInterval },
	},
	{
		key: "theme.watch_interval", typ: kDuration, env: "AUREUM_THEME_WATCH_INTERVAL",
		validate: validInterval,
		apply:    func(cfg *Config, v any) { cfg.Theme.WatchInterval = v.(time.Duration) },
		extract:  func(cfg Config) any { return cfg.Theme.WatchInterval },
	},
	{
		key: "theme.dark_color", typ: kString, env: "AUREUM_THEME_DARK_COLOR",
		validate: validColor,
		apply:    func(cfg *Config, v any) { cfg.Theme.DarkColor = v.(string) },
		extract:  func(cfg Config) any { return cfg.Theme.DarkColor },
	},
	{
		key: "theme.light_color", typ: kString, env: "AUREUM_THEME_LIGHT_COLOR",
		validate: validColor,
		apply:    func(cfg *Config, v any) { cfg.Theme.LightColor = v.(string) },
		extract:  func(cfg Config) any { return cfg.Theme.LightColor },
	},
	{
		key: "scaffold.src_dir", typ: kString, env: "AUREUM_SCAFFOLD_SRC_DIR",
		apply:   func(cfg *Config, v any) { cfg.Scaffold.SrcDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Scaffold.SrcDir },
	},
	{
		key: "scaffold.backup_dir", typ: kString, env: "AUREUM_SCAFFOLD_BACKUP_DIR",
		apply:   func(cfg *Config, v any) { cfg.Scaffold.BackupDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Scaffold.BackupDir },
	},
}

func findSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// parse converts raw into the spec's value type and validates it.
func (s keySpec) parse(raw string) (any, error) {
	if s.validate != nil {
		if err := s.validate(raw); err != nil {
			return nil, err
		}
	}
	switch s.typ {
	case kInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer: %w", err)
		}
		return i, nil
	case kDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("duration must be positive, got %s", d)
		}
		return d, nil
	default:
		return raw, nil
	}
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] ignoring env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
