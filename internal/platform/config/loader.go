package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// LoaderOptions controls how configuration is loaded.
type LoaderOptions struct {
	// ConfigPath is the path to a TOML config file (optional).
	// If provided but the file is missing or invalid, loading fails.
	ConfigPath string

	// FlagOverrides are CLI flag values that override config file values.
	FlagOverrides FlagOverrides

	// Logger is used for warning messages (e.g., undecoded keys).
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// FlagOverrides holds CLI flag values that override config file values.
type FlagOverrides struct {
	ListenAddr   *string
	StoreDriver  *string
	DataDir      *string
	LoggingLevel *string
}

// fileConfig mirrors Config with pointer sections to detect presence.
type fileConfig struct {
	ListenAddr string `toml:"listen_addr"`

	Store     *storeFileConfig   `toml:"store"`
	Logging   *loggingFileConfig `toml:"logging"`
	Session   *sessionFileConfig `toml:"session"`
	Bootstrap *BootstrapConfig   `toml:"bootstrap"`
}

type storeFileConfig struct {
	Driver  string                    `toml:"driver"`
	DataDir string                    `toml:"data_dir"`
	Drivers map[string]map[string]any `toml:"drivers"`
}

type loggingFileConfig struct {
	Level string `toml:"level"`
}

type sessionFileConfig struct {
	TTLMinutes int `toml:"ttl_minutes"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		ListenAddr: ":8710",
		Store: StoreConfig{
			Driver:  "sqlite",
			DataDir: ".shareack",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Session: SessionConfig{
			TTLMinutes: 720, // 12 hours
		},
	}
}

// Load loads configuration with the following precedence:
//  1. Built-in defaults
//  2. TOML config file values
//  3. CLI flags
//
// If ConfigPath is provided but the file is missing, unreadable, or invalid
// TOML, Load returns an error (fail fast). Unknown TOML keys produce a
// warning but do not fail the load.
func Load(opts LoaderOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Default()

	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigPath, err)
		}

		var fc fileConfig
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigPath, err)
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			logger.Warn("config file contains undecoded keys", "path", opts.ConfigPath, "keys", keys)
		}

		overlayFileConfig(cfg, &fc)
	}

	overlayFlags(cfg, opts.FlagOverrides)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// overlayFileConfig applies TOML file values onto cfg.
func overlayFileConfig(cfg *Config, fc *fileConfig) {
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}

	if fc.Store != nil {
		if fc.Store.Driver != "" {
			cfg.Store.Driver = fc.Store.Driver
		}
		if fc.Store.DataDir != "" {
			cfg.Store.DataDir = fc.Store.DataDir
		}
		if len(fc.Store.Drivers) > 0 {
			cfg.Store.Drivers = fc.Store.Drivers
		}
	}

	if fc.Logging != nil && fc.Logging.Level != "" {
		cfg.Logging.Level = fc.Logging.Level
	}

	if fc.Session != nil && fc.Session.TTLMinutes != 0 {
		cfg.Session.TTLMinutes = fc.Session.TTLMinutes
	}

	if fc.Bootstrap != nil {
		cfg.Bootstrap = *fc.Bootstrap
	}
}

// overlayFlags applies CLI flag values onto cfg.
func overlayFlags(cfg *Config, f FlagOverrides) {
	if f.ListenAddr != nil && *f.ListenAddr != "" {
		cfg.ListenAddr = *f.ListenAddr
	}
	if f.StoreDriver != nil && *f.StoreDriver != "" {
		cfg.Store.Driver = *f.StoreDriver
	}
	if f.DataDir != nil && *f.DataDir != "" {
		cfg.Store.DataDir = *f.DataDir
	}
	if f.LoggingLevel != nil && *f.LoggingLevel != "" {
		cfg.Logging.Level = *f.LoggingLevel
	}
}

// validate checks enum-like fields and returns an error for invalid values.
func validate(cfg *Config) error {
	switch cfg.Store.Driver {
	case "memory", "sqlite":
		// valid
	default:
		return fmt.Errorf("invalid store.driver %q: must be one of memory, sqlite", cfg.Store.Driver)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid logging.level %q: must be one of debug, info, warn, error", cfg.Logging.Level)
	}

	if cfg.Session.TTLMinutes <= 0 {
		return fmt.Errorf("invalid session.ttl_minutes %d: must be positive", cfg.Session.TTLMinutes)
	}

	return nil
}
