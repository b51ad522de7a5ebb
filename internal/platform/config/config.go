// Package config provides configuration loading and validation.
package config

// Config is the effective service configuration after applying defaults,
// the TOML file, and CLI flag overrides.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	Store     StoreConfig
	Logging   LoggingConfig
	Session   SessionConfig
	Bootstrap BootstrapConfig
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is the backend name: memory or sqlite.
	Driver string

	// DataDir is the directory for data files (sqlite db).
	DataDir string

	// Drivers holds per-driver options, decoded by the driver itself.
	Drivers map[string]map[string]any
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
}

// SessionConfig holds session token settings.
type SessionConfig struct {
	// TTLMinutes is the session lifetime in minutes.
	TTLMinutes int
}

// BootstrapConfig seeds an initial user at startup when both
// Username and Password are set.
type BootstrapConfig struct {
	Username string
	Password string
	Email    string
}

// Redacted returns a loggable view of the config with secrets removed.
func (c *Config) Redacted() map[string]any {
	bootstrapPassword := ""
	if c.Bootstrap.Password != "" {
		bootstrapPassword = "[redacted]"
	}
	return map[string]any{
		"listen_addr":         c.ListenAddr,
		"store.driver":        c.Store.Driver,
		"store.data_dir":      c.Store.DataDir,
		"logging.level":       c.Logging.Level,
		"session.ttl_minutes": c.Session.TTLMinutes,
		"bootstrap.username":  c.Bootstrap.Username,
		"bootstrap.password":  bootstrapPassword,
	}
}
