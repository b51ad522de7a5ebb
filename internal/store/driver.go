// Package store provides the persistence backend abstraction and the driver
// registry. Concrete drivers register themselves from init() and are selected
// by name through configuration.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shareack/shareack/internal/components/identity"
	"github.com/shareack/shareack/internal/components/sharing"
)

// DriverConfig holds configuration for driver selection and initialization.
type DriverConfig struct {
	// Driver is the driver name: memory, sqlite.
	Driver string

	// DataDir is the directory for data files (sqlite db).
	DataDir string

	// Options carries driver-specific settings, decoded by each driver.
	Options map[string]any
}

// Backend is a fully wired persistence backend. Implementations must be safe
// for concurrent use.
type Backend interface {
	// Init initializes the backend (open files, create tables).
	Init(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error

	// Name returns the driver name.
	Name() string

	// Users returns the user repository.
	Users() identity.UserRepo

	// Sessions returns the session repository.
	Sessions() identity.SessionRepo

	// Shares returns the read-only share store.
	Shares() sharing.ShareStore

	sharing.Stores
	sharing.Transactor
}

// DriverFactory creates a backend instance from configuration.
type DriverFactory func(cfg *DriverConfig) (Backend, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFactory)
)

// Register registers a driver factory by name. Called from init() in driver
// packages.
func Register(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = factory
}

// New creates a backend instance based on the configuration.
func New(cfg *DriverConfig) (Backend, error) {
	driversMu.RLock()
	factory, ok := drivers[cfg.Driver]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	return factory(cfg)
}

// AvailableDrivers returns the sorted list of registered driver names.
func AvailableDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
