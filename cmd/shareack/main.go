// Package main is the entrypoint for the shareack server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shareack/shareack/internal/components/api/auth"
	"github.com/shareack/shareack/internal/components/api/invitations"
	"github.com/shareack/shareack/internal/components/identity"
	"github.com/shareack/shareack/internal/components/sharing"
	"github.com/shareack/shareack/internal/platform/config"
	"github.com/shareack/shareack/internal/platform/http/server"
	"github.com/shareack/shareack/internal/platform/logutil"
	"github.com/shareack/shareack/internal/store"

	// Register store drivers
	_ "github.com/shareack/shareack/internal/store/memory"
	_ "github.com/shareack/shareack/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file (optional)")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	storeDriver := flag.String("store-driver", "", "Store driver: memory or sqlite (overrides config)")
	dataDir := flag.String("data-dir", "", "Data directory (overrides config)")
	loggingLevel := flag.String("logging-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	// Bootstrap logger for config loading errors (uses default level)
	bootstrapLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPath: *configPath,
		FlagOverrides: config.FlagOverrides{
			ListenAddr:   listenAddr,
			StoreDriver:  storeDriver,
			DataDir:      dataDir,
			LoggingLevel: loggingLevel,
		},
		Logger: bootstrapLogger,
	})
	if err != nil {
		bootstrapLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logutil.ParseLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("effective configuration", "config", cfg.Redacted())

	// Persistence backend
	backend, err := store.New(&store.DriverConfig{
		Driver:  cfg.Store.Driver,
		DataDir: cfg.Store.DataDir,
		Options: cfg.Store.Drivers[cfg.Store.Driver],
	})
	if err != nil {
		logger.Error("failed to create store backend", "driver", cfg.Store.Driver, "available", store.AvailableDrivers(), "error", err)
		os.Exit(1)
	}
	if err := backend.Init(context.Background()); err != nil {
		logger.Error("failed to initialize store backend", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("store close error", "error", err)
		}
	}()
	logger.Info("store backend ready", "driver", backend.Name())

	// Identity
	hasher := identity.NewHasher()
	bootstrap := identity.NewBootstrap(backend.Users(), hasher, logger)
	created, err := bootstrap.EnsureUser(context.Background(), identity.SeededUser{
		Username: cfg.Bootstrap.Username,
		Password: cfg.Bootstrap.Password,
		Email:    cfg.Bootstrap.Email,
	})
	if err != nil {
		logger.Error("failed to seed bootstrap user", "error", err)
		os.Exit(1)
	}
	if created {
		logger.Info("bootstrap user seeded", "username", cfg.Bootstrap.Username)
	}

	// Invitation core
	policy := sharing.NewAccessPolicy(backend.Shares())
	engine := sharing.NewAcceptanceEngine(backend.Invitations(), backend.Shares(), backend.Items(), backend)
	manager := sharing.NewInvitationManager(backend.Invitations(), backend.Shares(), backend.Users(), engine)
	deleter := sharing.NewCascadeDeleter(backend.Invitations(), backend)

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	handlers := server.Handlers{
		Auth:        auth.NewHandler(backend.Users(), backend.Sessions(), hasher, sessionTTL, logger),
		Invitations: invitations.NewHandler(policy, backend.Invitations(), backend.Shares(), manager, engine, deleter, logger),
		DriverName:  backend.Name(),
	}

	srv := server.New(cfg, logger, handlers)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("signal received", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
			os.Exit(1)
		}
	}
}
