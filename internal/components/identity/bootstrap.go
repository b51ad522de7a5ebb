package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shareack/shareack/internal/platform/logutil"
)

// SeededUser describes a user to create at startup.
type SeededUser struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
}

// Bootstrap creates seeded users idempotently.
type Bootstrap struct {
	repo   UserRepo
	hasher *Hasher
	log    *slog.Logger
}

// NewBootstrap creates a Bootstrap over the given repo and hasher.
func NewBootstrap(repo UserRepo, hasher *Hasher, log *slog.Logger) *Bootstrap {
	return &Bootstrap{
		repo:   repo,
		hasher: hasher,
		log:    logutil.NoopIfNil(log),
	}
}

// EnsureUser creates the user if no user with that username exists yet.
// Returns true when a user was created.
func (b *Bootstrap) EnsureUser(ctx context.Context, seed SeededUser) (bool, error) {
	if seed.Username == "" {
		return false, nil
	}
	if seed.Password == "" {
		return false, fmt.Errorf("bootstrap user %q has no password", seed.Username)
	}

	_, err := b.repo.GetByUsername(ctx, seed.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}

	hash, err := b.hasher.HashPassword(seed.Password)
	if err != nil {
		return false, fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	user := &User{
		ID:           UUIDv7(),
		Username:     seed.Username,
		Email:        NormalizeEmail(seed.Email),
		DisplayName:  seed.DisplayName,
		PasswordHash: hash,
	}
	if err := b.repo.Create(ctx, user); err != nil {
		return false, err
	}

	b.log.Info("bootstrap user created", "username", seed.Username, "user_id", user.ID)
	return true, nil
}
