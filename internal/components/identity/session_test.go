package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/shareack/shareack/internal/components/identity"
)

func TestMemorySessionRepo_CRUD(t *testing.T) {
	repo := identity.NewMemorySessionRepo()
	ctx := context.Background()

	session, err := repo.Create(ctx, "user-123", time.Hour)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if session.Token == "" {
		t.Error("token should be assigned")
	}
	if session.UserID != "user-123" {
		t.Errorf("expected userID 'user-123', got %q", session.UserID)
	}

	got, err := repo.Get(ctx, session.Token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != "user-123" {
		t.Errorf("expected userID 'user-123', got %q", got.UserID)
	}

	if err := repo.Delete(ctx, session.Token); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.Get(ctx, session.Token); err != identity.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemorySessionRepo_ExpiredSession(t *testing.T) {
	repo := identity.NewMemorySessionRepo()
	ctx := context.Background()

	session, err := repo.Create(ctx, "user-123", -time.Minute)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := repo.Get(ctx, session.Token); err != identity.ErrSessionExpired {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}

	removed, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 expired session removed, got %d", removed)
	}
}

func TestUserFromContext(t *testing.T) {
	if _, err := identity.UserFromContext(context.Background()); err != identity.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound for empty context, got %v", err)
	}

	user := &identity.User{ID: "user-123", Username: "alice"}
	ctx := identity.WithUser(context.Background(), user)

	got, err := identity.UserFromContext(ctx)
	if err != nil {
		t.Fatalf("UserFromContext failed: %v", err)
	}
	if got.ID != "user-123" {
		t.Errorf("expected user-123, got %q", got.ID)
	}
}
