package identity_test

import (
	"strings"
	"testing"

	"github.com/shareack/shareack/internal/components/identity"
)

func TestHasher_HashAndVerify(t *testing.T) {
	hasher := identity.NewFastHasher()

	hash, err := hasher.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("expected PHC argon2id format, got %q", hash)
	}

	if err := hasher.VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("expected password to verify, got %v", err)
	}
}

func TestHasher_WrongPasswordRejected(t *testing.T) {
	hasher := identity.NewFastHasher()

	hash, err := hasher.HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if err := hasher.VerifyPassword(hash, "not-secret"); err != identity.ErrInvalidPassword {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestHasher_MalformedHashRejected(t *testing.T) {
	hasher := identity.NewFastHasher()

	for _, hash := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=16384,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=16384,t=1,p=2$not-base64!$aGFzaA",
	} {
		if err := hasher.VerifyPassword(hash, "secret"); err != identity.ErrInvalidPassword {
			t.Errorf("hash %q: expected ErrInvalidPassword, got %v", hash, err)
		}
	}
}

func TestHasher_DistinctSalts(t *testing.T) {
	hasher := identity.NewFastHasher()

	first, err := hasher.HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	second, err := hasher.HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}
