// Package identity provides user management, authentication, and session handling.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrEmailExists     = errors.New("email already in use")
	ErrInvalidPassword = errors.New("invalid password")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionNotFound = errors.New("session not found")
)

// User represents a party in the system.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey"`            // UUIDv7
	Username     string    `json:"username" gorm:"uniqueIndex"`     // Unique login name
	Email        string    `json:"email" gorm:"index"`              // Lowercased email
	DisplayName  string    `json:"display_name"`                    // Human-readable name
	PasswordHash string    `json:"-"`                               // argon2id hash, never serialized
	CreatedAt    time.Time `json:"created_at"`
}

// UserRepo provides user storage operations.
type UserRepo interface {
	// Create creates a new user. Returns ErrUserExists if the username is
	// taken and ErrEmailExists if the email is already in use.
	Create(ctx context.Context, user *User) error

	// Get retrieves a user by ID. Returns ErrUserNotFound if not found.
	Get(ctx context.Context, id string) (*User, error)

	// GetByUsername retrieves a user by username. Returns ErrUserNotFound if not found.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive, trimmed).
	// Returns ErrUserNotFound if not found or if email is empty.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *User) error
}

// UUIDv7 returns a time-ordered UUIDv7 string.
func UUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}

// NormalizeEmail lowercases and trims an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryUserRepo is an in-memory UserRepo implementation.
type MemoryUserRepo struct {
	mu         sync.RWMutex
	users      map[string]*User
	byUsername map[string]string // username -> id
	byEmail    map[string]string // normalized email -> id
}

// NewMemoryUserRepo creates a new in-memory user repo.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:      make(map[string]*User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (r *MemoryUserRepo) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.Username]; ok {
		return ErrUserExists
	}
	email := NormalizeEmail(user.Email)
	if email != "" {
		if _, ok := r.byEmail[email]; ok {
			return ErrEmailExists
		}
	}

	if user.ID == "" {
		user.ID = UUIDv7()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.Email = email

	r.users[user.ID] = user
	r.byUsername[user.Username] = user.ID
	if email != "" {
		r.byEmail[email] = user.ID
	}
	return nil
}

func (r *MemoryUserRepo) Get(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return r.users[id], nil
}

func (r *MemoryUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return r.users[id], nil
}

func (r *MemoryUserRepo) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}

	delete(r.byUsername, existing.Username)
	delete(r.byEmail, NormalizeEmail(existing.Email))

	user.Email = NormalizeEmail(user.Email)
	r.users[user.ID] = user
	r.byUsername[user.Username] = user.ID
	if user.Email != "" {
		r.byEmail[user.Email] = user.ID
	}
	return nil
}
