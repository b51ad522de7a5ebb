// Package auth implements login/logout endpoints and the session middleware
// that resolves the bearer token into the current user.
package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shareack/shareack/internal/components/api"
	"github.com/shareack/shareack/internal/components/identity"
	"github.com/shareack/shareack/internal/platform/logutil"
)

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token on successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// Handler handles authentication endpoints.
type Handler struct {
	users    identity.UserRepo
	sessions identity.SessionRepo
	hasher   *identity.Hasher
	ttl      time.Duration
	log      *slog.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users identity.UserRepo, sessions identity.SessionRepo, hasher *identity.Hasher, ttl time.Duration, log *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		ttl:      ttl,
		log:      logutil.NoopIfNil(log),
	}
}

// HandleLogin handles POST /api/auth/login.
// Unknown user and wrong password produce the same response.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, api.ReasonBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		api.WriteBadRequest(w, api.ReasonMissingField, "username and password are required")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		api.WriteUnauthorized(w, api.ReasonInvalidCredentials, "invalid credentials")
		return
	}
	if err := h.hasher.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		api.WriteUnauthorized(w, api.ReasonInvalidCredentials, "invalid credentials")
		return
	}

	session, err := h.sessions.Create(r.Context(), user.ID, h.ttl)
	if err != nil {
		h.log.Error("failed to create session", "user_id", user.ID, "error", err)
		api.WriteInternalError(w, "failed to create session")
		return
	}

	h.log.Info("user logged in", "user_id", user.ID, "username", user.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		UserID:    session.UserID,
	})
}

// HandleLogout handles POST /api/auth/logout. Deleting an already-deleted
// session is fine; logout is idempotent.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		api.WriteUnauthorized(w, api.ReasonUnauthenticated, "authentication required")
		return
	}

	if err := h.sessions.Delete(r.Context(), token); err != nil {
		h.log.Error("failed to delete session", "error", err)
		api.WriteInternalError(w, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequireSession resolves the bearer token and stores the authenticated
// user in the request context; requests without a valid session get 401.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			api.WriteUnauthorized(w, api.ReasonUnauthenticated, "authentication required")
			return
		}

		session, err := h.sessions.Get(r.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrSessionExpired) || errors.Is(err, identity.ErrSessionNotFound) {
				api.WriteUnauthorized(w, api.ReasonUnauthenticated, "invalid or expired session")
				return
			}
			h.log.Error("failed to resolve session", "error", err)
			api.WriteInternalError(w, "failed to resolve session")
			return
		}

		user, err := h.users.Get(r.Context(), session.UserID)
		if err != nil {
			api.WriteUnauthorized(w, api.ReasonUnauthenticated, "invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
