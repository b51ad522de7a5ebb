// Package invitations implements the session-gated invitation endpoints:
// listing, creation by the share owner, status changes by the invitee, and
// cascade deletion.
package invitations

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shareack/shareack/internal/components/api"
	"github.com/shareack/shareack/internal/components/identity"
	"github.com/shareack/shareack/internal/components/sharing"
	"github.com/shareack/shareack/internal/platform/logutil"
)

// InvitationView is the public view of an invitation.
type InvitationView struct {
	ID        string                   `json:"id"`
	ShareID   string                   `json:"share_id"`
	UserID    string                   `json:"user_id"`
	Status    sharing.InvitationStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

func viewOf(inv *sharing.Invitation) InvitationView {
	return InvitationView{
		ID:        inv.ID,
		ShareID:   inv.ShareID,
		UserID:    inv.UserID,
		Status:    inv.Status,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
}

// ListResponse wraps the invitation views returned by the list endpoints.
type ListResponse struct {
	Invitations []InvitationView `json:"invitations"`
}

// CreateRequest is the request body for POST /api/shares/{shareID}/invitations.
type CreateRequest struct {
	Email string `json:"email"`
}

// StatusRequest is the request body for
// PATCH /api/shares/{shareID}/invitations/{userID}.
type StatusRequest struct {
	Status sharing.InvitationStatus `json:"status"`
}

// Handler handles invitation endpoints.
type Handler struct {
	policy      *sharing.AccessPolicy
	invitations sharing.InvitationRepo
	shares      sharing.ShareStore
	manager     *sharing.InvitationManager
	engine      *sharing.AcceptanceEngine
	deleter     *sharing.CascadeDeleter
	log         *slog.Logger
}

// NewHandler creates an invitations handler.
func NewHandler(
	policy *sharing.AccessPolicy,
	invitations sharing.InvitationRepo,
	shares sharing.ShareStore,
	manager *sharing.InvitationManager,
	engine *sharing.AcceptanceEngine,
	deleter *sharing.CascadeDeleter,
	log *slog.Logger,
) *Handler {
	return &Handler{
		policy:      policy,
		invitations: invitations,
		shares:      shares,
		manager:     manager,
		engine:      engine,
		deleter:     deleter,
		log:         logutil.NoopIfNil(log),
	}
}

// HandleListMine handles GET /api/invitations.
// Lists the invitations addressed to the authenticated user.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	user, err := identity.UserFromContext(r.Context())
	if err != nil {
		api.WriteUnauthorized(w, api.ReasonUnauthenticated, "authentication required")
		return
	}

	rows, err := h.invitations.FindByUser(r.Context(), user.ID)
	if err != nil {
		h.log.Error("failed to list invitations", "user_id", user.ID, "error", err)
		api.WriteInternalError(w, "failed to list invitations")
		return
	}

	writeList(w, rows)
}

// HandleListForShare handles GET /api/shares/{shareID}/invitations.
// Only the share owner may enumerate a share's invitations.
func (h *Handler) HandleListForShare(w http.ResponseWriter, r *http.Request) {
	user, err := identity.UserFromContext(r.Context())
	if err != nil {
		api.WriteUnauthorized(w, api.ReasonUnauthenticated, "authentication required")
		return
	}
	shareID := chi.URLParam(r, "shareID")

	if err := h.policy.Authorize(r.Context(), user, sharing.ActionCreate, &sharing.Invitation{ShareID: shareID}); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	rows, err := h.invitations.FindByShare(r.Context(), shareID)
	if err != nil {
		h.log.Error("failed to list share invitations", "share_id", shareID, "error", err)
		api.WriteInternalError(w, "failed to list invitations")
		return
	}

	writeList(w, rows)
}

// HandleCreate handles POST /api/shares/{shareID}/invitations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := identity.UserFromContext(r.Context())
	if err != nil {
		api.WriteUnauthorized(w, api.ReasonUnauthenticated, "authentication required")
		return
	}
	shareID := chi.URLParam(r, "shareID")

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, api.ReasonBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		api.WriteBadRequest(w, api.ReasonMissingField, "email is required")
		return
	}

	if err := h.policy.Authorize(r.Context(), user, sharing.ActionCreate, &sharing.Invitation{ShareID: shareID}); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	inv, err := h.manager.InviteByEmail(r.Context(), shareID, req.Email)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	h.log.Info("invitation created", "share_id", shareID, "user_id", inv.UserID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(viewOf(inv))
}

// HandleSetStatus handles PATCH /api/shares/{shareID}/invitations/{userID}.
// Only the invitee may answer; the status write and the resulting access
// grant are atomic.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, err := identity.UserFromContext(r.Context())
	if err != nil {
		api.WriteUnauthorized(w, api.ReasonUnauthenticated, "authentication required")
		return
	}
	shareID := chi.URLParam(r, "shareID")
	userID := chi.URLParam(r, "userID")

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, api.ReasonBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		api.WriteBadRequest(w, api.ReasonInvalidField, "status must be one of waiting, accepted, rejected")
		return
	}

	inv, err := h.invitations.FindByShareAndUser(r.Context(), shareID, userID)
	if err != nil {
		h.log.Error("failed to load invitation", "share_id", shareID, "user_id", userID, "error", err)
		api.WriteInternalError(w, "failed to load invitation")
		return
	}
	if inv == nil {
		api.WriteNotFound(w, "item has not been shared with this user")
		return
	}

	if err := h.policy.Authorize(r.Context(), user, sharing.ActionUpdate, inv); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	if err := h.engine.SetStatus(r.Context(), shareID, userID, req.Status); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	h.log.Info("invitation status changed", "share_id", shareID, "user_id", userID, "status", req.Status)

	updated, err := h.invitations.FindByShareAndUser(r.Context(), shareID, userID)
	if err != nil || updated == nil {
		h.log.Error("failed to reload invitation", "share_id", shareID, "user_id", userID, "error", err)
		api.WriteInternalError(w, "failed to reload invitation")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(viewOf(updated))
}

// HandleDeleteAll handles DELETE /api/shares/{shareID}/invitations.
// Only the share owner may cascade-delete; removal is all-or-nothing.
func (h *Handler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	user, err := identity.UserFromContext(r.Context())
	if err != nil {
		api.WriteUnauthorized(w, api.ReasonUnauthenticated, "authentication required")
		return
	}
	shareID := chi.URLParam(r, "shareID")

	if err := h.policy.Authorize(r.Context(), user, sharing.ActionCreate, &sharing.Invitation{ShareID: shareID}); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	share, err := h.shares.Load(r.Context(), shareID)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	if err := h.deleter.DeleteAllForShare(r.Context(), share); err != nil {
		h.log.Error("failed to cascade-delete invitations", "share_id", shareID, "error", err)
		api.WriteInternalError(w, "failed to delete invitations")
		return
	}

	h.log.Info("share invitations deleted", "share_id", shareID)
	w.WriteHeader(http.StatusNoContent)
}

func writeList(w http.ResponseWriter, rows []*sharing.Invitation) {
	views := make([]InvitationView, 0, len(rows))
	for _, inv := range rows {
		views = append(views, viewOf(inv))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Invitations: views})
}
