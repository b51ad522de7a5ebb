package sharing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shareack/shareack/internal/components/identity"
)

// InvitationManager creates invitations by resolving a target user against
// an existing share. Creation is idempotent on the (share, user) pair.
type InvitationManager struct {
	invitations InvitationRepo
	shares      ShareStore
	users       identity.UserRepo
	engine      *AcceptanceEngine
}

// NewInvitationManager creates an InvitationManager.
func NewInvitationManager(invitations InvitationRepo, shares ShareStore, users identity.UserRepo, engine *AcceptanceEngine) *InvitationManager {
	return &InvitationManager{
		invitations: invitations,
		shares:      shares,
		users:       users,
		engine:      engine,
	}
}

// InviteByEmail upserts a Waiting invitation for the user behind email on
// the share. Fails with ErrNotFound when the share or the user is missing.
func (m *InvitationManager) InviteByEmail(ctx context.Context, shareID, email string) (*Invitation, error) {
	if _, err := m.shares.Load(ctx, shareID); err != nil {
		return nil, err
	}

	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, fmt.Errorf("no such user: %s: %w", email, ErrNotFound)
		}
		return nil, err
	}

	return m.invitations.Save(ctx, &Invitation{
		ShareID: shareID,
		UserID:  user.ID,
		Status:  StatusWaiting,
	})
}

// InviteByID resolves the user by ID and delegates to InviteByEmail,
// keeping a single creation path.
func (m *InvitationManager) InviteByID(ctx context.Context, shareID, userID string) (*Invitation, error) {
	user, err := m.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, fmt.Errorf("no such user: %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return m.InviteByEmail(ctx, shareID, user.Email)
}

// InviteAndAutoAccept invites the user and immediately drives the
// acceptance engine to Accepted. Used when the inviter's privilege already
// implies consent on behalf of the invitee.
func (m *InvitationManager) InviteAndAutoAccept(ctx context.Context, share *Share, userID string) error {
	if _, err := m.InviteByID(ctx, share.ID, userID); err != nil {
		return err
	}
	return m.engine.SetStatus(ctx, share.ID, userID, StatusAccepted)
}
