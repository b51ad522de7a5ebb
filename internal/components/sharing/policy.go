package sharing

import (
	"context"
	"fmt"

	"github.com/shareack/shareack/internal/components/identity"
)

// AclAction is an operation class checked by the access policy.
type AclAction int

const (
	// ActionCreate covers creating an invitation for a share.
	ActionCreate AclAction = iota + 1

	// ActionUpdate covers changing an invitation's status.
	ActionUpdate
)

// AccessPolicy decides whether a user may create or mutate an invitation.
// It performs no side effects.
type AccessPolicy struct {
	shares ShareStore
}

// NewAccessPolicy creates an AccessPolicy over the given share store.
func NewAccessPolicy(shares ShareStore) *AccessPolicy {
	return &AccessPolicy{shares: shares}
}

// Authorize returns ErrForbidden unless user holds the required relationship
// to the invitation: share owner for Create, invitee for Update.
func (p *AccessPolicy) Authorize(ctx context.Context, user *identity.User, action AclAction, inv *Invitation) error {
	switch action {
	case ActionCreate:
		share, err := p.shares.Load(ctx, inv.ShareID)
		if err != nil {
			return err
		}
		if share.OwnerID != user.ID {
			return fmt.Errorf("no access to share %s: %w", inv.ShareID, ErrForbidden)
		}
		return nil

	case ActionUpdate:
		if user.ID != inv.UserID {
			return fmt.Errorf("cannot change another user's invitation: %w", ErrForbidden)
		}
		return nil
	}

	return fmt.Errorf("unknown action %d: %w", action, ErrForbidden)
}
