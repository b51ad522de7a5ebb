package sharing

import (
	"context"

	"github.com/shareack/shareack/internal/components/items"
)

// InvitationRepo provides invitation persistence.
type InvitationRepo interface {
	// FindByUser returns all invitations addressed to the user.
	FindByUser(ctx context.Context, userID string) ([]*Invitation, error)

	// FindByShare returns the share's invitations, or nil (not an empty
	// slice) when the share has none.
	FindByShare(ctx context.Context, shareID string) ([]*Invitation, error)

	// FindByShares returns invitations grouped by share ID in a single
	// batched read. Shares with no invitations are absent from the map.
	FindByShares(ctx context.Context, shareIDs []string) (map[string][]*Invitation, error)

	// FindByShareAndUser looks up the invitation by its composite key,
	// returning nil when no row exists.
	FindByShareAndUser(ctx context.Context, shareID, userID string) (*Invitation, error)

	// FindByShareAndEmail resolves the email to a user first, failing with
	// ErrNotFound when no such user exists, then looks up the composite
	// key. Returns nil when the user exists but holds no invitation.
	FindByShareAndEmail(ctx context.Context, shareID, email string) (*Invitation, error)

	// Save upserts on the (share_id, user_id) composite key: an existing
	// row is updated in place, never duplicated.
	Save(ctx context.Context, inv *Invitation) (*Invitation, error)

	// DeleteByIDs removes the given invitation rows.
	DeleteByIDs(ctx context.Context, ids []string) error
}

// ShareStore is the external share collaborator. Returns ErrNotFound when
// the share does not exist.
type ShareStore interface {
	Load(ctx context.Context, id string) (*Share, error)
}

// Stores bundles the write surfaces available inside a transaction scope.
type Stores interface {
	Invitations() InvitationRepo
	Items() items.ItemStore
	UserItems() items.UserItemStore
}

// Transactor runs fn inside a single transaction. Any error returned by fn
// rolls back every write made through the tx value; on nil the writes
// commit atomically.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(tx Stores) error) error
}
