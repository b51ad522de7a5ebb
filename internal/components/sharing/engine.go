package sharing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shareack/shareack/internal/components/items"
)

// Propagator applies the access grant for one share kind inside the
// transaction scope tx. itemID is the share's resolved target item.
type Propagator func(ctx context.Context, tx Stores, share *Share, itemID, userID string) error

// AcceptanceEngine is the invitation state machine. A transition to
// Accepted is atomic with the resulting access grant: the status write and
// the grant either both commit or both roll back.
type AcceptanceEngine struct {
	invitations InvitationRepo
	shares      ShareStore
	items       items.ItemStore
	tx          Transactor
	propagators map[ShareKind]Propagator
}

// NewAcceptanceEngine creates an engine with the default per-kind
// propagation strategies.
func NewAcceptanceEngine(invitations InvitationRepo, shares ShareStore, itemStore items.ItemStore, tx Transactor) *AcceptanceEngine {
	return &AcceptanceEngine{
		invitations: invitations,
		shares:      shares,
		items:       itemStore,
		tx:          tx,
		propagators: map[ShareKind]Propagator{
			KindItem:       propagateItem,
			KindRootFolder: propagateFolder,
		},
	}
}

// SetPropagator overrides the grant strategy for a share kind.
func (e *AcceptanceEngine) SetPropagator(kind ShareKind, p Propagator) {
	e.propagators[kind] = p
}

// SetStatus transitions the (shareID, userID) invitation to status.
//
// Re-applying the status the invitation already holds performs the write
// anyway rather than short-circuiting, so a half-applied acceptance can be
// re-driven; both propagation paths are idempotent. A row deleted
// concurrently between the initial load and the transactional write is not
// guarded against beyond per-operation atomicity.
func (e *AcceptanceEngine) SetStatus(ctx context.Context, shareID, userID string, status InvitationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid invitation status %q", status)
	}

	inv, err := e.invitations.FindByShareAndUser(ctx, shareID, userID)
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("item has not been shared with this user: %s / %s: %w", shareID, userID, ErrNotFound)
	}

	// Shares are expected to outlive their invitations; re-check anyway.
	share, err := e.shares.Load(ctx, shareID)
	if err != nil {
		return err
	}

	item, err := e.items.Load(ctx, share.ItemID)
	if err != nil {
		if errors.Is(err, items.ErrItemNotFound) {
			return fmt.Errorf("share item %s: %w", share.ItemID, ErrNotFound)
		}
		return err
	}

	return e.tx.RunInTransaction(ctx, func(tx Stores) error {
		inv.Status = status
		if _, err := tx.Invitations().Save(ctx, inv); err != nil {
			return err
		}

		// Rejection persists the status only; no grant exists yet to revoke.
		if status != StatusAccepted {
			return nil
		}

		propagate, ok := e.propagators[share.Kind]
		if !ok {
			return fmt.Errorf("unknown share kind %q", share.Kind)
		}
		return propagate(ctx, tx, share, item.ID, userID)
	})
}

func propagateFolder(ctx context.Context, tx Stores, share *Share, itemID, userID string) error {
	return tx.Items().GrantFolderAndContents(ctx, share.ID, share.OwnerID, userID, itemID)
}

func propagateItem(ctx context.Context, tx Stores, share *Share, itemID, userID string) error {
	return tx.UserItems().Add(ctx, userID, itemID, share.ID)
}
