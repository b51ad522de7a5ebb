package sharing

import (
	"context"
)

// CascadeDeleter removes all invitations tied to a share when the share
// itself is deleted.
type CascadeDeleter struct {
	invitations InvitationRepo
	tx          Transactor
}

// NewCascadeDeleter creates a CascadeDeleter.
func NewCascadeDeleter(invitations InvitationRepo, tx Transactor) *CascadeDeleter {
	return &CascadeDeleter{invitations: invitations, tx: tx}
}

// DeleteAllForShare deletes every invitation for the share in a single
// transaction. All-or-nothing: a failure leaves the original rows intact.
func (d *CascadeDeleter) DeleteAllForShare(ctx context.Context, share *Share) error {
	rows, err := d.invitations.FindByShare(ctx, share.ID)
	if err != nil {
		return err
	}
	if rows == nil {
		return nil
	}

	ids := make([]string, 0, len(rows))
	for _, inv := range rows {
		ids = append(ids, inv.ID)
	}

	return d.tx.RunInTransaction(ctx, func(tx Stores) error {
		return tx.Invitations().DeleteByIDs(ctx, ids)
	})
}
