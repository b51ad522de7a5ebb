package sharing

import (
	"context"
	"errors"
	"testing"
)

func TestDeleteAllForShare(t *testing.T) {
	e := newEnv(t)
	owner := e.addUser(t, "owner", "owner@example.com")
	alice := e.addUser(t, "alice", "alice@example.com")
	bob := e.addUser(t, "bob", "bob@example.com")
	share := e.addShare("share-1", owner.ID, "item-1", KindItem)
	e.addShare("share-2", owner.ID, "item-2", KindItem)

	ctx := context.Background()
	for _, pair := range []struct{ share, user string }{
		{"share-1", alice.ID},
		{"share-1", bob.ID},
		{"share-2", alice.ID},
	} {
		if _, err := e.inv.Save(ctx, &Invitation{ShareID: pair.share, UserID: pair.user}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	deleter := NewCascadeDeleter(e.inv, e.tx)
	if err := deleter.DeleteAllForShare(ctx, share); err != nil {
		t.Fatalf("DeleteAllForShare: %v", err)
	}

	rows, err := e.inv.FindByShare(ctx, "share-1")
	if err != nil {
		t.Fatalf("FindByShare: %v", err)
	}
	if rows != nil {
		t.Errorf("share-1 rows after cascade = %v, want none", rows)
	}

	// Unrelated share untouched.
	other, err := e.inv.FindByShare(ctx, "share-2")
	if err != nil {
		t.Fatalf("FindByShare: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("share-2 rows = %d, want 1", len(other))
	}
}

func TestDeleteAllForShare_NoInvitationsIsNoop(t *testing.T) {
	e := newEnv(t)
	owner := e.addUser(t, "owner", "owner@example.com")
	share := e.addShare("share-1", owner.ID, "item-1", KindItem)

	deleter := NewCascadeDeleter(e.inv, e.tx)
	if err := deleter.DeleteAllForShare(context.Background(), share); err != nil {
		t.Fatalf("DeleteAllForShare: %v", err)
	}
}

// failingTransactor runs the body, then forces a transaction failure so the
// inner transactor rolls everything back.
type failingTransactor struct {
	inner Transactor
	err   error
}

func (f failingTransactor) RunInTransaction(ctx context.Context, fn func(tx Stores) error) error {
	return f.inner.RunInTransaction(ctx, func(tx Stores) error {
		if err := fn(tx); err != nil {
			return err
		}
		return f.err
	})
}

func TestDeleteAllForShare_FailedTransactionKeepsRows(t *testing.T) {
	e := newEnv(t)
	owner := e.addUser(t, "owner", "owner@example.com")
	alice := e.addUser(t, "alice", "alice@example.com")
	bob := e.addUser(t, "bob", "bob@example.com")
	share := e.addShare("share-1", owner.ID, "item-1", KindItem)

	ctx := context.Background()
	for _, userID := range []string{alice.ID, bob.ID} {
		if _, err := e.inv.Save(ctx, &Invitation{ShareID: "share-1", UserID: userID}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	boom := errors.New("commit failed")
	deleter := NewCascadeDeleter(e.inv, failingTransactor{inner: e.tx, err: boom})

	if err := deleter.DeleteAllForShare(ctx, share); !errors.Is(err, boom) {
		t.Fatalf("DeleteAllForShare = %v, want forced failure", err)
	}

	rows, err := e.inv.FindByShare(ctx, "share-1")
	if err != nil {
		t.Fatalf("FindByShare: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("rows after failed transaction = %d, want 2 (all-or-nothing)", len(rows))
	}
}
