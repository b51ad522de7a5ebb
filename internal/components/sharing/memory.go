package sharing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shareack/shareack/internal/components/identity"
	"github.com/shareack/shareack/internal/components/items"
)

// MemoryShareStore is an in-memory ShareStore implementation.
type MemoryShareStore struct {
	mu     sync.RWMutex
	shares map[string]*Share
}

// NewMemoryShareStore creates a new in-memory share store.
func NewMemoryShareStore() *MemoryShareStore {
	return &MemoryShareStore{shares: make(map[string]*Share)}
}

// Put stores a share. Shares are owned by the external share lifecycle;
// Put exists for wiring and tests.
func (s *MemoryShareStore) Put(share *Share) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if share.CreatedAt.IsZero() {
		share.CreatedAt = time.Now()
	}
	s.shares[share.ID] = share
}

// Remove deletes a share, mirroring an external share deletion.
func (s *MemoryShareStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.shares, id)
}

func (s *MemoryShareStore) Load(ctx context.Context, id string) (*Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	share, ok := s.shares[id]
	if !ok {
		return nil, fmt.Errorf("no such share: %s: %w", id, ErrNotFound)
	}
	return share, nil
}

// MemoryInvitationRepo is an in-memory InvitationRepo implementation.
// Email lookups resolve through the injected user repo.
type MemoryInvitationRepo struct {
	mu          sync.RWMutex
	invitations map[string]*Invitation
	byShareUser map[string]string // "shareID\x00userID" -> invitationID
	users       identity.UserRepo
}

// NewMemoryInvitationRepo creates a new in-memory invitation repo.
func NewMemoryInvitationRepo(users identity.UserRepo) *MemoryInvitationRepo {
	return &MemoryInvitationRepo{
		invitations: make(map[string]*Invitation),
		byShareUser: make(map[string]string),
		users:       users,
	}
}

// shareUserKey builds the composite key for the byShareUser index.
func shareUserKey(shareID, userID string) string {
	return shareID + "\x00" + userID
}

func (r *MemoryInvitationRepo) FindByUser(ctx context.Context, userID string) ([]*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Invitation
	for _, inv := range r.invitations {
		if inv.UserID == userID {
			result = append(result, inv)
		}
	}
	sortByID(result)
	return result, nil
}

func (r *MemoryInvitationRepo) FindByShare(ctx context.Context, shareID string) ([]*Invitation, error) {
	grouped, err := r.FindByShares(ctx, []string{shareID})
	if err != nil {
		return nil, err
	}
	// nil, not an empty slice, when the share has no invitations.
	return grouped[shareID], nil
}

func (r *MemoryInvitationRepo) FindByShares(ctx context.Context, shareIDs []string) (map[string][]*Invitation, error) {
	wanted := make(map[string]bool, len(shareIDs))
	for _, id := range shareIDs {
		wanted[id] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]*Invitation)
	for _, inv := range r.invitations {
		if wanted[inv.ShareID] {
			result[inv.ShareID] = append(result[inv.ShareID], inv)
		}
	}
	for _, rows := range result {
		sortByID(rows)
	}
	return result, nil
}

func (r *MemoryInvitationRepo) FindByShareAndUser(ctx context.Context, shareID, userID string) (*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byShareUser[shareUserKey(shareID, userID)]
	if !ok {
		return nil, nil
	}
	return r.invitations[id], nil
}

func (r *MemoryInvitationRepo) FindByShareAndEmail(ctx context.Context, shareID, email string) (*Invitation, error) {
	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("no such user: %s: %w", email, ErrNotFound)
	}
	return r.FindByShareAndUser(ctx, shareID, user.ID)
}

func (r *MemoryInvitationRepo) Save(ctx context.Context, inv *Invitation) (*Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	key := shareUserKey(inv.ShareID, inv.UserID)

	if id, ok := r.byShareUser[key]; ok {
		existing := r.invitations[id]
		if inv.Status != "" {
			existing.Status = inv.Status
		}
		existing.UpdatedAt = now
		return existing, nil
	}

	if inv.ID == "" {
		inv.ID = identity.UUIDv7()
	}
	if inv.Status == "" {
		inv.Status = StatusWaiting
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now

	r.invitations[inv.ID] = inv
	r.byShareUser[key] = inv.ID
	return inv, nil
}

func (r *MemoryInvitationRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		inv, ok := r.invitations[id]
		if !ok {
			continue
		}
		delete(r.byShareUser, shareUserKey(inv.ShareID, inv.UserID))
		delete(r.invitations, id)
	}
	return nil
}

// Snapshot returns a copy of the invitation table for transactional rollback.
func (r *MemoryInvitationRepo) Snapshot() map[string]Invitation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(map[string]Invitation, len(r.invitations))
	for id, inv := range r.invitations {
		snap[id] = *inv
	}
	return snap
}

// Restore replaces the invitation table with a previously taken snapshot.
func (r *MemoryInvitationRepo) Restore(snap map[string]Invitation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.invitations = make(map[string]*Invitation, len(snap))
	r.byShareUser = make(map[string]string, len(snap))
	for id, inv := range snap {
		row := inv
		r.invitations[id] = &row
		r.byShareUser[shareUserKey(row.ShareID, row.UserID)] = id
	}
}

// sortByID orders rows by their UUIDv7 IDs, i.e. by creation time.
func sortByID(rows []*Invitation) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
}

// MemoryTransactor serializes transactions over the memory stores and
// rolls their writes back via snapshots when the body fails. Reads outside
// a transaction may observe intermediate state; the sqlite backend provides
// real isolation.
type MemoryTransactor struct {
	mu          sync.Mutex
	invitations *MemoryInvitationRepo
	items       *items.MemoryStore
}

// NewMemoryTransactor creates a transactor over the given memory stores.
func NewMemoryTransactor(invitations *MemoryInvitationRepo, itemStore *items.MemoryStore) *MemoryTransactor {
	return &MemoryTransactor{invitations: invitations, items: itemStore}
}

func (t *MemoryTransactor) RunInTransaction(ctx context.Context, fn func(tx Stores) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	invSnap := t.invitations.Snapshot()
	grantSnap := t.items.SnapshotGrants()

	if err := fn(memStores{inv: t.invitations, items: t.items}); err != nil {
		t.invitations.Restore(invSnap)
		t.items.RestoreGrants(grantSnap)
		return err
	}
	return nil
}

// memStores is the transaction view handed to transaction bodies.
type memStores struct {
	inv   *MemoryInvitationRepo
	items *items.MemoryStore
}

func (s memStores) Invitations() InvitationRepo    { return s.inv }
func (s memStores) Items() items.ItemStore         { return s.items }
func (s memStores) UserItems() items.UserItemStore { return s.items }
