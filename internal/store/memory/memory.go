// Package memory implements an in-memory persistence backend. State lives
// for the process lifetime only; intended for development and tests.
package memory

import (
	"context"

	"github.com/shareack/shareack/internal/components/identity"
	"github.com/shareack/shareack/internal/components/items"
	"github.com/shareack/shareack/internal/components/sharing"
	"github.com/shareack/shareack/internal/store"
)

func init() {
	store.Register("memory", NewBackend)
}

// Backend composes the component memory repos into a store.Backend.
type Backend struct {
	users       *identity.MemoryUserRepo
	sessions    *identity.MemorySessionRepo
	shares      *sharing.MemoryShareStore
	invitations *sharing.MemoryInvitationRepo
	items       *items.MemoryStore
	tx          *sharing.MemoryTransactor
}

// NewBackend creates a memory backend. cfg is accepted for registry
// compatibility; the driver takes no options.
func NewBackend(cfg *store.DriverConfig) (store.Backend, error) {
	users := identity.NewMemoryUserRepo()
	itemStore := items.NewMemoryStore()
	invitations := sharing.NewMemoryInvitationRepo(users)

	return &Backend{
		users:       users,
		sessions:    identity.NewMemorySessionRepo(),
		shares:      sharing.NewMemoryShareStore(),
		invitations: invitations,
		items:       itemStore,
		tx:          sharing.NewMemoryTransactor(invitations, itemStore),
	}, nil
}

func (b *Backend) Init(ctx context.Context) error { return nil }
func (b *Backend) Close() error                   { return nil }
func (b *Backend) Name() string                   { return "memory" }

func (b *Backend) Users() identity.UserRepo            { return b.users }
func (b *Backend) Sessions() identity.SessionRepo      { return b.sessions }
func (b *Backend) Shares() sharing.ShareStore          { return b.shares }
func (b *Backend) Invitations() sharing.InvitationRepo { return b.invitations }
func (b *Backend) Items() items.ItemStore              { return b.items }
func (b *Backend) UserItems() items.UserItemStore      { return b.items }

func (b *Backend) RunInTransaction(ctx context.Context, fn func(tx sharing.Stores) error) error {
	return b.tx.RunInTransaction(ctx, fn)
}

// SeedShare makes a share visible to the invitation core. Shares are owned
// by the external share lifecycle; this is the memory stand-in for it.
func (b *Backend) SeedShare(share *sharing.Share) { b.shares.Put(share) }

// SeedItem plants an item in the tree. Memory stand-in for the external
// item lifecycle.
func (b *Backend) SeedItem(item *items.Item) { b.items.PutItem(item) }
