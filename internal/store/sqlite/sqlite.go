// Package sqlite implements a SQLite-based persistence backend using GORM.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/shareack/shareack/internal/components/identity"
	"github.com/shareack/shareack/internal/components/items"
	"github.com/shareack/shareack/internal/components/sharing"
	"github.com/shareack/shareack/internal/store"
)

func init() {
	store.Register("sqlite", NewBackend)
}

// Options holds sqlite-specific driver settings.
type Options struct {
	// Filename is the database file name inside DataDir.
	Filename string `mapstructure:"filename"`
}

// Backend implements store.Backend on a SQLite database. Sessions are kept
// in memory: they are short-lived bearer tokens and do not survive restarts.
type Backend struct {
	dataDir  string
	opts     Options
	db       *gorm.DB
	sessions *identity.MemorySessionRepo
}

// NewBackend creates a sqlite backend from configuration.
func NewBackend(cfg *store.DriverConfig) (store.Backend, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required for sqlite driver")
	}

	opts := Options{Filename: "shareack.db"}
	if len(cfg.Options) > 0 {
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("invalid sqlite options: %w", err)
		}
	}

	return &Backend{
		dataDir:  cfg.DataDir,
		opts:     opts,
		sessions: identity.NewMemorySessionRepo(),
	}, nil
}

func (b *Backend) Name() string { return "sqlite" }

// Init opens the database and runs AutoMigrate.
func (b *Backend) Init(ctx context.Context) error {
	if err := os.MkdirAll(b.dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	dbPath := filepath.Join(b.dataDir, b.opts.Filename)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	b.db = db

	if err := db.AutoMigrate(
		&identity.User{},
		&sharing.Share{},
		&sharing.Invitation{},
		&items.Item{},
		&items.UserItem{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) Users() identity.UserRepo            { return &userRepo{db: b.db} }
func (b *Backend) Sessions() identity.SessionRepo      { return b.sessions }
func (b *Backend) Shares() sharing.ShareStore          { return &shareStore{db: b.db} }
func (b *Backend) Invitations() sharing.InvitationRepo { return &invitationRepo{db: b.db} }
func (b *Backend) Items() items.ItemStore              { return &itemStore{db: b.db} }
func (b *Backend) UserItems() items.UserItemStore      { return &userItemStore{db: b.db} }

// RunInTransaction maps the transaction scope onto a gorm transaction: the
// tx value's repos are bound to the transaction handle, so an error from fn
// rolls back every write made through them.
func (b *Backend) RunInTransaction(ctx context.Context, fn func(tx sharing.Stores) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txStores{db: tx})
	})
}

// txStores is the transaction view handed to transaction bodies.
type txStores struct {
	db *gorm.DB
}

func (s txStores) Invitations() sharing.InvitationRepo { return &invitationRepo{db: s.db} }
func (s txStores) Items() items.ItemStore              { return &itemStore{db: s.db} }
func (s txStores) UserItems() items.UserItemStore      { return &userItemStore{db: s.db} }

// userRepo implements identity.UserRepo on gorm.
type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, user *identity.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&identity.User{}).
		Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return identity.ErrUserExists
	}

	email := identity.NormalizeEmail(user.Email)
	if email != "" {
		if err := r.db.WithContext(ctx).Model(&identity.User{}).
			Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return identity.ErrEmailExists
		}
	}

	if user.ID == "" {
		user.ID = identity.UUIDv7()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.Email = email

	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) Get(ctx context.Context, id string) (*identity.User, error) {
	var user identity.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*identity.User, error) {
	var user identity.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, identity.ErrUserNotFound
	}

	var user identity.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *identity.User) error {
	user.Email = identity.NormalizeEmail(user.Email)
	result := r.db.WithContext(ctx).Save(user)
	return result.Error
}

// shareStore implements sharing.ShareStore on gorm.
type shareStore struct {
	db *gorm.DB
}

func (s *shareStore) Load(ctx context.Context, id string) (*sharing.Share, error) {
	var share sharing.Share
	err := s.db.WithContext(ctx).First(&share, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no such share: %s: %w", id, sharing.ErrNotFound)
		}
		return nil, err
	}
	return &share, nil
}

// invitationRepo implements sharing.InvitationRepo on gorm.
type invitationRepo struct {
	db *gorm.DB
}

func (r *invitationRepo) FindByUser(ctx context.Context, userID string) ([]*sharing.Invitation, error) {
	var rows []*sharing.Invitation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *invitationRepo) FindByShare(ctx context.Context, shareID string) ([]*sharing.Invitation, error) {
	grouped, err := r.FindByShares(ctx, []string{shareID})
	if err != nil {
		return nil, err
	}
	// nil, not an empty slice, when the share has no invitations.
	return grouped[shareID], nil
}

func (r *invitationRepo) FindByShares(ctx context.Context, shareIDs []string) (map[string][]*sharing.Invitation, error) {
	var rows []*sharing.Invitation
	err := r.db.WithContext(ctx).
		Where("share_id IN ?", shareIDs).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string][]*sharing.Invitation)
	for _, inv := range rows {
		result[inv.ShareID] = append(result[inv.ShareID], inv)
	}
	return result, nil
}

func (r *invitationRepo) FindByShareAndUser(ctx context.Context, shareID, userID string) (*sharing.Invitation, error) {
	var inv sharing.Invitation
	err := r.db.WithContext(ctx).
		First(&inv, "share_id = ? AND user_id = ?", shareID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepo) FindByShareAndEmail(ctx context.Context, shareID, email string) (*sharing.Invitation, error) {
	users := &userRepo{db: r.db}
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("no such user: %s: %w", email, sharing.ErrNotFound)
	}
	return r.FindByShareAndUser(ctx, shareID, user.ID)
}

func (r *invitationRepo) Save(ctx context.Context, inv *sharing.Invitation) (*sharing.Invitation, error) {
	existing, err := r.FindByShareAndUser(ctx, inv.ShareID, inv.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if existing != nil {
		if inv.Status != "" {
			existing.Status = inv.Status
		}
		existing.UpdatedAt = now
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	if inv.ID == "" {
		inv.ID = identity.UUIDv7()
	}
	if inv.Status == "" {
		inv.Status = sharing.StatusWaiting
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&sharing.Invitation{}, "id IN ?", ids).Error
}

// itemStore implements items.ItemStore on gorm.
type itemStore struct {
	db *gorm.DB
}

func (s *itemStore) Load(ctx context.Context, id string) (*items.Item, error) {
	var item items.Item
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no such item %s: %w", id, items.ErrItemNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// subtreeQuery walks the owner's subtree below a folder, folder included.
const subtreeQuery = `
WITH RECURSIVE item_tree(id) AS (
	SELECT id FROM items WHERE id = ? AND owner_id = ?
	UNION ALL
	SELECT i.id FROM items i
	JOIN item_tree t ON i.parent_id = t.id
	WHERE i.owner_id = ?
)
SELECT id FROM item_tree`

func (s *itemStore) GrantFolderAndContents(ctx context.Context, shareID, ownerID, userID, folderItemID string) error {
	folder, err := s.Load(ctx, folderItemID)
	if err != nil {
		return err
	}
	if !folder.Folder {
		return fmt.Errorf("item %s: %w", folderItemID, items.ErrNotAFolder)
	}

	var ids []string
	err = s.db.WithContext(ctx).
		Raw(subtreeQuery, folderItemID, ownerID, ownerID).Scan(&ids).Error
	if err != nil {
		return err
	}

	grants := &userItemStore{db: s.db}
	for _, id := range ids {
		if err := grants.insert(ctx, userID, id, shareID); err != nil {
			return err
		}
	}
	return nil
}

// userItemStore implements items.UserItemStore on gorm.
type userItemStore struct {
	db *gorm.DB
}

func (s *userItemStore) Add(ctx context.Context, userID, itemID, shareID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&items.Item{}).
		Where("id = ?", itemID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no such item %s: %w", itemID, items.ErrItemNotFound)
	}
	return s.insert(ctx, userID, itemID, shareID)
}

// insert upserts a grant row; the (user_id, item_id) unique index makes
// re-granting a no-op.
func (s *userItemStore) insert(ctx context.Context, userID, itemID, shareID string) error {
	grant := &items.UserItem{
		ID:        identity.UUIDv7(),
		UserID:    userID,
		ItemID:    itemID,
		ShareID:   shareID,
		CreatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(grant).Error
}
