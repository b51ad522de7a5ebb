// Package items provides the item and access-grant collaborator contracts
// consumed by the sharing core. Item content storage itself lives outside
// this service; only the ownership tree and per-user grants are modeled.
package items

import (
	"context"
	"errors"
	"time"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrNotAFolder   = errors.New("item is not a folder")
)

// Item is a node in a user's item tree. ParentID is empty for roots;
// a folder's contents are the transitive ParentID closure beneath it.
type Item struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"index"`
	ParentID  string    `json:"parent_id" gorm:"index"`
	Folder    bool      `json:"folder"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserItem grants one user access to one item. The (user_id, item_id)
// pair is unique; re-granting is a no-op.
type UserItem struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_user_items_user_item"`
	ItemID    string    `json:"item_id" gorm:"uniqueIndex:idx_user_items_user_item"`
	ShareID   string    `json:"share_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemStore provides item reads and the recursive folder grant.
type ItemStore interface {
	// Load retrieves an item by ID. Returns ErrItemNotFound if not found.
	Load(ctx context.Context, id string) (*Item, error)

	// GrantFolderAndContents grants userID access to the folder item and
	// every item currently nested under it that belongs to ownerID.
	// The grant is idempotent per (user, item) pair.
	GrantFolderAndContents(ctx context.Context, shareID, ownerID, userID, folderItemID string) error
}

// UserItemStore provides the single-item access grant.
type UserItemStore interface {
	// Add grants userID access to itemID under shareID. Adding an existing
	// (user, item) pair is a no-op.
	Add(ctx context.Context, userID, itemID, shareID string) error
}
