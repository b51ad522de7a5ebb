package items

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory ItemStore and UserItemStore implementation.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]*Item
	byParent   map[string][]string // parentID -> []itemID
	grants     map[string]*UserItem
	byUserItem map[string]string // "userID\x00itemID" -> grantID
}

// NewMemoryStore creates a new in-memory item store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:      make(map[string]*Item),
		byParent:   make(map[string][]string),
		grants:     make(map[string]*UserItem),
		byUserItem: make(map[string]string),
	}
}

// userItemKey builds the composite key for the byUserItem index.
func userItemKey(userID, itemID string) string {
	return userID + "\x00" + itemID
}

// PutItem stores an item, maintaining the parent index. Used to seed trees.
func (s *MemoryStore) PutItem(item *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.items[item.ID] = item
	if item.ParentID != "" {
		s.byParent[item.ParentID] = append(s.byParent[item.ParentID], item.ID)
	}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("no such item %s: %w", id, ErrItemNotFound)
	}
	return item, nil
}

func (s *MemoryStore) Add(ctx context.Context, userID, itemID, shareID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return fmt.Errorf("no such item %s: %w", itemID, ErrItemNotFound)
	}
	s.addGrant(userID, itemID, shareID)
	return nil
}

// addGrant inserts a grant row unless the (user, item) pair already exists.
// Caller must hold the lock.
func (s *MemoryStore) addGrant(userID, itemID, shareID string) {
	key := userItemKey(userID, itemID)
	if _, ok := s.byUserItem[key]; ok {
		return
	}

	grant := &UserItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		ItemID:    itemID,
		ShareID:   shareID,
		CreatedAt: time.Now(),
	}
	s.grants[grant.ID] = grant
	s.byUserItem[key] = grant.ID
}

func (s *MemoryStore) GrantFolderAndContents(ctx context.Context, shareID, ownerID, userID, folderItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.items[folderItemID]
	if !ok {
		return fmt.Errorf("no such item %s: %w", folderItemID, ErrItemNotFound)
	}
	if !folder.Folder {
		return fmt.Errorf("item %s: %w", folderItemID, ErrNotAFolder)
	}

	// Depth-first walk over the owner's subtree.
	stack := []string{folderItemID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		item := s.items[id]
		if item == nil || item.OwnerID != ownerID {
			continue
		}
		s.addGrant(userID, id, shareID)
		stack = append(stack, s.byParent[id]...)
	}
	return nil
}

// GrantsFor returns the sorted item IDs the user has been granted.
func (s *MemoryStore) GrantsFor(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, grant := range s.grants {
		if grant.UserID == userID {
			ids = append(ids, grant.ItemID)
		}
	}
	sort.Strings(ids)
	return ids
}

// SnapshotGrants returns a copy of the grant table for transactional rollback.
func (s *MemoryStore) SnapshotGrants() map[string]UserItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]UserItem, len(s.grants))
	for id, grant := range s.grants {
		snap[id] = *grant
	}
	return snap
}

// RestoreGrants replaces the grant table with a previously taken snapshot.
func (s *MemoryStore) RestoreGrants(snap map[string]UserItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grants = make(map[string]*UserItem, len(snap))
	s.byUserItem = make(map[string]string, len(snap))
	for id, grant := range snap {
		g := grant
		s.grants[id] = &g
		s.byUserItem[userItemKey(g.UserID, g.ItemID)] = id
	}
}
