package items_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shareack/shareack/internal/components/items"
)

const ownerID = "owner-uuid"

// seedTree builds: root folder F -> {doc1, sub folder -> {doc2}}, plus a
// stray item owned by someone else parented under F.
func seedTree(store *items.MemoryStore) {
	store.PutItem(&items.Item{ID: "F", OwnerID: ownerID, Folder: true, Name: "notes"})
	store.PutItem(&items.Item{ID: "doc1", OwnerID: ownerID, ParentID: "F", Name: "a.md"})
	store.PutItem(&items.Item{ID: "sub", OwnerID: ownerID, ParentID: "F", Folder: true, Name: "sub"})
	store.PutItem(&items.Item{ID: "doc2", OwnerID: ownerID, ParentID: "sub", Name: "b.md"})
	store.PutItem(&items.Item{ID: "foreign", OwnerID: "someone-else", ParentID: "F", Name: "x.md"})
	store.PutItem(&items.Item{ID: "unrelated", OwnerID: ownerID, Name: "c.md"})
}

func TestMemoryStore_AddIsIdempotent(t *testing.T) {
	store := items.NewMemoryStore()
	seedTree(store)
	ctx := context.Background()

	if err := store.Add(ctx, "user-1", "doc1", "share-1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, "user-1", "doc1", "share-1"); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}

	if got := store.GrantsFor("user-1"); len(got) != 1 {
		t.Errorf("expected exactly 1 grant, got %v", got)
	}
}

func TestMemoryStore_AddMissingItemFails(t *testing.T) {
	store := items.NewMemoryStore()
	ctx := context.Background()

	err := store.Add(ctx, "user-1", "ghost", "share-1")
	if !errors.Is(err, items.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestMemoryStore_GrantFolderAndContents(t *testing.T) {
	store := items.NewMemoryStore()
	seedTree(store)
	ctx := context.Background()

	if err := store.GrantFolderAndContents(ctx, "share-1", ownerID, "user-1", "F"); err != nil {
		t.Fatalf("GrantFolderAndContents failed: %v", err)
	}

	// Folder, both docs, and the sub folder; not the foreign-owned child
	// and not the unrelated sibling.
	want := []string{"F", "doc1", "doc2", "sub"}
	if got := store.GrantsFor("user-1"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected grants %v, got %v", want, got)
	}
}

func TestMemoryStore_GrantFolderOnNonFolderFails(t *testing.T) {
	store := items.NewMemoryStore()
	seedTree(store)
	ctx := context.Background()

	err := store.GrantFolderAndContents(ctx, "share-1", ownerID, "user-1", "doc1")
	if !errors.Is(err, items.ErrNotAFolder) {
		t.Errorf("expected ErrNotAFolder, got %v", err)
	}
}

func TestMemoryStore_SnapshotRestore(t *testing.T) {
	store := items.NewMemoryStore()
	seedTree(store)
	ctx := context.Background()

	if err := store.Add(ctx, "user-1", "doc1", "share-1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	snap := store.SnapshotGrants()

	if err := store.Add(ctx, "user-1", "doc2", "share-1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	store.RestoreGrants(snap)

	want := []string{"doc1"}
	if got := store.GrantsFor("user-1"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected grants %v after restore, got %v", want, got)
	}
}
