// Package sharing implements the invitation core: the authorization policy,
// invitation creation, the acceptance state machine with transactional access
// propagation, and cascade deletion of a share's invitations.
package sharing

import (
	"errors"
	"time"
)

// ShareKind tags how acceptance of a share propagates access.
type ShareKind string

const (
	// KindItem grants access to exactly the share's target item.
	KindItem ShareKind = "item"

	// KindRootFolder grants access to the target folder and everything
	// currently nested under it.
	KindRootFolder ShareKind = "root_folder"
)

// InvitationStatus is the invitee's acceptance state.
type InvitationStatus string

const (
	StatusWaiting  InvitationStatus = "waiting"
	StatusAccepted InvitationStatus = "accepted"
	StatusRejected InvitationStatus = "rejected"
)

// Valid reports whether s is a known invitation status.
func (s InvitationStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Share is the record describing what is being shared, by whom, and under
// what kind. Shares are created and deleted outside this package; the
// invitation core only reads them.
type Share struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"index"`
	ItemID    string    `json:"item_id"`
	Kind      ShareKind `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Invitation tracks one user's relationship to a share. At most one
// invitation exists per (share, user) pair.
type Invitation struct {
	ID        string           `json:"id" gorm:"primaryKey"` // UUIDv7
	ShareID   string           `json:"share_id" gorm:"uniqueIndex:idx_invitations_share_user"`
	UserID    string           `json:"user_id" gorm:"uniqueIndex:idx_invitations_share_user"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
