package identity

import (
	"github.com/google/uuid"

	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
)

// Identity names exactly one cart owner: a registered user or an
// anonymous guest token. The zero value is invalid.
type Identity struct {
	userID  uuid.UUID
	guestID string
}

// ForUser builds an identity for a registered user.
func ForUser(userID uuid.UUID) Identity {
	return Identity{userID: userID}
}

// ForGuest builds an identity for an anonymous guest token.
func ForGuest(guestID string) Identity {
	return Identity{guestID: guestID}
}

// IsUser reports whether the identity names a registered user.
func (i Identity) IsUser() bool {
	return i.userID != uuid.Nil
}

// IsGuest reports whether the identity names a guest token.
func (i Identity) IsGuest() bool {
	return i.userID == uuid.Nil && i.guestID != ""
}

// UserID returns the user ID when the identity is a user.
func (i Identity) UserID() (uuid.UUID, bool) {
	if !i.IsUser() {
		return uuid.Nil, false
	}
	return i.userID, true
}

// GuestID returns the guest token when the identity is a guest.
func (i Identity) GuestID() (string, bool) {
	if !i.IsGuest() {
		return "", false
	}
	return i.guestID, true
}

// Validate rejects identities that name nobody.
func (i Identity) Validate() error {
	if !i.IsUser() && !i.IsGuest() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no identity present")
	}
	return nil
}

// MintGuestToken issues a fresh opaque guest identifier.
func MintGuestToken() string {
	return uuid.NewString()
}
