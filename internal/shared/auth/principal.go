package auth

import (
	"errors"
	"strings"
)

// Owner kinds stored on every owned record.
const (
	OwnerUser  = "user"
	OwnerGuest = "guest"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrLoginRequired = errors.New("login required")
)

// Principal is the caller of a request: a signed-in user or a guest session.
type Principal struct {
	OwnerID string
	IsGuest bool
	Email   string
	Name    string
	// GuestID is the guest-session cookie value, also set for signed-in users
	// that still carry one.
	GuestID string
}

// OwnerKind returns the kind recorded on documents this principal creates.
func (p Principal) OwnerKind() string {
	if p.IsGuest {
		return OwnerGuest
	}
	return OwnerUser
}

// CounterKey identifies the principal in the users collection.
func (p Principal) CounterKey() string {
	if p.IsGuest {
		return "guest:" + p.OwnerID
	}
	return p.OwnerID
}

// CheckOwner applies the document ownership rules:
// a user-owned document requested by a guest needs a login, every other
// mismatch is forbidden.
func CheckOwner(p Principal, ownerID, ownerKind string) error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return ErrLoginRequired
	}
	if ownerKind == OwnerGuest {
		if p.IsGuest && p.OwnerID == ownerID {
			return nil
		}
		return ErrForbidden
	}
	if p.IsGuest {
		return ErrLoginRequired
	}
	if p.OwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}
