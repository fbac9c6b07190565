package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCheckOwner(t *testing.T) {
	guestA := Principal{OwnerID: "g-a", IsGuest: true}
	guestB := Principal{OwnerID: "g-b", IsGuest: true}
	userA := Principal{OwnerID: "u-a"}
	userB := Principal{OwnerID: "u-b"}

	tests := []struct {
		name      string
		p         Principal
		ownerID   string
		ownerKind string
		want      error
	}{
		{name: "guest owner matches", p: guestA, ownerID: "g-a", ownerKind: OwnerGuest},
		{name: "guest mismatch", p: guestB, ownerID: "g-a", ownerKind: OwnerGuest, want: ErrForbidden},
		{name: "user reads guest doc", p: userA, ownerID: "g-a", ownerKind: OwnerGuest, want: ErrForbidden},
		{name: "guest reads user doc", p: guestA, ownerID: "u-a", ownerKind: OwnerUser, want: ErrLoginRequired},
		{name: "other user", p: userB, ownerID: "u-a", ownerKind: OwnerUser, want: ErrForbidden},
		{name: "owner user", p: userA, ownerID: "u-a", ownerKind: OwnerUser},
		{name: "anonymous", p: Principal{}, ownerID: "u-a", ownerKind: OwnerUser, want: ErrLoginRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOwner(tt.p, tt.ownerID, tt.ownerKind)
			if !errors.Is(err, tt.want) {
				t.Fatalf("CheckOwner() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDevVerifierRoundTrip(t *testing.T) {
	v := NewDevVerifier("test-secret")
	token, err := v.Sign(Identity{UserID: "user-1", Email: "a@example.com", Name: "Ada"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	id, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != "user-1" || id.Email != "a@example.com" || id.Name != "Ada" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestDevVerifierRejectsBadTokens(t *testing.T) {
	v := NewDevVerifier("test-secret")
	other := NewDevVerifier("other-secret")
	foreign, _ := other.Sign(Identity{UserID: "user-1"}, time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredRaw, _ := expired.SignedString([]byte("test-secret"))

	for _, raw := range []string{"garbage", foreign, expiredRaw} {
		if _, err := v.Verify(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	}
}

func TestPrincipalKeys(t *testing.T) {
	g := Principal{OwnerID: "abc", IsGuest: true}
	if g.CounterKey() != "guest:abc" || g.OwnerKind() != OwnerGuest {
		t.Fatalf("unexpected guest keys: %s %s", g.CounterKey(), g.OwnerKind())
	}
	u := Principal{OwnerID: "uid"}
	if u.CounterKey() != "uid" || u.OwnerKind() != OwnerUser {
		t.Fatalf("unexpected user keys: %s %s", u.CounterKey(), u.OwnerKind())
	}
}
