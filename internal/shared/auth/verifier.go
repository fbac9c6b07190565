package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified bearer token asserts about the caller.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
