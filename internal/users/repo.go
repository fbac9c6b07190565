package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/storage/docstore"
)

// Repo reads and writes user records in the document store.
type Repo struct {
	Store docstore.Store
}

// Get loads a user by counter key.
func (r Repo) Get(ctx context.Context, key string) (User, error) {
	rec, err := r.Store.Get(ctx, Collection, key)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := docstore.DecodeRecord(rec, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Mutate runs fn on the decoded user inside a transaction. fn sees a zero user
// with ID set when none is stored yet.
func (r Repo) Mutate(ctx context.Context, key string, fn func(u *User, exists bool) error) (User, error) {
	var out User
	rec, err := r.Store.Mutate(ctx, Collection, key, func(rec *docstore.Record, exists bool) error {
		u := User{ID: key}
		if exists {
			if err := docstore.DecodeRecord(*rec, &u); err != nil {
				return err
			}
		}
		if err := fn(&u, exists); err != nil {
			return err
		}
		fields, err := docstore.Encode(u)
		if err != nil {
			return err
		}
		rec.Fields = fields
		rec.OwnerID, rec.OwnerKind = ownerOf(key)
		out = u
		return nil
	})
	if err != nil {
		return User{}, err
	}
	out.ID = rec.ID
	out.CreatedAt = rec.CreatedAt
	out.UpdatedAt = rec.UpdatedAt
	return out, nil
}

// ownerOf splits a counter key into owner id and kind.
func ownerOf(key string) (string, string) {
	if id, ok := strings.CutPrefix(key, "guest:"); ok && id != "" {
		return id, auth.OwnerGuest
	}
	return key, auth.OwnerUser
}

func isNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}

func requireKey(key string) error {
	if key == "" {
		return fmt.Errorf("users: empty key")
	}
	return nil
}
