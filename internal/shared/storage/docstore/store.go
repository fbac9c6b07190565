// Package docstore is a small document store shared by every collection:
// records are owned JSON-like field maps keyed by collection and id.
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("docstore: not found")
	ErrAlreadyExists = errors.New("docstore: already exists")
)

// Record is one stored document.
type Record struct {
	ID        string
	OwnerID   string
	OwnerKind string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query selects records of one collection, newest first.
type Query struct {
	OwnerID string
	// Where holds top-level field equality filters.
	Where  map[string]any
	Limit  int
	Offset int
}

// MutateFunc edits rec in place. exists is false when the record is being
// created. Returning an error aborts the write and is passed through.
type MutateFunc func(rec *Record, exists bool) error

// Store is implemented by the memory, Postgres and Firestore backends.
type Store interface {
	Create(ctx context.Context, collection string, rec Record) (Record, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	// Mutate runs fn inside a read-modify-write transaction, creating the
	// record when it does not exist.
	Mutate(ctx context.Context, collection, id string, fn MutateFunc) (Record, error)
	List(ctx context.Context, collection string, q Query) ([]Record, error)
	// Reassign moves every record of fromOwner in the given collections to
	// toOwner in one transaction and returns the count per collection.
	Reassign(ctx context.Context, collections []string, fromOwner, toOwner, toKind string) (map[string]int, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// NormalizeQuery clamps paging values.
func NormalizeQuery(q Query) Query {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
