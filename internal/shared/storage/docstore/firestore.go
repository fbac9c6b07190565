package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	fsOwnerID   = "ownerId"
	fsOwnerKind = "ownerKind"
	fsCreatedAt = "createdAt"
	fsUpdatedAt = "updatedAt"
)

// FirestoreStore keeps each record as a flat Firestore document; owner and
// timestamps live next to the fields under reserved keys.
type FirestoreStore struct {
	Client *firestore.Client
	Now    func() time.Time
}

func (s *FirestoreStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *FirestoreStore) Create(ctx context.Context, collection string, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	_, err := s.Client.Collection(collection).Doc(rec.ID).Create(ctx, toDoc(rec))
	if status.Code(err) == codes.AlreadyExists {
		return Record{}, ErrAlreadyExists
	}
	if err != nil {
		return Record{}, fmt.Errorf("firestore create: %w", err)
	}
	return copyRecord(rec), nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Record, error) {
	snap, err := s.Client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("firestore get: %w", err)
	}
	return fromDoc(snap.Ref.ID, snap.Data()), nil
}

func (s *FirestoreStore) Mutate(ctx context.Context, collection, id string, fn MutateFunc) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("docstore: empty id")
	}
	ref := s.Client.Collection(collection).Doc(id)
	var out Record
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		rec := Record{ID: id, Fields: map[string]any{}}
		exists := true
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			exists = false
		case err != nil:
			return err
		default:
			rec = fromDoc(id, snap.Data())
		}
		if err := fn(&rec, exists); err != nil {
			return err
		}
		now := s.now()
		rec.ID = id
		if !exists {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		out = rec
		return tx.Set(ref, toDoc(rec))
	})
	if err != nil {
		return Record{}, err
	}
	return copyRecord(out), nil
}

func (s *FirestoreStore) List(ctx context.Context, collection string, q Query) ([]Record, error) {
	q = NormalizeQuery(q)
	query := s.Client.Collection(collection).Query
	if q.OwnerID != "" {
		query = query.Where(fsOwnerID, "==", q.OwnerID)
	}
	for field, value := range q.Where {
		query = query.Where(field, "==", value)
	}
	query = query.OrderBy(fsCreatedAt, firestore.Desc).Offset(q.Offset).Limit(q.Limit)

	iter := query.Documents(ctx)
	defer iter.Stop()
	out := []Record{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list: %w", err)
		}
		out = append(out, fromDoc(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

// Reassign reads and rewrites every matching document inside one
// transaction, so a failed write leaves the guest data untouched. Firestore
// caps a transaction at 500 writes.
func (s *FirestoreStore) Reassign(ctx context.Context, collections []string, fromOwner, toOwner, toKind string) (map[string]int, error) {
	var counts map[string]int
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		counts = make(map[string]int, len(collections))
		var refs []*firestore.DocumentRef
		for _, coll := range collections {
			snaps, err := tx.Documents(s.Client.Collection(coll).Where(fsOwnerID, "==", fromOwner)).GetAll()
			if err != nil {
				return err
			}
			for _, snap := range snaps {
				refs = append(refs, snap.Ref)
			}
			counts[coll] = len(snaps)
		}
		now := s.now()
		for _, ref := range refs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: fsOwnerID, Value: toOwner},
				{Path: fsOwnerKind, Value: toKind},
				{Path: fsUpdatedAt, Value: now},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore reassign: %w", err)
	}
	return counts, nil
}

func toDoc(rec Record) map[string]any {
	doc := cloneFields(rec.Fields)
	for k := range reservedFields {
		delete(doc, k)
	}
	doc[fsOwnerID] = rec.OwnerID
	doc[fsOwnerKind] = rec.OwnerKind
	doc[fsCreatedAt] = rec.CreatedAt.UTC()
	doc[fsUpdatedAt] = rec.UpdatedAt.UTC()
	return doc
}

func fromDoc(id string, doc map[string]any) Record {
	rec := Record{ID: id, Fields: map[string]any{}}
	for k, v := range doc {
		switch k {
		case fsOwnerID:
			rec.OwnerID, _ = v.(string)
		case fsOwnerKind:
			rec.OwnerKind, _ = v.(string)
		case fsCreatedAt:
			rec.CreatedAt = asTime(v)
		case fsUpdatedAt:
			rec.UpdatedAt = asTime(v)
		default:
			rec.Fields[k] = v
		}
	}
	return rec
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
