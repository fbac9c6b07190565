package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. Used in dev and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]memEntry
	seq  uint64
	now  func() time.Time
}

type memEntry struct {
	rec Record
	seq uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]memEntry),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(ctx context.Context, collection string, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	coll := s.collection(collection)
	if _, ok := coll[rec.ID]; ok {
		return Record{}, ErrAlreadyExists
	}
	now := s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	rec.Fields = cloneFields(rec.Fields)
	s.seq++
	coll[rec.ID] = memEntry{rec: rec, seq: s.seq}
	return copyRecord(rec), nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[collection][id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return copyRecord(entry.rec), nil
}

func (s *MemoryStore) Mutate(ctx context.Context, collection, id string, fn MutateFunc) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if id == "" {
		return Record{}, fmt.Errorf("docstore: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	entry, exists := coll[id]
	rec := Record{ID: id, Fields: map[string]any{}}
	if exists {
		rec = copyRecord(entry.rec)
	}
	if err := fn(&rec, exists); err != nil {
		return Record{}, err
	}
	now := s.now()
	rec.ID = id
	if !exists {
		s.seq++
		entry.seq = s.seq
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Fields = cloneFields(rec.Fields)
	coll[id] = memEntry{rec: rec, seq: entry.seq}
	return copyRecord(rec), nil
}

func (s *MemoryStore) List(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q = NormalizeQuery(q)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []memEntry
	for _, entry := range s.data[collection] {
		if q.OwnerID != "" && entry.rec.OwnerID != q.OwnerID {
			continue
		}
		if !matchesWhere(entry.rec.Fields, q.Where) {
			continue
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.After(b.rec.CreatedAt)
		}
		return a.seq > b.seq
	})
	if q.Offset >= len(matched) {
		return []Record{}, nil
	}
	matched = matched[q.Offset:]
	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	out := make([]Record, 0, len(matched))
	for _, entry := range matched {
		out = append(out, copyRecord(entry.rec))
	}
	return out, nil
}

func (s *MemoryStore) Reassign(ctx context.Context, collections []string, fromOwner, toOwner, toKind string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(collections))
	now := s.now()
	for _, collection := range collections {
		counts[collection] = 0
		for id, entry := range s.data[collection] {
			if entry.rec.OwnerID != fromOwner {
				continue
			}
			entry.rec.OwnerID = toOwner
			entry.rec.OwnerKind = toKind
			entry.rec.UpdatedAt = now
			s.data[collection][id] = entry
			counts[collection]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) collection(name string) map[string]memEntry {
	coll, ok := s.data[name]
	if !ok {
		coll = make(map[string]memEntry)
		s.data[name] = coll
	}
	return coll
}

func matchesWhere(fields map[string]any, where map[string]any) bool {
	for k, want := range where {
		got, ok := fields[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func copyRecord(rec Record) Record {
	rec.Fields = cloneFields(rec.Fields)
	return rec
}
