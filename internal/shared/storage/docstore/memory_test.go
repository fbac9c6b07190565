package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreCreateGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.Create(ctx, "audits", Record{OwnerID: "u1", OwnerKind: "user", Fields: map[string]any{"score": 80.0}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamps: %+v", rec)
	}
	if _, err := s.Create(ctx, "audits", Record{ID: rec.ID}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.Get(ctx, "audits", rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Fields["score"] = 1.0
	again, _ := s.Get(ctx, "audits", rec.ID)
	if again.Fields["score"] != 80.0 {
		t.Fatalf("stored record mutated through returned copy")
	}

	if _, err := s.Get(ctx, "audits", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreMutateCreatesAndAborts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.Mutate(ctx, "users", "u1", func(rec *Record, exists bool) error {
		if exists {
			t.Fatalf("expected new record")
		}
		rec.OwnerID = "u1"
		rec.Fields["plan"] = "FREE"
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if rec.CreatedAt.IsZero() || rec.Fields["plan"] != "FREE" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	abort := errors.New("abort")
	_, err = s.Mutate(ctx, "users", "u1", func(rec *Record, exists bool) error {
		rec.Fields["plan"] = "PRO"
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	got, _ := s.Get(ctx, "users", "u1")
	if got.Fields["plan"] != "FREE" {
		t.Fatalf("aborted mutation was written: %v", got.Fields["plan"])
	}
}

func TestMemoryStoreMutateIsSerialized(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Mutate(ctx, "users", "u1", func(rec *Record, _ bool) error {
				n, _ := rec.Fields["count"].(int)
				rec.Fields["count"] = n + 1
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, "users", "u1")
	if got.Fields["count"] != 50 {
		t.Fatalf("expected 50 increments, got %v", got.Fields["count"])
	}
}

func TestMemoryStoreListFiltersAndOrders(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()

	for _, b := range []string{"b1", "b2", "b1"} {
		if _, err := s.Create(ctx, "coverLetters", Record{OwnerID: "u1", Fields: map[string]any{"builderId": b}}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	_, _ = s.Create(ctx, "coverLetters", Record{OwnerID: "u2", Fields: map[string]any{"builderId": "b1"}})

	got, err := s.List(ctx, "coverLetters", Query{OwnerID: "u1", Where: map[string]any{"builderId": "b1"}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}

	page, _ := s.List(ctx, "coverLetters", Query{OwnerID: "u1", Limit: 1, Offset: 2})
	if len(page) != 1 {
		t.Fatalf("expected 1 record on last page, got %d", len(page))
	}
	empty, _ := s.List(ctx, "coverLetters", Query{OwnerID: "u1", Offset: 10})
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestMemoryStoreReassign(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _ = s.Create(ctx, "audits", Record{OwnerID: "g1", OwnerKind: "guest"})
	_, _ = s.Create(ctx, "audits", Record{OwnerID: "g1", OwnerKind: "guest"})
	_, _ = s.Create(ctx, "audits", Record{OwnerID: "g2", OwnerKind: "guest"})
	_, _ = s.Create(ctx, "builders", Record{OwnerID: "g1", OwnerKind: "guest"})

	counts, err := s.Reassign(ctx, []string{"audits", "builders", "coverLetters"}, "g1", "u1", "user")
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if counts["audits"] != 2 || counts["builders"] != 1 || counts["coverLetters"] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
	owned, _ := s.List(ctx, "audits", Query{OwnerID: "u1"})
	if len(owned) != 2 || owned[0].OwnerKind != "user" {
		t.Fatalf("unexpected reassigned records: %+v", owned)
	}
	counts, _ = s.Reassign(ctx, []string{"audits", "builders"}, "g1", "u1", "user")
	if counts["audits"] != 0 || counts["builders"] != 0 {
		t.Fatalf("expected second reassign to be a no-op, got %v", counts)
	}
}
