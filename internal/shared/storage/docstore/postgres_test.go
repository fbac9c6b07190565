package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var recordColumns = []string{"id", "owner_id", "owner_kind", "data", "created_at", "updated_at"}

func newPGStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	return &PGStore{DB: db, Now: func() time.Time { return now }}, mock
}

func TestPGStoreCreateConflict(t *testing.T) {
	store, mock := newPGStore(t)

	mock.ExpectExec("INSERT INTO records").
		WithArgs("audits", "a1", "u1", "user", `{"score":80}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.Create(context.Background(), "audits", Record{
		ID: "a1", OwnerID: "u1", OwnerKind: "user", Fields: map[string]any{"score": 80},
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreGetNotFound(t *testing.T) {
	store, mock := newPGStore(t)

	mock.ExpectQuery("SELECT id, owner_id, owner_kind, data, created_at, updated_at FROM records").
		WithArgs("audits", "missing").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	if _, err := store.Get(context.Background(), "audits", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreMutateLocksAndUpdates(t *testing.T) {
	store, mock := newPGStore(t)
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO records .* ON CONFLICT \\(collection, id\\) DO NOTHING").
		WithArgs("users", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .* FROM records WHERE collection = \\$1 AND id = \\$2 FOR UPDATE").
		WithArgs("users", "u1").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("u1", "u1", "user", []byte(`{"exportsToday":1,"exportDay":"2026-04-01"}`), created, created))
	mock.ExpectExec("UPDATE records SET owner_id = \\$3").
		WithArgs("users", "u1", "u1", "user", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := store.Mutate(context.Background(), "users", "u1", func(rec *Record, exists bool) error {
		if !exists {
			t.Fatalf("expected existing record")
		}
		n, _ := rec.Fields["exportsToday"].(float64)
		rec.Fields["exportsToday"] = n + 1
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if rec.Fields["exportsToday"] != 2.0 {
		t.Fatalf("expected counter 2, got %v", rec.Fields["exportsToday"])
	}
	if !rec.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at preserved, got %v", rec.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreMutateRollsBackOnError(t *testing.T) {
	store, mock := newPGStore(t)
	now := store.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO records").
		WithArgs("users", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("users", "u1").
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow("u1", "", "", []byte(`{}`), now, now))
	mock.ExpectRollback()

	limit := errors.New("limit")
	_, err := store.Mutate(context.Background(), "users", "u1", func(rec *Record, exists bool) error {
		if exists {
			t.Fatalf("expected placeholder to count as new")
		}
		return limit
	})
	if !errors.Is(err, limit) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreListBuildsFilters(t *testing.T) {
	store, mock := newPGStore(t)
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE collection = \\$1 AND owner_id = \\$2 AND data @> \\$3::jsonb ORDER BY created_at DESC, id DESC LIMIT \\$4 OFFSET \\$5").
		WithArgs("coverLetters", "u1", `{"builderId":"b1"}`, 10, 0).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("c2", "u1", "user", []byte(`{"builderId":"b1"}`), ts.Add(time.Hour), ts).
			AddRow("c1", "u1", "user", []byte(`{"builderId":"b1"}`), ts, ts))

	got, err := store.List(context.Background(), "coverLetters", Query{
		OwnerID: "u1",
		Where:   map[string]any{"builderId": "b1"},
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c2" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

const reassignQuery = "UPDATE records SET owner_id = \\$2, owner_kind = \\$3, updated_at = \\$4 " +
	"WHERE owner_id = \\$1 AND collection IN \\(\\$5, \\$6\\) RETURNING collection"

func TestPGStoreReassignInOneTransaction(t *testing.T) {
	store, mock := newPGStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(reassignQuery).
		WithArgs("g1", "u1", "user", sqlmock.AnyArg(), "audits", "builders").
		WillReturnRows(sqlmock.NewRows([]string{"collection"}).
			AddRow("audits").
			AddRow("builders").
			AddRow("builders"))
	mock.ExpectCommit()

	counts, err := store.Reassign(context.Background(), []string{"audits", "builders"}, "g1", "u1", "user")
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if counts["audits"] != 1 || counts["builders"] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreReassignRollsBackOnError(t *testing.T) {
	store, mock := newPGStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(reassignQuery).
		WithArgs("g1", "u1", "user", sqlmock.AnyArg(), "audits", "builders").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if _, err := store.Reassign(context.Background(), []string{"audits", "builders"}, "g1", "u1", "user"); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
