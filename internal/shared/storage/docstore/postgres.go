package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PGStore keeps records in the Postgres "records" table as JSONB.
type PGStore struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s *PGStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *PGStore) Create(ctx context.Context, collection string, rec Record) (Record, error) {
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
	data, err := marshalFields(rec.Fields)
	if err != nil {
		return Record{}, err
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO records (collection, id, owner_id, owner_kind, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (collection, id) DO NOTHING
	`, collection, rec.ID, rec.OwnerID, rec.OwnerKind, data, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Record{}, ErrAlreadyExists
	}
	return copyRecord(rec), nil
}

func (s *PGStore) Get(ctx context.Context, collection, id string) (Record, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, owner_id, owner_kind, data, created_at, updated_at
		FROM records
		WHERE collection = $1 AND id = $2
	`, collection, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *PGStore) Mutate(ctx context.Context, collection, id string, fn MutateFunc) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("docstore: empty id")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := s.now()
	// Insert a placeholder first so concurrent creators serialize on the row lock.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO records (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, '{}'::jsonb, $3, $3)
		ON CONFLICT (collection, id) DO NOTHING
	`, collection, id, now)
	if err != nil {
		return Record{}, fmt.Errorf("reserve record: %w", err)
	}
	created := false
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		created = true
	}

	row := tx.QueryRowContext(ctx, `
		SELECT id, owner_id, owner_kind, data, created_at, updated_at
		FROM records
		WHERE collection = $1 AND id = $2
		FOR UPDATE
	`, collection, id)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("lock record: %w", err)
	}

	if err := fn(&rec, !created); err != nil {
		return Record{}, err
	}
	rec.ID = id
	rec.UpdatedAt = now

	data, err := marshalFields(rec.Fields)
	if err != nil {
		return Record{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE records
		SET owner_id = $3, owner_kind = $4, data = $5, updated_at = $6
		WHERE collection = $1 AND id = $2
	`, collection, id, rec.OwnerID, rec.OwnerKind, data, rec.UpdatedAt); err != nil {
		return Record{}, fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, err
	}
	return copyRecord(rec), nil
}

func (s *PGStore) List(ctx context.Context, collection string, q Query) ([]Record, error) {
	q = NormalizeQuery(q)
	clauses := []string{"collection = $1"}
	args := []any{collection}
	if q.OwnerID != "" {
		args = append(args, q.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if len(q.Where) > 0 {
		filter, err := json.Marshal(q.Where)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		args = append(args, string(filter))
		clauses = append(clauses, fmt.Sprintf("data @> $%d::jsonb", len(args)))
	}
	args = append(args, q.Limit, q.Offset)
	query := fmt.Sprintf(`
		SELECT id, owner_id, owner_kind, data, created_at, updated_at
		FROM records
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PGStore) Reassign(ctx context.Context, collections []string, fromOwner, toOwner, toKind string) (map[string]int, error) {
	counts := make(map[string]int, len(collections))
	if len(collections) == 0 {
		return counts, nil
	}
	args := []any{fromOwner, toOwner, toKind, s.now()}
	placeholders := make([]string, 0, len(collections))
	for _, coll := range collections {
		counts[coll] = 0
		args = append(args, coll)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reassign: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		UPDATE records
		SET owner_id = $2, owner_kind = $3, updated_at = $4
		WHERE owner_id = $1 AND collection IN (`+strings.Join(placeholders, ", ")+`)
		RETURNING collection
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("reassign records: %w", err)
	}
	for rows.Next() {
		var coll string
		if err := rows.Scan(&coll); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan reassigned record: %w", err)
		}
		counts[coll]++
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reassign records: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reassign: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec  Record
		data []byte
	)
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.OwnerKind, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	rec.Fields = map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Fields); err != nil {
			return Record{}, fmt.Errorf("decode record data: %w", err)
		}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func marshalFields(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode record data: %w", err)
	}
	return string(data), nil
}
