package docstore

import (
	"testing"
	"time"
)

type sampleModel struct {
	Score     int               `json:"score"`
	Tags      []string          `json:"tags"`
	Sections  map[string]int    `json:"sections"`
	PaidUntil *time.Time        `json:"paidUntil,omitempty"`
	Day       string            `json:"day"`
	Extra     map[string]string `json:"extra,omitempty"`
}

func TestEncodeDecodeThroughJSONBackends(t *testing.T) {
	paid := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	fields, err := Encode(sampleModel{
		Score:     87,
		Tags:      []string{"go"},
		Sections:  map[string]int{"skills": 90},
		PaidUntil: &paid,
		Day:       "2026-04-30",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := fields["paidUntil"].(string); !ok {
		t.Fatalf("expected time encoded as string, got %T", fields["paidUntil"])
	}

	var out sampleModel
	if err := Decode(fields, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Score != 87 || out.Sections["skills"] != 90 || len(out.Tags) != 1 {
		t.Fatalf("unexpected decode: %+v", out)
	}
	if out.PaidUntil == nil || !out.PaidUntil.Equal(paid) {
		t.Fatalf("unexpected paidUntil: %v", out.PaidUntil)
	}
}

func TestDecodeFirestoreNativeTypes(t *testing.T) {
	paid := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	fields := map[string]any{
		"score":     int64(42),
		"tags":      []any{"a", "b"},
		"sections":  map[string]any{"skills": int64(70)},
		"paidUntil": paid,
	}
	var out sampleModel
	if err := Decode(fields, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Score != 42 || out.Sections["skills"] != 70 || len(out.Tags) != 2 {
		t.Fatalf("unexpected decode: %+v", out)
	}
	if out.PaidUntil == nil || !out.PaidUntil.Equal(paid) {
		t.Fatalf("unexpected paidUntil: %v", out.PaidUntil)
	}
}

func TestEncodeDropsReservedKeys(t *testing.T) {
	fields, err := Encode(map[string]any{"ownerId": "x", "createdAt": "y", "title": "z"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := fields["ownerId"]; ok {
		t.Fatalf("expected reserved key removed")
	}
	if fields["title"] != "z" {
		t.Fatalf("expected title kept")
	}
}

func TestDecodeRecordFillsMetadata(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := Record{
		ID:        "a1",
		OwnerID:   "u1",
		OwnerKind: "user",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
		Fields:    map[string]any{"title": "Backend"},
	}
	var out struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"ownerId"`
		OwnerKind string    `json:"ownerKind"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := DecodeRecord(rec, &out); err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if out.ID != "a1" || out.OwnerID != "u1" || out.OwnerKind != "user" || out.Title != "Backend" {
		t.Fatalf("unexpected decode %+v", out)
	}
	if !out.CreatedAt.Equal(created) || !out.UpdatedAt.Equal(created.Add(time.Minute)) {
		t.Fatalf("unexpected timestamps %+v", out)
	}
}
