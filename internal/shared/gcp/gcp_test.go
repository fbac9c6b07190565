package gcp

import (
	"context"
	"testing"
)

func TestClientOptionsEmptyUsesDefaults(t *testing.T) {
	opts, err := ClientOptions(context.Background(), "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts != nil {
		t.Fatalf("expected no options, got %d", len(opts))
	}
}

func TestClientOptionsRejectsInvalidJSON(t *testing.T) {
	if _, err := ClientOptions(context.Background(), "{not json"); err == nil {
		t.Fatalf("expected parse error")
	}
}
