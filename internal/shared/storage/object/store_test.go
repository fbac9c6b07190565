package object

import (
	"io"
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/file.pdf", want: "user/file.pdf"},
		{name: "simple prefix", prefix: "root", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/user/file.pdf", want: "root/user/file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "user/file.pdf", want: "root/sub/user/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ApplyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("ApplyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestSniffKeepsFullStream(t *testing.T) {
	body := "%PDF-1.7\n" + strings.Repeat("x", 2000)
	mime, r, err := Sniff(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if mime != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", mime)
	}
	counter := &CountingReader{R: r}
	if _, err := io.Copy(io.Discard, counter); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if counter.N != int64(len(body)) {
		t.Fatalf("expected %d bytes, got %d", len(body), counter.N)
	}
}

func TestNewKeyNamespacesOwner(t *testing.T) {
	key, err := NewKey("user-1", "my cv.pdf")
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	parts := strings.Split(key, "/")
	if len(parts) != 2 || len(parts[0]) != 64 || !strings.HasSuffix(parts[1], "_my cv.pdf") {
		t.Fatalf("unexpected key %q", key)
	}
	if _, err := NewKey("user-1", "../x"); err == nil {
		t.Fatalf("expected traversal rejection")
	}
}
