package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"resumemind-api/internal/shared/storage/object"
)

// Store implements ObjectStore using a Google Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed object store.
func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}, nil
}

// Save uploads r under the owner's namespace.
func (s *Store) Save(ctx context.Context, ownerKey string, fileName string, r io.Reader) (object.Saved, error) {
	key, err := object.NewKey(ownerKey, fileName)
	if err != nil {
		return object.Saved{}, err
	}
	mimeType, body, err := object.Sniff(r)
	if err != nil {
		return object.Saved{}, err
	}
	size, err := s.SaveWithKey(ctx, key, mimeType, body)
	if err != nil {
		return object.Saved{}, err
	}
	return object.Saved{Key: key, Size: size, MimeType: mimeType}, nil
}

// SaveWithKey uploads r to an exact key.
func (s *Store) SaveWithKey(ctx context.Context, key string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	objectKey := object.ApplyPrefix(s.prefix, key)
	wc := s.client.Bucket(s.bucket).Object(objectKey).NewWriter(ctx)
	wc.ContentType = contentType
	written, err := io.Copy(wc, r)
	if err != nil {
		_ = wc.Close()
		return 0, fmt.Errorf("gcs write bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	if err := wc.Close(); err != nil {
		return 0, fmt.Errorf("gcs close bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return written, nil
}

// Open streams an object.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	objectKey := object.ApplyPrefix(s.prefix, key)
	rc, err := s.client.Bucket(s.bucket).Object(objectKey).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs read bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return rc, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, key string) error {
	objectKey := object.ApplyPrefix(s.prefix, key)
	err := s.client.Bucket(s.bucket).Object(objectKey).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ object.ObjectStore = (*Store)(nil)
