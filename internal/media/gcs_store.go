package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps files as objects named after the spiel id.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// OpenGCS creates a storage client. With STORAGE_EMULATOR_HOST set the client
// library talks to the emulator; pass option.WithoutAuthentication then.
func OpenGCS(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: "spiele/"}, nil
}

func (s *GCSStore) object(id string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + id)
}

func (s *GCSStore) Put(ctx context.Context, id, contentType string, r io.Reader) error {
	w := s.object(id).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer: %w", err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, id string) (*Object, error) {
	rc, err := s.object(id).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return &Object{
		ContentType: rc.Attrs.ContentType,
		Size:        rc.Attrs.Size,
		UpdatedAt:   rc.Attrs.LastModified,
		Body:        rc,
	}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
