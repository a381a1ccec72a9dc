package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore reads layer artifacts from a Google Cloud Storage bucket.
type GCSStore struct {
	Bucket string
	client *storage.Client
}

var _ Store = (*GCSStore)(nil)

// NewGCSStore creates a client using application default credentials.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS storage client: %w", err)
	}
	return &GCSStore{Bucket: bucket, client: client}, nil
}

// List returns the names of the objects under prefix.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.Bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", s.Bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// Open returns a reader for the named object.
func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.Bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening object from GCS %q: %w", "gs://"+s.Bucket+"/"+name, err)
	}
	return r, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }
