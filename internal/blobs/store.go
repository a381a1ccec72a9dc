// Package blobs pulls compiled layer artifacts from object storage onto the
// device's layers directory.
package blobs

import (
	"context"
	"io"
)

// Store lists and opens objects in a bucket.
type Store interface {
	// List returns object names under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
