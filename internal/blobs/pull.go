package blobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"nnrunner/internal/common/fsutil"
	"nnrunner/internal/registry"
)

// maxArtifactBytes bounds a single download.
const maxArtifactBytes = 16 << 20

// PullOptions controls Pull.
type PullOptions struct {
	Prefix string
	Dir    string
	// Overwrite replaces artifacts already present in Dir.
	Overwrite bool
	Logger    zerolog.Logger
}

// Pull downloads every layer_<i>.nnl object under the prefix into Dir.
// Each artifact is parsed before it is written; the resulting directory must
// load as a registry. It returns the local paths written.
func Pull(ctx context.Context, s Store, o PullOptions) ([]string, error) {
	dir, err := fsutil.ExpandHome(o.Dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	names, err := s.List(ctx, o.Prefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		base := path.Base(name)
		idx, ok := registry.ParseFileName(base)
		if !ok {
			continue
		}
		dst := filepath.Join(dir, base)
		if !o.Overwrite && fsutil.PathExists(dst) {
			o.Logger.Debug().Str("path", dst).Msg("layer already present")
			continue
		}
		startedAt := time.Now()
		n, err := fetch(ctx, s, name, idx, dst)
		if err != nil {
			return written, err
		}
		o.Logger.Info().Str("object", name).Str("path", dst).Int64("bytes", n).Dur("duration", time.Since(startedAt)).Msg("pulled layer")
		written = append(written, dst)
	}
	if _, err := registry.LoadDir(dir); err != nil {
		return written, fmt.Errorf("pulled layers do not form a registry: %w", err)
	}
	return written, nil
}

func fetch(ctx context.Context, s Store, name string, idx int, dst string) (int64, error) {
	r, err := s.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	b, err := io.ReadAll(io.LimitReader(r, maxArtifactBytes+1))
	if err != nil {
		return 0, fmt.Errorf("downloading %s: %w", name, err)
	}
	if len(b) > maxArtifactBytes {
		return 0, fmt.Errorf("%s exceeds %d bytes", name, maxArtifactBytes)
	}
	if _, err := registry.Parse(idx, path.Base(name), b); err != nil {
		return 0, err
	}
	return fsutil.WriteFileAtomic(dst, bytes.NewReader(b))
}
