// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"os"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/datasource"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the path the source reads from.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for random-access reading.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Directories are rejected.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (datasource.Handle, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	return &handle{File: f, size: fi.Size()}, nil
}

type handle struct {
	*os.File
	size int64
}

func (h *handle) Size() int64 { return h.size }

var _ datasource.Source = (*Local)(nil)
