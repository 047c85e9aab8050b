// Package datasource defines how the extract stage reaches file-backed
// inputs. Columnar formats keep their metadata in a footer, so sources hand
// out random-access handles rather than plain streams.
package datasource

import (
	"context"
	"io"
)

// Handle is an opened input with random access and a known size.
type Handle interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// Source opens an input for reading.
type Source interface {
	Open(ctx context.Context) (Handle, error)
}
