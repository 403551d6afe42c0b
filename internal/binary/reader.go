// Package binary provides endian-aware, bounds-checked byte access.
//
// The central type is Cursor, which reads either from a forward-only stream
// or from a random-access source of known size. Every short read fails with
// a *types.InsufficientDataError that names what was being read, so callers
// can record the problem and carry on with the rest of the file.
package binary

import (
	"fmt"
	"io"

	"github.com/simonhull/mediameta/internal/types"
)

// SafeReader wraps io.ReaderAt with bounds checking and helpful error messages.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		path: path,
	}
}

// Path returns the file path associated with this reader.
func (sr *SafeReader) Path() string {
	return sr.path
}

// Size returns the number of readable bytes.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// ReadAt fills b from offset off. Reads that would cross the known size fail
// with *types.InsufficientDataError before touching the underlying reader.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off > sr.size || int64(len(b)) > sr.size-off {
		return &types.InsufficientDataError{
			Path:   sr.path,
			What:   what,
			Offset: off,
			Length: len(b),
			Size:   sr.size,
		}
	}
	if len(b) == 0 {
		return nil
	}

	n, err := sr.r.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		// The source is shorter than advertised.
		return &types.InsufficientDataError{
			Path:   sr.path,
			What:   what,
			Offset: off + int64(n),
			Length: len(b) - n,
			Size:   off + int64(n),
		}
	}
	return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.path, what, off, err)
}
