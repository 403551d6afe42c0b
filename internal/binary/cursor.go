package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/simonhull/mediameta/internal/types"
)

// Cursor reads sequentially from a stream or a random-access source,
// tracking the absolute position and a mutable byte order.
//
// A stream cursor never moves backwards and has an unknown length; Skip
// consumes and discards bytes. A buffer cursor knows its length, never
// reads past it, skips in O(1) and may Seek. On a buffer cursor the
// position only advances when a read succeeds.
type Cursor struct {
	stream io.Reader
	buffer *SafeReader
	path   string
	pos    int64
	order  Endianness
}

// NewStreamCursor creates a forward-only cursor over r.
func NewStreamCursor(r io.Reader, path string) *Cursor {
	return &Cursor{stream: r, path: path}
}

// NewBufferCursor creates a random-access cursor over the first size bytes of r.
func NewBufferCursor(r io.ReaderAt, size int64, path string) *Cursor {
	return &Cursor{buffer: NewSafeReader(r, size, path), path: path}
}

// NewBytesCursor creates a random-access cursor over b.
func NewBytesCursor(b []byte) *Cursor {
	return NewBufferCursor(bytes.NewReader(b), int64(len(b)), "<buffer>")
}

// Path returns the source path used in error messages.
func (c *Cursor) Path() string {
	return c.path
}

// IsStream reports whether the cursor is forward-only.
func (c *Cursor) IsStream() bool {
	return c.buffer == nil
}

// Position returns the current absolute offset.
func (c *Cursor) Position() int64 {
	return c.pos
}

// Length returns the known total length, or -1 for streams.
func (c *Cursor) Length() int64 {
	if c.buffer == nil {
		return -1
	}
	return c.buffer.Size()
}

// Remaining returns the number of unread bytes, or -1 for streams.
func (c *Cursor) Remaining() int64 {
	if c.buffer == nil {
		return -1
	}
	return c.buffer.Size() - c.pos
}

// ByteOrder returns the byte order used for multi-byte reads.
func (c *Cursor) ByteOrder() Endianness {
	return c.order
}

// SetByteOrder changes the byte order of all subsequent multi-byte reads.
func (c *Cursor) SetByteOrder(e Endianness) {
	c.order = e
}

func (c *Cursor) insufficient(what string, n int) error {
	return &types.InsufficientDataError{
		Path:   c.path,
		What:   what,
		Offset: c.pos,
		Length: n,
		Size:   c.Length(),
	}
}

// ReadFull fills p completely.
func (c *Cursor) ReadFull(p []byte, what string) error {
	if c.buffer != nil {
		if err := c.buffer.ReadAt(p, c.pos, what); err != nil {
			return err
		}
		c.pos += int64(len(p))
		return nil
	}

	n, err := io.ReadFull(c.stream, p)
	start := c.pos
	c.pos += int64(n)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &types.InsufficientDataError{
			Path:   c.path,
			What:   what,
			Offset: start,
			Length: len(p),
			Size:   -1,
		}
	}
	return fmt.Errorf("%s: failed to read %s at offset %d: %w", c.path, what, start, err)
}

// Bytes reads exactly n bytes into a new slice.
func (c *Cursor) Bytes(n int, what string) ([]byte, error) {
	if n < 0 {
		return nil, c.insufficient(what, n)
	}
	// Fail before allocating when a buffer cannot hold the request.
	if c.buffer != nil && int64(n) > c.Remaining() {
		return nil, c.insufficient(what, n)
	}
	b := make([]byte, n)
	if err := c.ReadFull(b, what); err != nil {
		return nil, err
	}
	return b, nil
}

// Upto reads at most n bytes, fewer when the data ends first.
func (c *Cursor) Upto(n int, what string) ([]byte, error) {
	if c.buffer != nil {
		return c.Bytes(int(min(int64(n), c.Remaining())), what)
	}
	b := make([]byte, n)
	read, err := io.ReadFull(c.stream, b)
	start := c.pos
	c.pos += int64(read)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%s: failed to read %s at offset %d: %w", c.path, what, start, err)
	}
	return b[:read], nil
}

// ReadValue reads a T in the cursor's current byte order.
func ReadValue[T Unsigned](c *Cursor, what string) (T, error) {
	var buf [8]byte
	b := buf[:sizeOf[T]()]
	if err := c.ReadFull(b, what); err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](b, c.order), nil
}

// Uint8 reads one byte.
func (c *Cursor) Uint8(what string) (uint8, error) {
	return ReadValue[uint8](c, what)
}

// Uint16 reads a 16-bit unsigned integer.
func (c *Cursor) Uint16(what string) (uint16, error) {
	return ReadValue[uint16](c, what)
}

// Uint32 reads a 32-bit unsigned integer.
func (c *Cursor) Uint32(what string) (uint32, error) {
	return ReadValue[uint32](c, what)
}

// Uint64 reads a 64-bit unsigned integer.
func (c *Cursor) Uint64(what string) (uint64, error) {
	return ReadValue[uint64](c, what)
}

// Int8 reads a signed byte.
func (c *Cursor) Int8(what string) (int8, error) {
	v, err := ReadValue[uint8](c, what)
	return int8(v), err
}

// Int16 reads a 16-bit signed integer.
func (c *Cursor) Int16(what string) (int16, error) {
	v, err := ReadValue[uint16](c, what)
	return int16(v), err
}

// Int32 reads a 32-bit signed integer.
func (c *Cursor) Int32(what string) (int32, error) {
	v, err := ReadValue[uint32](c, what)
	return int32(v), err
}

// Int64 reads a 64-bit signed integer.
func (c *Cursor) Int64(what string) (int64, error) {
	v, err := ReadValue[uint64](c, what)
	return int64(v), err
}

// String reads n bytes as a string without any decoding.
func (c *Cursor) String(n int, what string) (string, error) {
	b, err := c.Bytes(n, what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FourCC reads a four character code.
func (c *Cursor) FourCC(what string) (string, error) {
	return c.String(4, what)
}

// NullTerminatedString reads bytes up to a NUL terminator, consuming the
// terminator. At most maxLen bytes are examined; if no NUL occurs within
// them the maxLen bytes read so far are returned.
func (c *Cursor) NullTerminatedString(maxLen int, what string) (string, error) {
	var out []byte
	var one [1]byte
	for len(out) < maxLen {
		if err := c.ReadFull(one[:], what); err != nil {
			return "", err
		}
		if one[0] == 0 {
			break
		}
		out = append(out, one[0])
	}
	return string(out), nil
}

// Skip advances n bytes without materializing them.
func (c *Cursor) Skip(n int64, what string) error {
	if n < 0 {
		return fmt.Errorf("%s: negative skip of %d bytes over %s at offset %d", c.path, n, what, c.pos)
	}
	if c.buffer != nil {
		if n > c.Remaining() {
			return c.insufficient(what, int(min(n, int64(math.MaxInt))))
		}
		c.pos += n
		return nil
	}

	start := c.pos
	copied, err := io.CopyN(io.Discard, c.stream, n)
	c.pos += copied
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return &types.InsufficientDataError{
			Path:   c.path,
			What:   what,
			Offset: start,
			Length: int(min(n, int64(math.MaxInt))),
			Size:   -1,
		}
	}
	return fmt.Errorf("%s: failed to skip %s at offset %d: %w", c.path, what, start, err)
}

// Seek moves to an absolute position. Stream cursors can only move forward.
func (c *Cursor) Seek(pos int64) error {
	if c.buffer == nil {
		if pos < c.pos {
			return fmt.Errorf("%s: cannot seek backwards from %d to %d on a stream", c.path, c.pos, pos)
		}
		return c.Skip(pos-c.pos, "seek")
	}
	if pos < 0 || pos > c.buffer.Size() {
		return &types.InsufficientDataError{
			Path:   c.path,
			What:   "seek",
			Offset: pos,
			Size:   c.buffer.Size(),
		}
	}
	c.pos = pos
	return nil
}
