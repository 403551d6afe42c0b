package types

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is matched by every *InsufficientDataError via errors.Is.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError is returned when a read needs more bytes than remain.
//
// Size is -1 when the source is a stream of unknown length.
type InsufficientDataError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *InsufficientDataError) Error() string {
	if e.Size < 0 {
		return withPath(e.Path, fmt.Sprintf("stream ended after offset %d while reading %d bytes of %s",
			e.Offset, e.Length, e.What))
	}
	if e.Offset >= e.Size {
		return withPath(e.Path, fmt.Sprintf("offset %d out of bounds (data size: %d) while reading %s",
			e.Offset, e.Size, e.What))
	}
	return withPath(e.Path, fmt.Sprintf("read of %d bytes at offset %d would exceed data size %d while reading %s",
		e.Length, e.Offset, e.Size, e.What))
}

// Is reports whether target is ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// MalformedHeaderError is returned when a record's declared length is
// inconsistent with its header length or with the bounds of its parent.
type MalformedHeaderError struct {
	Path   string
	Type   string
	Reason string
	Offset int64
}

func (e *MalformedHeaderError) Error() string {
	if e.Type != "" {
		return withPath(e.Path, fmt.Sprintf("malformed %q header at offset %d: %s", e.Type, e.Offset, e.Reason))
	}
	return withPath(e.Path, fmt.Sprintf("malformed header at offset %d: %s", e.Offset, e.Reason))
}

// RecursionLimitError is recorded when a container would nest deeper than
// the configured maximum.
type RecursionLimitError struct {
	Type   string
	Offset int64
	Depth  int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("recursion limit of %d exceeded by %q container at offset %d", e.Depth, e.Type, e.Offset)
}

// UnsupportedFormatError is returned in strict mode when no extractor exists
// for the detected format.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return withPath(e.Path, "unsupported format: "+e.Reason)
}

// withPath prefixes msg with the source path when there is one. Readers
// and streams have none.
func withPath(path, msg string) string {
	if path == "" {
		return msg
	}
	return path + ": " + msg
}
