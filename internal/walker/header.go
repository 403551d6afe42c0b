// Package walker drives recursive descent over nested, length-prefixed
// records without knowing what the records mean.
//
// A HeaderReader decodes one record header in a container dialect (boxes,
// chunks, segments). A Handler decides for every header whether to recurse,
// decode the payload or skip it, and may return a different Handler to
// interpret what follows. The Walker owns the loop, the bounds checks and
// the recursion limit; it records malformed structure on the active
// Handler's Directory and never fails for bad content.
package walker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simonhull/mediameta/internal/binary"
)

// Unbounded as an end offset means "until the data runs out".
const Unbounded int64 = -1

// ErrEndOfContainer is returned by a HeaderReader when the bytes at the
// cursor mark the end of the current container (a JPEG SOS or EOI marker).
var ErrEndOfContainer = errors.New("end of container")

// LengthKind classifies a record's declared length.
type LengthKind int

const (
	// Bounded records span exactly Length.N bytes including the header.
	Bounded LengthKind = iota
	// ToParentEnd records extend to the end of the enclosing container.
	ToParentEnd
	// Unknowable records declare a length that cannot be resolved; the
	// enclosing container stops at them.
	Unknowable
	// Invalid records declare fewer bytes than their own header occupies.
	Invalid
)

func (k LengthKind) String() string {
	switch k {
	case Bounded:
		return "bounded"
	case ToParentEnd:
		return "to-parent-end"
	case Unknowable:
		return "unknowable"
	default:
		return "invalid"
	}
}

// Length is a declared record length, decided once per header.
type Length struct {
	Kind LengthKind
	// N is the declared size including the header when Kind is Bounded or Invalid.
	N int64
}

// BoundedLength returns a Length of n bytes, or an Invalid one when n is
// smaller than the header length.
func BoundedLength(n, headerLen int64) Length {
	if n < headerLen {
		return Length{Kind: Invalid, N: n}
	}
	return Length{Kind: Bounded, N: n}
}

// Header is one decoded record header.
type Header struct {
	// Type is the FourCC, or the segment name for JPEG markers.
	Type string
	// Marker is the JPEG marker byte.
	Marker byte
	// SubType is the form type of RIFF and LIST chunks.
	SubType string
	// UserType is the extended type of a HEIF "uuid" box.
	UserType uuid.UUID

	// Start is the absolute offset of the first header byte.
	Start int64
	// HeaderLen is the number of bytes the header occupies.
	HeaderLen int64
	Length    Length
	// Padding is skipped after the record (RIFF odd-size chunks).
	Padding int64
}

// PayloadStart returns the absolute offset of the first payload byte.
func (h *Header) PayloadStart() int64 {
	return h.Start + h.HeaderLen
}

// End resolves the record's end offset against its parent's end.
func (h *Header) End(parentEnd int64) int64 {
	if h.Length.Kind == ToParentEnd {
		return parentEnd
	}
	return h.Start + h.Length.N
}

// Key returns Type, or SubType for RIFF and LIST chunks so handlers can
// dispatch on "hdrl" or "INFO" directly.
func (h *Header) Key() string {
	if h.SubType != "" {
		return h.SubType
	}
	return h.Type
}

func (h *Header) String() string {
	name := h.Type
	if h.SubType != "" {
		name += "/" + h.SubType
	}
	switch h.Length.Kind {
	case Bounded:
		return fmt.Sprintf("%s @%d (%d bytes)", name, h.Start, h.Length.N)
	default:
		return fmt.Sprintf("%s @%d (%s)", name, h.Start, h.Length.Kind)
	}
}

// HeaderReader decodes a record header at the cursor's position.
//
// Readers return an error wrapping types.ErrInsufficientData when the data
// ends, ErrEndOfContainer at a container terminator, and any other error for
// bytes that cannot be a header. Every successful read consumes at least one
// byte.
type HeaderReader interface {
	ReadHeader(c *binary.Cursor) (*Header, error)
}
