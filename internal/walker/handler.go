package walker

import (
	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

// Handler interprets the records of one container branch.
//
// ProcessContainer returns the Handler for the record's children and may
// consume a fixed preamble from the cursor before they are read.
// ProcessLeaf returns the Handler for the record's later siblings. In both
// cases a nil Handler means "keep the current one". The walker stores the
// returned Handler in its own frame, so a replacement never leaks into a
// sibling branch.
type Handler interface {
	Directory() *types.Directory
	AcceptContainer(h *Header) bool
	AcceptLeaf(h *Header) bool
	ProcessContainer(h *Header, c *binary.Cursor) (Handler, error)
	ProcessLeaf(h *Header, payload []byte) (Handler, error)
}

// Base implements Handler by declining every record. Format handlers embed
// it and override what they need.
type Base struct {
	Dir *types.Directory
}

// Directory returns the directory this handler writes into.
func (b *Base) Directory() *types.Directory { return b.Dir }

// AcceptContainer declines.
func (b *Base) AcceptContainer(*Header) bool { return false }

// AcceptLeaf declines.
func (b *Base) AcceptLeaf(*Header) bool { return false }

// ProcessContainer keeps the current handler.
func (b *Base) ProcessContainer(*Header, *binary.Cursor) (Handler, error) { return nil, nil }

// ProcessLeaf keeps the current handler.
func (b *Base) ProcessLeaf(*Header, []byte) (Handler, error) { return nil, nil }
