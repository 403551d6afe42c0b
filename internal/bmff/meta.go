package bmff

import (
	"fmt"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// Meta interprets the children of a "meta" box. The handler reference
// decides how the item list is keyed: "mdta" lists index their items
// through a "keys" box, every other list names items by FourCC.
//
// Both hdlr and keys hand off to a copy of the handler carrying what they
// declared, so a later ilst sibling sees the key table while other meta
// boxes do not.
type Meta struct {
	walker.Base
	md    *types.Metadata
	group string
	keyed bool
	keys  []string
}

// NewMeta creates a Meta handler. Item directories are added to md and
// named after group, e.g. "QuickTime Metadata" or "MP4 ItemList".
func NewMeta(md *types.Metadata, dir *types.Directory, group string) *Meta {
	return &Meta{Base: walker.Base{Dir: dir}, md: md, group: group}
}

// Keys returns the key table declared so far.
func (m *Meta) Keys() []string { return m.keys }

func (m *Meta) AcceptContainer(h *walker.Header) bool { return h.Type == "ilst" }

func (m *Meta) AcceptLeaf(h *walker.Header) bool {
	return h.Type == "hdlr" || h.Type == "keys"
}

func (m *Meta) ProcessContainer(*walker.Header, *binary.Cursor) (walker.Handler, error) {
	name := m.group + " ItemList"
	if m.keyed {
		name = m.group + " Metadata"
	}
	dir := types.NewDirectory(name)
	m.md.AddDirectory(dir)
	return NewItemList(dir, m.keys), nil
}

func (m *Meta) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "hdlr":
		hd, err := DecodeHdlr(payload)
		if err != nil {
			return nil, err
		}
		if hd.Type == "mdta" {
			next := *m
			next.keyed = true
			return &next, nil
		}
	case "keys":
		keys, err := DecodeKeys(payload)
		next := *m
		next.keyed = true
		next.keys = keys
		return &next, err
	}
	return nil, nil
}

// DecodeKeys decodes a QuickTime metadata key table. Keys decoded before a
// malformed entry are returned with the error.
func DecodeKeys(payload []byte) ([]string, error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	FullBox(ch)
	count := ch.U32("entry count")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	keys := make([]string, 0, min(int64(count), ch.Remaining()/8))
	for range count {
		if ch.Remaining() < 8 {
			return keys, fmt.Errorf("key table truncated after %d of %d entries", len(keys), count)
		}
		size := ch.U32("key size")
		ch.Skip(4, "key namespace")
		if size < 8 || int64(size-8) > ch.Remaining() {
			return keys, fmt.Errorf("key entry size %d is invalid", size)
		}
		keys = append(keys, ch.String(int(size-8), "key value"))
	}
	return keys, ch.Error()
}
