package walker

import (
	"github.com/simonhull/mediameta/internal/binary"
)

// ChunkReader reads RIFF chunks: a FourCC and a little-endian 32-bit
// payload size. "RIFF" and "LIST" chunks carry a form type in their first
// four payload bytes, which becomes the header's SubType. Odd-sized
// payloads are followed by one pad byte.
//
// With IFF set it reads the big-endian EA IFF 85 layout used by AIFF,
// where "FORM", "LIST" and "CAT " are the group chunks.
type ChunkReader struct {
	IFF bool
}

func (r ChunkReader) group(typ string) bool {
	if r.IFF {
		return typ == "FORM" || typ == "LIST" || typ == "CAT "
	}
	return typ == "RIFF" || typ == "LIST"
}

// ReadHeader implements HeaderReader.
func (r ChunkReader) ReadHeader(c *binary.Cursor) (*Header, error) {
	start := c.Position()
	b, err := c.Bytes(8, "chunk header")
	if err != nil {
		return nil, err
	}

	order := binary.LittleEndian
	if r.IFF {
		order = binary.BigEndian
	}
	size := int64(binary.Decode[uint32](b[4:], order))
	h := &Header{
		Type:      string(b[:4]),
		Start:     start,
		HeaderLen: 8,
		Padding:   size & 1,
	}

	if r.group(h.Type) {
		if size < 4 {
			h.Length = Length{Kind: Invalid, N: 8 + size}
			h.HeaderLen = 12
			return h, nil
		}
		form, err := c.FourCC("list form type")
		if err != nil {
			return nil, err
		}
		h.SubType = form
		h.HeaderLen = 12
	}

	h.Length = BoundedLength(8+size, h.HeaderLen)
	return h, nil
}
