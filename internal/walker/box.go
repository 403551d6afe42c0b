package walker

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/simonhull/mediameta/internal/binary"
)

// BoxReader reads QuickTime atoms and ISO-BMFF boxes: a big-endian 32-bit
// size and a FourCC, a 64-bit size following when the 32-bit size is 1,
// and "extends to parent end" when it is 0.
type BoxReader struct {
	// UserTypes enables the 16-byte extended type of "uuid" boxes.
	UserTypes bool
}

// ReadHeader implements HeaderReader.
func (r BoxReader) ReadHeader(c *binary.Cursor) (*Header, error) {
	start := c.Position()
	b, err := c.Bytes(8, "box header")
	if err != nil {
		return nil, err
	}

	h := &Header{
		Type:      string(b[4:8]),
		Start:     start,
		HeaderLen: 8,
	}

	size := uint64(binary.Decode[uint32](b, binary.BigEndian))
	switch size {
	case 0:
		h.Length = Length{Kind: ToParentEnd}
	case 1:
		ext, err := c.Bytes(8, "extended box size")
		if err != nil {
			return nil, err
		}
		h.HeaderLen = 16
		size = binary.Decode[uint64](ext, binary.BigEndian)
	}

	if r.UserTypes && h.Type == "uuid" {
		ext, err := c.Bytes(16, "uuid box user type")
		if err != nil {
			return nil, err
		}
		h.UserType, err = uuid.FromBytes(ext)
		if err != nil {
			return nil, fmt.Errorf("uuid box at offset %d: %w", start, err)
		}
		h.HeaderLen += 16
	}

	switch {
	case h.Length.Kind == ToParentEnd:
	case size == 1:
		h.Length = Length{Kind: Unknowable, N: 1}
	case size > math.MaxInt64:
		h.Length = Length{Kind: Invalid, N: -1}
	default:
		h.Length = BoundedLength(int64(size), h.HeaderLen)
	}
	return h, nil
}
