package walker

import (
	"fmt"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

// JPEG markers with special framing.
const (
	MarkerTEM  byte = 0x01
	MarkerSOF0 byte = 0xC0
	MarkerDHT  byte = 0xC4
	MarkerJPG  byte = 0xC8
	MarkerDAC  byte = 0xCC
	MarkerRST0 byte = 0xD0
	MarkerRST7 byte = 0xD7
	MarkerSOI  byte = 0xD8
	MarkerEOI  byte = 0xD9
	MarkerSOS  byte = 0xDA
	MarkerDQT  byte = 0xDB
	MarkerDNL  byte = 0xDC
	MarkerDRI  byte = 0xDD
	MarkerAPP0 byte = 0xE0
	MarkerCOM  byte = 0xFE
)

// SegmentName returns the conventional name of a JPEG marker.
func SegmentName(m byte) string {
	switch {
	case m == MarkerTEM:
		return "TEM"
	case m == MarkerDHT:
		return "DHT"
	case m == MarkerJPG:
		return "JPG"
	case m == MarkerDAC:
		return "DAC"
	case m >= MarkerSOF0 && m <= 0xCF:
		return fmt.Sprintf("SOF%d", m-MarkerSOF0)
	case m >= MarkerRST0 && m <= MarkerRST7:
		return fmt.Sprintf("RST%d", m-MarkerRST0)
	case m == MarkerSOI:
		return "SOI"
	case m == MarkerEOI:
		return "EOI"
	case m == MarkerSOS:
		return "SOS"
	case m == MarkerDQT:
		return "DQT"
	case m == MarkerDNL:
		return "DNL"
	case m == MarkerDRI:
		return "DRI"
	case m >= MarkerAPP0 && m <= 0xEF:
		return fmt.Sprintf("APP%d", m-MarkerAPP0)
	case m == MarkerCOM:
		return "COM"
	default:
		return fmt.Sprintf("0x%02X", m)
	}
}

// SegmentReader reads JPEG marker segments: a 0xFF prefix (fill bytes
// allowed), a marker byte and, for most markers, a big-endian 16-bit
// length that counts itself. SOS and EOI end the container because
// entropy-coded data follows.
type SegmentReader struct{}

// ReadHeader implements HeaderReader.
func (SegmentReader) ReadHeader(c *binary.Cursor) (*Header, error) {
	start := c.Position()
	prefix, err := c.Uint8("segment marker prefix")
	if err != nil {
		return nil, err
	}
	if prefix != 0xFF {
		return nil, &types.MalformedHeaderError{
			Path:   c.Path(),
			Type:   "segment",
			Offset: start,
			Reason: fmt.Sprintf("expected marker prefix 0xFF, found 0x%02X", prefix),
		}
	}

	marker := byte(0xFF)
	for marker == 0xFF {
		if marker, err = c.Uint8("segment marker"); err != nil {
			return nil, err
		}
	}

	if marker == MarkerSOS || marker == MarkerEOI {
		return nil, ErrEndOfContainer
	}

	h := &Header{
		Type:   SegmentName(marker),
		Marker: marker,
		Start:  start,
	}
	h.HeaderLen = c.Position() - start

	if marker == MarkerSOI || marker == MarkerTEM || (marker >= MarkerRST0 && marker <= MarkerRST7) {
		h.Length = Length{Kind: Bounded, N: h.HeaderLen}
		return h, nil
	}

	b, err := c.Bytes(2, "segment length")
	if err != nil {
		return nil, err
	}
	length := int64(binary.Decode[uint16](b, binary.BigEndian))
	h.HeaderLen += 2
	// The length field counts itself; the prefix and marker precede it.
	h.Length = BoundedLength(h.HeaderLen-2+length, h.HeaderLen)
	return h, nil
}
