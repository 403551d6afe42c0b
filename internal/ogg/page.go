package ogg

import (
	"fmt"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/walker"
)

// Page header flags.
const (
	flagContinued = 0x01
	flagBOS       = 0x02
)

// pageHeaderSize is the fixed part of a page header, before the lacing values.
const pageHeaderSize = 27

// noGranule marks a page on which no packet ends.
const noGranule = -1

// Page is the header of one Ogg page.
type Page struct {
	Flags    byte
	Granule  int64
	Serial   uint32
	Sequence uint32
	// Lacing holds one value per segment. A packet ends at the first
	// value below 255.
	Lacing []byte
}

// pageReader reads Ogg page headers as records. It keeps the header of the
// page just read for the handler, and the last granule position seen for
// every logical stream.
type pageReader struct {
	page     *Page
	granules map[uint32]int64
	// stop ends the walk at the next page.
	stop bool
}

func newPageReader() *pageReader {
	return &pageReader{granules: make(map[uint32]int64)}
}

func (r *pageReader) ReadHeader(c *binary.Cursor) (*walker.Header, error) {
	if r.stop {
		return nil, walker.ErrEndOfContainer
	}
	start := c.Position()
	b, err := c.Bytes(pageHeaderSize, "page header")
	if err != nil {
		return nil, err
	}
	if string(b[:4]) != "OggS" {
		return nil, fmt.Errorf("invalid capture pattern %q at offset %d", b[:4], start)
	}
	if b[4] != 0 {
		return nil, fmt.Errorf("unsupported Ogg version %d at offset %d", b[4], start)
	}
	lacing, err := c.Bytes(int(b[26]), "segment table")
	if err != nil {
		return nil, err
	}

	p := &Page{
		Flags:    b[5],
		Granule:  int64(binary.Decode[uint64](b[6:], binary.LittleEndian)),
		Serial:   binary.Decode[uint32](b[14:], binary.LittleEndian),
		Sequence: binary.Decode[uint32](b[18:], binary.LittleEndian),
		Lacing:   lacing,
	}
	if p.Granule != noGranule {
		r.granules[p.Serial] = p.Granule
	}
	r.page = p

	headerLen := int64(pageHeaderSize + len(lacing))
	size := headerLen
	for _, l := range lacing {
		size += int64(l)
	}
	return &walker.Header{
		Type:      "OggS",
		Start:     start,
		HeaderLen: headerLen,
		Length:    walker.BoundedLength(size, headerLen),
	}, nil
}

// tailWindow bounds the search for the final pages of a seekable file.
const tailWindow = 64 << 10

// lastGranules scans the end of a seekable source backwards for the final
// page of every logical stream and records its granule position.
func lastGranules(c *binary.Cursor, granules map[uint32]int64) error {
	size := c.Length()
	start := max(0, size-tailWindow)
	if err := c.Seek(start); err != nil {
		return err
	}
	buf, err := c.Bytes(int(size-start), "final pages")
	if err != nil {
		return err
	}

	seen := make(map[uint32]bool)
	for i := len(buf) - pageHeaderSize; i >= 0; i-- {
		if buf[i] != 'O' || string(buf[i:i+4]) != "OggS" {
			continue
		}
		serial := binary.Decode[uint32](buf[i+14:], binary.LittleEndian)
		granule := int64(binary.Decode[uint64](buf[i+6:], binary.LittleEndian))
		if seen[serial] || granule == noGranule {
			continue
		}
		seen[serial] = true
		granules[serial] = granule
	}
	return nil
}
