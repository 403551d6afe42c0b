// Package tiff reads the header of TIFF-based files: classic TIFF, BigTIFF
// and the camera raw formats built on them.
//
// The byte order marker at the start of a TIFF header decides how every
// later value is read, so ReadHeader switches the cursor's byte order
// before reading anything else. Walking the IFD chain itself is left to
// dedicated IFD decoders; this package stops at the entry count of IFD0.
package tiff

import (
	"context"
	"fmt"
	"math"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// Magic numbers following the byte order marker.
const (
	MagicTIFF    = 42
	MagicBigTIFF = 43
	MagicRW2     = 0x55
	MagicORF     = 0x4F52 // "RO" little-endian, "OR" big-endian
	MagicORFS    = 0x5253 // "SR" little-endian
)

// Header is a decoded TIFF header.
type Header struct {
	// Start is the cursor position of the byte order marker. IFD offsets
	// are relative to it.
	Start    int64
	Order    binary.Endianness
	Magic    uint16
	Variant  types.Format
	FirstIFD uint64
	// CR2Version is "major.minor" for Canon CR2 files.
	CR2Version string
}

// ReadHeader reads a TIFF header at the cursor's position and leaves the
// cursor in the header's byte order.
func ReadHeader(c *binary.Cursor) (*Header, error) {
	h := &Header{Start: c.Position()}
	marker, err := c.String(2, "TIFF byte order")
	if err != nil {
		return nil, err
	}
	switch marker {
	case "II":
		h.Order = binary.LittleEndian
	case "MM":
		h.Order = binary.BigEndian
	default:
		return nil, &types.MalformedHeaderError{
			Path:   c.Path(),
			Type:   "TIFF",
			Offset: h.Start,
			Reason: fmt.Sprintf("unknown byte order marker %q", marker),
		}
	}
	c.SetByteOrder(h.Order)

	if h.Magic, err = c.Uint16("TIFF magic"); err != nil {
		return nil, err
	}

	switch h.Magic {
	case MagicTIFF:
		h.Variant = types.FormatTIFF
	case MagicBigTIFF:
		h.Variant = types.FormatBigTIFF
	case MagicORF, MagicORFS:
		h.Variant = types.FormatORF
	case MagicRW2:
		h.Variant = types.FormatRW2
	default:
		return nil, &types.MalformedHeaderError{
			Path:   c.Path(),
			Type:   "TIFF",
			Offset: h.Start + 2,
			Reason: fmt.Sprintf("unknown magic number 0x%04X", h.Magic),
		}
	}

	if h.Variant == types.FormatBigTIFF {
		return h, readBigHeader(c, h)
	}

	off, err := c.Uint32("first IFD offset")
	if err != nil {
		return nil, err
	}
	h.FirstIFD = uint64(off)

	// Canon stores "CR", a major and a minor version between the header
	// and IFD0.
	if h.Variant == types.FormatTIFF && h.FirstIFD >= 12 {
		// A short file simply lacks the signature; IFD0 is unreachable
		// then and EntryCount reports it.
		b, err := c.Bytes(4, "CR2 signature")
		if err == nil && string(b[:2]) == "CR" {
			h.Variant = types.FormatCR2
			h.CR2Version = fmt.Sprintf("%d.%d", b[2], b[3])
		}
	}
	return h, nil
}

func readBigHeader(c *binary.Cursor, h *Header) error {
	size, err := c.Uint16("BigTIFF offset size")
	if err != nil {
		return err
	}
	if size != 8 {
		return &types.MalformedHeaderError{
			Path:   c.Path(),
			Type:   "BigTIFF",
			Offset: h.Start + 4,
			Reason: fmt.Sprintf("offset size %d is not 8", size),
		}
	}
	if err := c.Skip(2, "BigTIFF reserved"); err != nil {
		return err
	}
	h.FirstIFD, err = c.Uint64("first IFD offset")
	return err
}

// EntryCount moves to IFD0 and reads its entry count. Stream cursors can
// only reach an IFD that lies ahead of the cursor.
func EntryCount(c *binary.Cursor, h *Header) (uint64, error) {
	if h.FirstIFD > uint64(math.MaxInt64-h.Start) {
		return 0, fmt.Errorf("IFD0 offset %d is out of range", h.FirstIFD)
	}
	if err := c.Seek(h.Start + int64(h.FirstIFD)); err != nil {
		return 0, fmt.Errorf("IFD0: %w", err)
	}
	if h.Variant == types.FormatBigTIFF {
		return c.Uint64("IFD0 entry count")
	}
	n, err := c.Uint16("IFD0 entry count")
	return uint64(n), err
}

// ByteOrderName describes a byte order the way TIFF tools print it.
func ByteOrderName(e binary.Endianness) string {
	if e == binary.LittleEndian {
		return "Little-endian (Intel, II)"
	}
	return "Big-endian (Motorola, MM)"
}

// Set writes the header fields into dir.
func (h *Header) Set(dir *types.Directory) {
	dir.Set("Byte Order", ByteOrderName(h.Order))
	dir.Set("TIFF Variant", h.Variant.String())
	dir.Set("First IFD Offset", h.FirstIFD)
	dir.SetString("CR2 Version", h.CR2Version)
}

// Embedded describes a TIFF structure carried inside another container,
// such as an Exif block, as "<name> Byte Order" and "<name> Entries".
func Embedded(payload []byte, dir *types.Directory, name string) error {
	c := binary.NewBytesCursor(payload)
	h, err := ReadHeader(c)
	if err != nil {
		return err
	}
	n, err := EntryCount(c, h)
	if err != nil {
		return err
	}
	dir.Set(name+" Byte Order", ByteOrderName(h.Order))
	dir.Set(name+" Entries", n)
	return nil
}

// Extract reads the TIFF header and the size of IFD0.
func Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg = cfg.Normalized()

	dir := types.NewDirectory("TIFF")
	md.AddDirectory(dir)

	h, err := ReadHeader(c)
	if err != nil {
		dir.AddError(err.Error())
		return nil
	}
	h.Set(dir)
	cfg.Logger.Debug("tiff header",
		"order", h.Order.String(),
		"variant", h.Variant.String(),
		"ifd0", h.FirstIFD)

	n, err := EntryCount(c, h)
	if err != nil {
		dir.AddError(err.Error())
		return nil
	}
	dir.Set("IFD0 Entry Count", n)
	return nil
}

func init() {
	for _, f := range []types.Format{
		types.FormatTIFF,
		types.FormatBigTIFF,
		types.FormatCR2,
		types.FormatORF,
		types.FormatRW2,
	} {
		registry.Register(f, registry.ExtractorFunc(Extract))
	}
}
