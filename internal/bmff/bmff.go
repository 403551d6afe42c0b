// Package bmff decodes the fixed-layout boxes shared by QuickTime, MP4 and
// HEIF files.
//
// Every decoder takes a payload materialized by the walker (the bytes after
// the box header) and writes named tags into a Directory. Decoders return
// an error when the payload is too short for its declared layout; values
// decoded before the failure are kept.
package bmff

import (
	"bytes"
	"context"
	"math"
	"time"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/walker"
)

// epoch is the zero point of QuickTime and ISO-BMFF timestamps.
var epoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// Time converts seconds since 1904 to a time, reporting false for zero or
// values too large to represent.
func Time(secs uint64) (time.Time, bool) {
	if secs == 0 || secs > uint64(math.MaxInt64/int64(time.Second)) {
		return time.Time{}, false
	}
	return epoch.Add(time.Duration(secs) * time.Second), true
}

// Duration converts a count of timescale units to a duration.
func Duration(units uint64, timescale uint32) time.Duration {
	if timescale == 0 {
		return 0
	}
	secs := units / uint64(timescale)
	rem := units % uint64(timescale)
	if secs >= uint64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/time.Duration(timescale)
}

// Fixed32 converts a 16.16 fixed-point value.
func Fixed32(v uint32) float64 {
	return float64(v) / 65536.0
}

// Fixed16 converts an 8.8 fixed-point value.
func Fixed16(v uint16) float64 {
	return float64(v) / 256.0
}

// FullBox reads the version and flags that start a full box payload.
func FullBox(ch *binary.Chain) (version uint8, flags uint32) {
	vf := ch.U32("version and flags")
	return uint8(vf >> 24), vf & 0xFFFFFF
}

// ReadFullBoxPreamble consumes version and flags from a container cursor,
// as needed before the children of a full box container such as "meta".
func ReadFullBoxPreamble(c *binary.Cursor) (version uint8, flags uint32, err error) {
	b, err := c.Bytes(4, "full box version and flags")
	if err != nil {
		return 0, 0, err
	}
	vf := binary.Decode[uint32](b, binary.BigEndian)
	return uint8(vf >> 24), vf & 0xFFFFFF, nil
}

// IsFullBoxMeta reports whether a "meta" box at the cursor starts with a
// version/flags preamble (ISO) rather than directly with a child box
// (classic QuickTime). The cursor is not moved on a buffer; stream cursors
// always assume the ISO layout.
func IsFullBoxMeta(c *binary.Cursor) bool {
	if c.IsStream() {
		return true
	}
	pos := c.Position()
	b, err := c.Bytes(8, "meta probe")
	_ = c.Seek(pos)
	if err != nil {
		return true
	}
	// A child box would carry a printable FourCC at offset 4.
	return !isFourCC(b[4:8])
}

func isFourCC(b []byte) bool {
	for _, x := range b {
		if x < 0x20 || x > 0x7E {
			if x != 0xA9 {
				return false
			}
		}
	}
	return true
}

// ChildBox returns the payload of the first child box of type typ within
// data, a run of boxes. The search uses the same header rules as the walker.
func ChildBox(data []byte, typ string) ([]byte, bool) {
	var found []byte
	ok := false
	h := &finder{typ: typ, found: &found, ok: &ok}
	w := walker.New(walker.BoxReader{}, walker.DefaultConfig())
	_ = w.Walk(context.Background(), binary.NewBytesCursor(data), walker.Unbounded, h)
	return found, ok
}

type finder struct {
	walker.Base
	typ   string
	found *[]byte
	ok    *bool
}

func (f *finder) AcceptLeaf(h *walker.Header) bool { return !*f.ok && h.Type == f.typ }

func (f *finder) ProcessLeaf(_ *walker.Header, payload []byte) (walker.Handler, error) {
	*f.found = payload
	*f.ok = true
	return nil, nil
}

// CString trims a NUL-terminated string.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
