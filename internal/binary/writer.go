package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer assembles byte sequences in a fixed byte order. It is used to
// build records such as boxes, chunks and segments in memory.
type Writer struct {
	buf   bytes.Buffer
	order Endianness
}

// NewWriter creates a Writer using the given byte order.
func NewWriter(order Endianness) *Writer {
	return &Writer{order: order}
}

// Offset returns the current position (number of bytes written).
func (w *Writer) Offset() int64 {
	return int64(w.buf.Len())
}

// Bytes returns the assembled bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Raw appends b unchanged.
func (w *Writer) Raw(b ...byte) *Writer {
	w.buf.Write(b)
	return w
}

// String appends s without a terminator.
func (w *Writer) String(s string) *Writer {
	w.buf.WriteString(s)
	return w
}

// Zeros appends n zero bytes.
func (w *Writer) Zeros(n int) *Writer {
	w.buf.Write(make([]byte, n))
	return w
}

// Write appends val in the writer's byte order.
func Write[T Unsigned](w *Writer, val T) *Writer {
	var tmp [8]byte
	b := tmp[:sizeOf[T]()]
	o := w.order.order()

	var zero T
	switch any(zero).(type) {
	case uint8:
		b[0] = byte(val)
	case uint16:
		o.PutUint16(b, uint16(val))
	case uint32:
		o.PutUint32(b, uint32(val))
	default:
		o.PutUint64(b, uint64(val))
	}
	w.buf.Write(b)
	return w
}

// U8 appends a byte.
func (w *Writer) U8(v uint8) *Writer { return Write(w, v) }

// U16 appends a 16-bit value.
func (w *Writer) U16(v uint16) *Writer { return Write(w, v) }

// U32 appends a 32-bit value.
func (w *Writer) U32(v uint32) *Writer { return Write(w, v) }

// U64 appends a 64-bit value.
func (w *Writer) U64(v uint64) *Writer { return Write(w, v) }

// Box encodes an ISO-BMFF box: big-endian 32-bit size, type, payload.
func Box(typ string, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	out := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(out, uint32(8+len(body)))
	copy(out[4:], typ)
	return append(out, body...)
}

// FullBox encodes a box whose payload starts with version and flags.
func FullBox(typ string, version uint8, flags uint32, payload ...[]byte) []byte {
	vf := make([]byte, 4)
	binary.BigEndian.PutUint32(vf, uint32(version)<<24|flags&0xFFFFFF)
	return Box(typ, append([][]byte{vf}, payload...)...)
}

// Chunk encodes a RIFF chunk: type, little-endian 32-bit size, payload and
// a pad byte when the payload length is odd.
func Chunk(typ string, payload []byte) []byte {
	out := make([]byte, 8, 9+len(payload))
	copy(out, typ)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// List encodes a RIFF or LIST chunk with a form type and child chunks.
func List(typ, form string, children ...[]byte) []byte {
	body := append([]byte(form), bytes.Join(children, nil)...)
	return Chunk(typ, body)
}

// Segment encodes a JPEG marker segment with a length that includes itself.
func Segment(marker byte, payload []byte) []byte {
	out := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(out[2:], uint16(len(payload)+2))
	return append(out, payload...)
}
