package binary

import "encoding/binary"

// Unsigned is the set of integer types the generic readers decode.
type Unsigned interface {
	uint8 | uint16 | uint32 | uint64
}

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian uses big-endian byte order.
	// Used by: QuickTime, MP4, HEIF, JPEG segment lengths, Motorola TIFF.
	BigEndian Endianness = iota

	// LittleEndian uses little-endian byte order.
	// Used by: RIFF (WAV, AVI, WebP), Intel TIFF.
	LittleEndian
)

// String returns "big-endian" or "little-endian".
func (e Endianness) String() string {
	if e == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

func (e Endianness) order() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// sizeOf returns the encoded width of T in bytes.
func sizeOf[T Unsigned]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// Decode converts the leading bytes of b to T using the given byte order.
// b must hold at least sizeOf[T]() bytes.
func Decode[T Unsigned](b []byte, endian Endianness) T {
	var zero T
	o := endian.order()
	switch any(zero).(type) {
	case uint8:
		return T(b[0])
	case uint16:
		return T(o.Uint16(b))
	case uint32:
		return T(o.Uint32(b))
	default:
		return T(o.Uint64(b))
	}
}
