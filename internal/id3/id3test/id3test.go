// Package id3test builds ID3 tags for tests.
package id3test

import (
	"github.com/simonhull/mediameta/internal/binary"
)

// Frame builds an ID3v2.3 text frame with ISO-8859-1 encoding.
func Frame(id, text string) []byte {
	return binary.NewWriter(binary.BigEndian).
		String(id).U32(uint32(1 + len(text))).U16(0).
		U8(0).String(text).Bytes()
}

// V23 builds an ID3v2.3 tag holding frames.
func V23(frames ...[]byte) []byte {
	var body []byte
	for _, f := range frames {
		body = append(body, f...)
	}
	size := len(body)
	return binary.NewWriter(binary.BigEndian).
		String("ID3").U8(3).U8(0).U8(0).
		U8(uint8(size >> 21 & 0x7F)).U8(uint8(size >> 14 & 0x7F)).U8(uint8(size >> 7 & 0x7F)).U8(uint8(size & 0x7F)).
		Raw(body...).Bytes()
}

// V1 builds a 128-byte ID3v1 tag.
func V1(title, artist, album, year string, genre uint8) []byte {
	field := func(s string, n int) []byte {
		b := make([]byte, n)
		copy(b, s)
		return b
	}
	w := binary.NewWriter(binary.BigEndian).String("TAG")
	w.Raw(field(title, 30)...).Raw(field(artist, 30)...).Raw(field(album, 30)...)
	w.Raw(field(year, 4)...).Zeros(30).U8(genre)
	return w.Bytes()
}
