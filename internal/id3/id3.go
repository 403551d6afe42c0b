// Package id3 decodes ID3 tags found at the head of MP3 files and inside
// RIFF, AIFF and AVI chunks.
package id3

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dhowden/tag"

	"github.com/simonhull/mediameta/internal/types"
)

// HeaderSize is the size of an ID3v2 header and of its optional footer.
const HeaderSize = 10

// flagFooter marks an ID3v2.4 tag followed by a 10-byte footer.
const flagFooter = 0x10

// TagSize returns the total size of the ID3v2 tag whose header is h,
// including header and footer. ok is false when h is not an ID3v2 header.
func TagSize(h []byte) (size int64, ok bool) {
	if len(h) < HeaderSize || string(h[:3]) != "ID3" {
		return 0, false
	}
	n, ok := Syncsafe(h[6:10])
	if !ok {
		return 0, false
	}
	size = HeaderSize + int64(n)
	if h[5]&flagFooter != 0 {
		size += HeaderSize
	}
	return size, true
}

// Syncsafe decodes a 4-byte syncsafe integer, 7 bits per byte. ok is false
// when a byte has its high bit set.
func Syncsafe(b []byte) (uint32, bool) {
	var n uint32
	for _, v := range b[:4] {
		if v&0x80 != 0 {
			return 0, false
		}
		n = n<<7 | uint32(v)
	}
	return n, true
}

// Decode decodes an ID3v2 tag into an "ID3" directory of md.
func Decode(payload []byte, md *types.Metadata) error {
	m, err := tag.ReadID3v2Tags(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ID3 tag: %w", err)
	}
	set(m, "ID3", md)
	return nil
}

// DecodeV1 decodes the 128-byte ID3v1 tag at the end of r into an "ID3v1"
// directory of md.
func DecodeV1(r io.ReadSeeker, md *types.Metadata) error {
	m, err := tag.ReadID3v1Tags(r)
	if err != nil {
		return fmt.Errorf("ID3v1 tag: %w", err)
	}
	set(m, "ID3v1", md)
	return nil
}

func set(m tag.Metadata, name string, md *types.Metadata) {
	dir := types.NewDirectory(name)
	dir.Set("ID3 Version", string(m.Format()))
	dir.SetString("Title", m.Title())
	dir.SetString("Artist", m.Artist())
	dir.SetString("Album", m.Album())
	dir.SetString("Album Artist", m.AlbumArtist())
	dir.SetString("Composer", m.Composer())
	dir.SetString("Genre", m.Genre())
	if y := m.Year(); y > 0 {
		dir.Set("Year", y)
	}
	if n, total := m.Track(); n > 0 {
		dir.Set("Track", Position(n, total))
	}
	if n, total := m.Disc(); n > 0 {
		dir.Set("Disc", Position(n, total))
	}
	dir.SetString("Comment", m.Comment())
	dir.SetString("Lyrics", m.Lyrics())
	if p := m.Picture(); p != nil {
		dir.Set("Picture", fmt.Sprintf("%s (%d bytes)", p.MIMEType, len(p.Data)))
	}
	md.AddDirectory(dir)
}

// Position formats a track or disc number with an optional total.
func Position(n, total int) string {
	if total > 0 {
		return fmt.Sprintf("%d of %d", n, total)
	}
	return fmt.Sprintf("%d", n)
}
