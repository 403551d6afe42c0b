package flac

import (
	"fmt"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

// pictureTypes follows the ID3v2 APIC picture types.
var pictureTypes = []string{
	"Other", "32x32 PNG Icon", "Other Icon", "Front Cover", "Back Cover",
	"Leaflet", "Media", "Lead Artist", "Artist", "Conductor", "Band",
	"Composer", "Lyricist", "Recording Studio", "Recording", "Performance",
	"Capture from Movie", "Bright Colored Fish", "Illustration", "Band Logo",
	"Publisher Logo",
}

// PictureType returns the name of a picture type.
func PictureType(t uint32) string {
	if int64(t) < int64(len(pictureTypes)) {
		return pictureTypes[t]
	}
	return fmt.Sprintf("Unknown (%d)", t)
}

// DecodePicture decodes a PICTURE block into dir. The image data itself is
// only measured. Ogg streams carry the same structure base64-encoded in a
// METADATA_BLOCK_PICTURE comment.
func DecodePicture(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	typ := ch.U32("picture type")
	mime := ch.String(int(ch.U32("MIME type length")), "MIME type")
	desc := ch.String(int(ch.U32("description length")), "description")
	width := ch.U32("width")
	height := ch.U32("height")
	depth := ch.U32("color depth")
	colors := ch.U32("indexed colors")
	length := ch.U32("picture data length")
	if err := ch.Error(); err != nil {
		return err
	}

	dir.Set("Picture Type", PictureType(typ))
	dir.SetString("Picture MIME Type", mime)
	dir.SetString("Picture Description", desc)
	dir.Set("Picture Width", width)
	dir.Set("Picture Height", height)
	dir.Set("Picture Bits Per Pixel", depth)
	dir.Set("Picture Indexed Colors", colors)
	dir.Set("Picture Length", length)
	if int64(length) > ch.Remaining() {
		return fmt.Errorf("picture data of %d bytes exceeds block by %d bytes", length, int64(length)-ch.Remaining())
	}
	return nil
}
