package mp4

import (
	"bytes"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff"
	"github.com/simonhull/mediameta/internal/tiff"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// decodeMehd decodes the movie extends header of a fragmented file.
func decodeMehd(payload []byte, timescale uint32, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, _ := bmff.FullBox(ch)
	var d uint64
	if version == 1 {
		d = ch.U64("fragment duration")
	} else {
		d = uint64(ch.U32("fragment duration"))
	}
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Movie Fragment Duration", bmff.Duration(d, timescale))
	return nil
}

func decodeMfhd(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	bmff.FullBox(ch)
	seq := ch.U32("sequence number")
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Last Fragment Sequence", seq)
	return nil
}

// decodeElst decodes an edit list. Only the entry count and the first
// media time are kept.
func decodeElst(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, _ := bmff.FullBox(ch)
	count := ch.U32("entry count")
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Edit List Entries", count)
	if count == 0 {
		return nil
	}

	var mediaTime int64
	if version == 1 {
		ch.Skip(8, "segment duration")
		mediaTime = int64(ch.U64("media time"))
	} else {
		ch.Skip(4, "segment duration")
		mediaTime = int64(ch.I32("media time"))
	}
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Media Start Time", mediaTime)
	return nil
}

// udtaStrings maps 3GPP user data boxes to tag names. Each is a full box
// holding a packed language code and a UTF-8 or UTF-16 string.
var udtaStrings = map[string]string{
	"titl": "Title",
	"auth": "Author",
	"perf": "Performer",
	"dscp": "Description",
	"cprt": "Copyright",
	"gnre": "Genre",
	"albm": "Album",
	"kywd": "Keywords",
	"loci": "Location Information",
}

func decodeUdtaString(typ string, payload []byte, dir *types.Directory) error {
	name, ok := udtaStrings[typ]
	if !ok {
		return nil
	}
	ch := binary.ChainBytes(payload, binary.BigEndian)
	bmff.FullBox(ch)
	lang := ch.U16("language")
	if err := ch.Error(); err != nil {
		return err
	}

	rest := ch.Bytes(int(ch.Remaining()), typ+" text")
	if typ == "loci" || typ == "kywd" {
		// Binary layouts; keep the leading string only.
		if i := bytes.IndexByte(rest, 0); i >= 0 {
			rest = rest[:i]
		}
	}
	dir.SetString(name, text3GP(rest))
	if code := bmff.Language(lang); code != "" && code != "und" {
		dir.Set(name+" Language", code)
	}
	return nil
}

// text3GP decodes a 3GPP string: UTF-16 when it starts with a byte order
// mark, UTF-8 otherwise.
func text3GP(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		b = b[2:]
		u := make([]uint16, len(b)/2)
		for i := range u {
			u[i] = binary.Decode[uint16](b[2*i:], binary.BigEndian)
		}
		return strings.TrimRight(string(utf16.Decode(u)), "\x00")
	}
	return strings.TrimRight(string(b), "\x00")
}

func decodeYear(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	bmff.FullBox(ch)
	year := ch.U16("recording year")
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Recording Year", year)
	return nil
}

// canonUUID identifies the Canon metadata box inside a CR3 movie box.
var canonUUID = uuid.MustParse("85c0b687-820f-11e0-8111-f4ce462b6a48")

// cmtNames names the TIFF structures Canon stores in CMT boxes.
var cmtNames = map[string]string{
	"CMT1": "IFD0",
	"CMT2": "Exif IFD",
	"CMT3": "MakerNotes",
	"CMT4": "GPS IFD",
}

// canon handles the Canon uuid box of CR3 files.
type canon struct {
	walker.Base
}

func (cn *canon) AcceptLeaf(h *walker.Header) bool {
	_, ok := cmtNames[h.Type]
	return ok || h.Type == "CNCV"
}

func (cn *canon) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type == "CNCV" {
		cn.Dir.SetString("Compressor Version", bmff.CString(payload))
		return nil, nil
	}
	return nil, tiff.Embedded(payload, cn.Dir, cmtNames[h.Type])
}
