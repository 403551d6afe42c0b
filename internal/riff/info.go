package riff

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// infoNames maps LIST INFO sub-chunk IDs to tag names.
var infoNames = map[string]string{
	"IARL": "Archival Location",
	"IART": "Artist",
	"ICMS": "Commissioned",
	"ICMT": "Comment",
	"ICOP": "Copyright",
	"ICRD": "Date Created",
	"ICRP": "Cropped",
	"IDIM": "Dimensions",
	"IDPI": "Dots Per Inch",
	"IENG": "Engineer",
	"IGNR": "Genre",
	"IKEY": "Keywords",
	"ILGT": "Lightness",
	"IMED": "Medium",
	"INAM": "Title",
	"IPLT": "Num Colors",
	"IPRD": "Product",
	"IPRT": "Part",
	"ISBJ": "Subject",
	"ISFT": "Software",
	"ISHP": "Sharpness",
	"ISRC": "Source",
	"ISRF": "Source Form",
	"ITCH": "Technician",
	"ITRK": "Track Number",
	"IWRI": "Writer",
}

// text decodes a fixed-width Windows-1252 field, dropping NUL padding.
func text(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.TrimSpace(string(b))
	}
	return strings.TrimSpace(string(s))
}

// info decodes LIST INFO sub-chunks into the "RIFF Info" directory,
// creating it on the first value.
type info struct {
	walker.Base
	md *types.Metadata
}

func newInfo(md *types.Metadata) walker.Handler {
	dir := md.Directory("RIFF Info")
	if dir == nil {
		dir = types.NewDirectory("RIFF Info")
		md.AddDirectory(dir)
	}
	return &info{Base: walker.Base{Dir: dir}, md: md}
}

func (i *info) AcceptLeaf(*walker.Header) bool { return true }

func (i *info) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	v := text(payload)
	if v == "" {
		return nil, nil
	}
	name, ok := infoNames[h.Type]
	if !ok {
		name = "Info " + strings.TrimSpace(h.Type)
	}
	i.Dir.Set(name, v)
	return nil, nil
}

// isID3 reports whether a chunk carries an ID3v2 tag. WAV writers use
// both spellings.
func isID3(typ string) bool {
	return typ == "id3 " || typ == "ID3 "
}
