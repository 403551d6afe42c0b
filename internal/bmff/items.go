package bmff

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// itemNames maps iTunes-style item atoms to tag names.
// In MP4, © is represented as byte 0xA9, so "©nam" is "\xA9nam" in Go strings.
var itemNames = map[string]string{
	"\xA9nam": "Title",
	"\xA9ART": "Artist",
	"\xA9alb": "Album",
	"aART":    "Album Artist",
	"\xA9gen": "Genre",
	"gnre":    "Genre",
	"\xA9cmt": "Comment",
	"\xA9wrt": "Composer",
	"\xA9day": "Content Create Date",
	"\xA9too": "Encoder",
	"\xA9grp": "Grouping",
	"\xA9lyr": "Lyrics",
	"\xA9des": "Description",
	"desc":    "Description",
	"ldes":    "Long Description",
	"cprt":    "Copyright",
	"\xA9cpy": "Copyright",
	"trkn":    "Track Number",
	"disk":    "Disk Number",
	"covr":    "Cover Art",
	"cpil":    "Compilation",
	"pgap":    "Play Gap",
	"tmpo":    "Beats Per Minute",
	"stik":    "Media Type",
	"tvsh":    "TV Show",
	"tvsn":    "TV Season",
	"tves":    "TV Episode",
	"sonm":    "Sort Name",
	"soar":    "Sort Artist",
	"soal":    "Sort Album",
	"soaa":    "Sort Album Artist",
	"soco":    "Sort Composer",
	"purd":    "Purchase Date",
	"\xA9xyz": "GPS Coordinates",
	"\xA9mak": "Make",
	"\xA9mod": "Model",
	"\xA9swr": "Software Version",
}

// ItemName returns the tag name for an item atom type. Unknown types are
// decoded as Mac Roman so that 0xA9 shows as ©.
func ItemName(typ string) string {
	if name, ok := itemNames[typ]; ok {
		return name
	}
	s, err := charmap.Macintosh.NewDecoder().String(typ)
	if err != nil {
		return typ
	}
	return s
}

// ItemList interprets the children of an "ilst" box. Each child is an item
// container whose "data" box carries the value.
//
// When Keys is set (QuickTime "mdta" metadata) item types are 1-based
// indices into Keys instead of FourCCs.
type ItemList struct {
	walker.Base
	Keys []string
}

// NewItemList creates an ItemList writing into dir.
func NewItemList(dir *types.Directory, keys []string) *ItemList {
	return &ItemList{Base: walker.Base{Dir: dir}, Keys: keys}
}

// AcceptContainer accepts every item.
func (l *ItemList) AcceptContainer(*walker.Header) bool { return true }

// ProcessContainer returns a handler for one item's data boxes.
func (l *ItemList) ProcessContainer(h *walker.Header, _ *binary.Cursor) (walker.Handler, error) {
	return &item{Base: l.Base, name: l.name(h.Type), typ: h.Type}, nil
}

func (l *ItemList) name(typ string) string {
	if len(l.Keys) == 0 {
		return ItemName(typ)
	}
	idx := binary.Decode[uint32]([]byte(typ), binary.BigEndian)
	if idx == 0 || int(idx) > len(l.Keys) {
		return fmt.Sprintf("Unknown Key %d", idx)
	}
	return KeyTagName(l.Keys[idx-1])
}

// KeyTagName turns a reverse-DNS metadata key such as
// "com.apple.quicktime.location.ISO6709" into a tag name.
func KeyTagName(key string) string {
	key = strings.TrimPrefix(key, "com.apple.quicktime.")
	key = strings.TrimPrefix(key, "com.android.")
	if key == "" {
		return "Unknown Key"
	}
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// item decodes the data boxes of one ilst entry. Freeform "----" items
// name themselves with "mean" and "name" boxes before their data.
type item struct {
	walker.Base
	name string
	typ  string
	mean string
}

func (it *item) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "data", "mean", "name":
		return true
	}
	return false
}

func (it *item) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "mean":
		if len(payload) > 4 {
			it.mean = string(payload[4:])
		}
		return nil, nil
	case "name":
		if len(payload) > 4 {
			it.name = string(payload[4:])
		}
		return nil, nil
	}

	if len(payload) < 8 {
		return nil, fmt.Errorf("data box of %d bytes is too short", len(payload))
	}
	wellKnown := binary.Decode[uint32](payload, binary.BigEndian) & 0xFFFFFF
	value, err := decodeItemValue(it.typ, wellKnown, payload[8:])
	if err != nil {
		return nil, err
	}
	if value != nil {
		it.Dir.Set(it.name, value)
	}
	return nil, nil
}

// decodeItemValue interprets a data box value by its well-known type.
func decodeItemValue(typ string, wellKnown uint32, v []byte) (any, error) {
	switch typ {
	case "trkn", "disk":
		if len(v) < 6 {
			return nil, fmt.Errorf("%s value of %d bytes is too short", strings.TrimSpace(typ), len(v))
		}
		n := binary.Decode[uint16](v[2:], binary.BigEndian)
		total := binary.Decode[uint16](v[4:], binary.BigEndian)
		if total == 0 {
			return fmt.Sprintf("%d", n), nil
		}
		return fmt.Sprintf("%d of %d", n, total), nil
	case "gnre":
		if len(v) >= 2 {
			return genreName(binary.Decode[uint16](v, binary.BigEndian)), nil
		}
	case "cpil", "pgap":
		if len(v) >= 1 {
			return v[0] != 0, nil
		}
	}

	switch wellKnown {
	case 1: // UTF-8
		return strings.TrimRight(string(v), "\x00"), nil
	case 2: // UTF-16BE
		u := make([]uint16, len(v)/2)
		for i := range u {
			u[i] = binary.Decode[uint16](v[2*i:], binary.BigEndian)
		}
		return strings.TrimRight(string(utf16.Decode(u)), "\x00"), nil
	case 13, 14, 27: // JPEG, PNG, BMP
		return fmt.Sprintf("(Binary data %d bytes)", len(v)), nil
	case 21: // signed big-endian integer
		return signed(v)
	case 0, 22: // implicit or unsigned big-endian integer
		if len(v) <= 8 && len(v) > 0 && len(v) != 3 {
			return unsigned(v), nil
		}
		return fmt.Sprintf("(Binary data %d bytes)", len(v)), nil
	case 23:
		if len(v) == 4 {
			return float64(math.Float32frombits(binary.Decode[uint32](v, binary.BigEndian))), nil
		}
	case 24:
		if len(v) == 8 {
			return math.Float64frombits(binary.Decode[uint64](v, binary.BigEndian)), nil
		}
	}
	return fmt.Sprintf("(Binary data %d bytes)", len(v)), nil
}

func unsigned(v []byte) uint64 {
	var n uint64
	for _, b := range v {
		n = n<<8 | uint64(b)
	}
	return n
}

func signed(v []byte) (any, error) {
	switch len(v) {
	case 1:
		return int64(int8(v[0])), nil
	case 2:
		return int64(int16(binary.Decode[uint16](v, binary.BigEndian))), nil
	case 4:
		return int64(int32(binary.Decode[uint32](v, binary.BigEndian))), nil
	case 8:
		return int64(binary.Decode[uint64](v, binary.BigEndian)), nil
	}
	return nil, fmt.Errorf("signed integer of %d bytes", len(v))
}

// id3Genres lists ID3v1 genres referenced by 1-based "gnre" values.
var id3Genres = []string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco", "Funk", "Grunge",
	"Hip-Hop", "Jazz", "Metal", "New Age", "Oldies", "Other", "Pop", "R&B",
	"Rap", "Reggae", "Rock", "Techno", "Industrial", "Alternative", "Ska",
	"Death Metal", "Pranks", "Soundtrack", "Euro-Techno", "Ambient",
	"Trip-Hop", "Vocal", "Jazz+Funk", "Fusion", "Trance", "Classical",
	"Instrumental", "Acid", "House", "Game", "Sound Clip", "Gospel", "Noise",
	"AlternRock", "Bass", "Soul", "Punk", "Space", "Meditative",
	"Instrumental Pop", "Instrumental Rock", "Ethnic", "Gothic", "Darkwave",
	"Techno-Industrial", "Electronic", "Pop-Folk", "Eurodance", "Dream",
	"Southern Rock", "Comedy", "Cult", "Gangsta", "Top 40", "Christian Rap",
	"Pop/Funk", "Jungle", "Native American", "Cabaret", "New Wave",
	"Psychadelic", "Rave", "Showtunes", "Trailer", "Lo-Fi", "Tribal",
	"Acid Punk", "Acid Jazz", "Polka", "Retro", "Musical", "Rock & Roll",
	"Hard Rock",
}

func genreName(n uint16) string {
	if n >= 1 && int(n) <= len(id3Genres) {
		return id3Genres[n-1]
	}
	return fmt.Sprintf("Unknown (%d)", n)
}
