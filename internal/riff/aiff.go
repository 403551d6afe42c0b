package riff

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/id3"
	"github.com/simonhull/mediameta/internal/bmff"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

var aiffText = map[string]string{
	"NAME": "Name",
	"AUTH": "Author",
	"(c) ": "Copyright",
	"ANNO": "Annotation",
}

// aiffCompression names the AIFF-C compression types seen in practice.
var aiffCompression = map[string]string{
	"NONE": "None",
	"none": "None",
	"sowt": "Little-endian, no compression",
	"fl32": "32-bit floating point",
	"FL32": "32-bit floating point",
	"fl64": "64-bit floating point",
	"alaw": "A-law 2:1",
	"ulaw": "mu-law 2:1",
	"ALAW": "A-law 2:1",
	"ULAW": "mu-law 2:1",
	"ima4": "IMA 4:1",
	"MAC3": "MACE 3:1",
	"MAC6": "MACE 6:1",
	"G722": "G.722 ADPCM",
	"GSM ": "GSM",
}

// aiff interprets the children of FORM AIFF and FORM AIFC.
type aiff struct {
	walker.Base
	md *types.Metadata
}

func newAIFF(md *types.Metadata, dir *types.Directory) walker.Handler {
	return &aiff{Base: walker.Base{Dir: dir}, md: md}
}

func (a *aiff) AcceptContainer(h *walker.Header) bool { return h.Type == "SSND" }

func (a *aiff) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "COMM", "FVER", "MARK", "COMT":
		return true
	}
	_, ok := aiffText[h.Type]
	return ok || isID3(h.Type)
}

func (a *aiff) ProcessContainer(h *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	b, err := peek(h, c, 8)
	if err != nil {
		return nil, err
	}
	if len(b) == 8 {
		a.Dir.Set("Sound Data Offset", binary.Decode[uint32](b, binary.BigEndian))
		a.Dir.Set("Block Size", binary.Decode[uint32](b[4:], binary.BigEndian))
	}
	return nil, nil
}

func (a *aiff) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if name, ok := aiffText[h.Type]; ok {
		s, err := charmap.Macintosh.NewDecoder().Bytes(payload)
		if err != nil {
			s = payload
		}
		a.Dir.SetString(name, strings.TrimRight(string(s), "\x00 "))
		return nil, nil
	}

	ch := binary.ChainBytes(payload, binary.BigEndian)
	switch h.Type {
	case "COMM":
		return nil, a.comm(ch)
	case "FVER":
		ts := ch.U32("format version timestamp")
		if err := ch.Error(); err != nil {
			return nil, err
		}
		if t, ok := bmff.Time(uint64(ts)); ok {
			a.Dir.Set("Format Version Time", t)
		}
	case "MARK":
		n := ch.U16("marker count")
		if err := ch.Error(); err != nil {
			return nil, err
		}
		a.Dir.Set("Marker Count", n)
	case "COMT":
		return nil, a.comments(ch)
	default:
		return nil, id3.Decode(payload, a.md)
	}
	return nil, nil
}

func (a *aiff) comm(ch *binary.Chain) error {
	channels := ch.U16("channels")
	frames := ch.U32("sample frames")
	bits := ch.U16("sample size")
	exp := ch.U16("sample rate exponent")
	mantissa := ch.U64("sample rate mantissa")
	if err := ch.Error(); err != nil {
		return err
	}

	rate := Extended(exp, mantissa)
	a.Dir.Set("Num Channels", channels)
	a.Dir.Set("Num Sample Frames", frames)
	a.Dir.Set("Sample Size", bits)
	a.Dir.Set("Sample Rate", rate)
	if rate > 0 {
		a.Dir.Set("Duration", time.Duration(float64(frames)/rate*float64(time.Second)))
	}

	if ch.Remaining() < 4 {
		return nil
	}
	// AIFF-C appends the compression type and a Pascal string name.
	typ := ch.String(4, "compression type")
	if err := ch.Error(); err != nil {
		return err
	}
	a.Dir.Set("Compression Type", typ)
	if name, ok := aiffCompression[typ]; ok {
		a.Dir.Set("Compressor Name", name)
	} else if ch.Remaining() > 0 {
		n := int(ch.U8("compressor name length"))
		name := ch.Bytes(min(n, int(ch.Remaining())), "compressor name")
		a.Dir.SetString("Compressor Name", string(name))
	}
	return nil
}

func (a *aiff) comments(ch *binary.Chain) error {
	n := ch.U16("comment count")
	var texts []string
	for range n {
		ch.Skip(4+2, "timestamp and marker")
		size := ch.U16("comment size")
		s := ch.Bytes(int(size), "comment")
		if ch.Error() != nil {
			break
		}
		texts = append(texts, string(s))
		if size&1 == 1 {
			ch.Skip(1, "comment pad")
		}
	}
	if len(texts) > 0 {
		a.Dir.Set("Comment", strings.Join(texts, "\n"))
	}
	return ch.Error()
}

// Extended converts an 80-bit IEEE 754 extended precision value, given as
// its sign and exponent word and its 64-bit mantissa.
func Extended(exp uint16, mantissa uint64) float64 {
	if exp&0x7FFF == 0 && mantissa == 0 {
		return 0
	}
	v := math.Ldexp(float64(mantissa), int(exp&0x7FFF)-16383-63)
	if exp&0x8000 != 0 {
		v = -v
	}
	return v
}
