package quicktime

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff"
	"github.com/simonhull/mediameta/internal/types"
)

// textNames maps user data text atoms to tag names.
var textNames = map[string]string{
	"\xA9nam": "Title",
	"\xA9ART": "Artist",
	"\xA9alb": "Album",
	"\xA9aut": "Author",
	"\xA9cmt": "Comment",
	"\xA9cpy": "Copyright",
	"\xA9day": "Content Create Date",
	"\xA9des": "Description",
	"\xA9dir": "Director",
	"\xA9enc": "Encoded By",
	"\xA9fmt": "Format",
	"\xA9inf": "Information",
	"\xA9mak": "Make",
	"\xA9mod": "Model",
	"\xA9prd": "Producer",
	"\xA9req": "Requirements",
	"\xA9src": "Original Source",
	"\xA9swr": "Software Version",
	"\xA9too": "Encoder",
	"\xA9wrt": "Composer",
	"\xA9xyz": "GPS Coordinates",
}

// macLanguages names the Macintosh language codes that appear in practice.
var macLanguages = map[uint16]string{
	0: "en", 1: "fr", 2: "de", 3: "it", 4: "nl", 5: "sv", 6: "es", 7: "da",
	8: "pt", 9: "no", 10: "he", 11: "ja", 12: "ar", 13: "fi", 14: "el",
	15: "is", 16: "mt", 17: "tr", 18: "hr", 19: "zh-TW", 20: "ur", 21: "hi",
	22: "th", 23: "ko", 24: "lt", 25: "pl", 26: "hu", 27: "et", 28: "lv",
	30: "fo", 31: "fa", 32: "ru", 33: "zh-CN", 34: "nl-BE", 35: "ga",
}

func macRoman(b []byte) string {
	s, err := charmap.Macintosh.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return strings.TrimRight(string(s), "\x00")
}

// decodeText decodes an international text atom: a run of records, each a
// 16-bit length, a 16-bit language code and the text. Macintosh language
// codes (below 0x400) mean Mac Roman text, ISO codes mean UTF-8. The first
// record sets the tag; later ones are tagged with their language.
func decodeText(typ string, payload []byte, dir *types.Directory) error {
	name, ok := textNames[typ]
	if !ok {
		name = bmff.ItemName(typ)
	}

	ch := binary.ChainBytes(payload, binary.BigEndian)
	for i := 0; ch.Remaining() >= 4; i++ {
		n := ch.U16("text length")
		lang := ch.U16("text language")
		if int64(n) > ch.Remaining() {
			return fmt.Errorf("text record of %d bytes exceeds the %d bytes left", n, ch.Remaining())
		}
		raw := ch.Bytes(int(n), "text")

		var value, code string
		if lang < 0x400 {
			value, code = macRoman(raw), macLanguages[lang]
		} else {
			value, code = strings.TrimRight(string(raw), "\x00"), bmff.Language(lang)
		}
		if i == 0 || code == "" {
			dir.SetString(name, value)
		} else {
			dir.SetString(name+"-"+code, value)
		}
	}
	return ch.Error()
}

// decodePnot decodes a preview atom.
func decodePnot(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	date := ch.U32("preview date")
	version := ch.U16("preview version")
	typ := ch.String(4, "preview atom type")
	index := ch.U16("preview atom index")
	if err := ch.Error(); err != nil {
		return err
	}
	if t, ok := bmff.Time(uint64(date)); ok {
		dir.Set("Preview Date", t)
	}
	dir.Set("Preview Version", version)
	dir.Set("Preview Atom Type", typ)
	dir.Set("Preview Atom Index", index)
	return nil
}

// decodeTcmi decodes the timecode media information atom.
func decodeTcmi(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	bmff.FullBox(ch)
	font := ch.U16("text font")
	face := ch.U16("text face")
	size := ch.U16("text size")
	ch.Skip(2, "reserved")
	fr, fg, fb := ch.U16("text red"), ch.U16("text green"), ch.U16("text blue")
	br, bg, bb := ch.U16("background red"), ch.U16("background green"), ch.U16("background blue")
	if err := ch.Error(); err != nil {
		return err
	}

	dir.Set("Text Font", font)
	dir.Set("Text Face", face)
	dir.Set("Text Size", size)
	dir.Set("Text Color", fmt.Sprintf("%d %d %d", fr, fg, fb))
	dir.Set("Background Color", fmt.Sprintf("%d %d %d", br, bg, bb))
	if ch.Remaining() > 0 {
		n := ch.U8("font name length")
		dir.SetString("Font Name", macRoman(ch.Bytes(int(n), "font name")))
	}
	return ch.Error()
}

// decodeTimecodeEntry decodes the first timecode sample description.
func decodeTimecodeEntry(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	bmff.FullBox(ch)
	if ch.U32("entry count") == 0 {
		return ch.Error()
	}
	ch.Skip(4, "sample entry size")
	format := ch.String(4, "sample entry format")
	ch.Skip(6+2+4, "reserved, data reference index and reserved")
	flags := ch.U32("timecode flags")
	timescale := ch.U32("timecode time scale")
	frameDuration := ch.U32("frame duration")
	frames := ch.U8("number of frames")
	if err := ch.Error(); err != nil {
		return err
	}
	if format != "tmcd" {
		return nil
	}

	dir.Set("Drop Frame", flags&0x1 != 0)
	dir.Set("24 Hour Max", flags&0x2 != 0)
	dir.Set("Negative Times OK", flags&0x4 != 0)
	dir.Set("Counter", flags&0x8 != 0)
	dir.Set("Time Scale", timescale)
	dir.Set("Frame Duration", frameDuration)
	dir.Set("Number Of Frames", frames)
	if frameDuration != 0 {
		dir.Set("Frame Rate", float64(int64(float64(timescale)/float64(frameDuration)*1000+0.5))/1000)
	}
	return nil
}
