package bmff

import (
	"fmt"
	"strings"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

// DecodeFtyp decodes a file type box.
func DecodeFtyp(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	major := ch.String(4, "major brand")
	minor := ch.U32("minor version")
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Major Brand", strings.TrimRight(major, " \x00"))
	dir.Set("Minor Version", fmt.Sprintf("%d.%d.%d", minor>>16, (minor>>8)&0xFF, minor&0xFF))

	var brands []string
	for ch.Remaining() >= 4 {
		if b := strings.TrimRight(ch.String(4, "compatible brand"), " \x00"); b != "" {
			brands = append(brands, b)
		}
	}
	if len(brands) > 0 {
		dir.Set("Compatible Brands", brands)
	}
	return ch.Error()
}

// readTimes reads creation and modification times, 64-bit in version 1.
func readTimes(ch *binary.Chain, version uint8) (created, modified uint64) {
	if version == 1 {
		return ch.U64("creation time"), ch.U64("modification time")
	}
	return uint64(ch.U32("creation time")), uint64(ch.U32("modification time"))
}

func readDuration(ch *binary.Chain, version uint8) uint64 {
	if version == 1 {
		return ch.U64("duration")
	}
	return uint64(ch.U32("duration"))
}

func setTime(dir *types.Directory, name string, secs uint64) {
	if t, ok := Time(secs); ok {
		dir.Set(name, t)
	}
}

// DecodeMvhd decodes a movie header box and returns the movie timescale.
func DecodeMvhd(payload []byte, dir *types.Directory) (uint32, error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, _ := FullBox(ch)
	created, modified := readTimes(ch, version)
	timescale := ch.U32("time scale")
	duration := readDuration(ch, version)
	if err := ch.Error(); err != nil {
		return 0, err
	}

	dir.Set("Movie Header Version", version)
	setTime(dir, "Create Date", created)
	setTime(dir, "Modify Date", modified)
	dir.Set("Time Scale", timescale)
	dir.Set("Duration", Duration(duration, timescale))

	rate := ch.U32("preferred rate")
	volume := ch.U16("preferred volume")
	ch.Skip(10+36, "reserved and matrix")
	preview := ch.U32("preview time")
	previewDur := ch.U32("preview duration")
	poster := ch.U32("poster time")
	selection := ch.U32("selection time")
	selectionDur := ch.U32("selection duration")
	current := ch.U32("current time")
	nextTrack := ch.U32("next track ID")
	if err := ch.Error(); err != nil {
		return timescale, err
	}

	dir.Set("Preferred Rate", Fixed32(rate))
	dir.Set("Preferred Volume", Fixed16(volume))
	dir.Set("Preview Time", Duration(uint64(preview), timescale))
	dir.Set("Preview Duration", Duration(uint64(previewDur), timescale))
	dir.Set("Poster Time", Duration(uint64(poster), timescale))
	dir.Set("Selection Time", Duration(uint64(selection), timescale))
	dir.Set("Selection Duration", Duration(uint64(selectionDur), timescale))
	dir.Set("Current Time", Duration(uint64(current), timescale))
	dir.Set("Next Track ID", nextTrack)
	return timescale, nil
}

// DecodeTkhd decodes a track header box.
func DecodeTkhd(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, flags := FullBox(ch)
	created, modified := readTimes(ch, version)
	trackID := ch.U32("track ID")
	ch.Skip(4, "reserved")
	duration := readDuration(ch, version)
	ch.Skip(8, "reserved")
	layer := ch.I16("layer")
	group := ch.I16("alternate group")
	volume := ch.U16("volume")
	ch.Skip(2+36, "reserved and matrix")
	width := ch.U32("track width")
	height := ch.U32("track height")
	if err := ch.Error(); err != nil {
		return err
	}

	dir.Set("Track Header Version", version)
	dir.Set("Track Enabled", flags&1 != 0)
	setTime(dir, "Track Create Date", created)
	setTime(dir, "Track Modify Date", modified)
	dir.Set("Track ID", trackID)
	dir.Set("Track Duration", duration)
	dir.Set("Track Layer", layer)
	dir.Set("Alternate Group", group)
	dir.Set("Track Volume", Fixed16(volume))
	if width != 0 || height != 0 {
		dir.Set("Image Width", Fixed32(width))
		dir.Set("Image Height", Fixed32(height))
	}
	return nil
}

// DecodeMdhd decodes a media header box and returns the media timescale.
func DecodeMdhd(payload []byte, dir *types.Directory) (uint32, error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, _ := FullBox(ch)
	created, modified := readTimes(ch, version)
	timescale := ch.U32("time scale")
	duration := readDuration(ch, version)
	lang := ch.U16("language")
	if err := ch.Error(); err != nil {
		return 0, err
	}

	setTime(dir, "Media Create Date", created)
	setTime(dir, "Media Modify Date", modified)
	dir.Set("Media Time Scale", timescale)
	dir.Set("Media Duration", Duration(duration, timescale))
	if code := Language(lang); code != "" {
		dir.Set("Media Language Code", code)
	}
	return timescale, nil
}

// Language unpacks an ISO 639-2/T code stored as three 5-bit letters.
// Values below 0x400 are Macintosh language codes and yield "".
func Language(v uint16) string {
	if v < 0x400 || v == 0x7FFF {
		return ""
	}
	b := []byte{
		byte((v>>10)&0x1F) + 0x60,
		byte((v>>5)&0x1F) + 0x60,
		byte(v&0x1F) + 0x60,
	}
	return string(b)
}

// Hdlr is a decoded handler reference.
type Hdlr struct {
	// ComponentType is "mhlr" or "dhlr" in QuickTime, zero in MP4.
	ComponentType string
	// Type is the handler type, e.g. "soun", "vide", "pict", "mdta".
	Type string
	Name string
}

// DecodeHdlr decodes a handler reference box. QuickTime stores the name as
// a Pascal string, MP4 as a NUL-terminated string; both are accepted.
func DecodeHdlr(payload []byte) (Hdlr, error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	FullBox(ch)
	component := ch.String(4, "component type")
	handler := ch.String(4, "handler type")
	ch.Skip(12, "reserved")
	if err := ch.Error(); err != nil {
		return Hdlr{}, err
	}

	h := Hdlr{
		ComponentType: strings.TrimRight(component, "\x00"),
		Type:          handler,
	}
	rest := ch.Bytes(int(ch.Remaining()), "handler name")
	if len(rest) > 0 && int(rest[0]) == len(rest)-1 && rest[0] != 0 {
		h.Name = string(rest[1:])
	} else {
		h.Name = CString(rest)
	}
	h.Name = strings.TrimSpace(h.Name)
	return h, nil
}

// handlerTypeNames describes common handler types.
var handlerTypeNames = map[string]string{
	"soun": "Audio Track",
	"vide": "Video Track",
	"hint": "Hint Track",
	"tmcd": "Time Code",
	"text": "Text",
	"sbtl": "Subtitle",
	"subt": "Subtitle",
	"meta": "Metadata",
	"mdta": "Metadata Tags",
	"mdir": "Metadata",
	"pict": "Picture",
	"alis": "Alias Data",
	"url ": "URL",
	"odsm": "Object Descriptor",
	"sdsm": "Scene Description",
}

// Set writes the handler fields into dir.
func (h Hdlr) Set(dir *types.Directory) {
	if name, ok := handlerTypeNames[h.Type]; ok {
		dir.Set("Handler Type", name)
	} else {
		dir.Set("Handler Type", h.Type)
	}
	dir.SetString("Handler Description", h.Name)
}

// DecodeSmhd decodes a sound media header box.
func DecodeSmhd(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	FullBox(ch)
	balance := ch.I16("balance")
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Balance", float64(balance)/256.0)
	return nil
}

// DecodeVmhd decodes a video media header box.
func DecodeVmhd(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	FullBox(ch)
	mode := ch.U16("graphics mode")
	r, g, b := ch.U16("opcolor red"), ch.U16("opcolor green"), ch.U16("opcolor blue")
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Graphics Mode", graphicsMode(mode))
	dir.Set("Op Color", fmt.Sprintf("%d %d %d", r, g, b))
	return nil
}

func graphicsMode(m uint16) string {
	switch m {
	case 0x00:
		return "srcCopy"
	case 0x20:
		return "blend"
	case 0x24:
		return "transparent"
	case 0x40:
		return "ditherCopy"
	case 0x100:
		return "straightAlpha"
	case 0x101:
		return "premulWhiteAlpha"
	case 0x102:
		return "premulBlackAlpha"
	case 0x104:
		return "straightAlphaBlend"
	case 0x103:
		return "composition"
	default:
		return fmt.Sprintf("0x%X", m)
	}
}

// DecodeHmhd decodes a hint media header box.
func DecodeHmhd(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	FullBox(ch)
	maxPDU := ch.U16("max PDU size")
	avgPDU := ch.U16("average PDU size")
	maxRate := ch.U32("max bitrate")
	avgRate := ch.U32("average bitrate")
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Max PDU Size", maxPDU)
	dir.Set("Average PDU Size", avgPDU)
	dir.Set("Max Bitrate", maxRate)
	dir.Set("Average Bitrate", avgRate)
	return nil
}

// DecodeStts decodes a decoding time-to-sample box and, given the media
// timescale, writes the average frame rate.
func DecodeStts(payload []byte, timescale uint32, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	FullBox(ch)
	count := ch.U32("entry count")
	if err := ch.Error(); err != nil {
		return err
	}

	var samples, units uint64
	for range min(int64(count), ch.Remaining()/8) {
		n := ch.U32("sample count")
		delta := ch.U32("sample delta")
		samples += uint64(n)
		units += uint64(n) * uint64(delta)
	}
	if err := ch.Error(); err != nil {
		return err
	}

	if units > 0 && timescale > 0 {
		fps := float64(samples) * float64(timescale) / float64(units)
		dir.Set("Video Frame Rate", float64(int64(fps*1000+0.5))/1000)
	}
	return nil
}
