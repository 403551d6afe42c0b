package riff

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/id3"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// encodings names the WAVE format tags seen in practice.
var encodings = map[uint16]string{
	0x0001: "Microsoft PCM",
	0x0002: "Microsoft ADPCM",
	0x0003: "Microsoft IEEE float",
	0x0006: "Microsoft A-Law",
	0x0007: "Microsoft Mu-Law",
	0x0011: "Intel IMA/DVI ADPCM",
	0x0016: "ITU G.723 ADPCM",
	0x0031: "GSM 6.10",
	0x0040: "ITU G.721 ADPCM",
	0x0050: "MPEG",
	0x0055: "MPEG Layer 3",
	0x0092: "Dolby AC3 SPDIF",
	0x00FF: "AAC",
	0x0160: "Windows Media Audio V1",
	0x0161: "Windows Media Audio V2",
	0x0162: "Windows Media Audio 9 Professional",
	0x0163: "Windows Media Audio 9 Lossless",
	0x2000: "AC-3",
	0x2001: "DTS",
	0xF1AC: "FLAC",
	0xFFFE: "Extensible",
}

// EncodingName describes a WAVE format tag.
func EncodingName(tag uint16) string {
	if name, ok := encodings[tag]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%04X)", tag)
}

// WaveFormat is a decoded WAVEFORMATEX structure.
type WaveFormat struct {
	Tag           uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	// Extensible fields, set when Tag is 0xFFFE.
	ValidBits   uint16
	ChannelMask uint32
	SubFormat   uuid.UUID
}

// DecodeWaveFormat decodes a "fmt " chunk or an audio "strf" chunk.
func DecodeWaveFormat(payload []byte) (*WaveFormat, error) {
	ch := binary.ChainBytes(payload, binary.LittleEndian)
	f := &WaveFormat{
		Tag:        ch.U16("format tag"),
		Channels:   ch.U16("channels"),
		SampleRate: ch.U32("sample rate"),
		ByteRate:   ch.U32("byte rate"),
		BlockAlign: ch.U16("block align"),
	}
	if err := ch.Error(); err != nil {
		return nil, err
	}
	// MPEG layer 3 strf chunks in old AVIs may stop before the bit depth.
	if ch.Remaining() >= 2 {
		f.BitsPerSample = ch.U16("bits per sample")
	}
	if f.Tag != 0xFFFE || ch.Remaining() < 2 {
		return f, nil
	}

	if extra := ch.U16("extra size"); extra < 22 {
		return f, fmt.Errorf("extensible format with %d extra bytes", extra)
	}
	f.ValidBits = ch.U16("valid bits per sample")
	f.ChannelMask = ch.U32("channel mask")
	guid := ch.Bytes(16, "sub format")
	if err := ch.Error(); err != nil {
		return f, err
	}
	f.SubFormat = guidToUUID(guid)
	return f, nil
}

// guidToUUID converts a Windows GUID, whose first three fields are
// little-endian, to its canonical form.
func guidToUUID(b []byte) uuid.UUID {
	var u uuid.UUID
	copy(u[:], b)
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	return u
}

// SubFormatTag returns the format tag embedded in an extensible sub
// format, which for the standard KSDATAFORMAT GUIDs is its first field.
func (f *WaveFormat) SubFormatTag() uint16 {
	return uint16(f.SubFormat[2])<<8 | uint16(f.SubFormat[3])
}

// Set writes the format into dir.
func (f *WaveFormat) Set(dir *types.Directory) {
	dir.Set("Encoding", EncodingName(f.Tag))
	dir.Set("Num Channels", f.Channels)
	dir.Set("Sample Rate", f.SampleRate)
	dir.Set("Avg Bytes Per Sec", f.ByteRate)
	dir.Set("Block Align", f.BlockAlign)
	if f.BitsPerSample != 0 {
		dir.Set("Bits Per Sample", f.BitsPerSample)
	}
	if f.SubFormat != uuid.Nil {
		dir.Set("Valid Bits Per Sample", f.ValidBits)
		dir.Set("Channel Mask", fmt.Sprintf("0x%08X", f.ChannelMask))
		dir.Set("Sub Format", f.SubFormat.String())
		dir.Set("Sub Format Encoding", EncodingName(f.SubFormatTag()))
	}
}

// wave interprets the children of RIFF WAVE.
type wave struct {
	walker.Base
	md      *types.Metadata
	format  *WaveFormat
	samples uint32
}

func newWave(md *types.Metadata, dir *types.Directory) walker.Handler {
	return &wave{Base: walker.Base{Dir: dir}, md: md}
}

func (w *wave) AcceptContainer(h *walker.Header) bool {
	return h.Type == "data" || h.SubType == "INFO"
}

func (w *wave) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "fmt ", "fact", "bext", "cue ":
		return true
	}
	return isID3(h.Type)
}

func (w *wave) ProcessContainer(h *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	if h.SubType == "INFO" {
		return newInfo(w.md), nil
	}
	w.setDuration(h.Length.N - h.HeaderLen)
	_, err := peek(h, c, 0)
	return nil, err
}

func (w *wave) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "fmt ":
		f, err := DecodeWaveFormat(payload)
		if f != nil {
			w.format = f
			f.Set(w.Dir)
		}
		return nil, err
	case "fact":
		ch := binary.ChainBytes(payload, binary.LittleEndian)
		w.samples = ch.U32("sample length")
		if err := ch.Error(); err != nil {
			return nil, err
		}
		w.Dir.Set("Sample Count", w.samples)
		return nil, nil
	case "bext":
		return nil, decodeBext(payload, w.Dir)
	case "cue ":
		ch := binary.ChainBytes(payload, binary.LittleEndian)
		n := ch.U32("cue point count")
		if err := ch.Error(); err != nil {
			return nil, err
		}
		w.Dir.Set("Cue Points", n)
		return nil, nil
	}
	return nil, id3.Decode(payload, w.md)
}

// setDuration derives the duration from the fact sample count when
// present (compressed formats), otherwise from the data size.
func (w *wave) setDuration(dataSize int64) {
	if w.format == nil {
		return
	}
	var secs float64
	switch {
	case w.samples > 0 && w.format.SampleRate > 0:
		secs = float64(w.samples) / float64(w.format.SampleRate)
	case w.format.ByteRate > 0:
		secs = float64(dataSize) / float64(w.format.ByteRate)
	default:
		return
	}
	w.Dir.Set("Duration", time.Duration(secs*float64(time.Second)))
}

// decodeBext decodes a Broadcast Wave extension chunk.
func decodeBext(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.LittleEndian)
	desc := ch.Bytes(256, "description")
	originator := ch.Bytes(32, "originator")
	ref := ch.Bytes(32, "originator reference")
	date := ch.String(10, "origination date")
	tod := ch.String(8, "origination time")
	timeRef := ch.U64("time reference")
	version := ch.U16("version")
	if err := ch.Error(); err != nil {
		return err
	}

	dir.SetString("Description", text(desc))
	dir.SetString("Originator", text(originator))
	dir.SetString("Originator Reference", text(ref))
	dir.SetString("Date Time Original", strings.TrimSpace(date+" "+tod))
	dir.Set("Time Reference", timeRef)
	dir.Set("BWF Version", version)
	return nil
}
