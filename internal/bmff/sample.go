package bmff

import (
	"math"
	"strings"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

// codecNames maps sample entry FourCC codes to human-readable names.
var codecNames = map[string]string{
	// AAC Family
	"mp4a": "AAC",
	"mhm1": "xHE-AAC",
	"mhm2": "xHE-AAC v2",

	// Dolby Family
	"ac-3": "AC-3",
	"ec-3": "E-AC-3",
	"ac-4": "AC-4",

	// Lossless and PCM
	"alac": "Apple Lossless",
	"flac": "FLAC",
	"lpcm": "Linear PCM",
	"sowt": "PCM (little-endian)",
	"twos": "PCM (big-endian)",
	"in24": "PCM 24-bit",
	"fl32": "PCM 32-bit float",

	// Other audio
	"opus": "Opus",
	"mp3 ": "MP3",
	".mp3": "MP3",
	"samr": "AMR",
	"sawb": "AMR-WB",
	"ulaw": "mu-Law",
	"alaw": "A-Law",
	"ima4": "IMA 4:1",

	// Video
	"avc1": "H.264",
	"avc3": "H.264",
	"hvc1": "HEVC",
	"hev1": "HEVC",
	"dvh1": "Dolby Vision HEVC",
	"av01": "AV1",
	"vp09": "VP9",
	"mp4v": "MPEG-4 Visual",
	"jpeg": "Photo JPEG",
	"mjpa": "Motion JPEG A",
	"apch": "Apple ProRes 422 HQ",
	"apcn": "Apple ProRes 422",
	"apcs": "Apple ProRes 422 LT",
	"apco": "Apple ProRes 422 Proxy",
	"ap4h": "Apple ProRes 4444",
	"s263": "H.263",

	// Timecode
	"tmcd": "Timecode",
}

// aacProfiles maps AAC Audio Object Types to profile names.
var aacProfiles = map[uint8]string{
	1:  "AAC Main",
	2:  "AAC-LC",
	3:  "AAC-SSR",
	4:  "AAC-LTP",
	5:  "HE-AAC",
	6:  "AAC Scalable",
	29: "HE-AAC v2",
	42: "xHE-AAC",
}

// CodecName converts a FourCC codec identifier to a human-readable name.
func CodecName(fourCC string) string {
	if name, ok := codecNames[fourCC]; ok {
		return name
	}
	return strings.TrimSpace(fourCC)
}

// AudioEntry is the first audio sample entry of an stsd box.
type AudioEntry struct {
	Format        string
	Channels      uint16
	BitsPerSample uint16
	SampleRate    float64
	// Extensions holds the child boxes after the fixed fields (esds, wave...).
	Extensions []byte
}

// VisualEntry is the first visual sample entry of an stsd box.
type VisualEntry struct {
	Format         string
	Vendor         string
	Width, Height  uint16
	XRes, YRes     float64
	FrameCount     uint16
	CompressorName string
	Depth          uint16
	Extensions     []byte
}

// firstEntry reads the stsd preamble and returns a chain positioned after
// the sample entry's format and data reference index, plus the entry size.
func firstEntry(payload []byte) (*binary.Chain, string, int64, error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	FullBox(ch)
	count := ch.U32("entry count")
	if err := ch.Error(); err != nil {
		return nil, "", 0, err
	}
	if count == 0 {
		return nil, "", 0, nil
	}

	start := ch.Position()
	size := int64(ch.U32("sample entry size"))
	format := ch.String(4, "sample entry format")
	ch.Skip(6+2, "reserved and data reference index")
	if err := ch.Error(); err != nil {
		return nil, "", 0, err
	}
	// Clamp the entry to the payload.
	end := min(start+size, start+ch.Remaining()+16)
	return ch, format, end, nil
}

// DecodeAudioEntry decodes the first sound sample description.
//
// QuickTime sound descriptions version 1 carry 16 extra bytes; version 2
// replaces the 16.16 sample rate with a 64-bit float.
func DecodeAudioEntry(payload []byte) (*AudioEntry, error) {
	ch, format, end, err := firstEntry(payload)
	if err != nil || ch == nil {
		return nil, err
	}

	e := &AudioEntry{Format: format}
	version := ch.U16("sound description version")
	ch.Skip(2+4, "revision and vendor")
	e.Channels = ch.U16("channels")
	e.BitsPerSample = ch.U16("sample size")
	ch.Skip(2+2, "compression ID and packet size")
	e.SampleRate = Fixed32(ch.U32("sample rate"))
	if err := ch.Error(); err != nil {
		return nil, err
	}

	switch version {
	case 1:
		ch.Skip(16, "sound description v1 fields")
	case 2:
		ch.Skip(4, "struct size")
		e.SampleRate = math.Float64frombits(ch.U64("audio sample rate"))
		e.Channels = uint16(ch.U32("audio channels"))
		ch.Skip(4, "reserved")
		e.BitsPerSample = uint16(ch.U32("bits per channel"))
		ch.Skip(12, "format flags and packet sizes")
	}
	if ch.Error() == nil && end > ch.Position() {
		e.Extensions = ch.Bytes(int(end-ch.Position()), "sample entry extensions")
	}
	return e, nil
}

// DecodeVisualEntry decodes the first video sample description.
func DecodeVisualEntry(payload []byte) (*VisualEntry, error) {
	ch, format, end, err := firstEntry(payload)
	if err != nil || ch == nil {
		return nil, err
	}

	e := &VisualEntry{Format: format}
	ch.Skip(2+2, "version and revision")
	e.Vendor = strings.TrimRight(ch.String(4, "vendor"), "\x00 ")
	ch.Skip(4+4, "temporal and spatial quality")
	e.Width = ch.U16("width")
	e.Height = ch.U16("height")
	e.XRes = Fixed32(ch.U32("horizontal resolution"))
	e.YRes = Fixed32(ch.U32("vertical resolution"))
	ch.Skip(4, "data size")
	e.FrameCount = ch.U16("frame count")
	name := ch.Bytes(32, "compressor name")
	e.Depth = ch.U16("depth")
	ch.Skip(2, "color table ID")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	if n := int(name[0]); n > 0 && n < len(name) {
		e.CompressorName = string(name[1 : 1+n])
	}
	if end > ch.Position() {
		e.Extensions = ch.Bytes(int(end-ch.Position()), "sample entry extensions")
	}
	return e, nil
}

// Set writes the audio entry into dir, including the AAC profile when an
// esds box is present.
func (e *AudioEntry) Set(dir *types.Directory) {
	dir.Set("Audio Format", strings.TrimSpace(e.Format))
	description := CodecName(e.Format)
	switch e.Format {
	case "mp4a":
		if esds, ok := ChildBox(e.Extensions, "esds"); ok && len(esds) > 4 {
			if profile, ok := aacProfiles[ParseESDescriptors(esds[4:])]; ok {
				dir.Set("Audio Profile", profile)
				if profile != "AAC-LC" {
					description = profile
				}
			}
		}
	case "mhm1", "mhm2":
		dir.Set("Audio Profile", "USAC")
	}
	dir.Set("Audio Codec", description)
	dir.Set("Audio Channels", e.Channels)
	dir.Set("Audio Bits Per Sample", e.BitsPerSample)
	dir.Set("Audio Sample Rate", e.SampleRate)
}

// Set writes the visual entry into dir.
func (e *VisualEntry) Set(dir *types.Directory) {
	dir.Set("Compressor ID", strings.TrimSpace(e.Format))
	dir.Set("Video Codec", CodecName(e.Format))
	dir.SetString("Vendor ID", e.Vendor)
	dir.Set("Source Image Width", e.Width)
	dir.Set("Source Image Height", e.Height)
	dir.Set("X Resolution", e.XRes)
	dir.Set("Y Resolution", e.YRes)
	dir.SetString("Compressor Name", e.CompressorName)
	dir.Set("Bit Depth", e.Depth)
}

// ParseESDescriptors navigates the ES descriptor hierarchy of an esds
// payload (after version and flags) and returns the AAC audio object type,
// or 0 when none is found.
func ParseESDescriptors(data []byte) uint8 {
	pos := 0

	readSize := func() int {
		size := 0
		for i := 0; i < 4; i++ {
			if pos >= len(data) {
				return -1
			}
			b := data[pos]
			pos++
			size = (size << 7) | int(b&0x7F)
			if (b & 0x80) == 0 {
				break
			}
		}
		return size
	}

	for pos < len(data) {
		switch data[pos] {
		case 0x03: // ES_Descriptor
			pos++
			if readSize() < 0 {
				return 0
			}
			if pos+3 > len(data) {
				return 0
			}
			flags := data[pos+2]
			pos += 3
			if flags&0x80 != 0 { // streamDependenceFlag
				pos += 2
			}
			if flags&0x40 != 0 && pos < len(data) { // URL_Flag
				pos += 1 + int(data[pos])
			}
			if flags&0x20 != 0 { // OCRstreamFlag
				pos += 2
			}
		case 0x04: // DecoderConfigDescriptor
			pos++
			if readSize() < 0 {
				return 0
			}
			// objectTypeIndication, streamType, bufferSize, max and avg bitrate
			pos += 13
		case 0x05: // DecoderSpecificInfo
			pos++
			if readSize() < 0 || pos >= len(data) {
				return 0
			}
			aot := data[pos] >> 3
			if aot == 31 && pos+1 < len(data) {
				aot = 32 + ((data[pos]&0x07)<<3 | data[pos+1]>>5)
			}
			return aot
		default:
			return 0
		}
	}

	return 0
}
