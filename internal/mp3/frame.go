package mp3

import (
	"fmt"

	"github.com/simonhull/mediameta/internal/binary"
)

// MPEG audio versions as encoded in the frame header.
const (
	version25 = 0
	version2  = 2
	version1  = 3
)

// Layers as encoded in the frame header.
const (
	layer3 = 1
	layer2 = 2
	layer1 = 3
)

// bitrates in kbps, keyed by table (1 for MPEG-1, 2 otherwise) and layer.
var bitrates = map[[2]int][]int{
	{1, 1}: {0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448},
	{1, 2}: {0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384},
	{1, 3}: {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320},
	{2, 1}: {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
	{2, 2}: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
	{2, 3}: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
}

var sampleRates = map[int][3]int{
	version1:  {44100, 48000, 32000},
	version2:  {22050, 24000, 16000},
	version25: {11025, 12000, 8000},
}

var channelModes = [4]string{"Stereo", "Joint Stereo", "Dual Channel", "Mono"}

// Frame is a decoded MPEG audio frame header.
type Frame struct {
	Version    string
	Layer      int
	Bitrate    int // bits per second
	SampleRate int
	Padding    bool
	Mode       int
	Copyright  bool
	Original   bool
	mpeg1      bool
}

// ParseFrame decodes the 4-byte frame header at the start of b.
func ParseFrame(b []byte) (*Frame, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("frame header of %d bytes is too short", len(b))
	}
	h := be32(b)
	if h&0xFFE00000 != 0xFFE00000 {
		return nil, fmt.Errorf("no frame sync")
	}

	version := int(h >> 19 & 0x3)
	layerBits := int(h >> 17 & 0x3)
	if version == 1 {
		return nil, fmt.Errorf("reserved MPEG version")
	}
	if layerBits == 0 {
		return nil, fmt.Errorf("reserved layer")
	}
	rateIdx := int(h >> 12 & 0xF)
	if rateIdx == 0 || rateIdx == 15 {
		return nil, fmt.Errorf("unsupported bitrate index %d", rateIdx)
	}
	srIdx := int(h >> 10 & 0x3)
	if srIdx == 3 {
		return nil, fmt.Errorf("reserved sample rate index")
	}

	f := &Frame{
		Layer:      4 - layerBits,
		SampleRate: sampleRates[version][srIdx],
		Padding:    h>>9&1 == 1,
		Mode:       int(h >> 6 & 0x3),
		Copyright:  h>>3&1 == 1,
		Original:   h>>2&1 == 1,
		mpeg1:      version == version1,
	}
	switch version {
	case version1:
		f.Version = "1"
	case version2:
		f.Version = "2"
	default:
		f.Version = "2.5"
	}
	table := 2
	if f.mpeg1 {
		table = 1
	}
	f.Bitrate = bitrates[[2]int{table, f.Layer}][rateIdx] * 1000
	return f, nil
}

// SamplesPerFrame returns the number of samples one frame decodes to.
func (f *Frame) SamplesPerFrame() int {
	switch {
	case f.Layer == 1:
		return 384
	case f.Layer == 3 && !f.mpeg1:
		return 576
	}
	return 1152
}

// Size returns the frame length in bytes, header included.
func (f *Frame) Size() int {
	pad := 0
	if f.Padding {
		pad = 1
	}
	if f.Layer == 1 {
		return (12*f.Bitrate/f.SampleRate + pad) * 4
	}
	return f.SamplesPerFrame()/8*f.Bitrate/f.SampleRate + pad
}

// Channels returns 1 for mono frames and 2 otherwise.
func (f *Frame) Channels() int {
	if f.Mode == 3 {
		return 1
	}
	return 2
}

// sideInfo returns the size of the Layer III side information that follows
// the header. The Xing header sits right after it.
func (f *Frame) sideInfo() int {
	switch {
	case f.mpeg1 && f.Mode == 3:
		return 17
	case f.mpeg1:
		return 32
	case f.Mode == 3:
		return 9
	}
	return 17
}

// VBR is a Xing, Info or VBRI header found in the first frame.
type VBR struct {
	Kind   string
	Frames uint32
	Bytes  uint32
}

// ParseVBR looks for a Xing, Info or VBRI header in the frame that starts
// b. ok is false when there is none.
func (f *Frame) ParseVBR(b []byte) (v VBR, ok bool) {
	if off := 4 + f.sideInfo(); len(b) >= off+16 {
		switch tag := string(b[off : off+4]); tag {
		case "Xing", "Info":
			flags := be32(b[off+4:])
			v.Kind = tag
			p := off + 8
			if flags&1 != 0 {
				v.Frames = be32(b[p:])
				p += 4
			}
			if flags&2 != 0 && len(b) >= p+4 {
				v.Bytes = be32(b[p:])
			}
			return v, true
		}
	}
	// VBRI always sits 32 bytes after the header.
	if off := 4 + 32; len(b) >= off+18 && string(b[off:off+4]) == "VBRI" {
		return VBR{Kind: "VBRI", Bytes: be32(b[off+10:]), Frames: be32(b[off+14:])}, true
	}
	return VBR{}, false
}

func be32(b []byte) uint32 { return binary.Decode[uint32](b, binary.BigEndian) }

// findFrame returns the offset of the first frame header in b that is
// followed by another valid header, or by the end of b.
func findFrame(b []byte) (int, *Frame) {
	for i := 0; i+4 <= len(b); i++ {
		if b[i] != 0xFF || b[i+1]&0xE0 != 0xE0 {
			continue
		}
		f, err := ParseFrame(b[i:])
		if err != nil {
			continue
		}
		next := i + f.Size()
		if next+4 > len(b) {
			return i, f
		}
		if n, err := ParseFrame(b[next:]); err == nil && n.SampleRate == f.SampleRate && n.Layer == f.Layer {
			return i, f
		}
	}
	return -1, nil
}
