package ogg

import (
	"bytes"
	"fmt"
	"time"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/vorbis"
)

// Codecs that are recognized but not decoded, by identification prefix.
var codecPrefixes = []struct {
	prefix string
	name   string
}{
	{"\x80theora", "Theora"},
	{"\x7fFLAC", "FLAC"},
	{"Speex   ", "Speex"},
	{"fishead\x00", "Skeleton"},
	{"OVP80", "VP8"},
	{"\x80kate", "Kate"},
	{"PCM     ", "PCM"},
}

// logical is one logical bitstream of a physical Ogg stream.
type logical struct {
	serial  uint32
	codec   string
	dir     *types.Directory
	headers int
	done    bool
	partial []byte

	sampleRate uint32
	preSkip    uint16
}

// feed appends a page's segments to the stream and returns the packets
// that end on it. A packet longer than limit abandons the stream.
func (l *logical) feed(p *Page, payload []byte, limit int64) ([][]byte, error) {
	if p.Flags&flagContinued == 0 {
		l.partial = nil
	}
	var packets [][]byte
	pos := 0
	for _, n := range p.Lacing {
		l.partial = append(l.partial, payload[pos:pos+int(n)]...)
		pos += int(n)
		if int64(len(l.partial)) > limit {
			l.partial = nil
			l.done = true
			return packets, fmt.Errorf("packet of stream %08X exceeds limit of %d bytes", l.serial, limit)
		}
		if n < 255 {
			packets = append(packets, l.partial)
			l.partial = nil
		}
	}
	return packets, nil
}

// header decodes the next header packet of the stream.
func (l *logical) header(pkt []byte, md *types.Metadata) error {
	l.headers++
	if l.headers == 1 {
		return l.identify(pkt, md)
	}

	// Only the comment header after identification is decoded. Vorbis
	// follows it with a setup header that carries no metadata.
	l.done = true
	var body []byte
	switch l.codec {
	case "Vorbis":
		if !bytes.HasPrefix(pkt, []byte("\x03vorbis")) {
			return fmt.Errorf("expected Vorbis comment header, got %q", clip(pkt))
		}
		body = pkt[7:]
	case "Opus":
		if !bytes.HasPrefix(pkt, []byte("OpusTags")) {
			return fmt.Errorf("expected OpusTags header, got %q", clip(pkt))
		}
		body = pkt[8:]
	}

	dir := types.NewDirectory("Vorbis Comment")
	md.AddDirectory(dir)
	c, err := vorbis.Decode(body)
	if c != nil {
		c.Set(dir)
		pictures(c.List, md)
	}
	return err
}

func (l *logical) identify(pkt []byte, md *types.Metadata) error {
	switch {
	case bytes.HasPrefix(pkt, []byte("\x01vorbis")):
		l.codec = "Vorbis"
		l.dir = types.NewDirectory("Vorbis")
		md.AddDirectory(l.dir)
		return l.vorbisID(pkt[7:])
	case bytes.HasPrefix(pkt, []byte("OpusHead")):
		l.codec = "Opus"
		l.dir = types.NewDirectory("Opus")
		md.AddDirectory(l.dir)
		return l.opusHead(pkt[8:])
	}

	l.done = true
	l.codec = "Unknown"
	for _, c := range codecPrefixes {
		if bytes.HasPrefix(pkt, []byte(c.prefix)) {
			l.codec = c.name
			break
		}
	}
	return nil
}

// vorbisID decodes a Vorbis identification header after its packet type
// and magic.
func (l *logical) vorbisID(b []byte) error {
	ch := binary.ChainBytes(b, binary.LittleEndian)
	version := ch.U32("Vorbis version")
	channels := ch.U8("audio channels")
	rate := ch.U32("sample rate")
	maxRate := ch.I32("maximum bitrate")
	nominal := ch.I32("nominal bitrate")
	minRate := ch.I32("minimum bitrate")
	if err := ch.Error(); err != nil {
		l.done = true
		return err
	}
	if version != 0 {
		l.done = true
		return fmt.Errorf("unsupported Vorbis version %d", version)
	}

	l.sampleRate = rate
	l.dir.Set("Vorbis Version", version)
	l.dir.Set("Audio Channels", channels)
	l.dir.Set("Sample Rate", rate)
	for _, b := range []struct {
		name string
		v    int32
	}{{"Max Bitrate", maxRate}, {"Nominal Bitrate", nominal}, {"Min Bitrate", minRate}} {
		if b.v > 0 {
			l.dir.Set(b.name, b.v)
		}
	}
	return nil
}

// opusHead decodes an Opus identification header after its magic. Opus
// always decodes at 48 kHz; the input rate is informational.
func (l *logical) opusHead(b []byte) error {
	ch := binary.ChainBytes(b, binary.LittleEndian)
	version := ch.U8("Opus version")
	channels := ch.U8("output channels")
	preSkip := ch.U16("pre-skip")
	inputRate := ch.U32("input sample rate")
	gain := ch.I16("output gain")
	mapping := ch.U8("channel mapping family")
	if err := ch.Error(); err != nil {
		l.done = true
		return err
	}
	if version>>4 != 0 {
		l.done = true
		return fmt.Errorf("unsupported Opus version %d", version)
	}

	l.sampleRate = 48000
	l.preSkip = preSkip
	l.dir.Set("Opus Version", version)
	l.dir.Set("Audio Channels", channels)
	l.dir.Set("Pre Skip", preSkip)
	l.dir.Set("Input Sample Rate", inputRate)
	l.dir.Set("Output Gain", float64(gain)/256)
	l.dir.Set("Channel Mapping Family", mapping)
	return nil
}

// setDuration converts the stream's final granule position to a duration.
func (l *logical) setDuration(granule int64) {
	if l.dir == nil || l.sampleRate == 0 || granule <= 0 {
		return
	}
	samples := granule
	if l.codec == "Opus" {
		samples -= int64(l.preSkip)
	}
	if samples <= 0 {
		return
	}
	l.dir.Set("Duration", time.Duration(float64(samples)/float64(l.sampleRate)*float64(time.Second)))
}

func clip(b []byte) []byte {
	return b[:min(len(b), 8)]
}
