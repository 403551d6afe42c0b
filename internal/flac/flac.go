// Package flac extracts metadata from native FLAC streams.
//
// After the "fLaC" signature a FLAC file is a run of metadata blocks, each
// with a 4-byte header holding a last-block flag, a 7-bit block type and a
// 24-bit length. Audio frames follow the last block and are never read.
package flac

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/vorbis"
	"github.com/simonhull/mediameta/internal/walker"
)

// Metadata block types.
const (
	blockStreamInfo    = 0
	blockPadding       = 1
	blockApplication   = 2
	blockSeekTable     = 3
	blockVorbisComment = 4
	blockCueSheet      = 5
	blockPicture       = 6
)

var blockNames = map[uint8]string{
	blockStreamInfo:    "STREAMINFO",
	blockPadding:       "PADDING",
	blockApplication:   "APPLICATION",
	blockSeekTable:     "SEEKTABLE",
	blockVorbisComment: "VORBIS_COMMENT",
	blockCueSheet:      "CUESHEET",
	blockPicture:       "PICTURE",
}

// BlockName returns the name of a metadata block type.
func BlockName(t uint8) string {
	if name, ok := blockNames[t]; ok {
		return name
	}
	return fmt.Sprintf("BLOCK_%d", t)
}

// blockReader reads metadata block headers. The read after the last block
// ends the walk.
type blockReader struct {
	done bool
}

func (r *blockReader) ReadHeader(c *binary.Cursor) (*walker.Header, error) {
	if r.done {
		return nil, walker.ErrEndOfContainer
	}
	start := c.Position()
	b, err := c.Bytes(4, "metadata block header")
	if err != nil {
		return nil, err
	}
	v := binary.Decode[uint32](b, binary.BigEndian)
	r.done = v>>31 == 1
	return &walker.Header{
		Type:      BlockName(uint8(v>>24) & 0x7F),
		Start:     start,
		HeaderLen: 4,
		Length:    walker.BoundedLength(4+int64(v&0xFFFFFF), 4),
	}, nil
}

// Extract reads the FLAC signature and walks the metadata blocks.
func Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	dir := types.NewDirectory("FLAC")
	md.AddDirectory(dir)

	magic, err := c.Bytes(4, "FLAC signature")
	if err != nil {
		dir.AddError(err.Error())
		return nil
	}
	if string(magic) != "fLaC" {
		dir.AddError(fmt.Sprintf("invalid FLAC signature %q", magic))
		return nil
	}

	h := &blocks{Base: walker.Base{Dir: dir}, md: md}
	return walker.New(&blockReader{}, cfg).Walk(ctx, c, walker.Unbounded, h)
}

func init() {
	registry.Register(types.FormatFLAC, registry.ExtractorFunc(Extract))
}

// blocks decodes the metadata blocks into the FLAC directory, with Vorbis
// comments and pictures in directories of their own.
type blocks struct {
	walker.Base
	md         *types.Metadata
	sampleRate uint32
	apps       []string
}

func (b *blocks) AcceptLeaf(*walker.Header) bool { return true }

func (b *blocks) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "STREAMINFO":
		return nil, b.streamInfo(payload)
	case "PADDING":
		b.Dir.Set("Padding", len(payload))
	case "APPLICATION":
		if len(payload) < 4 {
			return nil, fmt.Errorf("application block of %d bytes is too short", len(payload))
		}
		b.apps = append(b.apps, string(payload[:4]))
		b.Dir.Set("Application IDs", b.apps)
	case "SEEKTABLE":
		b.Dir.Set("Seek Points", len(payload)/18)
	case "VORBIS_COMMENT":
		dir := types.NewDirectory("Vorbis Comment")
		b.md.AddDirectory(dir)
		c, err := vorbis.Decode(payload)
		if c != nil {
			c.Set(dir)
		}
		return nil, err
	case "CUESHEET":
		cs, err := DecodeCueSheet(payload)
		if err != nil {
			return nil, err
		}
		cs.Set(b.Dir, b.sampleRate)
	case "PICTURE":
		dir := types.NewDirectory("FLAC Picture")
		b.md.AddDirectory(dir)
		return nil, DecodePicture(payload, dir)
	}
	return nil, nil
}

// streamInfo decodes the 34-byte STREAMINFO block.
func (b *blocks) streamInfo(payload []byte) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	minBlock := ch.U16("minimum block size")
	maxBlock := ch.U16("maximum block size")
	frames := ch.Bytes(6, "frame sizes")
	packed := ch.U64("sample format")
	md5 := ch.Bytes(16, "MD5 signature")
	if err := ch.Error(); err != nil {
		return err
	}

	// 20 bits rate, 3 bits channels-1, 5 bits bits-1, 36 bits samples.
	rate := uint32(packed >> 44)
	channels := uint8(packed>>41&0x7) + 1
	bits := uint8(packed>>36&0x1F) + 1
	samples := packed & 0xFFFFFFFFF
	b.sampleRate = rate

	b.Dir.Set("Block Size Min", minBlock)
	b.Dir.Set("Block Size Max", maxBlock)
	b.Dir.Set("Frame Size Min", uint32(frames[0])<<16|uint32(frames[1])<<8|uint32(frames[2]))
	b.Dir.Set("Frame Size Max", uint32(frames[3])<<16|uint32(frames[4])<<8|uint32(frames[5]))
	b.Dir.Set("Sample Rate", rate)
	b.Dir.Set("Channels", channels)
	b.Dir.Set("Bits Per Sample", bits)
	b.Dir.Set("Total Samples", samples)
	if rate > 0 && samples > 0 {
		b.Dir.Set("Duration", samplesToDuration(samples, rate))
	}
	b.Dir.Set("MD5 Signature", hex.EncodeToString(md5))
	return nil
}

func samplesToDuration(samples uint64, rate uint32) time.Duration {
	return time.Duration(float64(samples) / float64(rate) * float64(time.Second))
}
