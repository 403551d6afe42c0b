// Package mp3 extracts metadata from MPEG audio files.
//
// An MP3 file is a leading ID3v2 tag followed by a run of self-describing
// frames, optionally ending with a 128-byte ID3v1 tag. There is no record
// structure to walk: the extractor decodes the tag, locates the first
// frame and reads its header plus any Xing, Info or VBRI header in it.
package mp3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/id3"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// scanWindow bounds the search for the first frame after the ID3v2 tag.
const scanWindow = 64 << 10

// id3v1Size is the size of a trailing ID3v1 tag.
const id3v1Size = 128

func init() {
	registry.Register(types.FormatMP3, registry.ExtractorFunc(Extract))
}

// Extract decodes the ID3 tags and the first audio frame.
func Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	cfg = cfg.Normalized()
	dir := types.NewDirectory("MPEG")
	md.AddDirectory(dir)

	head, err := c.Upto(id3.HeaderSize, "ID3 header")
	if err != nil {
		dir.AddError(err.Error())
		return nil
	}
	if size, ok := id3.TagSize(head); ok {
		if err := readID3v2(c, head, size, md, cfg); err != nil {
			dir.AddError(err.Error())
			if errors.Is(err, types.ErrInsufficientData) {
				return nil
			}
		}
		head = nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	audioStart := c.Position() - int64(len(head))
	rest, err := c.Upto(scanWindow-len(head), "audio frames")
	if err != nil {
		dir.AddError(err.Error())
		return nil
	}
	buf := append(head, rest...)
	off, f := findFrame(buf)
	if f == nil {
		dir.AddError(fmt.Sprintf("no MPEG audio frame within %d bytes of offset %d", len(buf), audioStart))
		return nil
	}
	frameStart := audioStart + int64(off)
	cfg.Logger.Debug("mpeg frame", "offset", frameStart, "version", f.Version, "layer", f.Layer)

	dir.Set("MPEG Audio Version", f.Version)
	dir.Set("Audio Layer", f.Layer)
	dir.Set("Audio Bitrate", f.Bitrate)
	dir.Set("Sample Rate", f.SampleRate)
	dir.Set("Channel Mode", channelModes[f.Mode])
	dir.Set("Channels", f.Channels())
	dir.Set("Copyright Flag", f.Copyright)
	dir.Set("Original Media", f.Original)

	audioEnd := int64(-1)
	if !c.IsStream() {
		audioEnd = c.Length()
		if end, err := readID3v1(c, md); err != nil {
			dir.AddError(err.Error())
		} else {
			audioEnd = end
		}
	}

	vbr, ok := f.ParseVBR(buf[off:])
	switch {
	case ok && vbr.Frames > 0:
		dir.Set("VBR Header", vbr.Kind)
		dir.Set("VBR", vbr.Kind != "Info")
		dir.Set("Frame Count", vbr.Frames)
		samples := uint64(vbr.Frames) * uint64(f.SamplesPerFrame())
		d := time.Duration(float64(samples) / float64(f.SampleRate) * float64(time.Second))
		dir.Set("Duration", d)
		if vbr.Bytes > 0 && d > 0 {
			dir.Set("Average Bitrate", int(float64(vbr.Bytes)*8/d.Seconds()))
		}
	case audioEnd > frameStart:
		dir.Set("VBR", false)
		dir.Set("Duration", time.Duration(float64(audioEnd-frameStart)*8/float64(f.Bitrate)*float64(time.Second)))
	}
	return nil
}

// readID3v2 reads the rest of the tag whose first bytes are head and
// decodes it.
func readID3v2(c *binary.Cursor, head []byte, size int64, md *types.Metadata, cfg walker.Config) error {
	n := size - int64(len(head))
	if size > cfg.MaxPayload {
		if err := c.Skip(n, "ID3v2 tag"); err != nil {
			return err
		}
		return fmt.Errorf("ID3v2 tag of %d bytes exceeds limit of %d bytes", size, cfg.MaxPayload)
	}
	rest, err := c.Bytes(int(n), "ID3v2 tag")
	if err != nil {
		return err
	}
	return id3.Decode(append(head, rest...), md)
}

// readID3v1 decodes a trailing ID3v1 tag and returns where the audio ends.
func readID3v1(c *binary.Cursor, md *types.Metadata) (int64, error) {
	end := c.Length()
	if end < id3v1Size {
		return end, nil
	}
	if err := c.Seek(end - id3v1Size); err != nil {
		return end, err
	}
	tail, err := c.Bytes(id3v1Size, "ID3v1 tag")
	if err != nil {
		return end, err
	}
	if string(tail[:3]) != "TAG" {
		return end, nil
	}
	if err := id3.DecodeV1(bytes.NewReader(tail), md); err != nil {
		return end, err
	}
	return end - id3v1Size, nil
}
