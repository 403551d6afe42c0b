package riff

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/tiff"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// VP8X feature flags.
const (
	flagAnimation = 1 << 1
	flagXMP       = 1 << 2
	flagEXIF      = 1 << 3
	flagAlpha     = 1 << 4
	flagICC       = 1 << 5
)

// webp interprets the children of RIFF WEBP. Image bitstreams and
// animation frames are peeked at, never read whole.
type webp struct {
	walker.Base
	frames   int
	duration time.Duration
}

func newWebP(_ *types.Metadata, dir *types.Directory) walker.Handler {
	return &webp{Base: walker.Base{Dir: dir}}
}

func (w *webp) AcceptContainer(h *walker.Header) bool {
	switch h.Type {
	case "VP8 ", "VP8L", "ALPH", "ANMF":
		return true
	}
	return false
}

func (w *webp) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "VP8X", "ANIM", "ICCP", "EXIF", "XMP ":
		return true
	}
	return false
}

func (w *webp) ProcessContainer(h *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	switch h.Type {
	case "ANMF":
		return w.frame(c)
	case "VP8 ":
		b, err := peek(h, c, 10)
		if err != nil {
			return nil, err
		}
		return nil, w.lossy(b)
	case "VP8L":
		b, err := peek(h, c, 5)
		if err != nil {
			return nil, err
		}
		return nil, w.lossless(b)
	}

	b, err := peek(h, c, 1)
	if err != nil {
		return nil, err
	}
	if len(b) > 0 {
		w.Dir.Set("Alpha Compression", []string{"None", "Lossless"}[min(b[0]&0x03, 1)])
		w.Dir.Set("Alpha Filtering", []string{"None", "Horizontal", "Vertical", "Gradient"}[b[0]>>2&0x03])
		w.Dir.Set("Alpha Preprocessing", b[0]>>4&0x03 != 0)
	}
	return nil, nil
}

// frame reads an ANMF preamble. The frame's own image chunks are not
// decoded.
func (w *webp) frame(c *binary.Cursor) (walker.Handler, error) {
	b, err := c.Bytes(16, "ANMF header")
	if err != nil {
		return nil, err
	}
	w.frames++
	w.duration += time.Duration(u24(b[12:])) * time.Millisecond
	w.Dir.Set("Animation Frames", w.frames)
	w.Dir.Set("Duration", w.duration)
	return &walker.Base{Dir: w.Dir}, nil
}

func u24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func (w *webp) lossy(b []byte) error {
	if len(b) < 10 {
		return fmt.Errorf("VP8 frame header of %d bytes is too short", len(b))
	}
	if !bytes.Equal(b[3:6], []byte{0x9D, 0x01, 0x2A}) {
		if b[0]&1 == 1 {
			// Interframes carry no dimensions.
			return nil
		}
		return fmt.Errorf("VP8 start code % X is invalid", b[3:6])
	}
	w.Dir.Set("Compression", "Lossy")
	w.Dir.Set("VP8 Version", b[0]>>1&0x07)
	w.Dir.Set("Image Width", binary.Decode[uint16](b[6:], binary.LittleEndian)&0x3FFF)
	w.Dir.Set("Image Height", binary.Decode[uint16](b[8:], binary.LittleEndian)&0x3FFF)
	w.Dir.Set("Horizontal Scale", b[7]>>6)
	w.Dir.Set("Vertical Scale", b[9]>>6)
	return nil
}

func (w *webp) lossless(b []byte) error {
	if len(b) < 5 {
		return fmt.Errorf("VP8L header of %d bytes is too short", len(b))
	}
	if b[0] != 0x2F {
		return fmt.Errorf("VP8L signature 0x%02X is invalid", b[0])
	}
	bits := binary.Decode[uint32](b[1:], binary.LittleEndian)
	w.Dir.Set("Compression", "Lossless")
	w.Dir.Set("Image Width", bits&0x3FFF+1)
	w.Dir.Set("Image Height", bits>>14&0x3FFF+1)
	w.Dir.Set("Alpha", bits>>28&1 == 1)
	return nil
}

func (w *webp) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "VP8X":
		if len(payload) < 10 {
			return nil, fmt.Errorf("VP8X payload of %d bytes is too short", len(payload))
		}
		flags := payload[0]
		w.Dir.Set("Animation", flags&flagAnimation != 0)
		w.Dir.Set("Alpha", flags&flagAlpha != 0)
		w.Dir.Set("Has ICC Profile", flags&flagICC != 0)
		w.Dir.Set("Has EXIF", flags&flagEXIF != 0)
		w.Dir.Set("Has XMP", flags&flagXMP != 0)
		w.Dir.Set("Canvas Width", u24(payload[4:])+1)
		w.Dir.Set("Canvas Height", u24(payload[7:])+1)
	case "ANIM":
		ch := binary.ChainBytes(payload, binary.LittleEndian)
		bg := ch.U32("background color")
		loops := ch.U16("loop count")
		if err := ch.Error(); err != nil {
			return nil, err
		}
		w.Dir.Set("Background Color", fmt.Sprintf("#%08X", bg))
		w.Dir.Set("Loop Count", loops)
	case "ICCP":
		w.Dir.Set("ICC Profile Size", len(payload))
		if len(payload) >= 20 {
			w.Dir.SetString("ICC Color Space", strings.TrimSpace(string(payload[16:20])))
		}
	case "EXIF":
		// Some writers keep the JPEG APP1 identifier.
		return nil, tiff.Embedded(bytes.TrimPrefix(payload, []byte("Exif\x00\x00")), w.Dir, "Exif")
	case "XMP ":
		w.Dir.Set("XMP Size", len(payload))
	}
	return nil, nil
}
