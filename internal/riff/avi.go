package riff

import (
	"fmt"
	"strings"
	"time"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/id3"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// avi interprets the children of RIFF "AVI ".
type avi struct {
	walker.Base
	md *types.Metadata
}

func newAVI(md *types.Metadata, dir *types.Directory) walker.Handler {
	return &avi{Base: walker.Base{Dir: dir}, md: md}
}

// newAVIX counts OpenDML extension segments. Their contents are stream
// data only.
func newAVIX(md *types.Metadata, dir *types.Directory) walker.Handler {
	n, _ := dir.GetInt("Extended Segments")
	dir.Set("Extended Segments", n+1)
	return &walker.Base{Dir: dir}
}

func (a *avi) AcceptContainer(h *walker.Header) bool {
	return h.SubType == "hdrl" || h.SubType == "INFO"
}

func (a *avi) AcceptLeaf(h *walker.Header) bool {
	return h.Type == "idx1" || isID3(h.Type)
}

func (a *avi) ProcessContainer(h *walker.Header, _ *binary.Cursor) (walker.Handler, error) {
	if h.SubType == "INFO" {
		return newInfo(a.md), nil
	}
	return &aviHeader{Base: a.Base, md: a.md}, nil
}

func (a *avi) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type == "idx1" {
		a.Dir.Set("Index Entries", len(payload)/16)
		return nil, nil
	}
	return nil, id3.Decode(payload, a.md)
}

// aviHeader interprets LIST hdrl. Each stream list gets its own directory.
type aviHeader struct {
	walker.Base
	md      *types.Metadata
	streams int
}

func (a *aviHeader) AcceptContainer(h *walker.Header) bool {
	return h.SubType == "strl" || h.SubType == "odml"
}

func (a *aviHeader) AcceptLeaf(h *walker.Header) bool { return h.Type == "avih" }

func (a *aviHeader) ProcessContainer(h *walker.Header, _ *binary.Cursor) (walker.Handler, error) {
	if h.SubType == "odml" {
		return &odml{Base: a.Base}, nil
	}
	a.streams++
	dir := types.NewDirectory("AVI Stream")
	dir.Set("Stream Index", a.streams-1)
	a.md.AddDirectory(dir)
	return &stream{Base: walker.Base{Dir: dir}}, nil
}

func (a *aviHeader) ProcessLeaf(_ *walker.Header, payload []byte) (walker.Handler, error) {
	ch := binary.ChainBytes(payload, binary.LittleEndian)
	usPerFrame := ch.U32("microseconds per frame")
	maxRate := ch.U32("max bytes per second")
	ch.Skip(4, "padding granularity")
	flags := ch.U32("flags")
	frames := ch.U32("total frames")
	ch.Skip(4, "initial frames")
	streams := ch.U32("stream count")
	ch.Skip(4, "suggested buffer size")
	width := ch.U32("width")
	height := ch.U32("height")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	if usPerFrame > 0 {
		fps := 1e6 / float64(usPerFrame)
		a.Dir.Set("Frame Rate", float64(int64(fps*1000+0.5))/1000)
		a.Dir.Set("Duration", time.Duration(frames)*time.Duration(usPerFrame)*time.Microsecond)
	}
	a.Dir.Set("Max Data Rate", maxRate)
	a.Dir.Set("Has Index", flags&0x10 != 0)
	a.Dir.Set("Frame Count", frames)
	a.Dir.Set("Stream Count", streams)
	a.Dir.Set("Image Width", width)
	a.Dir.Set("Image Height", height)
	return nil, nil
}

// odml interprets the OpenDML extended header list.
type odml struct{ walker.Base }

func (o *odml) AcceptLeaf(h *walker.Header) bool { return h.Type == "dmlh" }

func (o *odml) ProcessLeaf(_ *walker.Header, payload []byte) (walker.Handler, error) {
	ch := binary.ChainBytes(payload, binary.LittleEndian)
	frames := ch.U32("total frames")
	if err := ch.Error(); err != nil {
		return nil, err
	}
	o.Dir.Set("Total Frame Count", frames)
	return nil, nil
}

var streamTypes = map[string]string{
	"vids": "Video",
	"auds": "Audio",
	"mids": "MIDI",
	"txts": "Text",
}

// stream interprets one LIST strl. The strh chunk decides how the strf
// chunk that follows is read, so it hands off to a video or audio stream.
type stream struct{ walker.Base }

func (s *stream) AcceptLeaf(h *walker.Header) bool {
	return h.Type == "strh" || h.Type == "strn"
}

func (s *stream) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type == "strn" {
		s.Dir.SetString("Stream Name", text(payload))
		return nil, nil
	}

	ch := binary.ChainBytes(payload, binary.LittleEndian)
	fccType := ch.String(4, "stream type")
	handler := ch.String(4, "stream handler")
	ch.Skip(4+2+2+4, "flags, priority, language and initial frames")
	scale := ch.U32("scale")
	rate := ch.U32("rate")
	ch.Skip(4, "start")
	length := ch.U32("length")
	ch.Skip(4, "suggested buffer size")
	quality := ch.U32("quality")
	sampleSize := ch.U32("sample size")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	if name, ok := streamTypes[fccType]; ok {
		s.Dir.Set("Stream Type", name)
	} else {
		s.Dir.Set("Stream Type", fccType)
	}
	s.Dir.SetString("Codec", strings.TrimRight(handler, "\x00 "))
	if scale > 0 && rate > 0 {
		r := float64(rate) / float64(scale)
		s.Dir.Set("Rate", float64(int64(r*1000+0.5))/1000)
		secs := float64(length) * float64(scale) / float64(rate)
		s.Dir.Set("Stream Duration", time.Duration(secs*float64(time.Second)))
	}
	if quality != 0xFFFFFFFF {
		s.Dir.Set("Quality", quality)
	}
	s.Dir.Set("Sample Size", sampleSize)

	switch fccType {
	case "vids":
		return &videoStream{stream: *s}, nil
	case "auds":
		return &audioStream{stream: *s}, nil
	}
	return nil, nil
}

type videoStream struct{ stream }

func (v *videoStream) AcceptLeaf(h *walker.Header) bool {
	return h.Type == "strf" || v.stream.AcceptLeaf(h)
}

func (v *videoStream) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type != "strf" {
		return v.stream.ProcessLeaf(h, payload)
	}

	ch := binary.ChainBytes(payload, binary.LittleEndian)
	ch.Skip(4, "header size")
	width := ch.I32("width")
	height := ch.I32("height")
	planes := ch.U16("planes")
	bits := ch.U16("bit count")
	compression := ch.Bytes(4, "compression")
	imageSize := ch.U32("image size")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	v.Dir.Set("Image Width", width)
	// Negative heights mark top-down bitmaps.
	v.Dir.Set("Image Height", max(height, -height))
	v.Dir.Set("Planes", planes)
	v.Dir.Set("Bit Depth", bits)
	v.Dir.Set("Compression", compressionName(compression))
	v.Dir.Set("Image Length", imageSize)
	return nil, nil
}

// compressionName renders a BITMAPINFOHEADER compression value, which is
// either a small integer or a FourCC.
func compressionName(b []byte) string {
	switch n := binary.Decode[uint32](b, binary.LittleEndian); n {
	case 0:
		return "None"
	case 1:
		return "RLE8"
	case 2:
		return "RLE4"
	case 3:
		return "Bitfields"
	default:
		if n < 0x20202020 {
			return fmt.Sprintf("Unknown (%d)", n)
		}
	}
	return strings.TrimRight(string(b), "\x00 ")
}

type audioStream struct{ stream }

func (a *audioStream) AcceptLeaf(h *walker.Header) bool {
	return h.Type == "strf" || a.stream.AcceptLeaf(h)
}

func (a *audioStream) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type != "strf" {
		return a.stream.ProcessLeaf(h, payload)
	}
	f, err := DecodeWaveFormat(payload)
	if f != nil {
		f.Set(a.Dir)
	}
	return nil, err
}
