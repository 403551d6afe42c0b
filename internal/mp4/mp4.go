// Package mp4 extracts metadata from ISO base media files: MP4, M4A, M4B,
// 3GP and Canon CR3.
//
// The root handler decodes movie-level boxes into the "MP4" directory.
// Each trak gets its own handler and "MP4 Track" directory; the hdlr box
// inside mdia then hands the rest of that mdia over to a sound, video or
// hint handler that understands the media-specific boxes.
package mp4

import (
	"context"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// Extract walks the boxes at the cursor and adds the MP4 directories to md.
func Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	dir := types.NewDirectory("MP4")
	md.AddDirectory(dir)
	return walker.New(walker.BoxReader{UserTypes: true}, cfg).
		Walk(ctx, c, walker.Unbounded, newRoot(md, dir))
}

func init() {
	for _, f := range []types.Format{
		types.FormatMP4,
		types.FormatM4A,
		types.FormatM4B,
		types.Format3GP,
		types.FormatCR3,
	} {
		registry.Register(f, registry.ExtractorFunc(Extract))
	}
}

// root handles the top level and the movie box.
type root struct {
	walker.Base
	md        *types.Metadata
	timescale uint32
	fragments int
}

func newRoot(md *types.Metadata, dir *types.Directory) *root {
	return &root{Base: walker.Base{Dir: dir}, md: md}
}

func (r *root) AcceptContainer(h *walker.Header) bool {
	switch h.Type {
	case "moov", "udta", "meta", "trak", "mvex", "moof":
		return true
	case "uuid":
		return h.UserType == canonUUID
	}
	return false
}

func (r *root) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "ftyp", "mvhd", "mehd", "mfhd", "chpl":
		return true
	}
	_, ok := udtaStrings[h.Type]
	return ok || h.Type == "yrrc"
}

func (r *root) ProcessContainer(h *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	switch h.Type {
	case "trak":
		return newTrack(r.md), nil
	case "meta":
		if _, _, err := bmff.ReadFullBoxPreamble(c); err != nil {
			return nil, err
		}
		return bmff.NewMeta(r.md, r.Dir, "MP4"), nil
	case "moof":
		r.fragments++
		r.Dir.Set("Movie Fragments", r.fragments)
	case "uuid":
		dir := types.NewDirectory("Canon")
		r.md.AddDirectory(dir)
		return &canon{Base: walker.Base{Dir: dir}}, nil
	}
	return nil, nil
}

func (r *root) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "ftyp":
		return nil, bmff.DecodeFtyp(payload, r.Dir)
	case "mvhd":
		ts, err := bmff.DecodeMvhd(payload, r.Dir)
		if ts != 0 {
			r.timescale = ts
		}
		return nil, err
	case "mehd":
		return nil, decodeMehd(payload, r.timescale, r.Dir)
	case "mfhd":
		return nil, decodeMfhd(payload, r.Dir)
	case "chpl":
		chapters, err := bmff.DecodeChpl(payload)
		types.SetChapters(r.Dir, chapters)
		return nil, err
	case "yrrc":
		return nil, decodeYear(payload, r.Dir)
	}
	return nil, decodeUdtaString(h.Type, payload, r.Dir)
}

// track handles one trak branch until its hdlr declares the media type.
type track struct {
	walker.Base
	md        *types.Metadata
	timescale uint32
}

func newTrack(md *types.Metadata) *track {
	dir := types.NewDirectory("MP4 Track")
	md.AddDirectory(dir)
	return &track{Base: walker.Base{Dir: dir}, md: md}
}

func (t *track) AcceptContainer(h *walker.Header) bool {
	switch h.Type {
	case "mdia", "minf", "stbl", "edts":
		return true
	}
	return false
}

func (t *track) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "tkhd", "mdhd", "hdlr", "elst":
		return true
	}
	return false
}

func (t *track) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "tkhd":
		return nil, bmff.DecodeTkhd(payload, t.Dir)
	case "mdhd":
		ts, err := bmff.DecodeMdhd(payload, t.Dir)
		t.timescale = ts
		return nil, err
	case "elst":
		return nil, decodeElst(payload, t.Dir)
	}

	hd, err := bmff.DecodeHdlr(payload)
	if err != nil {
		return nil, err
	}
	hd.Set(t.Dir)
	switch hd.Type {
	case "soun":
		return &sound{Base: t.media("MP4 Sound")}, nil
	case "vide":
		return &video{Base: t.media("MP4 Video"), timescale: t.timescale}, nil
	case "hint":
		return &hint{Base: t.media("MP4 Hint")}, nil
	}
	return nil, nil
}

func (t *track) media(name string) walker.Base {
	dir := types.NewDirectory(name)
	t.md.AddDirectory(dir)
	return walker.Base{Dir: dir}
}

type sound struct {
	walker.Base
}

func (s *sound) AcceptContainer(h *walker.Header) bool {
	return h.Type == "minf" || h.Type == "stbl"
}

func (s *sound) AcceptLeaf(h *walker.Header) bool {
	return h.Type == "smhd" || h.Type == "stsd"
}

func (s *sound) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type == "smhd" {
		return nil, bmff.DecodeSmhd(payload, s.Dir)
	}
	e, err := bmff.DecodeAudioEntry(payload)
	if e != nil {
		e.Set(s.Dir)
	}
	return nil, err
}

type video struct {
	walker.Base
	timescale uint32
}

func (v *video) AcceptContainer(h *walker.Header) bool {
	return h.Type == "minf" || h.Type == "stbl"
}

func (v *video) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "vmhd", "stsd", "stts":
		return true
	}
	return false
}

func (v *video) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "vmhd":
		return nil, bmff.DecodeVmhd(payload, v.Dir)
	case "stts":
		return nil, bmff.DecodeStts(payload, v.timescale, v.Dir)
	}
	e, err := bmff.DecodeVisualEntry(payload)
	if e != nil {
		e.Set(v.Dir)
	}
	return nil, err
}

type hint struct {
	walker.Base
}

func (hh *hint) AcceptContainer(h *walker.Header) bool { return h.Type == "minf" }

func (hh *hint) AcceptLeaf(h *walker.Header) bool { return h.Type == "hmhd" }

func (hh *hint) ProcessLeaf(_ *walker.Header, payload []byte) (walker.Handler, error) {
	return nil, bmff.DecodeHmhd(payload, hh.Dir)
}
