// Package quicktime extracts metadata from QuickTime movies.
//
// QuickTime shares the box layout of ISO-BMFF but differs in the details
// that matter for traversal: "meta" is a plain atom inside moov and a full
// box inside udta, handler names are Pascal strings, and user data text is
// stored in international text records rather than item lists.
package quicktime

import (
	"context"
	"errors"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// ErrCompressedMovie is recorded for movies whose moov is compressed.
var ErrCompressedMovie = errors.New("Compressed QuickTime movies not supported") //nolint:staticcheck // shown to users as is

// Extract walks the atoms at the cursor and adds the QuickTime directories
// to md.
func Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	dir := types.NewDirectory("QuickTime")
	md.AddDirectory(dir)
	r := &movie{Base: walker.Base{Dir: dir}, md: md}
	return walker.New(walker.BoxReader{}, cfg).Walk(ctx, c, walker.Unbounded, r)
}

func init() {
	registry.Register(types.FormatQuickTime, registry.ExtractorFunc(Extract))
}

// movie handles the top level and the movie atom.
type movie struct {
	walker.Base
	md *types.Metadata
}

func (m *movie) AcceptContainer(h *walker.Header) bool {
	switch h.Type {
	case "moov", "trak", "udta", "meta":
		return true
	}
	return false
}

func (m *movie) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "ftyp", "mvhd", "pnot", "cmov":
		return true
	}
	return false
}

func (m *movie) ProcessContainer(h *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	switch h.Type {
	case "trak":
		return newTrack(m.md), nil
	case "udta":
		return &userData{Base: m.Base, md: m.md}, nil
	case "meta":
		return openMeta(c, false, m.md, m.Dir)
	}
	return nil, nil
}

func (m *movie) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "ftyp":
		return nil, bmff.DecodeFtyp(payload, m.Dir)
	case "mvhd":
		_, err := bmff.DecodeMvhd(payload, m.Dir)
		return nil, err
	case "pnot":
		return nil, decodePnot(payload, m.Dir)
	case "cmov":
		return nil, ErrCompressedMovie
	}
	return nil, nil
}

// openMeta prepares a meta atom. QuickTime writes a plain atom in moov and
// trak but a full box in udta; buffered input is probed instead, since
// writers disagree.
func openMeta(c *binary.Cursor, full bool, md *types.Metadata, dir *types.Directory) (walker.Handler, error) {
	if !c.IsStream() {
		full = bmff.IsFullBoxMeta(c)
	}
	if full {
		if _, _, err := bmff.ReadFullBoxPreamble(c); err != nil {
			return nil, err
		}
	}
	return bmff.NewMeta(md, dir, "QuickTime"), nil
}

// userData handles udta atoms.
type userData struct {
	walker.Base
	md *types.Metadata
}

func (u *userData) AcceptContainer(h *walker.Header) bool { return h.Type == "meta" }

func (u *userData) AcceptLeaf(h *walker.Header) bool {
	return len(h.Type) == 4 && h.Type[0] == 0xA9 || h.Type == "name"
}

func (u *userData) ProcessContainer(_ *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	return openMeta(c, true, u.md, u.Dir)
}

func (u *userData) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type == "name" {
		u.Dir.SetString("Name", macRoman(payload))
		return nil, nil
	}
	return nil, decodeText(h.Type, payload, u.Dir)
}

// track handles one trak branch until its media handler is known.
type track struct {
	walker.Base
	md        *types.Metadata
	timescale uint32
}

func newTrack(md *types.Metadata) *track {
	dir := types.NewDirectory("QuickTime Track")
	md.AddDirectory(dir)
	return &track{Base: walker.Base{Dir: dir}, md: md}
}

func (t *track) AcceptContainer(h *walker.Header) bool {
	switch h.Type {
	case "mdia", "minf", "udta", "meta":
		return true
	}
	return false
}

func (t *track) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "tkhd", "mdhd", "hdlr":
		return true
	}
	return false
}

func (t *track) ProcessContainer(h *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	switch h.Type {
	case "udta":
		return &userData{Base: t.Base, md: t.md}, nil
	case "meta":
		return openMeta(c, false, t.md, t.Dir)
	}
	return nil, nil
}

func (t *track) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "tkhd":
		return nil, bmff.DecodeTkhd(payload, t.Dir)
	case "mdhd":
		ts, err := bmff.DecodeMdhd(payload, t.Dir)
		t.timescale = ts
		return nil, err
	}

	hd, err := bmff.DecodeHdlr(payload)
	if err != nil {
		return nil, err
	}
	// The data handler inside minf describes storage, not the media.
	if hd.ComponentType == "dhlr" {
		return nil, nil
	}
	hd.Set(t.Dir)
	switch hd.Type {
	case "soun":
		return &sound{Base: t.media("QuickTime Sound")}, nil
	case "vide":
		return &video{Base: t.media("QuickTime Video"), timescale: t.timescale}, nil
	case "tmcd":
		return &timecode{Base: t.media("QuickTime Timecode")}, nil
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

// timecode handles tmcd tracks: the generic media header holds the
// display settings and the sample description the frame rate.
type timecode struct {
	walker.Base
}

func (tc *timecode) AcceptContainer(h *walker.Header) bool {
	switch h.Type {
	case "minf", "stbl", "gmhd", "tmcd":
		return true
	}
	return false
}

func (tc *timecode) AcceptLeaf(h *walker.Header) bool {
	return h.Type == "tcmi" || h.Type == "stsd"
}

func (tc *timecode) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type == "tcmi" {
		return nil, decodeTcmi(payload, tc.Dir)
	}
	return nil, decodeTimecodeEntry(payload, tc.Dir)
}
