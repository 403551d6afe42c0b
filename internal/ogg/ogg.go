// Package ogg extracts metadata from Ogg streams carrying Vorbis or Opus
// audio.
//
// Every Ogg page is walked as a record. Packets are reassembled per logical
// stream from the page lacing values until each stream's identification
// and comment headers are decoded. Durations come from the granule
// position of each stream's final page: on seekable sources it is found by
// scanning the end of the file, on streams by reading every page header.
package ogg

import (
	"context"
	"fmt"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

func init() {
	registry.Register(types.FormatOgg, registry.ExtractorFunc(Extract))
}

// Extract walks the pages of an Ogg stream.
func Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	cfg = cfg.Normalized()
	dir := types.NewDirectory("Ogg")
	md.AddDirectory(dir)

	r := newPageReader()
	h := &pages{
		Base:     walker.Base{Dir: dir},
		md:       md,
		r:        r,
		limit:    cfg.MaxPayload,
		seekable: !c.IsStream(),
		streams:  make(map[uint32]*logical),
	}
	if err := walker.New(r, cfg).Walk(ctx, c, walker.Unbounded, h); err != nil {
		return err
	}

	if len(h.order) == 0 {
		dir.AddError("no beginning-of-stream page")
		return nil
	}
	if r.stop {
		if err := lastGranules(c, r.granules); err != nil {
			dir.AddError(fmt.Sprintf("final page: %v", err))
		}
	}

	codecs := make([]string, 0, len(h.order))
	for _, serial := range h.order {
		l := h.streams[serial]
		codecs = append(codecs, l.codec)
		l.setDuration(r.granules[serial])
	}
	dir.Set("Stream Count", len(codecs))
	dir.Set("Codecs", codecs)
	return nil
}

// pages routes each page to its logical stream.
type pages struct {
	walker.Base
	md       *types.Metadata
	r        *pageReader
	limit    int64
	seekable bool
	streams  map[uint32]*logical
	order    []uint32
}

// AcceptLeaf materializes pages of streams whose headers are still
// pending. Once every stream is done a seekable walk stops; a stream walk
// goes on skipping pages so the reader sees the final granule positions.
func (h *pages) AcceptLeaf(*walker.Header) bool {
	p := h.r.page
	l, ok := h.streams[p.Serial]
	switch {
	case !ok && p.Flags&flagBOS != 0:
		return true
	case ok && !l.done:
		return true
	}
	if h.seekable && h.allDone() {
		h.r.stop = true
	}
	return false
}

func (h *pages) allDone() bool {
	for _, l := range h.streams {
		if !l.done {
			return false
		}
	}
	return len(h.streams) > 0
}

func (h *pages) ProcessLeaf(_ *walker.Header, payload []byte) (walker.Handler, error) {
	p := h.r.page
	l, ok := h.streams[p.Serial]
	if !ok {
		l = &logical{serial: p.Serial}
		h.streams[p.Serial] = l
		h.order = append(h.order, p.Serial)
	}

	packets, err := l.feed(p, payload, h.limit)
	for _, pkt := range packets {
		if l.done {
			break
		}
		if perr := l.header(pkt, h.md); perr != nil {
			h.Dir.AddError(fmt.Sprintf("stream %08X: %v", l.serial, perr))
		}
	}
	return nil, err
}
