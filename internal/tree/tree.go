// Package tree prints the record structure of a file, one line per record,
// indented by nesting depth.
package tree

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// boxContainers are the boxes whose payload is a list of child boxes.
var boxContainers = map[string]bool{
	"moov": true,
	"trak": true,
	"mdia": true,
	"minf": true,
	"stbl": true,
	"udta": true,
	"meta": true,
	"ilst": true,
	"edts": true,
	"dinf": true,
	"mvex": true,
	"moof": true,
	"traf": true,
	"iprp": true,
	"ipco": true,
	"tref": true,
	"gmhd": true,
}

type dialect int

const (
	boxes dialect = iota
	chunks
	segments
)

// readerFor returns the header reader and dialect for format.
func readerFor(format types.Format) (walker.HeaderReader, dialect, error) {
	switch format {
	case types.FormatQuickTime, types.FormatMP4, types.FormatM4A, types.FormatM4B,
		types.Format3GP, types.FormatHEIF, types.FormatAVIF, types.FormatCR3:
		return walker.BoxReader{UserTypes: true}, boxes, nil
	case types.FormatWAV, types.FormatAVI, types.FormatWebP, types.FormatRIFF:
		return walker.ChunkReader{}, chunks, nil
	case types.FormatAIFF:
		return walker.ChunkReader{IFF: true}, chunks, nil
	case types.FormatJPEG:
		return walker.SegmentReader{}, segments, nil
	}
	return nil, 0, fmt.Errorf("no record structure for %s", format)
}

// Dump walks the records at the cursor and writes them to w. Malformed
// structure ends the affected container; the messages are returned in the
// order they were recorded.
func Dump(ctx context.Context, c *binary.Cursor, format types.Format, w io.Writer, cfg walker.Config) ([]string, error) {
	r, d, err := readerFor(format)
	if err != nil {
		return nil, err
	}
	errs := types.NewDirectory("Tree")
	root := &dumper{Base: walker.Base{Dir: errs}, out: w, dialect: d}
	if err := walker.New(r, cfg).Walk(ctx, c, walker.Unbounded, root); err != nil {
		return nil, err
	}
	return errs.Errors(), nil
}

// dumper prints every record it is offered. It never decodes payloads, so
// leaves are skipped by the walker.
type dumper struct {
	walker.Base
	out     io.Writer
	dialect dialect
	depth   int
	parent  string
}

func (d *dumper) AcceptContainer(h *walker.Header) bool {
	fmt.Fprintf(d.out, "%s%s\n", strings.Repeat("  ", d.depth), line(h))

	switch d.dialect {
	case boxes:
		// Every child of an item list is an item holding data boxes.
		return boxContainers[h.Type] || d.parent == "ilst"
	case chunks:
		return h.SubType != ""
	}
	return false
}

func (d *dumper) ProcessContainer(h *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	if d.dialect == boxes && h.Type == "meta" && bmff.IsFullBoxMeta(c) {
		if _, _, err := bmff.ReadFullBoxPreamble(c); err != nil {
			return nil, err
		}
	}
	return &dumper{
		Base:    d.Base,
		out:     d.out,
		dialect: d.dialect,
		depth:   d.depth + 1,
		parent:  h.Type,
	}, nil
}

func line(h *walker.Header) string {
	name := h.Type
	if h.SubType != "" {
		name += " " + h.SubType
	}
	if h.UserType != uuid.Nil {
		name += " " + h.UserType.String()
	}
	// Box types may hold the © byte.
	if decoded, err := charmap.Macintosh.NewDecoder().String(name); err == nil {
		name = decoded
	}

	size := h.Length.Kind.String()
	if h.Length.Kind == walker.Bounded {
		size = fmt.Sprintf("%d", h.Length.N)
	}
	return fmt.Sprintf("%s (size: %s, offset: %d)", name, size, h.Start)
}
