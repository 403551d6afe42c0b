// Package riff extracts metadata from chunk-based files: RIFF WAVE, AVI
// and WebP, plus AIFF, which uses the big-endian IFF variant of the same
// layout.
//
// Each extractor starts with a root handler that only accepts the outer
// group chunk of its form type. Everything below is interpreted by the
// form's handler; LIST INFO chunks and embedded ID3 tags are shared.
package riff

import (
	"context"
	"fmt"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/id3"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// form builds the handler for the children of the outer group chunk.
type form func(md *types.Metadata, dir *types.Directory) walker.Handler

// extractor returns an Extractor for one form type.
func extractor(dirName string, forms map[string]form, reader walker.ChunkReader) registry.ExtractorFunc {
	return func(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
		dir := types.NewDirectory(dirName)
		md.AddDirectory(dir)
		r := &root{Base: walker.Base{Dir: dir}, md: md, forms: forms}
		return walker.New(reader, cfg).Walk(ctx, c, walker.Unbounded, r)
	}
}

var (
	// ExtractWAV extracts RIFF WAVE audio.
	ExtractWAV = extractor("WAV", map[string]form{"WAVE": newWave}, walker.ChunkReader{})
	// ExtractAVI extracts RIFF AVI video, including OpenDML RIFF AVIX
	// extensions.
	ExtractAVI = extractor("AVI", map[string]form{"AVI ": newAVI, "AVIX": newAVIX}, walker.ChunkReader{})
	// ExtractWebP extracts WebP images.
	ExtractWebP = extractor("WebP", map[string]form{"WEBP": newWebP}, walker.ChunkReader{})
	// ExtractAIFF extracts AIFF and AIFF-C audio.
	ExtractAIFF = extractor("AIFF", map[string]form{"AIFF": newAIFF, "AIFC": newAIFF}, walker.ChunkReader{IFF: true})
	// ExtractRIFF handles RIFF files of any other form type. Only the form
	// type and shared chunks are decoded.
	ExtractRIFF = extractor("RIFF", nil, walker.ChunkReader{})
)

func init() {
	registry.Register(types.FormatWAV, ExtractWAV)
	registry.Register(types.FormatAVI, ExtractAVI)
	registry.Register(types.FormatWebP, ExtractWebP)
	registry.Register(types.FormatAIFF, ExtractAIFF)
	registry.Register(types.FormatRIFF, ExtractRIFF)
}

// root accepts the outer group chunks of its forms.
type root struct {
	walker.Base
	md    *types.Metadata
	forms map[string]form
}

func (r *root) AcceptContainer(h *walker.Header) bool {
	return h.SubType != ""
}

func (r *root) ProcessContainer(h *walker.Header, _ *binary.Cursor) (walker.Handler, error) {
	if f, ok := r.forms[h.SubType]; ok {
		return f(r.md, r.Dir), nil
	}
	if r.forms == nil {
		r.Dir.Set("Form Type", h.SubType)
		return &generic{Base: r.Base, md: r.md}, nil
	}
	return nil, fmt.Errorf("unexpected %s form type %q", h.Type, h.SubType)
}

// generic decodes only the chunks every RIFF form may carry.
type generic struct {
	walker.Base
	md *types.Metadata
}

func (g *generic) AcceptContainer(h *walker.Header) bool { return h.SubType == "INFO" }

func (g *generic) AcceptLeaf(h *walker.Header) bool { return isID3(h.Type) }

func (g *generic) ProcessContainer(*walker.Header, *binary.Cursor) (walker.Handler, error) {
	return newInfo(g.md), nil
}

func (g *generic) ProcessLeaf(_ *walker.Header, payload []byte) (walker.Handler, error) {
	return nil, id3.Decode(payload, g.md)
}

// peek reads up to n bytes of a chunk's payload and skips the rest, so
// large chunks such as audio data or image bitstreams are inspected
// without being materialized.
func peek(h *walker.Header, c *binary.Cursor, n int) ([]byte, error) {
	size := h.Length.N - h.HeaderLen
	if r := c.Remaining(); r >= 0 {
		// The walker has already recorded a chunk cut short by the data.
		size = min(size, r)
	}
	want := min(int64(n), size)
	b, err := c.Bytes(int(want), h.Type+" header")
	if err != nil {
		return nil, err
	}
	if err := c.Skip(size-want, h.Type+" data"); err != nil {
		return b, err
	}
	return b, nil
}
