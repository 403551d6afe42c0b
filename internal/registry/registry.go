// Package registry maps container formats to their extractors.
package registry

import (
	"context"
	"slices"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// Extractor is the interface all format extractors implement.
type Extractor interface {
	// Extract walks the container at the cursor's position and adds
	// directories to md. Malformed content is recorded in those
	// directories; the only error returned is context cancellation.
	Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	return f(ctx, c, md, cfg)
}

// extractors maps formats to their extractors.
var extractors = make(map[types.Format]Extractor)

// Register registers an extractor for a format.
// This is called by format packages during initialization (init functions).
func Register(format types.Format, e Extractor) {
	extractors[format] = e
}

// Get returns the extractor for a given format.
// Returns nil if no extractor is registered for the format.
func Get(format types.Format) Extractor {
	return extractors[format]
}

// Formats returns every format with a registered extractor, in enum order.
func Formats() []types.Format {
	out := make([]types.Format, 0, len(extractors))
	for f := range extractors {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
