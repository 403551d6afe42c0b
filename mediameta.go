package mediameta

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/sniff"
	"github.com/simonhull/mediameta/internal/types"

	// Format extractors register themselves.
	_ "github.com/simonhull/mediameta/internal/flac"
	_ "github.com/simonhull/mediameta/internal/heif"
	_ "github.com/simonhull/mediameta/internal/jpeg"
	_ "github.com/simonhull/mediameta/internal/mp3"
	_ "github.com/simonhull/mediameta/internal/mp4"
	_ "github.com/simonhull/mediameta/internal/ogg"
	_ "github.com/simonhull/mediameta/internal/quicktime"
	_ "github.com/simonhull/mediameta/internal/riff"
	_ "github.com/simonhull/mediameta/internal/tiff"
)

// Metadata is the result of one extraction: an ordered list of
// Directories.
type Metadata = types.Metadata

// Directory is a named, ordered set of tags plus the errors recorded
// while filling it.
type Directory = types.Directory

// Tag is one name/value pair of a Directory.
type Tag = types.Tag

// Extract reads metadata from a forward-only stream. Records are skipped
// by reading past them, so the whole input may be consumed.
//
// Example:
//
//	resp, err := http.Get(url)
//	if err != nil {
//		return err
//	}
//	defer resp.Body.Close()
//	md, err := mediameta.Extract(resp.Body)
func Extract(r io.Reader, opts ...Option) (*Metadata, error) {
	return ExtractReaderContext(context.Background(), r, opts...)
}

// ExtractReaderContext is Extract with cancellation.
func ExtractReaderContext(ctx context.Context, r io.Reader, opts ...Option) (*Metadata, error) {
	br := bufio.NewReader(r)
	// Peek returns what it could along with io.EOF for short inputs.
	prefix, err := br.Peek(sniff.PrefixLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read prefix: %w", err)
	}
	return extract(ctx, binary.NewStreamCursor(br, ""), prefix, "", -1, newOptions(opts))
}

// ExtractReaderAt reads metadata from random-access data of known size.
// Skipped records are never read.
func ExtractReaderAt(r io.ReaderAt, size int64, opts ...Option) (*Metadata, error) {
	return extractReaderAt(context.Background(), r, size, "", newOptions(opts))
}

// ExtractFile reads metadata from the file at path. Failing to open or
// stat the file is the only error returned outside strict mode.
func ExtractFile(path string, opts ...Option) (*Metadata, error) {
	return ExtractContext(context.Background(), path, opts...)
}

// ExtractContext is ExtractFile with cancellation. The context is checked
// before every record.
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	md, err := mediameta.ExtractContext(ctx, "clip.mp4")
func ExtractContext(ctx context.Context, path string, opts ...Option) (*Metadata, error) {
	return extractFile(ctx, path, newOptions(opts))
}

func extractFile(ctx context.Context, path string, o *options) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return extractReaderAt(ctx, f, stat.Size(), path, o)
}

func extractReaderAt(ctx context.Context, r io.ReaderAt, size int64, path string, o *options) (*Metadata, error) {
	prefix, err := readPrefix(r, size)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read prefix: %w", err)
	}
	return extract(ctx, binary.NewBufferCursor(r, size, path), prefix, path, size, o)
}

// extract sniffs the format, runs its extractor and applies the error
// options. The only errors it returns are cancellation and strict-mode
// failures.
func extract(ctx context.Context, c *binary.Cursor, prefix []byte, path string, size int64, o *options) (*Metadata, error) {
	format := o.format
	if format == FormatUnknown {
		format = Sniff(prefix)
	}
	md := types.NewMetadata(path, format, size)
	o.logger.Debug("extract", "path", path, "format", format.String(), "size", size)

	if format == FormatUnknown {
		if o.strict {
			return md, &UnsupportedFormatError{Path: path, Reason: "unrecognized file signature"}
		}
		return md, nil
	}
	md.AddDirectory(fileType(format))

	ex := registry.Get(format)
	if ex == nil {
		if o.strict {
			return md, &UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("no extractor for %s", format)}
		}
		return md, nil
	}
	if err := ex.Extract(ctx, c, md, o.walkerConfig()); err != nil {
		return nil, err
	}

	if o.ignoreErrors {
		for _, d := range md.Directories() {
			d.ClearErrors()
		}
	}
	md.Compact()

	if o.strict && md.HasErrors() {
		return md, fmt.Errorf("strict parsing failed: %s", md.Errors()[0])
	}
	return md, nil
}

// fileType describes the detected format.
func fileType(f Format) *Directory {
	d := types.NewDirectory("File Type")
	d.Set("File Type", f.String())
	d.Set("File Type Description", f.LongName())
	d.SetString("MIME Type", f.MIMEType())
	if ext := f.Extensions(); len(ext) > 0 {
		d.Set("File Type Extension", ext[0][1:])
	}
	return d
}

// ExtractMany extracts metadata from several files concurrently, at most
// WithWorkers at a time. Results are in the order of paths.
//
// The first failure cancels the remaining work and is returned with no
// results.
//
//	results, err := mediameta.ExtractMany(ctx, paths, mediameta.WithWorkers(4))
func ExtractMany(ctx context.Context, paths []string, opts ...Option) ([]*Metadata, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	o := newOptions(opts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	results := make([]*Metadata, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			md, err := extractFile(ctx, path, o)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = md
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
