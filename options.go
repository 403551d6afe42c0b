package mediameta

import (
	"log/slog"
	"runtime"

	"github.com/simonhull/mediameta/internal/walker"
)

// Option configures an extraction.
//
// Options use the functional options pattern:
//
//	md, err := mediameta.ExtractFile("clip.mov",
//	    mediameta.WithMaxDepth(16),
//	    mediameta.WithStrictParsing(),
//	)
type Option func(*options)

type options struct {
	maxDepth     int
	maxPayload   int64
	logger       *slog.Logger
	strict       bool
	ignoreErrors bool
	format       Format
	workers      int
}

func defaultOptions() *options {
	return &options{
		maxDepth:   walker.DefaultMaxDepth,
		maxPayload: walker.DefaultMaxPayload,
		logger:     slog.New(slog.DiscardHandler),
		workers:    runtime.NumCPU(),
	}
}

func newOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) walkerConfig() walker.Config {
	return walker.Config{
		MaxDepth:   o.maxDepth,
		MaxPayload: o.maxPayload,
		Logger:     o.logger,
	}.Normalized()
}

// WithMaxDepth limits how deeply containers may nest. A container beyond
// the limit is recorded as an error and skipped. The default is 64.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithMaxPayload limits the size of a single record payload read into
// memory. Larger records are skipped with an error. The default is 64 MiB.
func WithMaxPayload(n int64) Option {
	return func(o *options) {
		o.maxPayload = n
	}
}

// WithLogger sets the logger that receives Debug records for every header
// visited. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrictParsing turns recorded errors into a returned error.
//
// By default, malformed structure is recorded on the Directory that was
// active when it was found and extraction carries on. With strict parsing
// the Metadata is still returned, together with an error describing the
// first problem. Unknown formats fail with *UnsupportedFormatError.
func WithStrictParsing() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithIgnoreErrors drops every recorded error from the result.
func WithIgnoreErrors() Option {
	return func(o *options) {
		o.ignoreErrors = true
	}
}

// WithFormat skips sniffing and extracts the input as format f.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithWorkers limits how many files ExtractMany processes at once. The
// default is runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}
