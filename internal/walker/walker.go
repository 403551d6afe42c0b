package walker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/types"
)

const (
	// DefaultMaxDepth bounds container nesting.
	DefaultMaxDepth = 64

	// DefaultMaxPayload bounds the size of a single materialized leaf.
	DefaultMaxPayload int64 = 64 << 20
)

// Config controls traversal limits and logging.
type Config struct {
	MaxDepth   int
	MaxPayload int64
	Logger     *slog.Logger
}

// DefaultConfig returns the default limits with logging discarded.
func DefaultConfig() Config {
	return Config{
		MaxDepth:   DefaultMaxDepth,
		MaxPayload: DefaultMaxPayload,
		Logger:     slog.New(slog.DiscardHandler),
	}
}

// Normalized fills unset limits with their defaults and a nil Logger with a
// discarding one.
func (cfg Config) Normalized() Config {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = DefaultMaxPayload
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// Walker traverses one container dialect.
type Walker struct {
	reader HeaderReader
	cfg    Config
}

// New creates a Walker reading headers with r.
func New(r HeaderReader, cfg Config) *Walker {
	return &Walker{reader: r, cfg: cfg.Normalized()}
}

// outcome is the result of processing one record.
type outcome int

const (
	next outcome = iota
	endOfContainer
	failed
	// truncated means the data ended inside a record. It has been recorded
	// once; enclosing containers stop without recording it again.
	truncated
	canceled
)

// Walk visits the records between the cursor's position and end (or
// Unbounded) with h. Malformed content is recorded on the active handler's
// Directory; the only error returned is the context's.
func (w *Walker) Walk(ctx context.Context, c *binary.Cursor, end int64, h Handler) error {
	_, err := w.walk(ctx, c, end, h, 0, false)
	return err
}

// walk visits one container's records. clamped is set when end was cut
// back to the end of the data after the overrun was recorded.
func (w *Walker) walk(ctx context.Context, c *binary.Cursor, end int64, h Handler, depth int, clamped bool) (outcome, error) {
	for end == Unbounded || c.Position() < end {
		start := c.Position()

		res, err := w.step(ctx, c, end, &h, depth, clamped)
		switch res {
		case canceled, truncated:
			return res, err
		case endOfContainer, failed:
			return next, nil
		}

		if c.Position() <= start {
			// Cannot happen with a conforming HeaderReader, but a stuck
			// cursor would never terminate.
			record(h, fmt.Errorf("no progress at offset %d", start))
			return next, nil
		}
	}
	return next, nil
}

// step reads one header and dispatches it. h is the frame's current handler
// and is replaced when ProcessLeaf hands off.
func (w *Walker) step(ctx context.Context, c *binary.Cursor, end int64, h *Handler, depth int, clamped bool) (outcome, error) {
	if err := ctx.Err(); err != nil {
		return canceled, err
	}

	hdr, err := w.reader.ReadHeader(c)
	if err != nil {
		if errors.Is(err, types.ErrInsufficientData) || errors.Is(err, ErrEndOfContainer) {
			return endOfContainer, nil
		}
		record(*h, err)
		return failed, nil
	}

	// Trailing bytes too short for a full header inside a bounded container.
	if end != Unbounded && c.Position() > end {
		return endOfContainer, nil
	}

	switch hdr.Length.Kind {
	case Unknowable:
		w.cfg.Logger.Debug("unknowable record length", "type", hdr.Type, "offset", hdr.Start, "depth", depth)
		return endOfContainer, nil
	case Invalid:
		reason := fmt.Sprintf("declared size %d is smaller than header size %d", hdr.Length.N, hdr.HeaderLen)
		if hdr.Length.N < 0 {
			reason = "declared size does not fit in 63 bits"
		}
		record(*h, &types.MalformedHeaderError{
			Path:   c.Path(),
			Type:   hdr.Type,
			Offset: hdr.Start,
			Reason: reason,
		})
		return failed, nil
	}

	recEnd := hdr.End(end)
	if recEnd == Unbounded && c.Length() >= 0 {
		recEnd = c.Length()
	}
	// overrun marks a record cut short by the end of the data. Containers
	// are clamped to the data so the children that are present still get
	// decoded; anything else stops the walk.
	overrun := false
	if hdr.Length.Kind == Bounded {
		size := c.Length()
		switch {
		case size >= 0 && recEnd > size && (end == Unbounded || clamped):
			if !clamped {
				record(*h, &types.MalformedHeaderError{
					Path:   c.Path(),
					Type:   hdr.Type,
					Offset: hdr.Start,
					Reason: fmt.Sprintf("record end %d exceeds data size %d", recEnd, size),
				})
			}
			recEnd, overrun = size, true
		case end != Unbounded && recEnd > end:
			record(*h, &types.MalformedHeaderError{
				Path:   c.Path(),
				Type:   hdr.Type,
				Offset: hdr.Start,
				Reason: fmt.Sprintf("record end %d exceeds container end %d", recEnd, end),
			})
			return failed, nil
		}
	}

	w.cfg.Logger.Debug("record",
		"type", hdr.Type,
		"subtype", hdr.SubType,
		"offset", hdr.Start,
		"size", recEnd-hdr.Start,
		"depth", depth)

	cur := *h
	switch {
	case cur.AcceptContainer(hdr):
		res, err := w.container(ctx, c, hdr, recEnd, cur, depth, clamped || overrun)
		if res != next {
			return res, err
		}
	case overrun:
		return truncated, nil
	case cur.AcceptLeaf(hdr):
		if res := w.leaf(c, hdr, recEnd, h); res != next {
			return res, nil
		}
	default:
		if recEnd == Unbounded {
			return endOfContainer, nil
		}
		if err := c.Skip(recEnd-c.Position(), hdr.Type+" payload"); err != nil {
			return cutShort(*h, c, hdr, recEnd, err), nil
		}
	}

	if hdr.Padding > 0 && (end == Unbounded || c.Position()+hdr.Padding <= end) {
		if err := c.Skip(hdr.Padding, "pad byte"); err != nil {
			return endOfContainer, nil
		}
	}
	return next, nil
}

func (w *Walker) container(ctx context.Context, c *binary.Cursor, hdr *Header, recEnd int64, h Handler, depth int, clamped bool) (outcome, error) {
	if depth+1 > w.cfg.MaxDepth {
		record(h, &types.RecursionLimitError{Type: hdr.Type, Offset: hdr.Start, Depth: w.cfg.MaxDepth})
		return failed, nil
	}

	child, err := h.ProcessContainer(hdr, c)
	if err != nil {
		record(h, fmt.Errorf("%s: %w", hdr.Type, err))
		if errors.Is(err, types.ErrInsufficientData) {
			return truncated, nil
		}
	}
	if child == nil {
		child = h
	}

	if recEnd != Unbounded && c.Position() > recEnd {
		record(h, &types.MalformedHeaderError{
			Path:   c.Path(),
			Type:   hdr.Type,
			Offset: hdr.Start,
			Reason: "container preamble extends past record end",
		})
		return failed, nil
	}

	if err == nil {
		res, err := w.walk(ctx, c, recEnd, child, depth+1, clamped)
		if res != next {
			return res, err
		}
	}

	return resync(c, hdr, recEnd, h), nil
}

// resync moves the cursor to the end of a record whose children may have
// stopped early.
func resync(c *binary.Cursor, hdr *Header, recEnd int64, h Handler) outcome {
	if recEnd == Unbounded {
		return endOfContainer
	}
	pos := c.Position()
	switch {
	case pos < recEnd:
		if err := c.Skip(recEnd-pos, "container remainder"); err != nil {
			return cutShort(h, c, hdr, recEnd, err)
		}
	case pos > recEnd:
		if c.IsStream() || c.Seek(recEnd) != nil {
			return endOfContainer
		}
	}
	return next
}

func (w *Walker) leaf(c *binary.Cursor, hdr *Header, recEnd int64, h *Handler) outcome {
	if recEnd == Unbounded {
		return endOfContainer
	}

	n := recEnd - c.Position()
	if n > w.cfg.MaxPayload {
		record(*h, fmt.Errorf("%s payload of %d bytes at offset %d exceeds limit of %d bytes",
			hdr.Type, n, hdr.Start, w.cfg.MaxPayload))
		if err := c.Skip(n, hdr.Type+" payload"); err != nil {
			return cutShort(*h, c, hdr, recEnd, err)
		}
		return next
	}

	payload, err := c.Bytes(int(n), hdr.Type+" payload")
	if err != nil {
		return cutShort(*h, c, hdr, recEnd, err)
	}

	replacement, err := (*h).ProcessLeaf(hdr, payload)
	if err != nil {
		record(*h, fmt.Errorf("%s: %w", hdr.Type, err))
	}
	if replacement != nil {
		*h = replacement
	}
	return next
}

// cutShort records a failed read or skip inside hdr's record. A short read
// means the data ended at the cursor, which is reported like a buffer
// overrun.
func cutShort(h Handler, c *binary.Cursor, hdr *Header, recEnd int64, err error) outcome {
	if !errors.Is(err, types.ErrInsufficientData) {
		record(h, err)
		return failed
	}
	record(h, &types.MalformedHeaderError{
		Path:   c.Path(),
		Type:   hdr.Type,
		Offset: hdr.Start,
		Reason: fmt.Sprintf("record end %d exceeds data size %d", recEnd, c.Position()),
	})
	return truncated
}

func record(h Handler, err error) {
	if d := h.Directory(); d != nil {
		d.AddError(err.Error())
	}
}
