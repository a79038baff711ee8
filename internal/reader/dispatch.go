package reader

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// ErrUnreadable is returned when a file is absent or no format could parse it.
var ErrUnreadable = errors.New("weather file unreadable")

// Outcome is the result of one reader attempt. Err is nil only when Table
// is non-empty.
type Outcome struct {
	Format domain.Format
	Table  domain.Table
	Err    error
}

// OK reports whether the attempt produced data.
func (o Outcome) OK() bool { return o.Err == nil }

// AttemptObserver is notified of every reader attempt.
type AttemptObserver interface {
	ObserveAttempt(format domain.Format, ok bool)
}

// Dispatcher routes a typical-year file to the reader for its format, then
// falls back through the configured format order.
type Dispatcher struct {
	epw      *EPWReader
	espr     *ESPrReader
	table    *TableReader
	opts     Options
	observer AttemptObserver
}

// NewDispatcher creates a Dispatcher. observer may be nil.
func NewDispatcher(opts Options, observer AttemptObserver) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		epw:      NewEPWReader(opts),
		espr:     NewESPrReader(opts),
		table:    NewTableReader(opts),
		opts:     opts,
		observer: observer,
	}
}

// Read parses path, trying hint first and then every format in order. The
// hinted format is tried again when its turn in the order comes. An empty
// hint skips straight to the cascade.
func (d *Dispatcher) Read(ctx context.Context, station, path string, hint domain.Format) (domain.Table, error) {
	log := d.opts.Logger.With("station", station, "path", path)

	if _, err := os.Stat(path); err != nil {
		log.Warn("weather file not found", "error", err)
		return domain.Table{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	plan := d.opts.FormatOrder
	if hint != "" {
		plan = append([]domain.Format{hint}, plan...)
	}

	var errs []error
	for i, f := range plan {
		if err := ctx.Err(); err != nil {
			return domain.Table{}, err
		}
		out := d.Attempt(ctx, station, path, f)
		if d.observer != nil {
			d.observer.ObserveAttempt(f, out.OK())
		}
		if out.OK() {
			log.Info("weather file read", "format", f, "rows", out.Table.Len())
			return out.Table, nil
		}
		if i == 0 && hint != "" {
			log.Warn("hinted format failed, trying all readers", "format", f, "error", out.Err)
		} else {
			log.Warn("reader attempt failed", "format", f, "error", out.Err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", f, out.Err))
	}

	log.Error("all readers failed", "attempts", len(plan))
	return domain.Table{}, fmt.Errorf("%w: %w", ErrUnreadable, errors.Join(errs...))
}

// Attempt runs the reader for one format. Reader panics are recovered into
// a failed Outcome.
func (d *Dispatcher) Attempt(ctx context.Context, station, path string, f domain.Format) (out Outcome) {
	out.Format = f
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Format: f, Err: fmt.Errorf("reader panic: %v", r)}
		}
	}()

	var (
		t   domain.Table
		err error
	)
	switch f {
	case domain.FormatEPW:
		t, err = d.epw.Read(ctx, station, path)
	case domain.FormatESPr:
		t, _, err = d.espr.Read(ctx, station, path)
	case domain.FormatCSV:
		t, err = d.table.Read(ctx, station, path)
	case domain.FormatCache:
		t, err = d.table.ReadCache(ctx, station, path)
	default:
		err = fmt.Errorf("unsupported format %q", f)
	}

	switch {
	case err != nil:
		out.Err = err
	case t.Empty():
		out.Err = errors.New("no records")
	default:
		out.Table = t
	}
	return out
}
