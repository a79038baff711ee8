package reader

import (
	"context"
	"fmt"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// AssemblyReport summarizes one actual-year assembly.
type AssemblyReport struct {
	Observations int // raw rows read across all sources
	Rows         int // hourly rows after aggregation
	Cleared      int // values removed by range checks
}

// Assembler builds an actual-year table from raw provider files.
type Assembler struct {
	reader *ObservationReader
	ranges map[domain.Field]domain.Range
	opts   Options
}

// NewAssembler creates an Assembler. A nil ranges map selects
// domain.DefaultRanges.
func NewAssembler(opts Options, ranges map[domain.Field]domain.Range) *Assembler {
	opts = opts.withDefaults()
	if ranges == nil {
		ranges = domain.DefaultRanges
	}
	return &Assembler{reader: NewObservationReader(opts), ranges: ranges, opts: opts}
}

// Assemble reads every source in order, averages rows that share an hour,
// drops empty hours and clears implausible temperatures. Any unreadable
// source fails the whole assembly. No sources, or no usable rows, yields an
// empty table.
func (a *Assembler) Assemble(ctx context.Context, station string, sources []domain.SourceFile) (domain.Table, AssemblyReport, error) {
	var (
		all    []domain.Observation
		report AssemblyReport
	)
	for _, src := range sources {
		p, err := ParseProvider(src.Provider)
		if err != nil {
			return domain.Table{}, report, err
		}
		obs, err := a.reader.Read(ctx, p, src.Path)
		if err != nil {
			return domain.Table{}, report, err
		}
		a.opts.Logger.Debug("provider file read", "station", station, "provider", p, "path", src.Path, "rows", len(obs))
		all = append(all, obs...)
	}
	report.Observations = len(all)

	hourly := domain.Aggregate(all)
	hourly, report.Cleared = domain.Sanitize(hourly, a.ranges)
	report.Rows = len(hourly)

	if len(hourly) == 0 {
		a.opts.Logger.Warn("no usable observations for station", "station", station, "sources", len(sources))
	}
	return domain.ObservationsToTable(station, hourly), report, nil
}

// AssembleFromRequest is a convenience wrapper for ingest requests.
func (a *Assembler) AssembleFromRequest(ctx context.Context, req domain.IngestRequest) (domain.Table, AssemblyReport, error) {
	if len(req.Sources) == 0 {
		return domain.Table{}, AssemblyReport{}, fmt.Errorf("station %s: %w", req.Station, domain.ErrEmptyRequest)
	}
	return a.Assemble(ctx, req.Station, req.Sources)
}
