package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
	"github.com/couchcryptid/weather-normalizer/internal/observability"
	"github.com/couchcryptid/weather-normalizer/internal/reader"
)

// ErrNoStation is returned for ingest requests without a station code.
var ErrNoStation = errors.New("ingest request has no station")

// TableSource reads a typical-year file. Both reader.Dispatcher and the
// table cache implement it.
type TableSource interface {
	Read(ctx context.Context, station, path string, hint domain.Format) (domain.Table, error)
}

// WeatherTransformer implements Transformer. Requests naming a single file
// go through the table source; requests listing provider files are
// assembled into an actual year.
type WeatherTransformer struct {
	source    TableSource
	assembler *reader.Assembler
	metrics   *observability.Metrics
	logger    *slog.Logger
	newRunID  func() string
}

// NewTransformer creates a WeatherTransformer.
func NewTransformer(source TableSource, assembler *reader.Assembler, metrics *observability.Metrics, logger *slog.Logger) *WeatherTransformer {
	return &WeatherTransformer{
		source:    source,
		assembler: assembler,
		metrics:   metrics,
		logger:    logger,
		newRunID:  uuid.NewString,
	}
}

func (t *WeatherTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.NormalizedTable, error) {
	req, err := domain.ParseIngestRequest(raw)
	if err != nil {
		return domain.NormalizedTable{}, err
	}
	if req.Station == "" {
		return domain.NormalizedTable{}, ErrNoStation
	}

	var table domain.Table
	if len(req.Sources) > 0 {
		var report reader.AssemblyReport
		table, report, err = t.assembler.AssembleFromRequest(ctx, req)
		if err != nil {
			return domain.NormalizedTable{}, fmt.Errorf("assemble station %s: %w", req.Station, err)
		}
		t.metrics.ValuesCleared.Add(float64(report.Cleared))
		t.logger.Debug("actual year assembled",
			"station", req.Station,
			"observations", report.Observations,
			"rows", report.Rows,
			"cleared", report.Cleared,
		)
	} else {
		table, err = t.source.Read(ctx, req.Station, req.Path, domain.ParseFormat(req.Format))
		if err != nil {
			return domain.NormalizedTable{}, fmt.Errorf("read station %s: %w", req.Station, err)
		}
	}

	if table.Empty() {
		return domain.NormalizedTable{}, fmt.Errorf("station %s: no usable records", req.Station)
	}
	return domain.NewNormalizedTable(t.newRunID(), table), nil
}
