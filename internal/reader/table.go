package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-normalizer/internal/adapter/export"
	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// tableColumns is the positional layout of a plain tabular file. Header
// names are not checked.
var tableColumns = []string{"month", "day", "hour", "tdb", "tdp", "rh", "ghi", "dni", "dhi", "wspd", "wdr"}

var tableFields = []domain.Field{
	domain.TDB, domain.TDP, domain.RH,
	domain.GHI, domain.DNI, domain.DHI,
	domain.WSpd, domain.WDr,
}

// TableReader reads the plain 11-column CSV layout and previously exported
// normalized tables.
type TableReader struct {
	opts Options
}

// NewTableReader creates a TableReader.
func NewTableReader(opts Options) *TableReader {
	return &TableReader{opts: opts.withDefaults()}
}

// Read parses a plain tabular file: one header row, then rows of exactly
// eleven columns consumed verbatim. Rows are stamped hourly from the start
// of the reference year.
func (r *TableReader) Read(ctx context.Context, station, path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read csv %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(tableColumns)
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		return domain.Table{}, fmt.Errorf("read csv %s: header: %w", path, err)
	}

	start := time.Date(r.opts.ReferenceYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	table := domain.Table{Station: station, Format: domain.FormatCSV}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("read csv %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return domain.Table{}, err
		}
		rec, err := parseTableRow(row, start.Add(time.Duration(table.Len())*time.Hour))
		if err != nil {
			return domain.Table{}, fmt.Errorf("read csv %s: row %d: %w", path, table.Len()+1, err)
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// ReadCache loads a table written by the export adapter (.csv or .csv.zst).
func (r *TableReader) ReadCache(_ context.Context, station, path string) (domain.Table, error) {
	t, err := export.Load(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read cache %s: %w", path, err)
	}
	if station != "" {
		t.Station = station
	}
	t.Format = domain.FormatCache
	return t, nil
}

func parseTableRow(row []string, ts time.Time) (domain.Record, error) {
	var keys [3]int
	for k := range keys {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[k]), 64)
		if err != nil {
			return domain.Record{}, fmt.Errorf("%s: %w", tableColumns[k], err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.Record{}, fmt.Errorf("%s: non-finite value %q", tableColumns[k], row[k])
		}
		keys[k] = int(v)
	}

	rec := domain.Record{
		Timestamp: ts,
		Month:     keys[0],
		Day:       keys[1],
		DayOfYear: ts.YearDay(),
		Hour:      keys[2],
	}
	for k, field := range tableFields {
		col := 3 + k
		v, err := parseNumber(row[col])
		if err != nil {
			return domain.Record{}, fmt.Errorf("%s: %w", tableColumns[col], err)
		}
		rec = rec.SetValue(field, v)
	}
	return rec, nil
}
