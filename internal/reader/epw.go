package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

const (
	epwPreambleLines = 8
	epwFields        = 32
	epwFieldsLong    = 35 // some US DOE files carry three trailing columns
)

// EPW column positions.
const (
	epwMonth = 1
	epwDay   = 2
	epwHour  = 3
	epwTDB   = 6
	epwTDP   = 7
	epwRH    = 8
	epwGHI   = 13
	epwDNI   = 14
	epwDHI   = 15
	epwWDr   = 20
	epwWSpd  = 21
)

// EPW header (LOCATION line) positions.
const (
	epwHdrName = 1
	epwHdrWMO  = 5
	epwHdrLat  = 6
	epwHdrLon  = 7
	epwHdrTZ   = 8
	epwHdrElev = 9
)

// EPWReader parses fixed-column annual tables.
type EPWReader struct {
	opts Options
}

// NewEPWReader creates an EPWReader.
func NewEPWReader(opts Options) *EPWReader {
	return &EPWReader{opts: opts.withDefaults()}
}

// Read parses a single EPW file.
func (r *EPWReader) Read(ctx context.Context, station, path string) (domain.Table, error) {
	return r.ReadFiles(ctx, station, []string{path})
}

// ReadFiles parses and concatenates several EPW files in the given order.
// No deduplication is done. An empty list yields an empty table.
func (r *EPWReader) ReadFiles(ctx context.Context, station string, paths []string) (domain.Table, error) {
	table := domain.Table{Station: station, Format: domain.FormatEPW}
	if len(paths) == 0 {
		r.opts.Logger.Warn("no epw files for station", "station", station)
		return table, nil
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return domain.Table{}, err
		}
		recs, err := r.readFile(p)
		if err != nil {
			return domain.Table{}, fmt.Errorf("read epw %s: %w", p, err)
		}
		table.Records = append(table.Records, recs...)
	}
	return table, nil
}

func (r *EPWReader) readFile(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	site, err := parseEPWHeader(header)
	if err != nil {
		return nil, err
	}

	for i := 1; i < epwPreambleLines; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("preamble line %d: %w", i+1, err)
		}
	}

	start := time.Date(r.opts.ReferenceYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]domain.Record, 0, HoursPerYear)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line := epwPreambleLines + len(recs) + 1
		if len(recs) == HoursPerYear {
			return nil, fmt.Errorf("line %d: more than %d data rows", line, HoursPerYear)
		}
		rec, err := parseEPWRow(row, start.Add(time.Duration(len(recs))*time.Hour), site)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}

	if len(recs) != HoursPerYear {
		return nil, fmt.Errorf("got %d data rows, want %d", len(recs), HoursPerYear)
	}
	return recs, nil
}

func parseEPWHeader(h []string) (*domain.Site, error) {
	if len(h) <= epwHdrElev {
		return nil, fmt.Errorf("header has %d fields, want at least %d", len(h), epwHdrElev+1)
	}
	nums := make([]float64, 0, 4)
	for _, i := range []int{epwHdrLat, epwHdrLon, epwHdrTZ, epwHdrElev} {
		v, err := parseNumber(h[i])
		if err != nil {
			return nil, fmt.Errorf("header field %d: %w", i, err)
		}
		nums = append(nums, v)
	}
	name := strings.TrimSpace(h[epwHdrName])
	return &domain.Site{
		Name:      name,
		Code:      domain.SiteCode(name),
		WMO:       domain.HarmonizeWMO(h[epwHdrWMO]),
		Latitude:  nums[0],
		Longitude: nums[1],
		TimeZone:  nums[2],
		Altitude:  nums[3],
	}, nil
}

func parseEPWRow(row []string, ts time.Time, site *domain.Site) (domain.Record, error) {
	if len(row) != epwFields && len(row) != epwFieldsLong {
		return domain.Record{}, fmt.Errorf("got %d fields, want %d or %d", len(row), epwFields, epwFieldsLong)
	}

	ints := [3]int{}
	for k, col := range []int{epwMonth, epwDay, epwHour} {
		n, err := strconv.Atoi(strings.TrimSpace(row[col]))
		if err != nil {
			return domain.Record{}, fmt.Errorf("column %d: %w", col, err)
		}
		ints[k] = n
	}

	rec := domain.Record{
		Timestamp: ts,
		Month:     ints[0],
		Day:       ints[1],
		DayOfYear: ts.YearDay(),
		Hour:      ints[2],
		Site:      site,
	}
	cols := []struct {
		col   int
		field domain.Field
	}{
		{epwTDB, domain.TDB}, {epwTDP, domain.TDP}, {epwRH, domain.RH},
		{epwGHI, domain.GHI}, {epwDNI, domain.DNI}, {epwDHI, domain.DHI},
		{epwWDr, domain.WDr}, {epwWSpd, domain.WSpd},
	}
	for _, c := range cols {
		v, err := parseNumber(row[c.col])
		if err != nil {
			return domain.Record{}, fmt.Errorf("column %d: %w", c.col, err)
		}
		rec = rec.SetValue(c.field, v)
	}
	return rec, nil
}
