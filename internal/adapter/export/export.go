// Package export writes normalized tables to CSV, optionally zstd-compressed,
// and reads them back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// NA is written for missing values.
const NA = "NA"

// ZstdExt marks compressed exports.
const ZstdExt = ".zst"

var baseColumns = []string{
	"timestamp", "month", "day", "day_of_year", "hour",
	"tdb", "tdp", "rh", "ghi", "dni", "dhi", "wspd", "wdr",
}

var siteColumns = []string{"location", "loccode", "wmo", "latitude", "longitude", "tz", "altitude"}

var valueFields = []domain.Field{
	domain.TDB, domain.TDP, domain.RH,
	domain.GHI, domain.DNI, domain.DHI,
	domain.WSpd, domain.WDr,
}

// WriteCSV writes t with a header row. Site columns are included when any
// record carries site metadata.
func WriteCSV(w io.Writer, t domain.Table) error {
	withSite := len(t.Sites()) > 0
	cw := csv.NewWriter(w)

	header := baseColumns
	if withSite {
		header = append(append([]string{}, baseColumns...), siteColumns...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, 0, len(header))
	for i, r := range t.Records {
		row = row[:0]
		row = append(row,
			r.Timestamp.UTC().Format(time.RFC3339),
			strconv.Itoa(r.Month),
			strconv.Itoa(r.Day),
			strconv.Itoa(r.DayOfYear),
			strconv.Itoa(r.Hour),
		)
		for _, f := range valueFields {
			row = append(row, formatValue(r.Value(f)))
		}
		if withSite {
			row = append(row, siteCells(r.Site)...)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. Columns are located by header
// name, so extra columns are ignored.
func ReadCSV(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range baseColumns {
		if _, ok := idx[c]; !ok {
			return domain.Table{}, fmt.Errorf("missing column %q", c)
		}
	}
	_, withSite := idx[siteColumns[0]]

	table := domain.Table{Format: domain.FormatCache}
	// Keyed by the written cells: a missing coordinate (NaN) never equals itself.
	sites := make(map[string]*domain.Site)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, err
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return domain.Table{}, fmt.Errorf("row %d: %w", table.Len()+1, err)
		}
		if withSite {
			site, err := parseSite(row, idx)
			if err != nil {
				return domain.Table{}, fmt.Errorf("row %d: %w", table.Len()+1, err)
			}
			if site != nil {
				key := strings.Join(siteCells(site), "\x1f")
				if shared, ok := sites[key]; ok {
					site = shared
				} else {
					sites[key] = site
				}
			}
			rec.Site = site
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// Save writes t to path, compressing with zstd when the path ends in .zst.
func Save(path string, t domain.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ZstdExt) {
		return WriteCSV(f, t)
	}

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := WriteCSV(zw, t); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Load reads a table saved by Save.
func Load(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ZstdExt) {
		return ReadCSV(f)
	}

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return domain.Table{}, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	return ReadCSV(zr)
}

func formatValue(v float64) string {
	if domain.IsMissing(v) {
		return NA
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == NA {
		return domain.Missing(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func siteCells(s *domain.Site) []string {
	if s == nil {
		return make([]string, len(siteColumns))
	}
	return []string{
		s.Name,
		s.Code,
		s.WMO,
		formatValue(s.Latitude),
		formatValue(s.Longitude),
		formatValue(s.TimeZone),
		formatValue(s.Altitude),
	}
}

func parseRow(row []string, idx map[string]int) (domain.Record, error) {
	ts, err := time.Parse(time.RFC3339, row[idx["timestamp"]])
	if err != nil {
		return domain.Record{}, fmt.Errorf("timestamp: %w", err)
	}
	rec := domain.Record{Timestamp: ts.UTC()}

	for _, c := range []struct {
		name string
		dst  *int
	}{
		{"month", &rec.Month}, {"day", &rec.Day}, {"day_of_year", &rec.DayOfYear}, {"hour", &rec.Hour},
	} {
		n, err := strconv.Atoi(strings.TrimSpace(row[idx[c.name]]))
		if err != nil {
			return domain.Record{}, fmt.Errorf("%s: %w", c.name, err)
		}
		*c.dst = n
	}

	for _, f := range valueFields {
		v, err := parseValue(row[idx[f.String()]])
		if err != nil {
			return domain.Record{}, fmt.Errorf("%s: %w", f, err)
		}
		rec = rec.SetValue(f, v)
	}
	return rec, nil
}

func parseSite(row []string, idx map[string]int) (*domain.Site, error) {
	cell := func(name string) string {
		i, ok := idx[name]
		if !ok {
			return ""
		}
		return row[i]
	}
	if cell("location") == "" && cell("wmo") == "" {
		return nil, nil
	}

	var nums [4]float64
	for k, name := range []string{"latitude", "longitude", "tz", "altitude"} {
		v, err := parseValue(cell(name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		nums[k] = v
	}
	return &domain.Site{
		Name:      cell("location"),
		Code:      cell("loccode"),
		WMO:       cell("wmo"),
		Latitude:  nums[0],
		Longitude: nums[1],
		TimeZone:  nums[2],
		Altitude:  nums[3],
	}, nil
}
