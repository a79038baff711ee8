package reader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

const (
	esprHeaderLines = 13
	esprHourTokens  = 6
	esprMaxBlocks   = HoursPerYear / 24
)

// ESPr hour line token positions.
const (
	esprGHI  = 0
	esprTDB  = 1 // tenths of °C
	esprDNI  = 2
	esprWSpd = 3 // tenths of m/s
	esprWDr  = 4
	esprRH   = 5
)

// MalformedBlockError reports a structural violation in a day-block file.
type MalformedBlockError struct {
	Block  int // 1-based; 0 when the file has no blocks at all
	Line   int // 1-based line number in the file
	Reason string
}

func (e *MalformedBlockError) Error() string {
	if e.Block == 0 {
		return "malformed day-block file: " + e.Reason
	}
	return fmt.Sprintf("malformed day block %d at line %d: %s", e.Block, e.Line, e.Reason)
}

// ESPrReader parses ESP-r ASCII climate files: a 13-line header followed by
// day blocks, each a marker line and 24 hour lines.
type ESPrReader struct {
	opts Options
}

// NewESPrReader creates an ESPrReader.
func NewESPrReader(opts Options) *ESPrReader {
	return &ESPrReader{opts: opts.withDefaults()}
}

// Read parses one day-block file and returns the table together with the
// verbatim header lines.
func (r *ESPrReader) Read(ctx context.Context, station, path string) (domain.Table, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, nil, fmt.Errorf("read espr %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return domain.Table{}, nil, fmt.Errorf("read espr %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Table{}, nil, err
	}
	if len(lines) < esprHeaderLines {
		return domain.Table{}, nil, &MalformedBlockError{Reason: fmt.Sprintf("file has %d lines, header needs %d", len(lines), esprHeaderLines)}
	}

	header := lines[:esprHeaderLines]
	recs, err := r.parseBody(lines[esprHeaderLines:])
	if err != nil {
		return domain.Table{}, nil, err
	}

	table := domain.Table{Station: station, Format: domain.FormatESPr, Records: recs}
	tdp, stats := domain.DewPointReport(table.Column(domain.TDB), table.Column(domain.RH))
	r.opts.OnDewPoint(stats)
	if stats.Repaired > 0 || stats.Fallback > 0 {
		r.opts.Logger.Debug("dew point corrections",
			"station", station, "repaired", stats.Repaired, "fallback", stats.Fallback)
	}
	return table.WithColumn(domain.TDP, tdp), header, nil
}

func (r *ESPrReader) parseBody(body []string) ([]domain.Record, error) {
	start := time.Date(r.opts.ReferenceYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	var recs []domain.Record
	blocks := 0

	for i := 0; i < len(body); i++ {
		if !isDayMarker(body[i]) {
			continue
		}
		blocks++
		line := esprHeaderLines + i + 1
		if blocks > esprMaxBlocks {
			return nil, &MalformedBlockError{Block: blocks, Line: line, Reason: fmt.Sprintf("more than %d day blocks", esprMaxBlocks)}
		}
		month, doy, err := parseMarker(body[i])
		if err != nil {
			return nil, &MalformedBlockError{Block: blocks, Line: line, Reason: err.Error()}
		}
		if i+24 >= len(body) {
			return nil, &MalformedBlockError{Block: blocks, Line: line, Reason: "fewer than 24 hour lines"}
		}

		day := start.AddDate(0, 0, doy-1).Day()
		for h := range 24 {
			tok, err := parseHourLine(body[i+1+h])
			if err != nil {
				return nil, &MalformedBlockError{Block: blocks, Line: line + 1 + h, Reason: err.Error()}
			}
			recs = append(recs, domain.Record{
				Timestamp: start.Add(time.Duration(len(recs)) * time.Hour),
				Month:     month,
				Day:       day,
				DayOfYear: doy,
				Hour:      h,
				TDB:       float64(tok[esprTDB]) / 10,
				TDP:       domain.Missing(),
				RH:        float64(tok[esprRH]),
				GHI:       float64(tok[esprGHI]),
				DNI:       float64(tok[esprDNI]),
				DHI:       domain.Missing(),
				WSpd:      float64(tok[esprWSpd]) / 10,
				WDr:       float64(tok[esprWDr]),
			})
		}
		i += 24
	}

	if blocks == 0 {
		return nil, &MalformedBlockError{Reason: "no day blocks found"}
	}
	return recs, nil
}

// isDayMarker reports whether a line announces a day block.
func isDayMarker(line string) bool {
	for _, f := range strings.Fields(line) {
		if strings.EqualFold(f, "day") {
			return true
		}
	}
	return false
}

// parseMarker reads the month (last token) and day of year (third token)
// from a marker such as "* day 32 month 2".
func parseMarker(line string) (month, doy int, err error) {
	f := strings.Fields(line)
	if len(f) < 4 {
		return 0, 0, fmt.Errorf("marker %q has %d tokens", line, len(f))
	}
	if doy, err = strconv.Atoi(f[2]); err != nil || doy < 1 || doy > esprMaxBlocks {
		return 0, 0, fmt.Errorf("marker %q: bad day of year", line)
	}
	if month, err = strconv.Atoi(f[len(f)-1]); err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("marker %q: bad month", line)
	}
	return month, doy, nil
}

func parseHourLine(line string) ([esprHourTokens]int, error) {
	var out [esprHourTokens]int
	f := strings.Fields(line)
	if len(f) != esprHourTokens {
		return out, fmt.Errorf("got %d tokens, want %d", len(f), esprHourTokens)
	}
	for k, s := range f {
		n, err := strconv.Atoi(s)
		if err != nil {
			return out, fmt.Errorf("token %d: %w", k+1, err)
		}
		out[k] = n
	}
	return out, nil
}
