package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// compactDateRe matches NCDC dates, e.g. "20170314".
	compactDateRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)

	// compactTimeRe matches NCDC times, e.g. "0950" or "950".
	compactTimeRe = regexp.MustCompile(`^(\d{1,2})(\d{2})$`)

	// isoDateRe matches NSRDB dates, e.g. "2017-03-14".
	isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

	// clockTimeRe matches NSRDB times, e.g. "9:30" or "13:00".
	clockTimeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

	// hourStampRe matches MeteoSuisse timestamps, e.g. "2017031409".
	hourStampRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{2})$`)

	// wmoRe matches numeric WMO station identifiers.
	wmoRe = regexp.MustCompile(`^\d{5}$`)
)

// clock stamps ProcessedAt on normalized tables; SetClock swaps it in tests.
var clock = clockwork.NewRealClock()

// SetClock replaces the processing clock. nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// ErrEmptyRequest is returned for ingest requests naming no input.
var ErrEmptyRequest = errors.New("ingest request has neither path nor sources")

// ErrInvalidStation is returned for station codes that are not a plain name.
// Station codes become file names in exports.
var ErrInvalidStation = errors.New("invalid station code")

// ErrStationNotFound is returned by stores holding no table for a station.
var ErrStationNotFound = errors.New("station not found")

// ParseIngestRequest decodes a RawEvent's value into an IngestRequest.
func ParseIngestRequest(raw RawEvent) (IngestRequest, error) {
	var req IngestRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return IngestRequest{}, fmt.Errorf("parse ingest request: %w", err)
	}
	req.Station = strings.TrimSpace(req.Station)
	req.Path = strings.TrimSpace(req.Path)
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Path == "" && len(req.Sources) == 0 {
		return IngestRequest{}, ErrEmptyRequest
	}
	if err := ValidateStation(req.Station); err != nil {
		return IngestRequest{}, err
	}
	return req, nil
}

// ValidateStation rejects codes containing path separators or dot segments.
// An empty code is accepted here and reported by callers that need one.
func ValidateStation(station string) error {
	if station == "." || strings.Contains(station, "..") || strings.ContainsAny(station, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidStation, station)
	}
	return nil
}

// NewNormalizedTable stamps a table with its run id and processing time.
func NewNormalizedTable(runID string, t Table) NormalizedTable {
	return NormalizedTable{RunID: runID, Table: t, ProcessedAt: clock.Now().UTC()}
}

// SiteCode derives the short location code: the first three letters of the
// site name, upper-cased.
func SiteCode(name string) string {
	code := strings.ToUpper(strings.TrimSpace(name))
	if len(code) > 3 {
		code = code[:3]
	}
	return code
}

// HarmonizeWMO pads five-digit WMO identifiers with a leading zero so that
// stations such as Geneva ("67700") match their six-digit form ("067700").
func HarmonizeWMO(id string) string {
	id = strings.TrimSpace(id)
	if wmoRe.MatchString(id) {
		return "0" + id
	}
	return id
}

// ParseCompactKey parses an NCDC "YYYYMMDD" date and "HHMM" time.
func ParseCompactKey(date, hhmm string) (Key, int, error) {
	d := compactDateRe.FindStringSubmatch(strings.TrimSpace(date))
	if d == nil {
		return Key{}, 0, fmt.Errorf("invalid date %q", date)
	}
	t := compactTimeRe.FindStringSubmatch(strings.TrimSpace(hhmm))
	if t == nil {
		return Key{}, 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return buildKey(d[1], d[2], d[3], t[1], t[2])
}

// ParseISOKey parses an NSRDB "YYYY-MM-DD" date and "H:MM" time.
func ParseISOKey(date, hmm string) (Key, int, error) {
	d := isoDateRe.FindStringSubmatch(strings.TrimSpace(date))
	if d == nil {
		return Key{}, 0, fmt.Errorf("invalid date %q", date)
	}
	t := clockTimeRe.FindStringSubmatch(strings.TrimSpace(hmm))
	if t == nil {
		return Key{}, 0, fmt.Errorf("invalid time %q", hmm)
	}
	return buildKey(d[1], d[2], d[3], t[1], t[2])
}

// ParseHourStamp parses a MeteoSuisse "YYYYMMDDHH" timestamp. Minute is 0.
func ParseHourStamp(stamp string) (Key, int, error) {
	m := hourStampRe.FindStringSubmatch(strings.TrimSpace(stamp))
	if m == nil {
		return Key{}, 0, fmt.Errorf("invalid timestamp %q", stamp)
	}
	return buildKey(m[1], m[2], m[3], m[4], "00")
}

func buildKey(year, month, day, hour, minute string) (Key, int, error) {
	// The regexps guarantee digits, so Atoi cannot fail here.
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	h, _ := strconv.Atoi(hour)
	mi, _ := strconv.Atoi(minute)

	if mo < 1 || mo > 12 || h > 23 || mi > 59 {
		return Key{}, 0, fmt.Errorf("date out of range: %s-%s-%s %s:%s", year, month, day, hour, minute)
	}
	if d < 1 || d > daysIn(time.Month(mo), y) {
		return Key{}, 0, fmt.Errorf("day out of range: %s-%s-%s", year, month, day)
	}
	return Key{Year: y, Month: mo, Day: d, Hour: h}, mi, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
