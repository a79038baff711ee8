package domain

import (
	"context"
	"time"
)

// Format identifies the on-disk encoding of a weather file.
type Format string

const (
	FormatEPW  Format = "epw"  // fixed-column annual table, 8-line preamble
	FormatESPr Format = "espr" // day-block ASCII climate file
	FormatCSV  Format = "csv"  // plain 11-column table
	// FormatCache is a previously exported normalized table (.csv or .csv.zst).
	FormatCache Format = "cache"
	// FormatActual marks tables assembled from raw provider observations.
	FormatActual Format = "actual"
)

// ParseFormat maps a user-supplied hint to a Format. Unknown hints return "".
func ParseFormat(s string) Format {
	switch f := Format(s); f {
	case FormatEPW, FormatESPr, FormatCSV, FormatCache, FormatActual:
		return f
	case "pickle":
		return FormatCache
	default:
		return ""
	}
}

// Site is the station metadata carried in a file header. It is shared by
// every record parsed from that file.
type Site struct {
	Name      string  `json:"location"`
	Code      string  `json:"loccode"`
	WMO       string  `json:"wmo"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeZone  float64 `json:"tz"`
	Altitude  float64 `json:"altitude"`
}

// Record is one hour of normalized weather data. Missing quantities are NaN.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	DayOfYear int       `json:"day_of_year"`
	Hour      int       `json:"hour"`

	TDB  float64 `json:"tdb"`  // dry-bulb, °C
	TDP  float64 `json:"tdp"`  // dew point, °C
	RH   float64 `json:"rh"`   // relative humidity, %
	GHI  float64 `json:"ghi"`  // global horizontal, W/m²
	DNI  float64 `json:"dni"`  // direct normal, W/m²
	DHI  float64 `json:"dhi"`  // diffuse horizontal, W/m²
	WSpd float64 `json:"wspd"` // m/s
	WDr  float64 `json:"wdr"`  // degrees clockwise from north

	Site *Site `json:"site,omitempty"`
}

// Value returns the quantity stored under f. AtmPr is not carried on
// records and always reads as missing.
func (r Record) Value(f Field) float64 {
	switch f {
	case TDB:
		return r.TDB
	case TDP:
		return r.TDP
	case RH:
		return r.RH
	case GHI:
		return r.GHI
	case DNI:
		return r.DNI
	case DHI:
		return r.DHI
	case WSpd:
		return r.WSpd
	case WDr:
		return r.WDr
	default:
		return Missing()
	}
}

// SetValue returns a copy of r with f replaced by v.
func (r Record) SetValue(f Field, v float64) Record {
	switch f {
	case TDB:
		r.TDB = v
	case TDP:
		r.TDP = v
	case RH:
		r.RH = v
	case GHI:
		r.GHI = v
	case DNI:
		r.DNI = v
	case DHI:
		r.DHI = v
	case WSpd:
		r.WSpd = v
	case WDr:
		r.WDr = v
	}
	return r
}

// Table is an ordered sequence of records parsed from one source. Tables are
// never mutated in place; transformations return new tables.
type Table struct {
	Station string   `json:"station"`
	Format  Format   `json:"format"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.Records) }

// Empty reports whether the table holds no records.
func (t Table) Empty() bool { return len(t.Records) == 0 }

// Column extracts one quantity as a parallel slice.
func (t Table) Column(f Field) []float64 {
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Value(f)
	}
	return out
}

// WithColumn returns a copy of t with quantity f replaced by values.
// values must have the same length as t.Records.
func (t Table) WithColumn(f Field, values []float64) Table {
	recs := make([]Record, len(t.Records))
	for i, r := range t.Records {
		recs[i] = r.SetValue(f, values[i])
	}
	t.Records = recs
	return t
}

// Sites returns the distinct site headers in encounter order.
func (t Table) Sites() []*Site {
	var out []*Site
	seen := make(map[*Site]bool)
	for _, r := range t.Records {
		if r.Site == nil || seen[r.Site] {
			continue
		}
		seen[r.Site] = true
		out = append(out, r.Site)
	}
	return out
}

// Concat appends the records of other after t's records.
func (t Table) Concat(other Table) Table {
	recs := make([]Record, 0, len(t.Records)+len(other.Records))
	recs = append(recs, t.Records...)
	recs = append(recs, other.Records...)
	t.Records = recs
	return t
}

// Key identifies an hour on a real calendar.
type Key struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
	Hour  int `json:"hour"`
}

// Time returns the canonical UTC timestamp for the key.
func (k Key) Time() time.Time {
	return time.Date(k.Year, time.Month(k.Month), k.Day, k.Hour, 0, 0, 0, time.UTC)
}

// Less orders keys chronologically.
func (k Key) Less(o Key) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	if k.Day != o.Day {
		return k.Day < o.Day
	}
	return k.Hour < o.Hour
}

// Observation is one row from a raw provider file before aggregation.
type Observation struct {
	Key
	Minute int
	Values Values
}

// IngestRequest asks the service to normalize one station's weather file,
// or, when Sources is set, to assemble an actual year from provider files.
type IngestRequest struct {
	Station string       `json:"station"`
	Path    string       `json:"path,omitempty"`
	Format  string       `json:"format,omitempty"`
	Sources []SourceFile `json:"sources,omitempty"`
}

// SourceFile is one raw provider file contributing to an actual year.
type SourceFile struct {
	Provider string `json:"provider"`
	Path     string `json:"path"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// NormalizedTable is the unit handed to sinks: a table plus run metadata.
type NormalizedTable struct {
	RunID       string    `json:"run_id"`
	Table       Table     `json:"table"`
	ProcessedAt time.Time `json:"processed_at"`
}
