// Package reader parses weather files into normalized domain tables.
//
// Typical-year files come in three encodings (EPW, ESPr day blocks and a
// plain 11-column CSV) and are routed by the [Dispatcher]. Actual-year data
// from measurement providers (NCDC, NSRDB, MeteoSuisse) is parsed into raw
// observations and assembled by an [Assembler].
package reader

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// DefaultMissingTokens are the provider sentinels that denote absent data.
// Blank cells are always missing regardless of this list.
var DefaultMissingTokens = []string{"9900", "-9900", "9999", "99", "-99", "9999.9", "999.9", "-"}

// DefaultFormatOrder is the cascade tried when a hinted format fails.
var DefaultFormatOrder = []domain.Format{domain.FormatEPW, domain.FormatESPr, domain.FormatCSV}

// DefaultReferenceYear anchors synthetic timestamps of typical-year files.
// It must not be a leap year.
const DefaultReferenceYear = 2017

// HoursPerYear is the row count of a complete typical year.
const HoursPerYear = 8760

// Options configures readers. The zero value is usable: every field falls
// back to its default.
type Options struct {
	MissingTokens []string
	FormatOrder   []domain.Format
	ReferenceYear int
	Logger        *slog.Logger

	// OnDewPoint, when set, receives the repair counts of every derived
	// dew-point column.
	OnDewPoint func(domain.DewPointStats)
}

// withDefaults fills unset fields.
func (o Options) withDefaults() Options {
	if o.MissingTokens == nil {
		o.MissingTokens = DefaultMissingTokens
	}
	if len(o.FormatOrder) == 0 {
		o.FormatOrder = DefaultFormatOrder
	}
	if o.ReferenceYear == 0 {
		o.ReferenceYear = DefaultReferenceYear
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.OnDewPoint == nil {
		o.OnDewPoint = func(domain.DewPointStats) {}
	}
	return o
}

// sentinels is the lookup set built from Options.MissingTokens.
type sentinels map[string]struct{}

func newSentinels(tokens []string) sentinels {
	s := make(sentinels, len(tokens))
	for _, t := range tokens {
		s[strings.TrimSpace(t)] = struct{}{}
	}
	return s
}

// parse converts a provider cell to a float. Blank cells and sentinels are
// missing; anything else that is not a number is an error.
func (s sentinels) parse(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return domain.Missing(), nil
	}
	if _, ok := s[cell]; ok {
		return domain.Missing(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// parseNumber converts a typical-year cell. Only blank and "NA" cells are
// missing.
func parseNumber(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "NA" {
		return domain.Missing(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
