package reader

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
	"github.com/couchcryptid/weather-normalizer/internal/fixture"
)

func renderESPr(hours []fixture.Hour) func(io.Writer) error {
	return func(w io.Writer) error { return fixture.WriteESPr(w, fixture.Geneva, hours) }
}

func TestESPrReader_EndToEnd(t *testing.T) {
	hours := fullYear()
	path := writeFixture(t, "che_geneva.iwec.a", renderESPr(hours))

	var stats domain.DewPointStats
	r := NewESPrReader(Options{OnDewPoint: func(s domain.DewPointStats) { stats = s }})
	table, header, err := r.Read(context.Background(), testStation, path)
	require.NoError(t, err)

	assert.Len(t, header, esprHeaderLines)
	assert.Equal(t, "*CLIMATE", header[0])

	require.Equal(t, HoursPerYear, table.Len())
	assert.Equal(t, domain.FormatESPr, table.Format)
	for i, rec := range table.Records {
		assert.Equal(t, yearStart.Add(time.Duration(i)*time.Hour), rec.Timestamp, "no gaps at row %d", i)
		assert.False(t, math.IsNaN(rec.TDP) || math.IsInf(rec.TDP, 0), "tdp populated at row %d", i)
		assert.True(t, domain.IsMissing(rec.DHI))
	}
	assert.Zero(t, stats.Missing)
}

func TestESPrReader_Decoding(t *testing.T) {
	hours := fullYear()
	path := writeFixture(t, "gen.a", renderESPr(hours[:48]))

	table, _, err := NewESPrReader(Options{}).Read(context.Background(), testStation, path)
	require.NoError(t, err)
	require.Equal(t, 48, table.Len())

	h, r := hours[37], table.Records[37]
	assert.Equal(t, 1, r.Month)
	assert.Equal(t, 2, r.DayOfYear)
	assert.Equal(t, 2, r.Day)
	assert.Equal(t, 13, r.Hour)
	assert.InDelta(t, h.TDB, r.TDB, 1e-9, "tenths of a degree")
	assert.InDelta(t, h.WSpd, r.WSpd, 1e-9, "tenths of m/s")
	assert.Equal(t, h.GHI, r.GHI)
	assert.Equal(t, h.DNI, r.DNI)
	assert.Equal(t, h.WDr, r.WDr)
	assert.Equal(t, h.RH, r.RH)

	want := domain.DewPoint([]float64{r.TDB}, []float64{r.RH})[0]
	assert.InDelta(t, want, r.TDP, 1e-9)
}

func TestESPrReader_BlockMetadataFromMarker(t *testing.T) {
	// Blocks are written in file order; the marker supplies day and month.
	content := renderString(t, renderESPr(fullYear()[:48]))
	content = strings.Replace(content, "* day 1 month 1", "* day 60 month 3", 1)
	path := writeFile(t, "gen.a", content)

	table, _, err := NewESPrReader(Options{}).Read(context.Background(), testStation, path)
	require.NoError(t, err)

	first := table.Records[0]
	assert.Equal(t, 3, first.Month)
	assert.Equal(t, 60, first.DayOfYear)
	assert.Equal(t, 1, first.Day)
	assert.Equal(t, yearStart, first.Timestamp)

	second := table.Records[24]
	assert.Equal(t, 1, second.Month)
	assert.Equal(t, 2, second.DayOfYear)
}

func TestESPrReader_PartialYear(t *testing.T) {
	path := writeFixture(t, "gen.a", renderESPr(fullYear()[:24*10]))

	table, _, err := NewESPrReader(Options{}).Read(context.Background(), testStation, path)
	require.NoError(t, err)
	assert.Equal(t, 240, table.Len())
}

func TestESPrReader_Malformed(t *testing.T) {
	twoDays := renderString(t, renderESPr(fullYear()[:48]))
	// Line 14 is the first marker, 15..38 its hours.
	tests := []struct {
		name    string
		content string
		block   int
	}{
		{"short block", dropLine(twoDays, 20), 1},
		{"truncated last block", strings.Join(lines(twoDays)[:50], "\n"), 2},
		{"non-integer token", replaceLine(twoDays, 16, "0 12.5 0 30 90 70"), 1},
		{"wrong token count", replaceLine(twoDays, 40, "0 125 0 30 90"), 2},
		{"bad marker", replaceLine(twoDays, 39, "* day two month 1"), 2},
		{"no blocks", strings.Join(lines(twoDays)[:esprHeaderLines], "\n"), 0},
		{"file shorter than header", "*CLIMATE\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.a", tt.content)
			_, _, err := NewESPrReader(Options{}).Read(context.Background(), testStation, path)

			var mbe *MalformedBlockError
			require.ErrorAs(t, err, &mbe)
			assert.Equal(t, tt.block, mbe.Block)
		})
	}
}

func TestESPrReader_TooManyBlocks(t *testing.T) {
	content := renderString(t, renderESPr(fullYear()))
	var extra strings.Builder
	extra.WriteString("* day 365 month 12\n")
	for range 24 {
		extra.WriteString("0 10 0 10 0 50\n")
	}
	path := writeFile(t, "long.a", content+extra.String())

	_, _, err := NewESPrReader(Options{}).Read(context.Background(), testStation, path)
	var mbe *MalformedBlockError
	require.ErrorAs(t, err, &mbe)
	assert.Equal(t, esprMaxBlocks+1, mbe.Block)
}

func TestMalformedBlockError_Message(t *testing.T) {
	err := &MalformedBlockError{Block: 3, Line: 90, Reason: "fewer than 24 hour lines"}
	assert.Equal(t, "malformed day block 3 at line 90: fewer than 24 hour lines", err.Error())

	err = &MalformedBlockError{Reason: "no day blocks found"}
	assert.Equal(t, fmt.Sprintf("malformed day-block file: %s", "no day blocks found"), err.Error())
}

func TestIsDayMarker(t *testing.T) {
	assert.True(t, isDayMarker("* day 1 month 1"))
	assert.True(t, isDayMarker("* DAY 1 month 1"))
	assert.False(t, isDayMarker("* today 1 month 1"))
	assert.False(t, isDayMarker("0 120 0 30 90 70"))
}
