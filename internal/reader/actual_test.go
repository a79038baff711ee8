package reader

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
	"github.com/couchcryptid/weather-normalizer/internal/fixture"
)

func TestAssembler_MergesProviders(t *testing.T) {
	hours := fullYear()[:48]
	ncdc := writeFixture(t, "ncdc.txt", func(w io.Writer) error { return fixture.WriteNCDC(w, "067700", hours) })
	nsrdb := writeFixture(t, "nsrdb.csv", func(w io.Writer) error { return fixture.WriteNSRDB(w, hours) })

	a := NewAssembler(Options{}, nil)
	table, report, err := a.Assemble(context.Background(), testStation, []domain.SourceFile{
		{Provider: "ncdc", Path: ncdc},
		{Provider: "nsrdb", Path: nsrdb},
	})
	require.NoError(t, err)

	assert.Equal(t, 48*2+48, report.Observations)
	assert.Equal(t, 48, report.Rows)
	assert.Zero(t, report.Cleared)

	require.Equal(t, 48, table.Len())
	assert.Equal(t, domain.FormatActual, table.Format)
	for i, r := range table.Records {
		assert.Equal(t, hours[i].Time, r.Timestamp)
		assert.Equal(t, hours[i].TDB, r.TDB, "duplicate :00/:30 rows average to the same value")
		assert.False(t, domain.IsMissing(r.GHI), "irradiance merged from the second provider")
	}
}

func TestAssembler_SanitizesAfterAggregation(t *testing.T) {
	content := "hdr\n" +
		"GVE;2017010100;0;965;20;50;10;1;90\n" +
		"GVE;2017010101;0;965;70;50;10;1;90\n" +
		"GVE;2017010102;-;-;-;-;-;-;-\n"
	path := writeFile(t, "ms.txt", content)

	table, report, err := NewAssembler(Options{}, nil).Assemble(context.Background(), testStation,
		[]domain.SourceFile{{Provider: "ms", Path: path}})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Observations)
	assert.Equal(t, 2, report.Rows, "all-missing hour dropped")
	assert.Equal(t, 1, report.Cleared)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 20.0, table.Records[0].TDB)
	assert.True(t, domain.IsMissing(table.Records[1].TDB))
}

func TestAssembler_CustomRanges(t *testing.T) {
	path := writeFile(t, "ms.txt", "hdr\nGVE;2017010100;0;965;30;50;10;1;90\n")
	ranges := map[domain.Field]domain.Range{domain.TDB: {Min: -10, Max: 25}}

	table, _, err := NewAssembler(Options{}, ranges).Assemble(context.Background(), testStation,
		[]domain.SourceFile{{Provider: "meteosuisse", Path: path}})
	require.NoError(t, err)
	assert.True(t, domain.IsMissing(table.Records[0].TDB))
}

func TestAssembler_Errors(t *testing.T) {
	a := NewAssembler(Options{}, nil)

	_, _, err := a.Assemble(context.Background(), testStation, []domain.SourceFile{{Provider: "metar", Path: "x"}})
	assert.Error(t, err)

	_, _, err = a.Assemble(context.Background(), testStation, []domain.SourceFile{{Provider: "ncdc", Path: "/does/not/exist"}})
	assert.Error(t, err)

	_, _, err = a.AssembleFromRequest(context.Background(), domain.IngestRequest{Station: testStation})
	assert.ErrorIs(t, err, domain.ErrEmptyRequest)
}

func TestAssembler_NoSources(t *testing.T) {
	table, report, err := NewAssembler(Options{}, nil).Assemble(context.Background(), testStation, nil)
	require.NoError(t, err)
	assert.True(t, table.Empty())
	assert.Zero(t, report.Rows)
}
