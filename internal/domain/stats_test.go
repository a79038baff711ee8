package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsTable() Table {
	m := Missing()
	return Table{Records: []Record{
		{Month: 1, Hour: 0, DayOfYear: 1, TDB: 1, RH: 50, GHI: m},
		{Month: 1, Hour: 1, DayOfYear: 1, TDB: 2, RH: 60, GHI: m},
		{Month: 1, Hour: 2, DayOfYear: 1, TDB: 3, RH: m, GHI: m},
		{Month: 1, Hour: 3, DayOfYear: 1, TDB: 4, RH: 80, GHI: m},
		{Month: 2, Hour: 0, DayOfYear: 32, TDB: 10, RH: 40, GHI: 100},
	}}
}

func TestSummarize_Statistics(t *testing.T) {
	tests := []struct {
		stat     Statistic
		janTDB   float64
		febTDB   float64
		janRH    float64
		febIsNaN bool
	}{
		{StatMean, 2.5, 10, 190.0 / 3, false},
		{StatSum, 10, 10, 190, false},
		{StatMax, 4, 10, 80, false},
		{StatMin, 1, 10, 50, false},
		{StatMedian, 2.5, 10, 60, false},
		{StatQ1, 1.75, 10, 55, false},
		{StatQ3, 3.25, 10, 70, false},
		{StatStd, math.Sqrt(5.0 / 3), 0, math.Sqrt(700.0 / 3), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.stat), func(t *testing.T) {
			out, err := Summarize(statsTable(), ByMonth, tt.stat)
			require.NoError(t, err)
			require.Len(t, out, 2)

			jan, feb := out[0], out[1]
			assert.Equal(t, 1, jan.Group)
			assert.Equal(t, 4, jan.Count)
			assert.InDelta(t, tt.janTDB, jan.Values[TDB], 1e-9)
			assert.InDelta(t, tt.janRH, jan.Values[RH], 1e-9)
			assert.True(t, IsMissing(jan.Values[GHI]), "no GHI in January")
			assert.True(t, IsMissing(jan.Values[AtmPr]))

			if tt.febIsNaN {
				assert.True(t, IsMissing(feb.Values[TDB]))
			} else {
				assert.InDelta(t, tt.febTDB, feb.Values[TDB], 1e-9)
			}
		})
	}
}

func TestSummarize_Groupings(t *testing.T) {
	byHour, err := Summarize(statsTable(), ByHour, StatMean)
	require.NoError(t, err)
	require.Len(t, byHour, 4)
	assert.Equal(t, 0, byHour[0].Group)
	assert.Equal(t, 2, byHour[0].Count)
	assert.InDelta(t, 5.5, byHour[0].Values[TDB], 1e-9)

	byDay, err := Summarize(statsTable(), ByDayOfYear, StatMax)
	require.NoError(t, err)
	require.Len(t, byDay, 2)
	assert.Equal(t, 32, byDay[1].Group)
}

func TestSummarize_UnknownInputs(t *testing.T) {
	_, err := Summarize(statsTable(), "week", StatMean)
	assert.Error(t, err)

	_, err = Summarize(statsTable(), ByMonth, "mode")
	assert.Error(t, err)
}
