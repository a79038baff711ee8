package domain

import "sort"

// Aggregate collapses observations onto hourly keys. The minute is dropped,
// rows sharing a (year, month, day, hour) key are replaced by the mean of
// each field with missing values excluded, and rows where every field is
// missing are discarded. The result is ordered by key and every row carries
// Minute 0.
func Aggregate(obs []Observation) []Observation {
	type acc struct {
		sum   Values
		count [NumFields]int
	}
	groups := make(map[Key]*acc)
	order := make([]Key, 0)

	for _, o := range obs {
		g, ok := groups[o.Key]
		if !ok {
			g = &acc{}
			groups[o.Key] = g
			order = append(order, o.Key)
		}
		for f, v := range o.Values {
			if IsMissing(v) {
				continue
			}
			g.sum[f] += v
			g.count[f]++
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })

	out := make([]Observation, 0, len(order))
	for _, k := range order {
		g := groups[k]
		vals := MissingValues()
		for f := range vals {
			if g.count[f] > 0 {
				vals[f] = g.sum[f] / float64(g.count[f])
			}
		}
		if vals.AllMissing() {
			continue
		}
		out = append(out, Observation{Key: k, Values: vals})
	}
	return out
}

// ObservationsToTable converts aggregated observations into a table whose
// timestamps are rebuilt from the key columns.
func ObservationsToTable(station string, obs []Observation) Table {
	recs := make([]Record, len(obs))
	for i, o := range obs {
		ts := o.Key.Time()
		recs[i] = Record{
			Timestamp: ts,
			Month:     o.Month,
			Day:       o.Day,
			DayOfYear: ts.YearDay(),
			Hour:      o.Hour,
			TDB:       o.Values[TDB],
			TDP:       o.Values[TDP],
			RH:        o.Values[RH],
			GHI:       o.Values[GHI],
			DNI:       o.Values[DNI],
			DHI:       o.Values[DHI],
			WSpd:      o.Values[WSpd],
			WDr:       o.Values[WDr],
		}
	}
	return Table{Station: station, Format: FormatActual, Records: recs}
}
