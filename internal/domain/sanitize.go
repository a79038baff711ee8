package domain

// Range is an inclusive physical range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// DefaultRanges are the plausibility limits applied to aggregated data.
var DefaultRanges = map[Field]Range{
	TDB: {Min: -55, Max: 55},
	TDP: {Min: -60, Max: 60},
}

// clip returns v, or missing when v is present and outside r.
func clip(v float64, r Range) (float64, bool) {
	if IsMissing(v) || r.Contains(v) {
		return v, false
	}
	return Missing(), true
}

// Sanitize replaces out-of-range values in the fields named by ranges with
// missing. Missing values are left alone and unlisted fields are not
// checked. It returns new observations and the number of values cleared.
func Sanitize(obs []Observation, ranges map[Field]Range) ([]Observation, int) {
	out := make([]Observation, len(obs))
	cleared := 0
	for i, o := range obs {
		for f, r := range ranges {
			v, hit := clip(o.Values[f], r)
			if hit {
				cleared++
			}
			o.Values[f] = v
		}
		out[i] = o
	}
	return out, cleared
}

// SanitizeTable applies the same rule to a table.
func SanitizeTable(t Table, ranges map[Field]Range) (Table, int) {
	recs := make([]Record, len(t.Records))
	cleared := 0
	for i, r := range t.Records {
		for f, rng := range ranges {
			v, hit := clip(r.Value(f), rng)
			if hit {
				cleared++
			}
			r = r.SetValue(f, v)
		}
		recs[i] = r
	}
	t.Records = recs
	return t, cleared
}
