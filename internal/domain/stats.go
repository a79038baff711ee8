package domain

import (
	"fmt"
	"math"
	"sort"
)

// Grouping selects the key used to bucket records for summaries.
type Grouping string

const (
	ByMonth     Grouping = "month"
	ByDayOfYear Grouping = "day"
	ByHour      Grouping = "hour"
)

// Statistic is a per-group reduction.
type Statistic string

const (
	StatMean   Statistic = "mean"
	StatSum    Statistic = "sum"
	StatMax    Statistic = "max"
	StatMin    Statistic = "min"
	StatStd    Statistic = "std"
	StatQ1     Statistic = "q1"
	StatQ3     Statistic = "q3"
	StatMedian Statistic = "med"
)

// Summary is one group's reduced values. AtmPr is always missing because
// records do not carry pressure.
type Summary struct {
	Group  int
	Count  int
	Values Values
}

// Summarize groups records by g and reduces every field with stat, ignoring
// missing values. A field with no values in a group is missing. Groups are
// returned in ascending order.
func Summarize(t Table, g Grouping, stat Statistic) ([]Summary, error) {
	reduce, err := reducer(stat)
	if err != nil {
		return nil, err
	}
	keyOf, err := grouper(g)
	if err != nil {
		return nil, err
	}

	buckets := make(map[int][]Record)
	for _, r := range t.Records {
		k := keyOf(r)
		buckets[k] = append(buckets[k], r)
	}
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]Summary, 0, len(keys))
	for _, k := range keys {
		recs := buckets[k]
		s := Summary{Group: k, Count: len(recs), Values: MissingValues()}
		for f := range AtmPr {
			xs := make([]float64, 0, len(recs))
			for _, r := range recs {
				if v := r.Value(f); !IsMissing(v) {
					xs = append(xs, v)
				}
			}
			if len(xs) > 0 {
				s.Values[f] = reduce(xs)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func grouper(g Grouping) (func(Record) int, error) {
	switch g {
	case ByMonth:
		return func(r Record) int { return r.Month }, nil
	case ByDayOfYear:
		return func(r Record) int { return r.DayOfYear }, nil
	case ByHour:
		return func(r Record) int { return r.Hour }, nil
	default:
		return nil, fmt.Errorf("unknown grouping %q", g)
	}
}

func reducer(stat Statistic) (func([]float64) float64, error) {
	switch stat {
	case StatMean:
		return mean, nil
	case StatSum:
		return sum, nil
	case StatMax:
		return func(xs []float64) float64 { return sorted(xs)[len(xs)-1] }, nil
	case StatMin:
		return func(xs []float64) float64 { return sorted(xs)[0] }, nil
	case StatStd:
		return stdDev, nil
	case StatQ1:
		return func(xs []float64) float64 { return quantile(xs, 0.25) }, nil
	case StatQ3:
		return func(xs []float64) float64 { return quantile(xs, 0.75) }, nil
	case StatMedian:
		return func(xs []float64) float64 { return quantile(xs, 0.5) }, nil
	default:
		return nil, fmt.Errorf("unknown statistic %q", stat)
	}
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 { return sum(xs) / float64(len(xs)) }

// stdDev is the sample standard deviation; a single value yields missing.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return Missing()
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// quantile interpolates linearly between the closest ranks.
func quantile(xs []float64, q float64) float64 {
	s := sorted(xs)
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return s[lo] + (s[hi]-s[lo])*frac
}

func sorted(xs []float64) []float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	return s
}
