package domain

import "math"

// Saturation pressure correlations over ice and liquid water, ASHRAE
// Fundamentals 2009, Psychrometrics eqs. 5 and 6. T is absolute.
const (
	c1  = -5.6745359e3
	c2  = 6.3925247
	c3  = -9.6778430e-3
	c4  = 6.2215701e-7
	c5  = 2.0747825e-9
	c6  = -9.4840240e-13
	c7  = 4.1635019
	c8  = -5.8002206e3
	c9  = 1.3914993
	c10 = -4.8640239e-2
	c11 = 4.1764768e-5
	c12 = -1.4452093e-8
	c13 = 6.5459673
)

// Dew point correlations, eqs. 39 (0..93 °C) and 40 (below 0 °C).
const (
	c14 = 6.54
	c15 = 14.526
	c16 = 0.7389
	c17 = 0.09486
	c18 = 0.4569

	c19 = 6.09
	c20 = 12.608
	c21 = 0.4959
)

const (
	// FreezingPointK is 0 °C in Kelvin; the ice correlation applies at or below it.
	FreezingPointK = 273.15

	// minVaporPressure (kPa) stands in for a whole series whose vapor
	// pressure logarithm has no finite value to borrow from.
	minVaporPressure = 1e-5
)

// DewPointStats describes the corrections applied while estimating dew point.
type DewPointStats struct {
	Repaired int // non-finite log vapor pressures replaced by a neighbor
	Fallback int // rows recomputed with the sub-zero correlation
	Missing  int // rows skipped because dry-bulb or humidity was missing
}

// HumidityFraction converts relative humidity in percent to a fraction
// clamped to [0, 1]. Missing stays missing.
func HumidityFraction(rh float64) float64 {
	phi := rh / 100
	switch {
	case phi > 1:
		return 1
	case phi < 0:
		return 0
	default:
		return phi
	}
}

// lnSaturationIce is ln(p_ws) in Pa over ice.
func lnSaturationIce(tk float64) float64 {
	return c1/tk + c2 + c3*tk + c4*tk*tk + c5*tk*tk*tk + c6*tk*tk*tk*tk + c7*math.Log(tk)
}

// lnSaturationLiquid is ln(p_ws) in Pa over liquid water.
func lnSaturationLiquid(tk float64) float64 {
	return c8/tk + c9 + c10*tk + c11*tk*tk + c12*tk*tk*tk + c13*math.Log(tk)
}

// lnSaturationPressure selects the correlation by temperature.
func lnSaturationPressure(tk float64) float64 {
	if tk <= FreezingPointK {
		return lnSaturationIce(tk)
	}
	return lnSaturationLiquid(tk)
}

// VaporPressure returns the partial pressure of water vapor in kPa for a
// dry-bulb temperature in °C and relative humidity in percent.
func VaporPressure(tdb, rh float64) float64 {
	pws := math.Exp(lnSaturationPressure(tdb + FreezingPointK))
	return HumidityFraction(rh) * pws / 1000
}

// DewPoint estimates dew-point temperature (°C) from parallel dry-bulb (°C)
// and relative humidity (%) series. The result has len(tdb) entries; rows
// with a missing input are missing, every other row is finite.
func DewPoint(tdb, rh []float64) []float64 {
	tdp, _ := DewPointReport(tdb, rh)
	return tdp
}

// DewPointReport is DewPoint plus a summary of the repairs it made.
func DewPointReport(tdb, rh []float64) ([]float64, DewPointStats) {
	var stats DewPointStats
	n := len(tdb)
	pw := make([]float64, n)
	alpha := make([]float64, n)
	present := make([]bool, n)

	for i := range n {
		if i >= len(rh) || IsMissing(tdb[i]) || IsMissing(rh[i]) {
			stats.Missing++
			continue
		}
		present[i] = true
		pw[i] = VaporPressure(tdb[i], rh[i])
		alpha[i] = math.Log(pw[i])
	}

	stats.Repaired = repairNearest(alpha, present)

	tdp := make([]float64, n)
	for i := range n {
		if !present[i] {
			tdp[i] = Missing()
			continue
		}
		a := alpha[i]
		v := c14 + c15*a + c16*a*a + c17*a*a*a + c18*math.Pow(pw[i], 0.1984)
		if v < 0 || !isFinite(v) {
			v = c19 + c20*a + c21*a*a
			stats.Fallback++
		}
		tdp[i] = v
	}
	return tdp, stats
}

// repairNearest replaces each non-finite entry of xs (among positions where
// present is true) with the nearest finite entry by index. Ties resolve to
// the lower index. If nothing is finite the floor vapor pressure is used.
// It returns the number of entries replaced.
func repairNearest(xs []float64, present []bool) int {
	n := len(xs)
	prev := make([]int, n)
	next := make([]int, n)

	last := -1
	for i := range n {
		prev[i] = last
		if present[i] && isFinite(xs[i]) {
			last = i
		}
	}
	last = -1
	for i := n - 1; i >= 0; i-- {
		next[i] = last
		if present[i] && isFinite(xs[i]) {
			last = i
		}
	}

	repaired := 0
	floor := math.Log(minVaporPressure)
	src := make([]float64, n)
	copy(src, xs)
	for i := range n {
		if !present[i] || isFinite(src[i]) {
			continue
		}
		p, q := prev[i], next[i]
		switch {
		case p < 0 && q < 0:
			xs[i] = floor
		case q < 0 || (p >= 0 && i-p <= q-i):
			xs[i] = src[p]
		default:
			xs[i] = src[q]
		}
		repaired++
	}
	return repaired
}
