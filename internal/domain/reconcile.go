package domain

// Coalesce merges redundant estimates of one quantity: at each position it
// takes the first non-missing value in argument order. Series shorter than
// the longest count as missing past their end.
func Coalesce(series ...[]float64) []float64 {
	n := 0
	for _, s := range series {
		n = max(n, len(s))
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = firstPresent(i, series)
	}
	return out
}

func firstPresent(i int, series [][]float64) float64 {
	for _, s := range series {
		if i < len(s) && !IsMissing(s[i]) {
			return s[i]
		}
	}
	return Missing()
}

// Irradiance is one global/direct/diffuse triple in W/m².
type Irradiance struct {
	GHI, DNI, DHI float64
}

// IrradianceSources carries the redundant irradiance estimates for one
// timestamp, in priority order: the primary model, the secondary model,
// and the ground measurement.
type IrradianceSources struct {
	Primary   Irradiance
	Secondary Irradiance
	Measured  Irradiance
}

// ReconcileIrradiance resolves each component independently with the same
// priority order.
func ReconcileIrradiance(rows []IrradianceSources) []Irradiance {
	ghi := make([][]float64, 3)
	dni := make([][]float64, 3)
	dhi := make([][]float64, 3)
	for k := range 3 {
		ghi[k] = make([]float64, len(rows))
		dni[k] = make([]float64, len(rows))
		dhi[k] = make([]float64, len(rows))
	}
	for i, r := range rows {
		for k, src := range [3]Irradiance{r.Primary, r.Secondary, r.Measured} {
			ghi[k][i] = src.GHI
			dni[k][i] = src.DNI
			dhi[k][i] = src.DHI
		}
	}

	g, d, h := Coalesce(ghi...), Coalesce(dni...), Coalesce(dhi...)
	out := make([]Irradiance, len(rows))
	for i := range out {
		out[i] = Irradiance{GHI: g[i], DNI: d[i], DHI: h[i]}
	}
	return out
}
