package reader

import (
	"context"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// NSRDB solar files: one header line, ISO date and clock time, then three
// redundant irradiance triples (METSTAT model, SUNY model, measured).
const (
	nsrdbSkip = 1
	nsrdbDate = 0
	nsrdbTime = 1
)

var (
	nsrdbMetstat  = [3]int{6, 9, 12}
	nsrdbSUNY     = [3]int{15, 17, 19}
	nsrdbMeasured = [3]int{27, 29, 31}
)

func (r *ObservationReader) readNSRDB(ctx context.Context, path string) ([]domain.Observation, error) {
	var (
		obs     []domain.Observation
		sources []domain.IrradianceSources
	)
	err := scanRows(ctx, path, ',', nsrdbSkip, 32, func(_ int, row []string) error {
		key, minute, err := domain.ParseISOKey(row[nsrdbDate], row[nsrdbTime])
		if err != nil {
			return err
		}
		var src domain.IrradianceSources
		for _, t := range []struct {
			dst  *domain.Irradiance
			cols [3]int
		}{
			{&src.Primary, nsrdbSUNY},
			{&src.Secondary, nsrdbMetstat},
			{&src.Measured, nsrdbMeasured},
		} {
			if *t.dst, err = r.irradiance(row, t.cols); err != nil {
				return err
			}
		}
		obs = append(obs, domain.Observation{Key: key, Minute: minute, Values: domain.MissingValues()})
		sources = append(sources, src)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, irr := range domain.ReconcileIrradiance(sources) {
		obs[i].Values[domain.GHI] = irr.GHI
		obs[i].Values[domain.DNI] = irr.DNI
		obs[i].Values[domain.DHI] = irr.DHI
	}
	return obs, nil
}

func (r *ObservationReader) irradiance(row []string, cols [3]int) (domain.Irradiance, error) {
	v, err := r.values(row, []column{
		{cols[0], domain.GHI},
		{cols[1], domain.DNI},
		{cols[2], domain.DHI},
	})
	if err != nil {
		return domain.Irradiance{}, err
	}
	return domain.Irradiance{GHI: v[domain.GHI], DNI: v[domain.DNI], DHI: v[domain.DHI]}, nil
}
