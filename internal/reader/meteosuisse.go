package reader

import (
	"context"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// MeteoSuisse IDAweb export: semicolon-separated, one header line, hourly
// stamp. The files carry no direct or diffuse irradiance, so DNI and DHI
// stay missing.
const (
	meteoSuisseSkip  = 1
	meteoSuisseStamp = 1
)

var meteoSuisseColumns = []column{
	{2, domain.GHI},
	{3, domain.AtmPr},
	{4, domain.TDB},
	{5, domain.RH},
	{6, domain.TDP},
	{7, domain.WSpd},
	{8, domain.WDr},
}

func (r *ObservationReader) readMeteoSuisse(ctx context.Context, path string) ([]domain.Observation, error) {
	var obs []domain.Observation
	err := scanRows(ctx, path, ';', meteoSuisseSkip, 9, func(_ int, row []string) error {
		key, minute, err := domain.ParseHourStamp(row[meteoSuisseStamp])
		if err != nil {
			return err
		}
		vals, err := r.values(row, meteoSuisseColumns)
		if err != nil {
			return err
		}
		obs = append(obs, domain.Observation{Key: key, Minute: minute, Values: vals})
		return nil
	})
	return obs, err
}
