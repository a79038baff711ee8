package reader

import (
	"context"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// NCDC integrated surface data export: comma-separated, two header lines,
// compact date and time.
const (
	ncdcSkip = 2
	ncdcDate = 2
	ncdcTime = 3
)

var ncdcColumns = []column{
	{7, domain.WDr},
	{10, domain.WSpd},
	{12, domain.TDB},
	{14, domain.TDP},
	{16, domain.AtmPr},
	{18, domain.RH},
}

func (r *ObservationReader) readNCDC(ctx context.Context, path string) ([]domain.Observation, error) {
	var obs []domain.Observation
	err := scanRows(ctx, path, ',', ncdcSkip, 19, func(_ int, row []string) error {
		key, minute, err := domain.ParseCompactKey(row[ncdcDate], row[ncdcTime])
		if err != nil {
			return err
		}
		vals, err := r.values(row, ncdcColumns)
		if err != nil {
			return err
		}
		obs = append(obs, domain.Observation{Key: key, Minute: minute, Values: vals})
		return nil
	})
	return obs, err
}
