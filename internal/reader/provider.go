package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// Provider names a measurement source for actual-year data.
type Provider string

const (
	ProviderNCDC        Provider = "ncdc"
	ProviderNSRDB       Provider = "nsrdb"
	ProviderMeteoSuisse Provider = "meteosuisse"
)

// ParseProvider resolves a provider name. "ms" is accepted for MeteoSuisse.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderNCDC, ProviderNSRDB, ProviderMeteoSuisse:
		return p, nil
	case "ms":
		return ProviderMeteoSuisse, nil
	default:
		return "", fmt.Errorf("unknown provider %q", s)
	}
}

// ObservationReader parses raw provider files into observations.
type ObservationReader struct {
	opts    Options
	missing sentinels
}

// NewObservationReader creates an ObservationReader.
func NewObservationReader(opts Options) *ObservationReader {
	opts = opts.withDefaults()
	return &ObservationReader{opts: opts, missing: newSentinels(opts.MissingTokens)}
}

// Read parses one provider file.
func (r *ObservationReader) Read(ctx context.Context, p Provider, path string) ([]domain.Observation, error) {
	var (
		obs []domain.Observation
		err error
	)
	switch p {
	case ProviderNCDC:
		obs, err = r.readNCDC(ctx, path)
	case ProviderNSRDB:
		obs, err = r.readNSRDB(ctx, path)
	case ProviderMeteoSuisse:
		obs, err = r.readMeteoSuisse(ctx, path)
	default:
		return nil, fmt.Errorf("unknown provider %q", p)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", p, path, err)
	}
	return obs, nil
}

// column binds a source column to a field.
type column struct {
	index int
	field domain.Field
}

// values reads the bound columns of row into a fresh Values.
func (r *ObservationReader) values(row []string, cols []column) (domain.Values, error) {
	v := domain.MissingValues()
	for _, c := range cols {
		x, err := r.missing.parse(row[c.index])
		if err != nil {
			return v, fmt.Errorf("column %d (%s): %w", c.index, c.field, err)
		}
		v[c.field] = x
	}
	return v, nil
}

// scanRows skips the first skip lines of a delimited file and hands every
// following row, with its 1-based line number, to fn. Rows shorter than
// minFields are rejected.
func scanRows(ctx context.Context, path string, comma rune, skip, minFields int, fn func(line int, row []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line <= skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(row) < minFields {
			return fmt.Errorf("line %d: got %d fields, want at least %d", line, len(row), minFields)
		}
		if err := fn(line, row); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}
