package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// MultiLoader fans a batch out to several sinks. Every sink is attempted;
// the batch fails if any sink fails, so the pipeline retries it and the
// offsets stay uncommitted.
type MultiLoader []BatchLoader

func (m MultiLoader) LoadBatch(ctx context.Context, tables []domain.NormalizedTable) error {
	var errs []error
	for i, l := range m {
		if err := l.LoadBatch(ctx, tables); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
