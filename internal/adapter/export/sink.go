package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// Sink saves every normalized table to <dir>/<station><ext>. It implements
// pipeline.BatchLoader.
type Sink struct {
	dir    string
	ext    string
	logger *slog.Logger
}

// NewSink creates a Sink writing into dir. ext is ".csv" or ".csv.zst".
func NewSink(dir, ext string, logger *slog.Logger) *Sink {
	return &Sink{dir: dir, ext: ext, logger: logger}
}

func (s *Sink) LoadBatch(_ context.Context, tables []domain.NormalizedTable) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	for _, nt := range tables {
		path, err := s.path(nt.Table.Station)
		if err != nil {
			return err
		}
		if err := Save(path, nt.Table); err != nil {
			return err
		}
		s.logger.Debug("table exported", "station", nt.Table.Station, "path", path)
	}
	return nil
}

// path resolves the export file of station, refusing anything that would
// land outside the export directory.
func (s *Sink) path(station string) (string, error) {
	if station == "" {
		return "", fmt.Errorf("%w: empty", domain.ErrInvalidStation)
	}
	if err := domain.ValidateStation(station); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, station+s.ext)
	if filepath.Dir(path) != filepath.Clean(s.dir) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidStation, station)
	}
	return path, nil
}
