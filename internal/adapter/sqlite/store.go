// Package sqlite persists normalized weather tables in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/upsert-station.sql
var upsertStationSQL string

//go:embed sql/delete-records.sql
var deleteRecordsSQL string

//go:embed sql/insert-record.sql
var insertRecordSQL string

//go:embed sql/get-station.sql
var getStationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-records.sql
var getRecordsSQL string

// StationSummary describes the latest stored table of a station.
type StationSummary struct {
	Station     string        `json:"station"`
	Format      domain.Format `json:"format"`
	RunID       string        `json:"run_id"`
	ProcessedAt time.Time     `json:"processed_at"`
	Records     int           `json:"records"`
}

// Store reads and writes normalized tables. It implements pipeline.BatchLoader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// One writer at a time; an in-memory database also lives on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func buildDSN(path string) (string, error) {
	params := strings.Join([]string{"_foreign_keys=on", "_busy_timeout=5000"}, "&")
	if path == ":memory:" {
		return "file::memory:?" + params, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return fmt.Sprintf("file:%s?%s&_journal_mode=WAL", path, params), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadBatch replaces each station's stored table with the one in the batch.
// The whole batch is written in one transaction.
func (s *Store) LoadBatch(ctx context.Context, tables []domain.NormalizedTable) (err error) {
	if len(tables) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insert, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for _, nt := range tables {
		if err = s.storeTable(ctx, tx, insert, nt); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) storeTable(ctx context.Context, tx *sql.Tx, insert *sql.Stmt, nt domain.NormalizedTable) error {
	t := nt.Table
	var site domain.Site
	hasSite := false
	if sites := t.Sites(); len(sites) > 0 {
		site, hasSite = *sites[0], true
	}

	_, err := tx.ExecContext(ctx, upsertStationSQL,
		t.Station, string(t.Format), nt.RunID, nt.ProcessedAt.UTC().Format(time.RFC3339Nano),
		nullString(site.Name, hasSite), nullString(site.Code, hasSite), nullString(site.WMO, hasSite),
		nullFloat(site.Latitude, hasSite), nullFloat(site.Longitude, hasSite),
		nullFloat(site.TimeZone, hasSite), nullFloat(site.Altitude, hasSite),
	)
	if err != nil {
		return fmt.Errorf("upsert station %s: %w", t.Station, err)
	}
	if _, err := tx.ExecContext(ctx, deleteRecordsSQL, t.Station); err != nil {
		return fmt.Errorf("clear records of %s: %w", t.Station, err)
	}

	for _, r := range t.Records {
		_, err := insert.ExecContext(ctx,
			t.Station, r.Timestamp.UTC().Format(time.RFC3339), r.Month, r.Day, r.DayOfYear, r.Hour,
			value(r.TDB), value(r.TDP), value(r.RH), value(r.GHI),
			value(r.DNI), value(r.DHI), value(r.WSpd), value(r.WDr),
		)
		if err != nil {
			return fmt.Errorf("insert record %s %s: %w", t.Station, r.Timestamp.Format(time.RFC3339), err)
		}
	}
	s.logger.Debug("table stored", "station", t.Station, "rows", t.Len(), "run_id", nt.RunID)
	return nil
}

// Stations lists every stored station with its record count.
func (s *Store) Stations(ctx context.Context) ([]StationSummary, error) {
	rows, err := s.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close stations rows", "error", err)
		}
	}()

	var out []StationSummary
	for rows.Next() {
		var (
			sum       StationSummary
			format    string
			processed string
		)
		if err := rows.Scan(&sum.Station, &format, &sum.RunID, &processed, &sum.Records); err != nil {
			return nil, err
		}
		sum.Format = domain.Format(format)
		if sum.ProcessedAt, err = time.Parse(time.RFC3339Nano, processed); err != nil {
			return nil, fmt.Errorf("parse processed_at %q: %w", processed, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Records returns the stored table of a station in timestamp order.
// Missing quantities come back as missing.
func (s *Store) Records(ctx context.Context, station string) (domain.Table, error) {
	var (
		format, runID, processed string
		name, code, wmo          sql.NullString
		lat, lon, tz, alt        sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, getStationSQL, station).
		Scan(new(string), &format, &runID, &processed, &name, &code, &wmo, &lat, &lon, &tz, &alt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Table{}, fmt.Errorf("%w: %q", domain.ErrStationNotFound, station)
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("lookup station %q: %w", station, err)
	}

	var site *domain.Site
	if name.Valid {
		site = &domain.Site{
			Name: name.String, Code: code.String, WMO: wmo.String,
			Latitude: fromNull(lat), Longitude: fromNull(lon), TimeZone: fromNull(tz), Altitude: fromNull(alt),
		}
	}

	rows, err := s.db.QueryContext(ctx, getRecordsSQL, station)
	if err != nil {
		return domain.Table{}, fmt.Errorf("query records of %q: %w", station, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close records rows", "error", err)
		}
	}()

	t := domain.Table{Station: station, Format: domain.Format(format)}
	for rows.Next() {
		var (
			r  domain.Record
			ts string
			v  [domain.NumFields]sql.NullFloat64
		)
		if err := rows.Scan(&ts, &r.Month, &r.Day, &r.DayOfYear, &r.Hour,
			&v[domain.TDB], &v[domain.TDP], &v[domain.RH], &v[domain.GHI],
			&v[domain.DNI], &v[domain.DHI], &v[domain.WSpd], &v[domain.WDr]); err != nil {
			return domain.Table{}, err
		}
		if r.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return domain.Table{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		for _, f := range []domain.Field{domain.TDB, domain.TDP, domain.RH, domain.GHI, domain.DNI, domain.DHI, domain.WSpd, domain.WDr} {
			r = r.SetValue(f, fromNull(v[f]))
		}
		r.Site = site
		t.Records = append(t.Records, r)
	}
	return t, rows.Err()
}

// value maps missing to SQL NULL.
func value(v float64) any {
	if domain.IsMissing(v) {
		return nil
	}
	return v
}

func fromNull(n sql.NullFloat64) float64 {
	if !n.Valid {
		return domain.Missing()
	}
	return n.Float64
}

func nullString(s string, ok bool) any {
	if !ok {
		return nil
	}
	return s
}

func nullFloat(v float64, ok bool) any {
	if !ok || domain.IsMissing(v) {
		return nil
	}
	return v
}
