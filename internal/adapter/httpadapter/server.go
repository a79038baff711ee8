package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-normalizer/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// RecordStore serves stored normalized tables.
type RecordStore interface {
	Stations(ctx context.Context) ([]sqlite.StationSummary, error)
	Records(ctx context.Context, station string) (domain.Table, error)
}

// Server exposes health, readiness, metrics and stored-record endpoints.
type Server struct {
	httpServer *http.Server
	store      RecordStore
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics
// routes. The /v1 record routes are mounted only when store is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, store RecordStore, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:  store,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if store != nil {
		mux.HandleFunc("GET /v1/stations", s.handleStations)
		mux.HandleFunc("GET /v1/stations/{station}/records", s.handleRecords)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.store.Stations(r.Context())
	if err != nil {
		s.logger.Error("list stations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list stations failed")
		return
	}
	if stations == nil {
		stations = []sqlite.StationSummary{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"stations": stations})
}

// recordResponse is one hourly record on the wire. Missing quantities are null.
type recordResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	DayOfYear int       `json:"day_of_year"`
	Hour      int       `json:"hour"`
	TDB       *float64  `json:"tdb"`
	TDP       *float64  `json:"tdp"`
	RH        *float64  `json:"rh"`
	GHI       *float64  `json:"ghi"`
	DNI       *float64  `json:"dni"`
	DHI       *float64  `json:"dhi"`
	WSpd      *float64  `json:"wspd"`
	WDr       *float64  `json:"wdr"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	station := r.PathValue("station")

	month := 0
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		month = m
	}

	table, err := s.store.Records(r.Context(), station)
	if errors.Is(err, domain.ErrStationNotFound) {
		writeError(w, http.StatusNotFound, "station not found")
		return
	}
	if err != nil {
		s.logger.Error("read records failed", "station", station, "error", err)
		writeError(w, http.StatusInternalServerError, "read records failed")
		return
	}

	out := make([]recordResponse, 0, table.Len())
	for _, rec := range table.Records {
		if month != 0 && rec.Month != month {
			continue
		}
		out = append(out, recordResponse{
			Timestamp: rec.Timestamp,
			Month:     rec.Month,
			Day:       rec.Day,
			DayOfYear: rec.DayOfYear,
			Hour:      rec.Hour,
			TDB:       domain.Nullable(rec.TDB),
			TDP:       domain.Nullable(rec.TDP),
			RH:        domain.Nullable(rec.RH),
			GHI:       domain.Nullable(rec.GHI),
			DNI:       domain.Nullable(rec.DNI),
			DHI:       domain.Nullable(rec.DHI),
			WSpd:      domain.Nullable(rec.WSpd),
			WDr:       domain.Nullable(rec.WDr),
		})
	}

	body := map[string]any{
		"station": table.Station,
		"format":  table.Format,
		"records": out,
	}
	if sites := table.Sites(); len(sites) > 0 {
		body["site"] = domain.NewSitePayload(sites[0])
	}
	sharedobs.WriteJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
