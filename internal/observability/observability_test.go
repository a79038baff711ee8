package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

func TestMetrics_ObserveAttempt(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveAttempt(domain.FormatEPW, false)
	m.ObserveAttempt(domain.FormatESPr, true)
	m.ObserveAttempt(domain.FormatESPr, true)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ReadAttempts.WithLabelValues("epw", "error")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ReadAttempts.WithLabelValues("espr", "success")), 0)
}

func TestMetrics_ObserveDewPoint(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveDewPoint(domain.DewPointStats{Repaired: 3, Fallback: 2})
	m.ObserveDewPoint(domain.DewPointStats{Repaired: 1, Missing: 5})

	assert.InDelta(t, 4, testutil.ToFloat64(m.DewPointRepairs.WithLabelValues("repaired")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.DewPointRepairs.WithLabelValues("fallback")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.DewPointRepairs.WithLabelValues("missing")), 0)
}

func TestMetrics_ObserveCache(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveCache(false)
	m.ObserveCache(true)
	m.ObserveCache(true)

	assert.InDelta(t, 1, testutil.ToFloat64(m.TableCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.TableCache.WithLabelValues("hit")), 0)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "station", "GVA")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "GVA", entry["station"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("reader attempt", "format", "epw")
	assert.Contains(t, buf.String(), "reader attempt")
	assert.Contains(t, buf.String(), "epw")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}
