package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("GVA"),
		Value:     []byte(`{"station":"GVA","path":"/data/gva.epw"}`),
		Topic:     "weather-ingest-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("scheduler")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("GVA"), raw.Key)
	assert.JSONEq(t, `{"station":"GVA","path":"/data/gva.epw"}`, string(raw.Value))
	assert.Equal(t, "weather-ingest-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "scheduler", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	processed := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	ts := time.Date(2017, 1, 1, 13, 0, 0, 0, time.UTC)
	site := &domain.Site{Name: "Geneva", Code: "GEN", WMO: "067700", Latitude: 46.23}
	nt := domain.NormalizedTable{
		RunID:       "run-1",
		ProcessedAt: processed,
		Table:       domain.Table{Station: "GVA", Format: domain.FormatEPW},
	}
	rec := domain.Record{
		Timestamp: ts, Month: 1, Day: 1, DayOfYear: 1, Hour: 14,
		TDB: 3.5, TDP: domain.Missing(), RH: 80, GHI: 120, DNI: 0, DHI: 60, WSpd: 2.1, WDr: 270,
		Site: site,
	}

	msg, err := serializeToMessage(nt, rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("GVA|2017-01-01T13:00:00Z"), msg.Key)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "station", msg.Headers[0].Key)
	assert.Equal(t, []byte("GVA"), msg.Headers[0].Value)
	assert.Equal(t, "format", msg.Headers[1].Key)
	assert.Equal(t, []byte("epw"), msg.Headers[1].Value)
	assert.Equal(t, "run_id", msg.Headers[2].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[2].Value)
	assert.Equal(t, "processed_at", msg.Headers[3].Key)
	assert.Equal(t, []byte(processed.Format(time.RFC3339)), msg.Headers[3].Value)

	var got RecordMessage
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "GVA", got.Station)
	assert.Equal(t, 14, got.Hour)
	require.NotNil(t, got.TDB)
	assert.Equal(t, 3.5, *got.TDB)
	assert.Nil(t, got.TDP, "missing dew point is null")
	require.NotNil(t, got.DNI)
	assert.Zero(t, *got.DNI)
	require.NotNil(t, got.Site)
	assert.Equal(t, "067700", got.Site.WMO)
	assert.Contains(t, string(msg.Value), `"tdp":null`)
}

func TestSerializeToMessage_MissingSiteCoordinates(t *testing.T) {
	site := &domain.Site{Name: "Geneva", Code: "GEN", WMO: "067700", Latitude: 46.23, Longitude: 6.1, TimeZone: 1, Altitude: domain.Missing()}
	nt := domain.NormalizedTable{RunID: "run-2", Table: domain.Table{Station: "GVA", Format: domain.FormatEPW}}
	rec := domain.Record{
		Timestamp: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), Month: 1, Day: 1, DayOfYear: 1, Hour: 1,
		TDB: 1, TDP: domain.Missing(), RH: 90, GHI: 0, DNI: 0, DHI: 0, WSpd: 1, WDr: 0,
		Site: site,
	}

	msg, err := serializeToMessage(nt, rec)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"altitude":null`)

	var got RecordMessage
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.NotNil(t, got.Site)
	assert.Nil(t, got.Site.Altitude)
	require.NotNil(t, got.Site.Latitude)
	assert.Equal(t, 46.23, *got.Site.Latitude)
}

func TestMessageKey_NormalizesZone(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	ts := time.Date(2017, 6, 1, 14, 0, 0, 0, cet)
	assert.Equal(t, "ZRH|2017-06-01T13:00:00Z", messageKey("ZRH", ts))
}
