package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-normalizer/internal/config"
	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// Writer produces normalized hourly records to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes every record of every table, one message per hour,
// in a single WriteMessages call. Records of one station share a key
// prefix and hash to the same partition.
func (w *Writer) LoadBatch(ctx context.Context, tables []domain.NormalizedTable) error {
	var msgs []kafkago.Message
	for i := range tables {
		for j := range tables[i].Table.Records {
			msg, err := serializeToMessage(tables[i], tables[i].Table.Records[j])
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// RecordMessage is the JSON value of a sink message. Missing quantities
// are null.
type RecordMessage struct {
	Station     string              `json:"station"`
	Format      string              `json:"format"`
	RunID       string              `json:"run_id"`
	Timestamp   time.Time           `json:"timestamp"`
	Month       int                 `json:"month"`
	Day         int                 `json:"day"`
	DayOfYear   int                 `json:"day_of_year"`
	Hour        int                 `json:"hour"`
	TDB         *float64            `json:"tdb"`
	TDP         *float64            `json:"tdp"`
	RH          *float64            `json:"rh"`
	GHI         *float64            `json:"ghi"`
	DNI         *float64            `json:"dni"`
	DHI         *float64            `json:"dhi"`
	WSpd        *float64            `json:"wspd"`
	WDr         *float64            `json:"wdr"`
	Site        *domain.SitePayload `json:"site,omitempty"`
	ProcessedAt time.Time           `json:"processed_at"`
}

// messageKey identifies one station-hour.
func messageKey(station string, ts time.Time) string {
	return station + "|" + ts.UTC().Format(time.RFC3339)
}

// serializeToMessage marshals one hourly record into a Kafka message.
func serializeToMessage(nt domain.NormalizedTable, r domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(RecordMessage{
		Station:     nt.Table.Station,
		Format:      string(nt.Table.Format),
		RunID:       nt.RunID,
		Timestamp:   r.Timestamp,
		Month:       r.Month,
		Day:         r.Day,
		DayOfYear:   r.DayOfYear,
		Hour:        r.Hour,
		TDB:         domain.Nullable(r.TDB),
		TDP:         domain.Nullable(r.TDP),
		RH:          domain.Nullable(r.RH),
		GHI:         domain.Nullable(r.GHI),
		DNI:         domain.Nullable(r.DNI),
		DHI:         domain.Nullable(r.DHI),
		WSpd:        domain.Nullable(r.WSpd),
		WDr:         domain.Nullable(r.WDr),
		Site:        domain.NewSitePayload(r.Site),
		ProcessedAt: nt.ProcessedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s: %w", messageKey(nt.Table.Station, r.Timestamp), err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(nt.Table.Station, r.Timestamp)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte(nt.Table.Station)},
			{Key: "format", Value: []byte(nt.Table.Format)},
			{Key: "run_id", Value: []byte(nt.RunID)},
			{Key: "processed_at", Value: []byte(nt.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
