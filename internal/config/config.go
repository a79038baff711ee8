package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// IngestPrefix prefixes every ingest setting, e.g. WEATHER_REFERENCE_YEAR.
const IngestPrefix = "WEATHER"

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	Ingest IngestConfig
}

// IngestConfig controls parsing and cleaning of weather files.
type IngestConfig struct {
	MissingTokens []string `envconfig:"MISSING_TOKENS" default:"9900,-9900,9999,99,-99,9999.9,999.9,-"`
	FormatOrder   []string `envconfig:"FORMAT_ORDER" default:"epw,espr,csv" validate:"min=1,dive,oneof=epw espr csv cache"`
	ReferenceYear int      `envconfig:"REFERENCE_YEAR" default:"2017" validate:"min=1900,max=2100"`

	TDBMin float64 `envconfig:"TDB_MIN" default:"-55" validate:"ltfield=TDBMax"`
	TDBMax float64 `envconfig:"TDB_MAX" default:"55"`
	TDPMin float64 `envconfig:"TDP_MIN" default:"-60" validate:"ltfield=TDPMax"`
	TDPMax float64 `envconfig:"TDP_MAX" default:"60"`

	// CacheSize bounds the parsed-table cache; 0 disables it.
	CacheSize int `envconfig:"CACHE_SIZE" default:"32" validate:"min=0,max=4096"`

	// ExportDir, when set, receives a CSV copy of every normalized table.
	ExportDir      string `envconfig:"EXPORT_DIR"`
	ExportCompress bool   `envconfig:"EXPORT_COMPRESS" default:"true"`

	// SQLitePath, when set, persists normalized tables to a SQLite database.
	SQLitePath string `envconfig:"SQLITE_PATH"`
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first without overriding
// variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	ingest, err := LoadIngest()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "weather-ingest-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "normalized-weather-records"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "weather-normalizer"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		Ingest:             *ingest,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// LoadIngest reads only the WEATHER_ settings. The offline tools use it
// without requiring any Kafka configuration.
func LoadIngest() (*IngestConfig, error) {
	var ic IngestConfig
	if err := envconfig.Process(IngestPrefix, &ic); err != nil {
		return nil, fmt.Errorf("process %s_ settings: %w", IngestPrefix, err)
	}
	for i, f := range ic.FormatOrder {
		ic.FormatOrder[i] = strings.ToLower(strings.TrimSpace(f))
	}

	if err := validator.New().Struct(ic); err != nil {
		return nil, fmt.Errorf("invalid %s_ settings: %w", IngestPrefix, err)
	}
	if isLeap(ic.ReferenceYear) {
		return nil, fmt.Errorf("invalid %s_REFERENCE_YEAR: %d is a leap year", IngestPrefix, ic.ReferenceYear)
	}
	return &ic, nil
}

// Formats returns the fallback order as domain formats.
func (ic IngestConfig) Formats() []domain.Format {
	out := make([]domain.Format, len(ic.FormatOrder))
	for i, f := range ic.FormatOrder {
		out[i] = domain.ParseFormat(f)
	}
	return out
}

// Ranges returns the plausibility limits applied by the sanitizer.
func (ic IngestConfig) Ranges() map[domain.Field]domain.Range {
	return map[domain.Field]domain.Range{
		domain.TDB: {Min: ic.TDBMin, Max: ic.TDBMax},
		domain.TDP: {Min: ic.TDPMin, Max: ic.TDPMax},
	}
}

// ExportExt is the file extension for exported tables.
func (ic IngestConfig) ExportExt() string {
	if ic.ExportCompress {
		return ".csv.zst"
	}
	return ".csv"
}

func isLeap(year int) bool {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366
}
