// Command normalize reads one typical-year weather file, normalizes it and
// writes the table as CSV. It runs the same reader cascade as weatherd
// without Kafka.
//
// Usage:
//
//	go run ./cmd/normalize \
//	  -station GVA \
//	  -file data/GVA.epw \
//	  -format epw \
//	  -out out/GVA.csv.zst \
//	  -db out/weather.db \
//	  -stats month
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/couchcryptid/weather-normalizer/internal/adapter/export"
	"github.com/couchcryptid/weather-normalizer/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-normalizer/internal/config"
	"github.com/couchcryptid/weather-normalizer/internal/domain"
	"github.com/couchcryptid/weather-normalizer/internal/observability"
	"github.com/couchcryptid/weather-normalizer/internal/reader"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	station := flag.String("station", "", "station code recorded on every row")
	file := flag.String("file", "", "weather file to read")
	format := flag.String("format", "", "format hint: epw, espr, csv or cache")
	out := flag.String("out", "", "output CSV path; a .zst suffix compresses")
	dbPath := flag.String("db", "", "optional SQLite database to store the table in")
	stats := flag.String("stats", "", "print a mean summary grouped by month, day or hour")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *station == "" || *file == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -station, -file")
	}

	ic, err := config.LoadIngest()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(*logLevel, "text")

	dispatcher := reader.NewDispatcher(reader.Options{
		MissingTokens: ic.MissingTokens,
		FormatOrder:   ic.Formats(),
		ReferenceYear: ic.ReferenceYear,
		Logger:        logger,
	}, nil)

	ctx := context.Background()
	table, err := dispatcher.Read(ctx, *station, *file, domain.ParseFormat(*format))
	if err != nil {
		return err
	}
	if table.Empty() {
		return fmt.Errorf("%s: no usable records", *file)
	}
	log.Printf("%s: %d records (%s)", *station, table.Len(), table.Format)

	if *out != "" {
		if err := export.Save(*out, table); err != nil {
			return err
		}
		log.Printf("wrote %s", *out)
	}

	if *dbPath != "" {
		store, err := sqlite.Open(*dbPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.LoadBatch(ctx, []domain.NormalizedTable{domain.NewNormalizedTable(uuid.NewString(), table)}); err != nil {
			return err
		}
		log.Printf("stored %s in %s", *station, *dbPath)
	}

	if *stats != "" {
		summaries, err := domain.Summarize(table, domain.Grouping(*stats), domain.StatMean)
		if err != nil {
			return err
		}
		printSummaries(os.Stdout, *stats, summaries)
	}
	return nil
}

func printSummaries(w io.Writer, group string, summaries []domain.Summary) {
	fields := []domain.Field{domain.TDB, domain.TDP, domain.RH, domain.GHI, domain.DNI, domain.DHI, domain.WSpd, domain.WDr}

	header := []string{group, "n"}
	for _, f := range fields {
		header = append(header, f.String())
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, s := range summaries {
		row := []string{strconv.Itoa(s.Group), strconv.Itoa(s.Count)}
		for _, f := range fields {
			v := s.Values[f]
			if domain.IsMissing(v) {
				row = append(row, "NA")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}
