// Command genfixture writes synthetic weather files in every supported
// encoding. Typical-year files (EPW, ESPr, CSV) cover the reference year;
// provider files (NCDC, NSRDB, MeteoSuisse) cover the requested hours.
//
// Usage:
//
//	go run ./cmd/genfixture -out data/fixtures -station GVA -hours 168
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/weather-normalizer/internal/fixture"
	"github.com/couchcryptid/weather-normalizer/internal/reader"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory")
	station := flag.String("station", "GVA", "station code used in file names")
	hours := flag.Int("hours", 168, "hours written to provider files")
	year := flag.Int("year", reader.DefaultReferenceYear, "year of the generated data")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	start := time.Date(*year, time.January, 1, 0, 0, 0, 0, time.UTC)
	typical := fixture.Synthetic(start, reader.HoursPerYear)
	actual := fixture.Synthetic(start, *hours)
	site := fixture.Geneva

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{*station + ".epw", func(w io.Writer) error { return fixture.WriteEPW(w, site, typical) }},
		{*station + ".clm.ascii", func(w io.Writer) error { return fixture.WriteESPr(w, site, typical) }},
		{*station + ".csv", func(w io.Writer) error { return fixture.WriteTable(w, typical) }},
		{*station + "_ncdc.csv", func(w io.Writer) error { return fixture.WriteNCDC(w, site.WMO, actual) }},
		{*station + "_nsrdb.csv", func(w io.Writer) error { return fixture.WriteNSRDB(w, actual) }},
		{*station + "_meteosuisse.txt", func(w io.Writer) error { return fixture.WriteMeteoSuisse(w, site.Code, actual) }},
	}

	for _, f := range files {
		path := filepath.Join(*outDir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
