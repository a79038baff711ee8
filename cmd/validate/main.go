// Command validate performs integrity checks on exported normalized tables:
// key uniqueness and ordering, calendar consistency, physical ranges and
// finiteness of every present value.
//
// Usage:
//
//	go run ./cmd/validate -rows 8760 out/GVA.csv.zst out/ZRH.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/weather-normalizer/internal/adapter/export"
	"github.com/couchcryptid/weather-normalizer/internal/config"
	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// maxErrorsShown caps the detail printed per failed phase.
const maxErrorsShown = 20

var valueFields = []domain.Field{domain.TDB, domain.TDP, domain.RH, domain.GHI, domain.DNI, domain.DHI, domain.WSpd, domain.WDr}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rows := flag.Int("rows", 0, "expected row count per table; 0 skips the check")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ic, err := config.LoadIngest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	if code := run(flag.Args(), *rows, ic.Ranges()); code != 0 {
		os.Exit(code)
	}
}

func run(paths []string, wantRows int, ranges map[domain.Field]domain.Range) int {
	fmt.Println("=== Weather Table Integrity Validation ===")

	code := 0
	for _, path := range paths {
		table, err := export.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}

		phases := []*phase{
			validateKeys(table, wantRows),
			validateCalendar(table),
			validateRanges(table, ranges),
			validateFinite(table),
		}
		if !report(path, table, phases) {
			code = 1
		}
	}
	return code
}

func report(path string, table domain.Table, phases []*phase) bool {
	fmt.Printf("\n%s (station %s, %d records)\n", path, table.Station, table.Len())

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}

	fmt.Print("  missing:")
	for _, f := range valueFields {
		fmt.Printf(" %s=%d", f, countMissing(table, f))
	}
	fmt.Println()

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrorsShown {
				fmt.Printf("  ... and %d more\n", len(p.errors)-maxErrorsShown)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}
	return allPassed
}

// validateKeys checks that timestamps are unique and strictly increasing.
func validateKeys(t domain.Table, wantRows int) *phase {
	p := &phase{name: "Key uniqueness and order"}
	if t.Empty() {
		p.errorf("table has no records")
		return p
	}
	if wantRows > 0 && t.Len() != wantRows {
		p.errorf("got %d records, want %d", t.Len(), wantRows)
	}

	seen := make(map[time.Time]int, t.Len())
	for i, r := range t.Records {
		if prev, ok := seen[r.Timestamp]; ok {
			p.errorf("row %d: timestamp %s duplicates row %d", i+1, r.Timestamp.Format(time.RFC3339), prev+1)
			continue
		}
		seen[r.Timestamp] = i
		if i > 0 && !r.Timestamp.After(t.Records[i-1].Timestamp) {
			p.errorf("row %d: timestamp %s not after %s", i+1,
				r.Timestamp.Format(time.RFC3339), t.Records[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return p
}

// validateCalendar checks the calendar columns against each other.
func validateCalendar(t domain.Table) *phase {
	p := &phase{name: "Calendar columns"}
	for i, r := range t.Records {
		if r.Month < 1 || r.Month > 12 {
			p.errorf("row %d: month %d", i+1, r.Month)
		}
		if r.Day < 1 || r.Day > 31 {
			p.errorf("row %d: day %d", i+1, r.Day)
		}
		if r.Hour < 0 || r.Hour > 24 {
			p.errorf("row %d: hour %d", i+1, r.Hour)
		}
		if r.DayOfYear != r.Timestamp.YearDay() {
			p.errorf("row %d: day_of_year %d, timestamp says %d", i+1, r.DayOfYear, r.Timestamp.YearDay())
		}
	}
	return p
}

// validateRanges checks present values against the configured plausibility
// limits.
func validateRanges(t domain.Table, ranges map[domain.Field]domain.Range) *phase {
	p := &phase{name: "Physical ranges"}
	for i, r := range t.Records {
		for f, rng := range ranges {
			v := r.Value(f)
			if domain.IsMissing(v) || rng.Contains(v) {
				continue
			}
			p.errorf("row %d: %s=%g outside [%g, %g]", i+1, f, v, rng.Min, rng.Max)
		}
	}
	return p
}

// validateFinite checks that no present value is infinite.
func validateFinite(t domain.Table) *phase {
	p := &phase{name: "Finite values"}
	for i, r := range t.Records {
		for _, f := range valueFields {
			if math.IsInf(r.Value(f), 0) {
				p.errorf("row %d: %s is infinite", i+1, f)
			}
		}
	}
	return p
}

func countMissing(t domain.Table, f domain.Field) int {
	n := 0
	for _, r := range t.Records {
		if domain.IsMissing(r.Value(f)) {
			n++
		}
	}
	return n
}
