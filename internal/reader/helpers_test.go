package reader

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-normalizer/internal/fixture"
)

const testStation = "GEN"

var yearStart = time.Date(DefaultReferenceYear, time.January, 1, 0, 0, 0, 0, time.UTC)

// fullYear is one synthetic non-leap year of hourly data.
func fullYear() []fixture.Hour { return fixture.Synthetic(yearStart, HoursPerYear) }

// writeFixture renders a fixture into a temp file and returns its path.
func writeFixture(t *testing.T, name string, render func(io.Writer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, render(&buf))
	return writeFile(t, name, buf.String())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// renderString renders a fixture into a string for line-level edits.
func renderString(t *testing.T, render func(io.Writer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, render(&buf))
	return buf.String()
}

// replaceLine swaps the 1-based line n of content.
func replaceLine(content string, n int, line string) string {
	lines := strings.Split(content, "\n")
	lines[n-1] = line
	return strings.Join(lines, "\n")
}

// dropLine removes the 1-based line n of content.
func dropLine(content string, n int) string {
	lines := strings.Split(content, "\n")
	lines = append(lines[:n-1], lines[n:]...)
	return strings.Join(lines, "\n")
}

func lines(content string) []string { return strings.Split(content, "\n") }

// setField replaces the 0-based comma-separated field i of line.
func setField(line string, i int, v string) string {
	f := strings.Split(line, ",")
	f[i] = v
	return strings.Join(f, ",")
}

// keepFields truncates a comma-separated line to its first n fields.
func keepFields(line string, n int) string {
	f := strings.Split(line, ",")
	return strings.Join(f[:n], ",")
}
