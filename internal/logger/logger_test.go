package logger

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inventlabs/invent-dash/internal/ems"
)

func TestLoggerDisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{Enabled: false, Path: dir})
	defer l.Close()

	var d ems.Data
	l.Record(&d)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLoggerWritesRowWithEmptyCellsForUnseen(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{Enabled: true, Path: dir, IntervalMs: 100})

	d := ems.Data{
		PacketCount: 42,
		RPM:         2000,
		CLT:         ems.Float(math.NaN()), // never reported
		Voltage:     13.8,
	}
	l.Record(&d)
	l.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + one record

	header, row := rows[0], rows[1]
	require.Equal(t, csvHeader, header)

	get := func(col string) string {
		for i, h := range header {
			if h == col {
				return row[i]
			}
		}
		t.Fatalf("column %s missing", col)
		return ""
	}
	require.Equal(t, "2000", get("rpm"))
	require.Equal(t, "", get("clt_c"), "unseen channel must be an empty cell")
	require.Equal(t, "13.8", get("battery_v"))
	require.Equal(t, "42", get("packets"))
}

func TestLoggerIntervalGate(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{Enabled: true, Path: dir, IntervalMs: 60000})

	var d ems.Data
	l.Record(&d)
	l.Record(&d) // inside the interval, must be skipped
	l.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "second record inside interval must be dropped")
}

func TestLoggerSetEnabled(t *testing.T) {
	l := New(Config{Enabled: false, Path: t.TempDir()})
	require.False(t, l.IsEnabled())
	l.SetEnabled(true)
	require.True(t, l.IsEnabled())
	l.SetEnabled(false)
	require.False(t, l.IsEnabled())
}
