package logger

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inventlabs/invent-dash/internal/ems"
)

// Logger records timestamped telemetry snapshots to CSV files with automatic
// rotation. Channels the ECU has not reported yet (NaN) become empty cells.
type Logger struct {
	mu       sync.Mutex
	dir      string
	interval time.Duration
	enabled  bool

	file   *os.File
	writer *csv.Writer
	lastTs time.Time
	rows   int
}

// Config holds logger configuration.
type Config struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Path       string `yaml:"path" json:"path"`
	IntervalMs int    `yaml:"interval_ms" json:"intervalMs"`
}

const (
	maxRowsPerFile = 100_000 // Rotate after 100k rows (~2.7 hrs at 10 Hz)
)

var csvHeader = []string{
	"timestamp", "rpm", "map_kpa", "tps_pct", "lambda", "lambda_target",
	"ign_deg", "inj_ms", "inj_duty_pct", "dwell_ms",
	"clt_c", "iat_c", "oil_temp_c", "fuel_temp_c",
	"oil_press_bar", "fuel_press_kpa", "egt1_c", "egt2_c",
	"battery_v", "speed_kph", "gear", "knock_v",
	"fuel_flow", "trip_fuel_l", "trip_path_km", "fuel_cons",
	"ethanol_pct", "runlevel", "packets", "errors",
}

// New creates a new Logger.
func New(cfg Config) *Logger {
	if cfg.Path == "" {
		cfg.Path = "/var/log/invent-dash"
	}
	interval := time.Duration(cfg.IntervalMs) * time.Millisecond
	if interval < 50*time.Millisecond {
		interval = 100 * time.Millisecond // Default 10 Hz
	}
	return &Logger{
		dir:      cfg.Path,
		interval: interval,
		enabled:  cfg.Enabled,
	}
}

// SetEnabled allows toggling logging at runtime.
func (l *Logger) SetEnabled(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = on
	if !on && l.file != nil {
		l.closeFile()
	}
}

// IsEnabled returns whether logging is active.
func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Record writes a telemetry snapshot if the minimum interval has elapsed.
func (l *Logger) Record(d *ems.Data) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || d == nil {
		return
	}

	now := time.Now()
	if now.Sub(l.lastTs) < l.interval {
		return
	}
	l.lastTs = now

	// Open/rotate file if needed
	if l.writer == nil || l.rows >= maxRowsPerFile {
		if err := l.rotateFile(now); err != nil {
			log.Printf("[logger] rotate failed: %v", err)
			return
		}
	}

	row := l.buildRow(now, d)
	if err := l.writer.Write(row); err != nil {
		log.Printf("[logger] write failed: %v", err)
		return
	}
	l.writer.Flush()
	l.rows++
}

// Close flushes and closes the current log file.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeFile()
}

func (l *Logger) rotateFile(now time.Time) error {
	l.closeFile()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", l.dir, err)
	}

	filename := fmt.Sprintf("ems_%s.csv", now.Format("2006-01-02_150405"))
	path := filepath.Join(l.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	l.file = f
	l.writer = csv.NewWriter(f)
	l.rows = 0

	// Write header
	if err := l.writer.Write(csvHeader); err != nil {
		return err
	}
	l.writer.Flush()

	log.Printf("[logger] opened %s", path)
	return nil
}

func (l *Logger) closeFile() {
	if l.writer != nil {
		l.writer.Flush()
		l.writer = nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func (l *Logger) buildRow(ts time.Time, d *ems.Data) []string {
	row := make([]string, len(csvHeader))

	row[0] = ts.Format(time.RFC3339Nano)

	row[1] = cell(d.RPM, 0)
	row[2] = cell(d.MAPKpa, 1)
	row[3] = cell(d.TPS, 1)
	row[4] = cell(d.Lambda, 3)
	row[5] = cell(d.LambdaTarget, 3)
	row[6] = cell(d.IgnAngle, 2)
	row[7] = cell(d.InjTimeMs, 3)
	row[8] = fmt.Sprintf("%d", d.InjDuty)
	row[9] = cell(d.DwellMs, 1)
	row[10] = cell(d.CLT, 1)
	row[11] = cell(d.IAT, 1)
	row[12] = cell(d.OilTemp, 1)
	row[13] = cell(d.FuelTemp, 1)
	row[14] = cell(d.OilPressure, 1)
	row[15] = cell(d.FuelPressureKpa, 0)
	row[16] = cell(d.EGT1, 0)
	row[17] = cell(d.EGT2, 0)
	row[18] = cell(d.Voltage, 1)
	row[19] = cell(d.Speed, 1)
	row[20] = fmt.Sprintf("%d", d.Gear)
	row[21] = cell(d.KnockV, 2)
	row[22] = cell(d.FuelFlow, 2)
	row[23] = cell(d.TripFuelL, 2)
	row[24] = cell(d.TripPathKm, 1)
	row[25] = cell(d.CurrFuelCons, 1)
	row[26] = cell(d.FuelComposition, 1)
	row[27] = fmt.Sprintf("%d", d.Runlevel)
	row[28] = fmt.Sprintf("%d", d.PacketCount)
	row[29] = fmt.Sprintf("%d", d.ErrorCount)

	return row
}

// cell formats one channel, or empty if the ECU has never reported it.
func cell(f ems.Float, prec int) string {
	if !f.Valid() {
		return ""
	}
	return fmt.Sprintf("%.*f", prec, float64(f))
}
