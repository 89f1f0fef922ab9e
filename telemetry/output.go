package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/stir/config"
)

// TracerRecord is one tracer particle position at one driving step.
type TracerRecord struct {
	Step int     `csv:"step"`
	ID   int     `csv:"id"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
	Z    float64 `csv:"z"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir         string
	patternFile *os.File
	tracerFile  *os.File
	perfFile    *os.File

	// Track if headers have been written
	patternHeaderWritten bool
	tracerHeaderWritten  bool
	perfHeaderWritten    bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "patterns.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating patterns.csv: %w", err)
	}
	om.patternFile = f

	f, err = os.Create(filepath.Join(dir, "tracers.csv"))
	if err != nil {
		om.patternFile.Close()
		return nil, fmt.Errorf("creating tracers.csv: %w", err)
	}
	om.tracerFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.patternFile.Close()
		om.tracerFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the effective configuration as YAML next to the CSVs, so
// a run directory is self-describing.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePattern writes a field stats record to patterns.csv.
func (om *OutputManager) WritePattern(stats FieldStats) error {
	if om == nil {
		return nil
	}

	records := []FieldStats{stats}

	if !om.patternHeaderWritten {
		if err := gocsv.Marshal(records, om.patternFile); err != nil {
			return fmt.Errorf("writing pattern stats: %w", err)
		}
		om.patternHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.patternFile); err != nil {
			return fmt.Errorf("writing pattern stats: %w", err)
		}
	}

	return nil
}

// WriteTracers writes a batch of tracer positions to tracers.csv.
func (om *OutputManager) WriteTracers(records []TracerRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}

	if !om.tracerHeaderWritten {
		if err := gocsv.Marshal(records, om.tracerFile); err != nil {
			return fmt.Errorf("writing tracers: %w", err)
		}
		om.tracerHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.tracerFile); err != nil {
			return fmt.Errorf("writing tracers: %w", err)
		}
	}

	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.patternFile, om.tracerFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
