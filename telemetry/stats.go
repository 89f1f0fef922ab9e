package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldStats holds aggregated statistics of one sampled driving pattern.
type FieldStats struct {
	Step             int     `csv:"step"`
	Time             float64 `csv:"time"`
	TimeOverTurnover float64 `csv:"time_over_t_turb"`
	NModes           int     `csv:"n_modes"`
	GridPoints       int     `csv:"grid_points"`

	// Component means; a well-behaved driving pattern hovers near zero.
	MeanVx float64 `csv:"mean_vx"`
	MeanVy float64 `csv:"mean_vy"`
	MeanVz float64 `csv:"mean_vz"`

	// Per-component and total RMS.
	RMSVx float64 `csv:"rms_vx"`
	RMSVy float64 `csv:"rms_vy"`
	RMSVz float64 `csv:"rms_vz"`
	RMS   float64 `csv:"rms"`

	// Vector magnitude distribution.
	MagMin float64 `csv:"mag_min"`
	MagMax float64 `csv:"mag_max"`
	MagP10 float64 `csv:"mag_p10"`
	MagP50 float64 `csv:"mag_p50"`
	MagP90 float64 `csv:"mag_p90"`
}

// FieldSample holds the raw component values of one grid sweep.
type FieldSample struct {
	Vx, Vy, Vz []float64
}

// Len returns the number of sampled points.
func (s *FieldSample) Len() int { return len(s.Vx) }

// rms returns sqrt(mean(v^2)).
func rms(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(v)))
}

// ComputeFieldStats reduces a raw grid sweep to summary statistics.
func ComputeFieldStats(s *FieldSample) FieldStats {
	n := s.Len()
	if n == 0 {
		return FieldStats{}
	}

	mag := make([]float64, n)
	for i := range mag {
		mag[i] = math.Sqrt(s.Vx[i]*s.Vx[i] + s.Vy[i]*s.Vy[i] + s.Vz[i]*s.Vz[i])
	}

	rx, ry, rz := rms(s.Vx), rms(s.Vy), rms(s.Vz)
	fs := FieldStats{
		GridPoints: n,
		MeanVx:     stat.Mean(s.Vx, nil),
		MeanVy:     stat.Mean(s.Vy, nil),
		MeanVz:     stat.Mean(s.Vz, nil),
		RMSVx:      rx,
		RMSVy:      ry,
		RMSVz:      rz,
		RMS:        math.Sqrt(rx*rx + ry*ry + rz*rz),
		MagMin:     floats.Min(mag),
		MagMax:     floats.Max(mag),
	}

	sort.Float64s(mag)
	fs.MagP10 = stat.Quantile(0.10, stat.Empirical, mag, nil)
	fs.MagP50 = stat.Quantile(0.50, stat.Empirical, mag, nil)
	fs.MagP90 = stat.Quantile(0.90, stat.Empirical, mag, nil)
	return fs
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.Float64("time", s.Time),
		slog.Float64("time_over_t_turb", s.TimeOverTurnover),
		slog.Int("n_modes", s.NModes),
		slog.Int("grid_points", s.GridPoints),
		slog.Float64("mean_vx", s.MeanVx),
		slog.Float64("mean_vy", s.MeanVy),
		slog.Float64("mean_vz", s.MeanVz),
		slog.Float64("rms_vx", s.RMSVx),
		slog.Float64("rms_vy", s.RMSVy),
		slog.Float64("rms_vz", s.RMSVz),
		slog.Float64("rms", s.RMS),
		slog.Float64("mag_min", s.MagMin),
		slog.Float64("mag_max", s.MagMax),
		slog.Float64("mag_p10", s.MagP10),
		slog.Float64("mag_p50", s.MagP50),
		slog.Float64("mag_p90", s.MagP90),
	)
}

// LogStats logs the pattern stats using slog.
func (s FieldStats) LogStats() {
	slog.Info("field stats",
		"step", s.Step,
		"time", s.Time,
		"time_over_t_turb", s.TimeOverTurnover,
		"rms", s.RMS,
		"mean_vx", s.MeanVx,
		"mag_p50", s.MagP50,
		"mag_max", s.MagMax,
	)
}
