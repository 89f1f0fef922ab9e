// Package main calibrates the energy injection coefficient so the driven
// field reaches a target RMS velocity. The coefficient enters the field
// amplitude nonlinearly through the OU variance, so the match is found by
// derivative-free minimization over log10(energy_coeff).
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/stir/config"
	"github.com/pthm-cable/stir/driving"
	"github.com/pthm-cable/stir/telemetry"
)

// evaluator measures the time-averaged field RMS for one coefficient value.
type evaluator struct {
	base      config.TurbulenceConfig
	sampler   *telemetry.Sampler
	turnovers float64
	log       *slog.Logger

	evals   int
	lastRMS float64
}

// rmsFor runs a short driving sequence with the given coefficient and
// averages the sampled RMS over all generated patterns.
func (e *evaluator) rmsFor(coeff float64) (float64, error) {
	cfg := e.base
	cfg.EnergyCoeff = coeff

	gen, err := driving.New(cfg, driving.Options{Logger: e.log})
	if err != nil {
		return 0, err
	}

	var sum float64
	var n int
	end := e.turnovers * gen.Decay()
	for t := 0.0; t <= end; t += gen.Dt() {
		if gen.Advance(t) {
			sum += e.sampler.SampleStats(gen).RMS
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("no driving patterns generated")
	}
	return sum / float64(n), nil
}

// objective is the squared relative mismatch between the measured RMS and
// the target velocity, as a function of log10(energy_coeff).
func (e *evaluator) objective(x []float64) float64 {
	coeff := math.Pow(10, x[0])
	rms, err := e.rmsFor(coeff)
	if err != nil {
		// An invalid coefficient cannot win the minimization.
		return math.Inf(1)
	}
	e.evals++
	e.lastRMS = rms
	rel := (rms - e.base.Velocity) / e.base.Velocity
	return rel * rel
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d - m*time.Minute) / time.Second
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	grid := flag.Int("grid", 16, "Sample points per axis for the RMS measurement")
	turnovers := flag.Float64("turnovers", 2.0, "Driving turnover times per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	e := &evaluator{
		base:      baseCfg.Turbulence,
		sampler:   telemetry.NewSampler(*grid),
		turnovers: *turnovers,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()
	logWriter.Write([]string{"eval", "energy_coeff", "rms", "objective"})

	startTime := time.Now()
	bestObj := math.Inf(1)
	bestCoeff := baseCfg.Turbulence.EnergyCoeff

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			obj := e.objective(x)
			coeff := math.Pow(10, x[0])

			if obj < bestObj {
				bestObj = obj
				bestCoeff = coeff
			}

			logWriter.Write([]string{
				strconv.Itoa(e.evals),
				fmt.Sprintf("%.6e", coeff),
				fmt.Sprintf("%.6f", e.lastRMS),
				fmt.Sprintf("%.6e", obj),
			})
			logWriter.Flush()

			fmt.Printf("Eval %d/%d: coeff=%.4e rms=%.4f target=%.4f | elapsed: %s\n",
				e.evals, *maxEvals, coeff, e.lastRMS, e.base.Velocity,
				formatDuration(time.Since(startTime)))
			return obj
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Iterations: 20,
		},
	}

	initX := []float64{math.Log10(baseCfg.Turbulence.EnergyCoeff)}

	fmt.Printf("Calibrating energy_coeff toward RMS velocity %.4f (grid=%d, turnovers=%.1f)\n",
		baseCfg.Turbulence.Velocity, *grid, *turnovers)

	result, err := optimize.Minimize(problem, initX, settings, &optimize.NelderMead{})
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if result != nil && result.F < bestObj {
		bestObj = result.F
		bestCoeff = math.Pow(10, result.X[0])
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n",
		e.evals, formatDuration(time.Since(startTime)))
	fmt.Printf("Best energy_coeff: %.6e (objective %.3e)\n", bestCoeff, bestObj)

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	bestCfg.Turbulence.EnergyCoeff = bestCoeff

	configOutPath := filepath.Join(*outputDir, "calibrated_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write calibrated config: %v", err)
	} else {
		fmt.Printf("Calibrated config saved to: %s\n", configOutPath)
	}
}
