package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/stir/config"
	"github.com/pthm-cable/stir/driving"
	"github.com/pthm-cable/stir/telemetry"
	"github.com/pthm-cable/stir/tracers"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	inpPath := flag.String("inp", "", "Legacy 'name = value' parameter file (overrides -config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	tEnd := flag.Float64("t-end", 1.0, "End time in units of the turnover time")
	dtHost := flag.Float64("dt-host", 0, "Host timestep (0 = one driving step)")
	grid := flag.Int("grid", 0, "Sample points per axis (0 = use config)")
	seed := flag.Int("seed", 0, "Driving seed override (0 = use config)")
	nTracers := flag.Int("tracers", -1, "Tracer particle count (-1 = use config)")
	logStats := flag.Bool("log-stats", false, "Output field stats via slog")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	var cfg *config.Config
	if *inpPath != "" {
		c, err := config.LoadLegacy(*inpPath)
		if err != nil {
			slog.Error("failed to load parameter file", "error", err)
			os.Exit(1)
		}
		cfg = c
	} else {
		if err := config.Init(*configPath); err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = config.Cfg()
	}

	if *seed != 0 {
		cfg.Turbulence.RandomSeed = int32(*seed)
	}
	if *grid > 0 {
		cfg.Sampling.Grid = *grid
	}
	if *nTracers >= 0 {
		cfg.Tracers.Count = *nTracers
	}

	gen, err := driving.New(cfg.Turbulence, driving.Options{Logger: logger})
	if err != nil {
		slog.Error("failed to build driving generator", "error", err)
		os.Exit(1)
	}
	gen.LogInfo()

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	sampler := telemetry.NewSampler(cfg.Sampling.Grid)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	var trc *tracers.System
	if cfg.Tracers.Count > 0 {
		trc = tracers.NewSystem(gen, cfg.Tracers.Count, cfg.Tracers.Seed)
		slog.Info("tracers initialized",
			"count", trc.Count(), "seed", cfg.Tracers.Seed)
	}

	step := *dtHost
	if step <= 0 {
		step = gen.Dt()
	}
	end := *tEnd * gen.Decay()

	slog.Info("starting driving run",
		"t_end", end,
		"dt_host", step,
		"grid", sampler.Grid(),
		"output_dir", out.Dir(),
	)

	patterns := 0
	for t := 0.0; t <= end; t += step {
		perf.StartStep()

		perf.StartPhase(telemetry.PhaseAdvance)
		changed := gen.Advance(t)

		if trc != nil {
			perf.StartPhase(telemetry.PhaseTracers)
			trc.Update(gen, step)
		}

		if changed {
			slog.Info("driving pattern updated",
				"step", gen.Step(),
				"time", float64(gen.Step())*gen.Dt(),
				"time_over_t_turb", float64(gen.Step())*gen.Dt()/gen.Decay())

			perf.StartPhase(telemetry.PhaseSample)
			stats := sampler.SampleStats(gen)
			stats.Step = gen.Step()
			stats.Time = float64(gen.Step()) * gen.Dt()
			stats.TimeOverTurnover = stats.Time / gen.Decay()
			stats.NModes = gen.NModes()

			perf.StartPhase(telemetry.PhaseTelemetry)
			if *logStats {
				stats.LogStats()
			}
			if err := out.WritePattern(stats); err != nil {
				slog.Error("failed to write pattern stats", "error", err)
				os.Exit(1)
			}
			if trc != nil {
				records := make([]telemetry.TracerRecord, 0, trc.Count())
				for id, p := range trc.Positions() {
					records = append(records, telemetry.TracerRecord{
						Step: gen.Step(), ID: id, X: p[0], Y: p[1], Z: p[2],
					})
				}
				if err := out.WriteTracers(records); err != nil {
					slog.Error("failed to write tracers", "error", err)
					os.Exit(1)
				}
			}

			patterns++
			if patterns%cfg.Telemetry.PerfWindow == 0 {
				ps := perf.Stats()
				if *logStats {
					ps.LogStats()
				}
				if err := out.WritePerf(ps, gen.Step()); err != nil {
					slog.Error("failed to write perf stats", "error", err)
					os.Exit(1)
				}
			}
		}

		perf.EndStep()
	}

	slog.Info("driving run finished",
		"patterns", patterns,
		"final_step", gen.Step(),
	)
}
