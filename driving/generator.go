// Package driving implements a time-correlated, divergence-controllable
// turbulence driving field. A Generator owns a discrete Fourier-mode table
// and an Ornstein-Uhlenbeck phase process; the host advances the process
// once per coarse timestep and evaluates the field at as many points as it
// likes in between.
//
// Every Generator is self-contained: independent fields need independent
// Generators with their own seeds. In a multi-process host, each rank builds
// an identical replica from the same configuration and drives it with the
// same sequence of Advance calls, which keeps all replicas bit-identical.
package driving

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/stir/config"
	"github.com/pthm-cable/stir/rng"
	"github.com/pthm-cable/stir/spectrum"
)

// ulp is the double-precision machine epsilon used as the band margin.
const ulp = 0x1p-52

// Options configures Generator construction.
type Options struct {
	// Logger receives diagnostics and pattern-update announcements. Hosts
	// running many ranks pass a discard logger on all but one designated
	// rank. Nil falls back to slog.Default.
	Logger *slog.Logger
}

// Generator is the owning aggregate for one driven field.
type Generator struct {
	ndim                   int
	xmin, xmax             float64
	ymin, ymax             float64
	zmin, zmax             float64
	lx                     float64
	form                   spectrum.Form
	velocity               float64
	decay                  float64 // auto-correlation (turnover) time
	energy                 float64 // energy injection rate
	ouVar                  float64
	dt                     float64 // step interval of the driving pattern
	stirMin, stirMax       float64 // physical band limits
	solWeight              float64
	solWeightNorm          float64
	powerLawExp, anglesExp float64
	nstepsPerTurnover      int
	randomSeed             int32

	table  *spectrum.Table
	phases []float64 // 6 OU channels per mode
	aka    [3][]float64
	akb    [3][]float64
	step   int

	src *rng.Stream
	log *slog.Logger
}

// New builds a Generator from a validated turbulence configuration. The
// mode table, the OU phase state, and the decomposition coefficients are
// all initialized; the generator is ready for Advance and Eval.
func New(cfg config.TurbulenceConfig, opts Options) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	g := &Generator{
		ndim:              cfg.NDim,
		xmin:              cfg.XMin,
		xmax:              cfg.XMax,
		ymin:              cfg.YMin,
		ymax:              cfg.YMax,
		zmin:              cfg.ZMin,
		zmax:              cfg.ZMax,
		form:              spectrum.Form(cfg.SpectForm),
		velocity:          cfg.Velocity,
		solWeight:         cfg.SolWeight,
		powerLawExp:       cfg.PowerLawExp,
		anglesExp:         cfg.AnglesExp,
		nstepsPerTurnover: cfg.NStepsPerTurnover,
		randomSeed:        cfg.RandomSeed,
		step:              -1,
		src:               rng.NewStream(cfg.RandomSeed),
		log:               log,
	}

	// Derived physical quantities. k_driv is in units of 2*pi/Lx, so the
	// turnover time is Lx / k_driv / velocity, and the injection rate goes
	// as velocity^3 / Lx scaled by the calibration coefficient.
	g.lx = g.xmax - g.xmin
	g.stirMin = (cfg.KMin - ulp) * 2 * math.Pi / g.lx
	g.stirMax = (cfg.KMax + ulp) * 2 * math.Pi / g.lx
	g.decay = g.lx / cfg.KDriv / g.velocity
	g.energy = cfg.EnergyCoeff * math.Pow(g.velocity, 3.0) / g.lx
	g.ouVar = math.Sqrt(g.energy / g.decay)
	g.dt = g.decay / float64(g.nstepsPerTurnover)

	// Normalization keeping the field RMS invariant to the solenoidal
	// weight choice.
	w := g.solWeight
	switch g.ndim {
	case 3:
		g.solWeightNorm = math.Sqrt(3.0/3.0) * math.Sqrt(3.0) / math.Sqrt(1.0-2.0*w+3.0*w*w)
	case 2:
		g.solWeightNorm = math.Sqrt(3.0/2.0) * math.Sqrt(3.0) / math.Sqrt(1.0-2.0*w+2.0*w*w)
	case 1:
		g.solWeightNorm = math.Sqrt(3.0/1.0) * math.Sqrt(3.0) / math.Sqrt(1.0-2.0*w+1.0*w*w)
	}

	params := spectrum.Params{
		NDim: g.ndim,
		LX:   g.lx,
		LY:   g.ymax - g.ymin,
		LZ:   g.zmax - g.zmin,
		KMin: g.stirMin,
		KMax: g.stirMax,
		Form: g.form,

		PowerLawExp: g.powerLawExp,
		AnglesExp:   g.anglesExp,
		MaxModes:    cfg.MaxModes,
	}

	// The angular sampler chains off the Gaussian stream's working seed, so
	// the amount of angular sampling shifts all later phase draws. This
	// ordering matches the reference driving sequence.
	var angles *rng.Shuffled
	if g.form == spectrum.PowerLaw {
		angles = rng.NewShuffled(g.src)
	}

	table, err := spectrum.Build(params, angles, log)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("driving: no modes inside band k=[%g, %g]", cfg.KMin, cfg.KMax)
	}
	g.table = table

	g.ouInit()
	if err := g.computeCoeffs(); err != nil {
		return nil, err
	}
	return g, nil
}

// Advance maps simulation time to a discrete driving step and seeks the OU
// process to it. Returns true when the driving pattern changed. Seeking
// always passes through every intermediate step so the Markov chain stays
// exact; the decomposition is recomputed once at the end regardless of how
// many steps were taken. Not safe to call concurrently with Eval.
func (g *Generator) Advance(time float64) bool {
	requested := int(math.Floor(time / g.dt))
	if requested <= g.step {
		return false
	}
	for s := g.step; s < requested; s++ {
		g.ouUpdate()
	}
	// The table never contains a zero wavevector, so this cannot fail after
	// a successful New.
	if err := g.computeCoeffs(); err != nil {
		panic(err)
	}

	generated := float64(g.step) * g.dt
	g.log.Debug("generated new driving pattern",
		"step", g.step,
		"time", generated,
		"time_over_t_turb", generated/g.decay)
	return true
}

// NModes returns the size of the mode table.
func (g *Generator) NModes() int { return g.table.Len() }

// Step returns the current discrete driving step (-1 before the first
// Advance past t=0).
func (g *Generator) Step() int { return g.step }

// Dt returns the driving-pattern step interval.
func (g *Generator) Dt() float64 { return g.dt }

// Decay returns the auto-correlation (turnover) time.
func (g *Generator) Decay() float64 { return g.decay }

// OUVariance returns the stationary standard deviation of each phase
// channel.
func (g *Generator) OUVariance() float64 { return g.ouVar }

// NDim returns the spatial dimension of the field.
func (g *Generator) NDim() int { return g.ndim }

// SolWeightNorm returns the dimension-dependent RMS normalization constant.
func (g *Generator) SolWeightNorm() float64 { return g.solWeightNorm }

// Bounds returns the domain bounding box.
func (g *Generator) Bounds() (min, max [3]float64) {
	return [3]float64{g.xmin, g.ymin, g.zmin}, [3]float64{g.xmax, g.ymax, g.zmax}
}

// Summary collects the derived physical quantities for diagnostics.
type Summary struct {
	NModes            int
	NDim              int
	Form              string
	PowerLawExp       float64
	AnglesExp         float64
	BoxLengthX        float64
	Velocity          float64
	DecayTime         float64
	CharWavenumber    float64 // in 2*pi/Lx units
	MinWavenumber     float64 // in 2*pi/Lx units
	MaxWavenumber     float64 // in 2*pi/Lx units
	EnergyRate        float64
	EnergyCoeff       float64
	SolWeight         float64
	SolWeightNorm     float64
	RandomSeed        int32
	NStepsPerTurnover int
}

// Summary returns the generator's derived physical quantities.
func (g *Generator) Summary() Summary {
	return Summary{
		NModes:            g.table.Len(),
		NDim:              g.ndim,
		Form:              g.form.String(),
		PowerLawExp:       g.powerLawExp,
		AnglesExp:         g.anglesExp,
		BoxLengthX:        g.lx,
		Velocity:          g.velocity,
		DecayTime:         g.decay,
		CharWavenumber:    g.lx / g.velocity / g.decay,
		MinWavenumber:     g.stirMin / (2 * math.Pi) * g.lx,
		MaxWavenumber:     g.stirMax / (2 * math.Pi) * g.lx,
		EnergyRate:        g.energy,
		EnergyCoeff:       g.energy / math.Pow(g.velocity, 3.0) * g.lx,
		SolWeight:         g.solWeight,
		SolWeightNorm:     g.solWeightNorm,
		RandomSeed:        g.randomSeed,
		NStepsPerTurnover: g.nstepsPerTurnover,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("n_modes", s.NModes),
		slog.Int("ndim", s.NDim),
		slog.String("spect_form", s.Form),
		slog.Float64("box_length_x", s.BoxLengthX),
		slog.Float64("velocity", s.Velocity),
		slog.Float64("decay_time", s.DecayTime),
		slog.Float64("char_wavenumber", s.CharWavenumber),
		slog.Float64("min_wavenumber", s.MinWavenumber),
		slog.Float64("max_wavenumber", s.MaxWavenumber),
		slog.Float64("energy_rate", s.EnergyRate),
		slog.Float64("energy_coeff", s.EnergyCoeff),
		slog.Float64("sol_weight", s.SolWeight),
		slog.Float64("sol_weight_norm", s.SolWeightNorm),
		slog.Int("random_seed", int(s.RandomSeed)),
		slog.Int("nsteps_per_turnover", s.NStepsPerTurnover),
	)
}

// LogInfo emits the diagnostic summary through the generator's logger. On a
// multi-rank host only the designated rank's logger should be live.
func (g *Generator) LogInfo() {
	s := g.Summary()
	attrs := []any{"summary", s}
	if g.form == spectrum.PowerLaw {
		attrs = append(attrs,
			"power_law_exp", s.PowerLawExp,
			"angles_exp", s.AnglesExp)
	}
	g.log.Info("turbulence driving initialized", attrs...)
}
