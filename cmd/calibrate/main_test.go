package main

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/pthm-cable/stir/config"
	"github.com/pthm-cable/stir/telemetry"
)

func testEvaluator(t *testing.T) *evaluator {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return &evaluator{
		base:      cfg.Turbulence,
		sampler:   telemetry.NewSampler(8),
		turnovers: 1.0,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// The field amplitude goes as the OU variance, which scales with the square
// root of the injection coefficient, so quadrupling the coefficient must
// roughly double the measured RMS.
func TestRMSScalesWithCoefficient(t *testing.T) {
	e := testEvaluator(t)

	base, err := e.rmsFor(e.base.EnergyCoeff)
	if err != nil {
		t.Fatalf("rmsFor: %v", err)
	}
	quad, err := e.rmsFor(4 * e.base.EnergyCoeff)
	if err != nil {
		t.Fatalf("rmsFor: %v", err)
	}

	if base <= 0 {
		t.Fatalf("base RMS = %v, want positive", base)
	}
	ratio := quad / base
	if math.Abs(ratio-2) > 1e-9 {
		t.Errorf("RMS ratio for 4x coefficient = %v, want 2", ratio)
	}
}

// The objective must prefer a coefficient whose measured RMS lands on the
// target velocity over one far away from it.
func TestObjectivePrefersMatchedCoefficient(t *testing.T) {
	e := testEvaluator(t)

	base, err := e.rmsFor(e.base.EnergyCoeff)
	if err != nil {
		t.Fatalf("rmsFor: %v", err)
	}
	// RMS scales as sqrt(coeff); solve for the coefficient hitting the
	// target exactly.
	matched := e.base.EnergyCoeff * math.Pow(e.base.Velocity/base, 2)

	objMatched := e.objective([]float64{math.Log10(matched)})
	objFar := e.objective([]float64{math.Log10(100 * matched)})

	if objMatched > 1e-9 {
		t.Errorf("objective at matched coefficient = %v, want near 0", objMatched)
	}
	if objFar <= objMatched {
		t.Errorf("objective far from match (%v) should exceed matched (%v)", objFar, objMatched)
	}
}

func TestObjectiveRejectsInvalidCoefficient(t *testing.T) {
	e := testEvaluator(t)
	// 10^x underflows to zero, which the config validation refuses.
	obj := e.objective([]float64{-400})
	if !math.IsInf(obj, 1) {
		t.Errorf("objective for invalid coefficient = %v, want +Inf", obj)
	}
}
