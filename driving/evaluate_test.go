package driving

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

// sampleRMS evaluates the field on a regular grid over the box and returns
// the RMS of the vector magnitude.
func sampleRMS(g *Generator, n int) float64 {
	min, max := g.Bounds()
	sq := make([]float64, 0, n*n*n)
	for ix := 0; ix < n; ix++ {
		x := min[0] + (max[0]-min[0])*float64(ix)/float64(n)
		for iy := 0; iy < n; iy++ {
			y := min[1] + (max[1]-min[1])*float64(iy)/float64(n)
			for iz := 0; iz < n; iz++ {
				z := min[2] + (max[2]-min[2])*float64(iz)/float64(n)
				vx, vy, vz := g.Eval(x, y, z)
				sq = append(sq, vx*vx+vy*vy+vz*vz)
			}
		}
	}
	return math.Sqrt(stat.Mean(sq, nil))
}

func TestEval1DTransverseComponentsZero(t *testing.T) {
	cfg := testConfig()
	cfg.NDim = 1
	g := mustNew(t, cfg)
	g.Advance(0)

	for _, x := range []float64{0, 0.13, 0.5, 0.77, 1.0} {
		vx, vy, vz := g.Eval(x, 0.3, 0.9)
		if vy != 0 || vz != 0 {
			t.Fatalf("x=%v: transverse components (%v, %v), want zero", x, vy, vz)
		}
		if math.IsNaN(vx) || math.IsInf(vx, 0) {
			t.Fatalf("x=%v: vx = %v", x, vx)
		}
	}
}

// The normalization constant is chosen so the field RMS does not depend on
// the solenoidal weight. The check is statistical over one pattern, so the
// tolerance is generous.
func TestEvalRMSInvariantToSolWeight(t *testing.T) {
	rms := make(map[float64]float64)
	for _, w := range []float64{0.0, 0.5, 1.0} {
		cfg := testConfig()
		cfg.SolWeight = w
		g := mustNew(t, cfg)
		g.Advance(0)
		rms[w] = sampleRMS(g, 12)
	}
	for _, w := range []float64{0.0, 1.0} {
		ratio := rms[w] / rms[0.5]
		if ratio < 0.75 || ratio > 1.3 {
			t.Errorf("RMS(w=%v)/RMS(w=0.5) = %v, want near 1 (rms: %v)",
				w, ratio, rms)
		}
	}
}

// All wavevectors are harmonics of the box, so the field is periodic in
// every axis.
func TestEvalPeriodic(t *testing.T) {
	g := mustNew(t, testConfig())
	g.Advance(0)

	points := [][3]float64{{0.1, 0.2, 0.3}, {0.45, 0.9, 0.05}}
	for _, p := range points {
		vx, vy, vz := g.Eval(p[0], p[1], p[2])
		for axis := 0; axis < 3; axis++ {
			q := p
			q[axis] += 1.0
			wx, wy, wz := g.Eval(q[0], q[1], q[2])
			d := math.Abs(wx-vx) + math.Abs(wy-vy) + math.Abs(wz-vz)
			if d > 1e-9 {
				t.Errorf("axis %d: field differs by %v across one period", axis, d)
			}
		}
	}
}

// The pattern must hold still between driving updates and change across
// them.
func TestEvalConstantBetweenUpdates(t *testing.T) {
	g := mustNew(t, testConfig())
	g.Advance(0)

	vx0, vy0, vz0 := g.Eval(0.25, 0.5, 0.75)
	vx1, vy1, vz1 := g.Eval(0.25, 0.5, 0.75)
	if vx0 != vx1 || vy0 != vy1 || vz0 != vz1 {
		t.Fatal("repeated evaluation at the same point changed")
	}

	g.Advance(1.5 * g.Dt())
	wx, wy, wz := g.Eval(0.25, 0.5, 0.75)
	if wx == vx0 && wy == vy0 && wz == vz0 {
		t.Fatal("field unchanged after a driving update")
	}
}

func BenchmarkEval(b *testing.B) {
	g, err := New(testConfig(), Options{Logger: discard()})
	if err != nil {
		b.Fatal(err)
	}
	g.Advance(0)
	b.ResetTimer()
	var sink float64
	for i := 0; i < b.N; i++ {
		vx, vy, vz := g.Eval(0.3, 0.6, 0.9)
		sink += vx + vy + vz
	}
	_ = sink
}
