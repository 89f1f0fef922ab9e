package rng

import (
	"math"
	"testing"
)

// Reference values for the Park-Miller recurrence with seed 1:
// 16807/2147483647, then 282475249/2147483647, then 1622650073/2147483647.
func TestStreamUniformReferenceSequence(t *testing.T) {
	s := NewStream(1)

	want := []float64{
		16807.0 / 2147483647.0,
		282475249.0 / 2147483647.0,
		1622650073.0 / 2147483647.0,
	}
	for i, w := range want {
		got := s.Uniform()
		if math.Abs(got-w) > 1e-15 {
			t.Errorf("draw %d = %.17g, want %.17g", i, got, w)
		}
	}
}

func TestStreamNegativeSeedFoldsPositive(t *testing.T) {
	neg := NewStream(-42)
	pos := NewStream(42)
	for i := 0; i < 10; i++ {
		if a, b := neg.Uniform(), pos.Uniform(); a != b {
			t.Fatalf("draw %d: seed -42 gave %v, seed 42 gave %v", i, a, b)
		}
	}
}

func TestStreamUniformRange(t *testing.T) {
	s := NewStream(140281)
	for i := 0; i < 10000; i++ {
		v := s.Uniform()
		if v <= 0 || v >= 1 {
			t.Fatalf("draw %d = %v outside (0,1)", i, v)
		}
	}
}

// The first Gaussian draws must follow exactly from the documented
// Box-Muller form applied to consecutive uniform draws.
func TestGaussianReferenceSequence(t *testing.T) {
	uni := NewStream(1)
	gauss := NewStream(1)

	for i := 0; i < 3; i++ {
		r1 := uni.Uniform()
		r2 := uni.Uniform()
		want := math.Sqrt(2.0*math.Log(1.0/r1)) * math.Cos(2.0*math.Pi*r2)
		got := gauss.Gaussian()
		if got != want {
			t.Errorf("gaussian %d = %v, want %v", i, got, want)
		}
	}
}

func TestGaussianMoments(t *testing.T) {
	s := NewStream(777)
	const n = 200000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		g := s.Gaussian()
		sum += g
		sumSq += g * g
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean) > 0.01 {
		t.Errorf("mean = %v, want ~0", mean)
	}
	if math.Abs(variance-1.0) > 0.02 {
		t.Errorf("variance = %v, want ~1", variance)
	}
}

func TestShuffledDeterminism(t *testing.T) {
	a := NewShuffled(NewStream(140281))
	b := NewShuffled(NewStream(140281))
	for i := 0; i < 1000; i++ {
		if va, vb := a.Next(), b.Next(); va != vb {
			t.Fatalf("draw %d: %v != %v", i, va, vb)
		}
	}

	c := NewShuffled(NewStream(99991))
	diverged := false
	d := NewShuffled(NewStream(140281))
	for i := 0; i < 100; i++ {
		if c.Next() != d.Next() {
			diverged = true
			break
		}
	}
	if !diverged {
		t.Error("streams with different seeds never diverged")
	}
}

func TestShuffledRangeAndMean(t *testing.T) {
	s := NewShuffled(NewStream(140281))
	const n = 100000
	var sum float64
	for i := 0; i < n; i++ {
		v := s.Next()
		if v <= 0 || v >= 1 {
			t.Fatalf("draw %d = %v outside (0,1)", i, v)
		}
		sum += v
	}
	if mean := sum / n; math.Abs(mean-0.5) > 0.01 {
		t.Errorf("mean = %v, want ~0.5", mean)
	}
}

// The shuffled engine advances the stream's working seed, so Gaussian draws
// taken afterwards depend on how many angular draws were consumed. This
// ordering is part of the reproducibility contract.
func TestShuffledSharesStreamSeed(t *testing.T) {
	src := NewStream(140281)
	before := src.State()

	sh := NewShuffled(src)
	if src.State() != before {
		t.Fatal("initialization must not touch the stream state")
	}

	sh.Next()
	if src.State() == before {
		t.Fatal("Next must advance the shared stream state")
	}
}
