package tracers

import (
	"math"
	"testing"
)

// uniformField carries every tracer in +x at unit speed.
type uniformField struct {
	ndim int
}

func (f uniformField) Eval(x, y, z float64) (float64, float64, float64) {
	return 1, 0, 0
}

func (f uniformField) Bounds() (min, max [3]float64) {
	return [3]float64{0, 0, 0}, [3]float64{1, 1, 1}
}

func (f uniformField) NDim() int { return f.ndim }

func TestSystemSpawnsInsideDomain(t *testing.T) {
	f := uniformField{ndim: 3}
	s := NewSystem(f, 100, 42)

	if s.Count() != 100 {
		t.Fatalf("count = %d, want 100", s.Count())
	}
	for i, p := range s.Positions() {
		for axis := 0; axis < 3; axis++ {
			if p[axis] < 0 || p[axis] >= 1 {
				t.Fatalf("tracer %d axis %d at %v, outside [0, 1)", i, axis, p[axis])
			}
		}
	}
}

func TestSpawnIsSeeded(t *testing.T) {
	f := uniformField{ndim: 3}
	a := NewSystem(f, 20, 7).Positions()
	b := NewSystem(f, 20, 7).Positions()
	c := NewSystem(f, 20, 8).Positions()

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different placements at %d", i)
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical placements")
	}
}

func TestUpdateAdvectsAndWraps(t *testing.T) {
	f := uniformField{ndim: 3}
	s := NewSystem(f, 10, 1)

	before := s.Positions()
	s.Update(f, 0.25)
	after := s.Positions()

	for i := range before {
		want := before[i][0] + 0.25
		if want >= 1 {
			want -= 1
		}
		if math.Abs(after[i][0]-want) > 1e-12 {
			t.Errorf("tracer %d: x = %v, want %v", i, after[i][0], want)
		}
		if after[i][1] != before[i][1] || after[i][2] != before[i][2] {
			t.Errorf("tracer %d moved transverse to a pure x flow", i)
		}
	}
}

func TestUpdateHoldsUnusedAxes(t *testing.T) {
	f := uniformField{ndim: 1}
	s := NewSystem(f, 10, 1)

	for _, p := range s.Positions() {
		if p[1] != 0 || p[2] != 0 {
			t.Fatalf("1-D tracer spawned off-axis at %v", p)
		}
	}
	s.Update(f, 0.1)
	for _, p := range s.Positions() {
		if p[1] != 0 || p[2] != 0 {
			t.Fatalf("1-D tracer drifted off-axis to %v", p)
		}
	}
}

func TestSpeeds(t *testing.T) {
	f := uniformField{ndim: 3}
	s := NewSystem(f, 5, 1)
	s.Update(f, 0.1)

	speeds := s.Speeds()
	if len(speeds) != 5 {
		t.Fatalf("got %d speeds, want 5", len(speeds))
	}
	for i, v := range speeds {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("tracer %d speed = %v, want 1", i, v)
		}
	}
}
