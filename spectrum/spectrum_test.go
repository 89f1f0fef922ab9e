package spectrum

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/pthm-cable/stir/rng"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Band limits as the generator derives them: an epsilon margin around the
// integer wavenumbers, converted to physical units.
func bandLimits(kMin, kMax, lx float64) (float64, float64) {
	const ulp = 0x1p-52
	return (kMin - ulp) * 2 * math.Pi / lx, (kMax + ulp) * 2 * math.Pi / lx
}

func TestBand1DRetainsOneShellPerInteger(t *testing.T) {
	lo, hi := bandLimits(1, 3, 1)
	tab, err := Build(Params{
		NDim: 1, LX: 1,
		KMin: lo, KMax: hi,
		Form: Band, MaxModes: 100000,
	}, nil, discard())
	if err != nil {
		t.Fatal(err)
	}

	if tab.Len() != 3 {
		t.Fatalf("n_modes = %d, want 3 (one per integer wavenumber in [1,3])", tab.Len())
	}
	for i := 0; i < tab.Len(); i++ {
		wantK := 2 * math.Pi * float64(i+1)
		if math.Abs(tab.KX[i]-wantK) > 1e-12 {
			t.Errorf("mode %d: kx = %v, want %v", i, tab.KX[i], wantK)
		}
		if tab.KY[i] != 0 || tab.KZ[i] != 0 {
			t.Errorf("mode %d: ky/kz nonzero in 1-D", i)
		}
		if tab.Ampl[i] != 1.0 {
			t.Errorf("mode %d: amplitude = %v, want 1", i, tab.Ampl[i])
		}
	}
}

func TestBandMembership(t *testing.T) {
	for _, ndim := range []int{1, 2, 3} {
		lo, hi := bandLimits(1, 3, 1)
		tab, err := Build(Params{
			NDim: ndim, LX: 1, LY: 1, LZ: 1,
			KMin: lo, KMax: hi,
			Form: Band, MaxModes: 100000,
		}, nil, discard())
		if err != nil {
			t.Fatalf("ndim=%d: %v", ndim, err)
		}
		if tab.Len() == 0 {
			t.Fatalf("ndim=%d: empty table", ndim)
		}
		for i := 0; i < tab.Len(); i++ {
			k := math.Sqrt(tab.KX[i]*tab.KX[i] + tab.KY[i]*tab.KY[i] + tab.KZ[i]*tab.KZ[i])
			if k < lo || k > hi {
				t.Fatalf("ndim=%d mode %d: |k| = %v outside [%v, %v]", ndim, i, k, lo, hi)
			}
		}
	}
}

func TestReflectionFamilies3D(t *testing.T) {
	lo, hi := bandLimits(1, 3, 1)
	tab, err := Build(Params{
		NDim: 3, LX: 1, LY: 1, LZ: 1,
		KMin: lo, KMax: hi,
		Form: Band, MaxModes: 100000,
	}, nil, discard())
	if err != nil {
		t.Fatal(err)
	}

	if tab.Len()%4 != 0 {
		t.Fatalf("n_modes = %d, not a multiple of 4", tab.Len())
	}
	for i := 0; i < tab.Len(); i += 4 {
		kx, ky, kz := tab.KX[i], tab.KY[i], tab.KZ[i]
		type refl struct{ kx, ky, kz float64 }
		want := []refl{
			{kx, ky, kz},
			{kx, -ky, kz},
			{kx, ky, -kz},
			{kx, -ky, -kz},
		}
		for j, w := range want {
			m := i + j
			if tab.KX[m] != w.kx || tab.KY[m] != w.ky || tab.KZ[m] != w.kz {
				t.Fatalf("family at %d, member %d: got (%v,%v,%v), want (%v,%v,%v)",
					i, j, tab.KX[m], tab.KY[m], tab.KZ[m], w.kx, w.ky, w.kz)
			}
			if tab.Ampl[m] != tab.Ampl[i] {
				t.Fatalf("family at %d: amplitude differs across reflections", i)
			}
		}
	}
}

func TestParabolaPeaksAtBandCenter(t *testing.T) {
	lo, hi := bandLimits(1, 3, 1)
	tab, err := Build(Params{
		NDim: 3, LX: 1, LY: 1, LZ: 1,
		KMin: lo, KMax: hi,
		Form: Parabola, MaxModes: 100000,
	}, nil, discard())
	if err != nil {
		t.Fatal(err)
	}

	// The lattice mode (2,0,0) sits exactly at the band center, where the
	// parabola and the dimensional rescaling are both 1.
	kc := 2 * math.Pi * 2.0
	found := false
	for i := 0; i < tab.Len(); i++ {
		if math.Abs(tab.KX[i]-kc) < 1e-12 && tab.KY[i] == 0 && tab.KZ[i] == 0 {
			found = true
			if math.Abs(tab.Ampl[i]-1.0) > 1e-9 {
				t.Errorf("amplitude at band center = %v, want 1", tab.Ampl[i])
			}
		}
	}
	if !found {
		t.Fatal("mode (2,0,0) not found")
	}

	// Every amplitude is bounded by the center-mode amplitude times the
	// dimensional (kc/k) rescaling, i.e. nothing exceeds the peak envelope.
	for i := 0; i < tab.Len(); i++ {
		k := math.Sqrt(tab.KX[i]*tab.KX[i] + tab.KY[i]*tab.KY[i] + tab.KZ[i]*tab.KZ[i])
		envelope := math.Pow(kc/k, 1.0)
		if tab.Ampl[i] > envelope+1e-9 {
			t.Errorf("mode %d: amplitude %v exceeds envelope %v", i, tab.Ampl[i], envelope)
		}
	}
}

func TestCapacityExceeded(t *testing.T) {
	lo, hi := bandLimits(1, 3, 1)
	_, err := Build(Params{
		NDim: 3, LX: 1, LY: 1, LZ: 1,
		KMin: lo, KMax: hi,
		Form: Band, MaxModes: 4,
	}, nil, discard())

	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("err = %v, want CapacityError", err)
	}
	if capErr.Max != 4 || capErr.Count <= 4 {
		t.Errorf("CapacityError = %+v, want Max=4 and Count>4", capErr)
	}
}

func TestPowerLawMembershipAndDeterminism(t *testing.T) {
	lo, hi := bandLimits(1, 4, 1)
	params := Params{
		NDim: 3, LX: 1, LY: 1, LZ: 1,
		KMin: lo, KMax: hi,
		Form:        PowerLaw,
		PowerLawExp: -5.0 / 3.0,
		AnglesExp:   1.0,
		MaxModes:    100000,
	}

	build := func() *Table {
		src := rng.NewStream(140281)
		tab, err := Build(params, rng.NewShuffled(src), discard())
		if err != nil {
			t.Fatal(err)
		}
		return tab
	}

	a := build()
	if a.Len() == 0 {
		t.Fatal("empty power-law table")
	}
	for i := 0; i < a.Len(); i++ {
		k := math.Sqrt(a.KX[i]*a.KX[i] + a.KY[i]*a.KY[i] + a.KZ[i]*a.KZ[i])
		if k < lo || k > hi {
			t.Fatalf("mode %d: |k| = %v outside [%v, %v]", i, k, lo, hi)
		}
		if a.Ampl[i] <= 0 {
			t.Fatalf("mode %d: non-positive amplitude %v", i, a.Ampl[i])
		}
	}

	b := build()
	if a.Len() != b.Len() {
		t.Fatalf("repeat build size mismatch: %d vs %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.KX[i] != b.KX[i] || a.KY[i] != b.KY[i] || a.KZ[i] != b.KZ[i] || a.Ampl[i] != b.Ampl[i] {
			t.Fatalf("repeat build differs at mode %d", i)
		}
	}
}

func TestPowerLawRequiresAnglesEngine(t *testing.T) {
	lo, hi := bandLimits(1, 3, 1)
	_, err := Build(Params{
		NDim: 3, LX: 1, LY: 1, LZ: 1,
		KMin: lo, KMax: hi,
		Form: PowerLaw, PowerLawExp: -2, AnglesExp: 1, MaxModes: 1000,
	}, nil, discard())
	if err == nil {
		t.Fatal("expected error for nil angles engine")
	}
}

func TestInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"ndim zero", Params{NDim: 0, LX: 1, KMin: 1, KMax: 2, MaxModes: 10}},
		{"ndim four", Params{NDim: 4, LX: 1, KMin: 1, KMax: 2, MaxModes: 10}},
		{"bad form", Params{NDim: 3, LX: 1, KMin: 1, KMax: 2, Form: Form(7), MaxModes: 10}},
		{"no length", Params{NDim: 3, KMin: 1, KMax: 2, MaxModes: 10}},
		{"inverted band", Params{NDim: 3, LX: 1, KMin: 3, KMax: 2, MaxModes: 10}},
		{"zero cap", Params{NDim: 3, LX: 1, KMin: 1, KMax: 2, MaxModes: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.p, nil, discard()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
