// Package spectrum builds the discrete Fourier-mode table that carries the
// driving field: a finite ordered set of wavevectors with per-mode amplitude
// weights, selected from a wavenumber band and shaped by a spectral form.
package spectrum

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/stir/rng"
)

// Form selects the shape of the amplitude-vs-wavenumber envelope.
type Form int

const (
	// Band is a flat amplitude across the whole wavenumber band.
	Band Form = iota
	// Parabola peaks at the band center and falls to zero at the edges.
	Parabola
	// PowerLaw follows k^exp with sparse random angular sampling per shell.
	PowerLaw
)

func (f Form) String() string {
	switch f {
	case Band:
		return "band"
	case Parabola:
		return "parabola"
	case PowerLaw:
		return "power_law"
	}
	return fmt.Sprintf("Form(%d)", int(f))
}

// maxWavenumberIndex bounds the integer wavenumber enumeration per axis.
const maxWavenumberIndex = 256

// Table holds the built modes, axis-major so the evaluator's hot loop walks
// contiguous memory. Immutable once built.
type Table struct {
	KX, KY, KZ []float64
	Ampl       []float64
}

// Len returns the number of modes.
func (t *Table) Len() int {
	return len(t.Ampl)
}

// Params describes a mode-table build.
type Params struct {
	NDim       int
	LX, LY, LZ float64 // domain lengths per axis
	KMin, KMax float64 // physical band limits, already in 2*pi/length units
	Form       Form

	// PowerLaw only.
	PowerLawExp float64
	AnglesExp   float64

	// MaxModes caps the table size; exceeding it is a fatal build error.
	MaxModes int
}

// CapacityError reports a mode count that would exceed the configured cap.
type CapacityError struct {
	Count int
	Max   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("spectrum: %d modes exceed the cap of %d", e.Count, e.Max)
}

func (p Params) validate() error {
	if p.NDim < 1 || p.NDim > 3 {
		return fmt.Errorf("spectrum: ndim must be 1-3, got %d", p.NDim)
	}
	if p.Form < Band || p.Form > PowerLaw {
		return fmt.Errorf("spectrum: unsupported spectral form %d", int(p.Form))
	}
	if p.LX <= 0 {
		return fmt.Errorf("spectrum: domain length LX must be positive, got %g", p.LX)
	}
	if p.KMin > p.KMax {
		return fmt.Errorf("spectrum: k_min %g exceeds k_max %g", p.KMin, p.KMax)
	}
	if p.MaxModes < 1 {
		return fmt.Errorf("spectrum: mode cap must be positive, got %d", p.MaxModes)
	}
	return nil
}

// Build constructs the mode table. The angles engine is consumed only for
// PowerLaw; Band and Parabola builds may pass nil. A nil logger falls back
// to slog.Default.
func Build(p Params, angles *rng.Shuffled, log *slog.Logger) (*Table, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	// Axes beyond ndim carry zero wavenumbers only; fall back to the x
	// extent so the (zero) conversions stay finite.
	if p.LY <= 0 {
		p.LY = p.LX
	}
	if p.LZ <= 0 {
		p.LZ = p.LX
	}

	// Characteristic wavenumber for amplitude scaling: band floor, except
	// the parabola which peaks at the band center.
	kc := p.KMin
	if p.Form == Parabola {
		kc = 0.5 * (p.KMin + p.KMax)
	}

	// Dry pass: count the modes a full enumeration would produce, including
	// the sign-reflected family members.
	totalModes := p.countFullEnumeration()

	switch p.Form {
	case Band, Parabola:
		if totalModes+reflectionFamily(p.NDim) > p.MaxModes {
			return nil, &CapacityError{Count: totalModes, Max: p.MaxModes}
		}
		log.Info("generating driving modes", "n_modes", totalModes, "form", p.Form.String())
		return p.buildEnumerated(kc, totalModes, log)

	case PowerLaw:
		log.Info("sampling power-law driving modes",
			"full_sampling_modes", totalModes,
			"angles_exp", p.AnglesExp)
		if angles == nil {
			return nil, fmt.Errorf("spectrum: power-law build requires an angular sampling engine")
		}
		return p.buildPowerLaw(kc, angles, log)
	}
	return nil, fmt.Errorf("spectrum: unsupported spectral form %d", int(p.Form))
}

// reflectionFamily returns the number of modes one accepted positive-kx
// lattice point contributes: 1, 2, or 4 depending on dimension.
func reflectionFamily(ndim int) int {
	switch ndim {
	case 1:
		return 1
	case 2:
		return 2
	default:
		return 4
	}
}

func (p Params) axisBounds() (ikxMax, ikyMax, ikzMax int) {
	ikxMax = maxWavenumberIndex
	if p.NDim > 1 {
		ikyMax = maxWavenumberIndex
	}
	if p.NDim > 2 {
		ikzMax = maxWavenumberIndex
	}
	return
}

func (p Params) countFullEnumeration() int {
	ikxMax, ikyMax, ikzMax := p.axisBounds()
	n := 0
	for ikx := 0; ikx <= ikxMax; ikx++ {
		kx := 2 * math.Pi * float64(ikx) / p.LX
		for iky := 0; iky <= ikyMax; iky++ {
			ky := 2 * math.Pi * float64(iky) / p.LY
			for ikz := 0; ikz <= ikzMax; ikz++ {
				kz := 2 * math.Pi * float64(ikz) / p.LZ
				k := math.Sqrt(kx*kx + ky*ky + kz*kz)
				if k >= p.KMin && k <= p.KMax {
					n += reflectionFamily(p.NDim)
				}
			}
		}
	}
	return n
}

func (p Params) buildEnumerated(kc float64, totalModes int, log *slog.Logger) (*Table, error) {
	t := &Table{
		KX:   make([]float64, 0, totalModes),
		KY:   make([]float64, 0, totalModes),
		KZ:   make([]float64, 0, totalModes),
		Ampl: make([]float64, 0, totalModes),
	}

	// Parabola prefactor normalizing the peak to 1 at the band center.
	parabPrefact := -4.0 / ((p.KMax - p.KMin) * (p.KMax - p.KMin))

	ikxMax, ikyMax, ikzMax := p.axisBounds()
	for ikx := 0; ikx <= ikxMax; ikx++ {
		kx := 2 * math.Pi * float64(ikx) / p.LX
		for iky := 0; iky <= ikyMax; iky++ {
			ky := 2 * math.Pi * float64(iky) / p.LY
			for ikz := 0; ikz <= ikzMax; ikz++ {
				kz := 2 * math.Pi * float64(ikz) / p.LZ
				k := math.Sqrt(kx*kx + ky*ky + kz*kz)
				if k < p.KMin || k > p.KMax {
					continue
				}
				// A zero wavevector would divide by zero in the spectral
				// decomposition; refuse to build one rather than rely on
				// the band filter excluding it.
				if k == 0 {
					return nil, fmt.Errorf("spectrum: zero wavevector accepted by band filter (k_min=%g)", p.KMin)
				}

				amplitude := 1.0
				if p.Form == Parabola {
					amplitude = math.Abs(parabPrefact*(k-kc)*(k-kc) + 1.0)
				}
				// The power spectrum goes as amplitude^2 * k^(ndim-1); the
				// (kc/k) factor keeps it normalized across dimension.
				amplitude = math.Sqrt(amplitude) * math.Pow(kc/k, float64(p.NDim-1)/2.0)

				t.append(kx, ky, kz, amplitude)
				if p.NDim > 1 {
					t.append(kx, -ky, kz, amplitude)
				}
				if p.NDim > 2 {
					t.append(kx, ky, -kz, amplitude)
					t.append(kx, -ky, -kz, amplitude)
				}

				if t.Len()%1000 == 0 {
					log.Info("mode generation progress", "generated", t.Len(), "total", totalModes)
				}
			}
		}
	}
	return t, nil
}

func (p Params) buildPowerLaw(kc float64, angles *rng.Shuffled, log *slog.Logger) (*Table, error) {
	t := &Table{}

	ikMin := int(math.Round(p.KMin * p.LX / (2 * math.Pi)))
	if ikMin < 1 {
		ikMin = 1
	}
	ikMax := int(math.Round(p.KMax * p.LX / (2 * math.Pi)))

	log.Info("generating driving modes within shell range", "ik_min", ikMin, "ik_max", ikMax)

	for ik := ikMin; ik <= ikMax; ik++ {
		nang := int(math.Pow(2.0, float64(p.NDim)) * math.Ceil(math.Pow(float64(ik), p.AnglesExp)))
		log.Info("sampling shell", "ik", ik, "n_angles", nang)

		for iang := 1; iang <= nang; iang++ {
			phi := 2 * math.Pi * angles.Next() // whole sphere in azimuth
			if p.NDim == 1 {
				if phi < math.Pi {
					phi = 0.0
				} else {
					phi = math.Pi
				}
			}
			theta := math.Pi / 2.0
			if p.NDim > 2 {
				theta = math.Acos(1.0 - 2.0*angles.Next()) // uniform on the sphere
			}

			// Jittered radius, rounded to the nearest lattice wavevector.
			r := float64(ik) + angles.Next() - 0.5
			kx := 2 * math.Pi * math.Round(r*math.Sin(theta)*math.Cos(phi)) / p.LX
			ky := 0.0
			if p.NDim > 1 {
				ky = 2 * math.Pi * math.Round(r*math.Sin(theta)*math.Sin(phi)) / p.LY
			}
			kz := 0.0
			if p.NDim > 2 {
				kz = 2 * math.Pi * math.Round(r*math.Cos(theta)) / p.LZ
			}

			k := math.Sqrt(kx*kx + ky*ky + kz*kz)
			if k < p.KMin || k > p.KMax {
				continue
			}

			// The total count is unknown in advance, so the cap is checked
			// incrementally before each insertion.
			if t.Len()+reflectionFamily(p.NDim) > p.MaxModes {
				return nil, &CapacityError{Count: t.Len() + reflectionFamily(p.NDim), Max: p.MaxModes}
			}
			if k == 0 {
				return nil, fmt.Errorf("spectrum: zero wavevector accepted by band filter (k_min=%g)", p.KMin)
			}

			amplitude := math.Pow(k/kc, p.PowerLawExp)
			// Correct for the sparse angular coverage relative to a fully
			// sampled shell (k^(ndim-1) lattice points per shell).
			amplitude = math.Sqrt(amplitude*math.Pow(float64(ik), float64(p.NDim-1))/float64(nang)*4.0*math.Sqrt(3.0)) *
				math.Pow(kc/k, float64(p.NDim-1)/2.0)

			t.append(kx, ky, kz, amplitude)

			if t.Len()%1000 == 0 {
				log.Info("mode generation progress", "generated", t.Len())
			}
		}
	}
	return t, nil
}

func (t *Table) append(kx, ky, kz, ampl float64) {
	t.KX = append(t.KX, kx)
	t.KY = append(t.KY, ky)
	t.KZ = append(t.KZ, kz)
	t.Ampl = append(t.Ampl, ampl)
}
