package telemetry

// Field is the view of a driving generator the sampler needs.
type Field interface {
	Eval(x, y, z float64) (vx, vy, vz float64)
	Bounds() (min, max [3]float64)
	NDim() int
}

// Sampler sweeps a regular grid over the field's domain. Grid spacing is
// periodic (the endpoint coincides with the start), so uniform weighting of
// the samples is exact for the harmonic field.
type Sampler struct {
	grid int
	buf  FieldSample
}

// NewSampler creates a sampler with the given points per axis. Axes beyond
// the field's dimension collapse to a single plane.
func NewSampler(grid int) *Sampler {
	if grid < 2 {
		grid = 2
	}
	return &Sampler{grid: grid}
}

// Grid returns the points per axis.
func (s *Sampler) Grid() int { return s.grid }

// Sample sweeps the field and returns the raw component values. The
// returned sample aliases an internal buffer reused across calls.
func (s *Sampler) Sample(f Field) *FieldSample {
	min, max := f.Bounds()
	ndim := f.NDim()

	nx, ny, nz := s.grid, 1, 1
	if ndim > 1 {
		ny = s.grid
	}
	if ndim > 2 {
		nz = s.grid
	}

	n := nx * ny * nz
	if cap(s.buf.Vx) < n {
		s.buf.Vx = make([]float64, n)
		s.buf.Vy = make([]float64, n)
		s.buf.Vz = make([]float64, n)
	}
	s.buf.Vx = s.buf.Vx[:n]
	s.buf.Vy = s.buf.Vy[:n]
	s.buf.Vz = s.buf.Vz[:n]

	i := 0
	for ix := 0; ix < nx; ix++ {
		x := min[0] + (max[0]-min[0])*float64(ix)/float64(nx)
		for iy := 0; iy < ny; iy++ {
			y := min[1] + (max[1]-min[1])*float64(iy)/float64(ny)
			for iz := 0; iz < nz; iz++ {
				z := min[2] + (max[2]-min[2])*float64(iz)/float64(nz)
				s.buf.Vx[i], s.buf.Vy[i], s.buf.Vz[i] = f.Eval(x, y, z)
				i++
			}
		}
	}
	return &s.buf
}

// SampleStats sweeps the field and reduces the sweep to summary statistics
// in one call.
func (s *Sampler) SampleStats(f Field) FieldStats {
	return ComputeFieldStats(s.Sample(f))
}
