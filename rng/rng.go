// Package rng provides the deterministic pseudo-random engines behind the
// driving sequence. Reproducibility is the whole point: given the same seed
// and the same call order, every draw is bit-identical across runs and across
// processes, which is what lets replicated generators on different ranks stay
// in lockstep.
package rng

import "math"

// Park-Miller minimal standard generator (Schrage's method, 31-bit
// Mersenne-prime modulus).
const (
	ia = 16807
	im = 2147483647
	iq = 127773
	ir = 2836
)

// L'Ecuyer combined generator with Bays-Durham shuffle.
const (
	im1  = 2147483563
	im2  = 2147483399
	imm1 = im1 - 1
	ia1  = 40014
	ia2  = 40692
	iq1  = 53668
	iq2  = 52774
	ir1  = 12211
	ir2  = 3791
	ntab = 32
	ndiv = 1 + imm1/ntab
)

const (
	am   = 1.0 / im
	am1  = 1.0 / im1
	eps  = 1.2e-7
	rnmx = 1.0 - eps
)

// Stream is the minimal multiplicative congruential generator that feeds the
// Gaussian draws of the driving sequence. The state is a single 31-bit
// integer; every uniform draw mutates it.
type Stream struct {
	state int32
}

// NewStream creates a stream from a nonzero seed. Negative seeds are folded
// to positive on the first draw, matching the reference recurrence.
func NewStream(seed int32) *Stream {
	return &Stream{state: seed}
}

// State returns the current working seed. Two streams with equal state
// produce identical future draws.
func (s *Stream) State() int32 {
	return s.state
}

// Uniform returns the next deviate in (0, 1), exclusive of both endpoints.
// The upper end is clamped below 1 by a fixed epsilon.
func (s *Stream) Uniform() float64 {
	if s.state <= 0 {
		if -s.state > 1 {
			s.state = -s.state
		} else {
			s.state = 1
		}
	}
	k := s.state / iq
	s.state = ia*(s.state-k*iq) - ir*k
	if s.state < 0 {
		s.state += im
	}
	v := am * float64(s.state)
	if v > rnmx {
		v = rnmx
	}
	return v
}

// Gaussian returns a unit-variance, zero-mean normal deviate via the polar
// Box-Muller transform. Consumes exactly two uniform draws.
func (s *Stream) Gaussian() float64 {
	r1 := s.Uniform()
	r2 := s.Uniform()
	return math.Sqrt(2.0*math.Log(1.0/r1)) * math.Cos(2.0*math.Pi*r2)
}

// Shuffled is the long-period combined generator (period > 2e18) used only
// for the sparse angular sampling of power-law mode tables. It chains off a
// Stream: the stream's working seed doubles as the first sub-generator
// state, so angular draws and later Gaussian draws consume one shared seed
// in a well-defined order.
type Shuffled struct {
	src   *Stream
	idum2 int32
	iy    int32
	iv    [ntab]int32
}

// NewShuffled initializes the shuffle table from the stream's current seed
// and burns one draw on a local copy, reproducing the reference convention
// of a warm-up call with a negated seed. The stream's own state is left
// untouched until the first Next.
func NewShuffled(src *Stream) *Shuffled {
	s := &Shuffled{src: src}
	idum := src.state
	if idum < 1 {
		idum = 1
	}
	s.idum2 = idum
	for j := int32(ntab + 7); j >= 0; j-- {
		k := idum / iq1
		idum = ia1*(idum-k*iq1) - k*ir1
		if idum < 0 {
			idum += im1
		}
		if j < ntab {
			s.iv[j] = idum
		}
	}
	s.iy = s.iv[0]
	s.step(&idum)
	return s
}

// Next returns the next deviate in (0, 1), advancing the shared seed.
func (s *Shuffled) Next() float64 {
	return s.step(&s.src.state)
}

func (s *Shuffled) step(idum *int32) float64 {
	k := *idum / iq1
	*idum = ia1*(*idum-k*iq1) - k*ir1
	if *idum < 0 {
		*idum += im1
	}
	k = s.idum2 / iq2
	s.idum2 = ia2*(s.idum2-k*iq2) - k*ir2
	if s.idum2 < 0 {
		s.idum2 += im2
	}
	j := s.iy / ndiv
	s.iy = s.iv[j] - s.idum2
	s.iv[j] = *idum
	if s.iy < 1 {
		s.iy += imm1
	}
	v := am1 * float64(s.iy)
	if v > rnmx {
		v = rnmx
	}
	return v
}
