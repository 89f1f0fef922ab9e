package driving

import "math"

// The driving sequence is an Ornstein-Uhlenbeck process
//
//	x_{n+1} = f x_n + sigma sqrt(1 - f^2) z_n,  f = exp(-dt/ts)
//
// where z_n is a unit-variance Gaussian draw and sigma the stationary
// standard deviation. The sequence has zero mean, stationary RMS sigma, and
// autocorrelation time ts; its temporal power spectrum ranges from white to
// brown noise with dt/ts.
//
// Each mode carries six channels (three axes, cosine and sine components
// read as complex per-axis amplitudes). All channels share the damping
// factor but draw independently.

// ouInit draws the initial phase state from the stationary distribution.
func (g *Generator) ouInit() {
	g.phases = make([]float64, 6*g.table.Len())
	for i := range g.phases {
		g.phases[i] = g.ouVar * g.src.Gaussian()
	}
}

// ouUpdate advances every phase channel by one step and increments the step
// counter. The recurrence is exact, not a discretization: variance and
// autocorrelation hold for any dt.
func (g *Generator) ouUpdate() {
	f := math.Exp(-g.dt / g.decay)
	drive := math.Sqrt(1.0-f*f) * g.ouVar
	for i := range g.phases {
		g.phases[i] = g.phases[i]*f + drive*g.src.Gaussian()
	}
	g.step++
}
