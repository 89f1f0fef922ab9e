package driving

import "math"

// Eval returns the turbulent vector at position (x, y, z). Axes beyond the
// configured dimension are ignored and their output components are zero.
//
// Eval reads but never mutates generator state, so concurrent calls on
// different points are safe as long as no Advance runs in parallel. Cost is
// O(n_modes) per point; this is the dominant runtime of the whole system
// when sampled over a full grid.
func (g *Generator) Eval(x, y, z float64) (vx, vy, vz float64) {
	kx, ky, kz := g.table.KX, g.table.KY, g.table.KZ
	ampl := g.table.Ampl
	akaX, akaY, akaZ := g.aka[0], g.aka[1], g.aka[2]
	akbX, akbY, akbZ := g.akb[0], g.akb[1], g.akb[2]
	norm := 2.0 * g.solWeightNorm

	for m := range ampl {
		sinx, cosx := math.Sincos(kx[m] * x)
		siny, cosy := math.Sincos(ky[m] * y)
		sinz, cosz := math.Sincos(kz[m] * z)

		// Real and imaginary parts of e^{i k.x} assembled from the per-axis
		// terms by the angle-sum identities, avoiding a transcendental call
		// on the combined phase.
		re := (cosx*cosy-sinx*siny)*cosz - (sinx*cosy+cosx*siny)*sinz
		im := cosx*(cosy*sinz+siny*cosz) + sinx*(cosy*cosz-siny*sinz)

		a := norm * ampl[m]
		vx += a * (akaX[m]*re - akbX[m]*im)
		vy += a * (akaY[m]*re - akbY[m]*im)
		vz += a * (akaZ[m]*re - akbZ[m]*im)
	}
	return vx, vy, vz
}
