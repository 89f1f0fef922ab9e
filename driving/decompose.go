package driving

import "fmt"

// computeCoeffs projects the OU phase state through each mode's wavevector,
// splitting it into a compressive (divergence) part parallel to k and a
// solenoidal (curl) part orthogonal to it, blended by the solenoidal
// weight. The projection is linear in the phases and is recomputed in full
// whenever the phase state changes; there is no valid incremental update.
//
// sol_weight = 1 yields a purely divergence-free field, sol_weight = 0 a
// purely curl-free (potential) one.
func (g *Generator) computeCoeffs() error {
	n := g.table.Len()
	if g.aka[0] == nil {
		for j := 0; j < 3; j++ {
			g.aka[j] = make([]float64, n)
			g.akb[j] = make([]float64, n)
		}
	}

	w := g.solWeight
	for i := 0; i < n; i++ {
		var ka, kb, kk float64
		for j := 0; j < g.ndim; j++ {
			kj := g.modeComponent(j, i)
			kk += kj * kj
			ka += kj * g.phases[6*i+2*j+1]
			kb += kj * g.phases[6*i+2*j+0]
		}
		if kk == 0 {
			return fmt.Errorf("driving: mode %d has zero wavevector", i)
		}
		for j := 0; j < g.ndim; j++ {
			kj := g.modeComponent(j, i)
			diva := kj * ka / kk
			divb := kj * kb / kk
			curla := g.phases[6*i+2*j+0] - divb
			curlb := g.phases[6*i+2*j+1] - diva
			g.aka[j][i] = w*curla + (1.0-w)*divb
			g.akb[j][i] = w*curlb + (1.0-w)*diva
		}
	}
	return nil
}

func (g *Generator) modeComponent(axis, i int) float64 {
	switch axis {
	case 0:
		return g.table.KX[i]
	case 1:
		return g.table.KY[i]
	default:
		return g.table.KZ[i]
	}
}
