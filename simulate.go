package lc50

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulate draws parametric bootstrap replicates of the response from a
// fitted model.  Each replicate draws a survivor count for every sample
// from a binomial distribution with the sample's observed trial size
// and its fitted survival probability.  The random source is explicit;
// the same source state reproduces the same draws.  A nil source draws
// from a fixed default seed.
func (rslt *Results) Simulate(nsim int, src rand.Source) []Response {

	if src == nil {
		src = rand.NewSource(1)
	}

	m := rslt.model
	out := make([]Response, nsim)

	for k := range out {
		sv := make([]float64, m.nobs)
		dd := make([]float64, m.nobs)
		for i := 0; i < m.nobs; i++ {
			n := m.y.Survived[i] + m.y.Died[i]
			b := distuv.Binomial{N: n, P: rslt.fitted[i], Src: src}
			sv[i] = b.Rand()
			dd[i] = n - sv[i]
		}
		out[k] = Response{Survived: sv, Died: dd}
	}

	return out
}
