package lc50

import (
	"math"
)

// badNegLogLike is substituted for the objective value when the
// log-likelihood is not finite, so that the optimizer's line search and
// finite differencing never see a non-finite value.
const badNegLogLike = 1e10

// FittedProb returns the fitted survival probability for every sample
// at the given parameter values.  For an exposed sample in group g the
// probability is Phi(alpha_g*(x_i.beta - log(conc_i))) * Phi(gamma_g);
// for a control sample (conc 0) it is Phi(gamma_g) alone.
func (m *Model) FittedProb(pa *Params) []float64 {
	prob := make([]float64, m.nobs)
	m.fittedProb(pa, prob)
	return prob
}

func (m *Model) fittedProb(pa *Params, prob []float64) {

	for i, c := range m.conc {
		g := m.groupix[i]
		q := normcdf(pa.Gamma[g])

		if c == 0 {
			prob[i] = q
			continue
		}

		var lp float64
		for j := 0; j < m.nvar; j++ {
			lp += m.x.At(i, j) * pa.Beta[j]
		}
		prob[i] = q * normcdf(pa.Alpha[g]*(lp-math.Log(c)))
	}
}

// negLogLike is the objective passed to the optimizer.  It evaluates
// the negative binomial log-likelihood of the survivor counts at the
// flat parameter vector x.  Non-finite values are replaced by a large
// finite penalty.
func (m *Model) negLogLike(x []float64) float64 {

	pa := UnpackParams(x, m.ngroup, m.nvar)

	prob := make([]float64, m.nobs)
	m.fittedProb(pa, prob)

	var ll float64
	for i, p := range prob {
		s := m.y.Survived[i]
		ll += binomLogPMF(s, s+m.y.Died[i], p)
	}

	nll := -ll
	if math.IsNaN(nll) || math.IsInf(nll, 0) {
		return badNegLogLike
	}

	return nll
}

// saturatedLogLike returns the log-likelihood of the saturated model,
// in which each sample's survival probability equals its observed
// proportion.
func (m *Model) saturatedLogLike() float64 {

	var ll float64
	for i, s := range m.y.Survived {
		n := s + m.y.Died[i]
		ll += binomLogPMF(s, n, s/n)
	}

	return ll
}

// pooledLogLike returns the log-likelihood of a null model with a
// single survival probability shared by all samples, estimated by the
// pooled survival proportion.
func (m *Model) pooledLogLike() float64 {

	var st, nt float64
	for i, s := range m.y.Survived {
		st += s
		nt += s + m.y.Died[i]
	}
	phat := st / nt

	var ll float64
	for i, s := range m.y.Survived {
		ll += binomLogPMF(s, s+m.y.Died[i], phat)
	}

	return ll
}

// binomLogPMF returns the log of the binomial probability mass at k
// successes in n trials with success probability p, including the
// binomial coefficient.
func binomLogPMF(k, n, p float64) float64 {

	c1, _ := math.Lgamma(n + 1)
	c2, _ := math.Lgamma(k + 1)
	c3, _ := math.Lgamma(n - k + 1)
	ll := c1 - c2 - c3

	if k > 0 {
		ll += k * math.Log(p)
	}
	if n-k > 0 {
		ll += (n - k) * math.Log(1-p)
	}

	return ll
}

func normcdf(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt(2))
}

func normpdf(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
