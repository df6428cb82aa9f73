package lc50

import (
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Fit estimates the model parameters by maximum likelihood and returns
// a Results value.  Optimizer non-convergence is not fatal: the
// returned results carry a diagnostic status and are populated from the
// best point found.
func (m *Model) Fit() (*Results, error) {

	pa, err := m.startValues()
	if err != nil {
		return nil, err
	}
	x0 := pa.Pack(nil)

	prob := optimize.Problem{
		Func: m.negLogLike,
	}

	method := m.config.Method
	if method == nil {
		method = &optimize.NelderMead{}
	}

	if m.log != nil {
		m.log.Printf("Fitting %d parameters to %d samples in %d groups\n",
			m.NumParams(), m.nobs, m.ngroup)
	}

	optrslt, err := optimize.Minimize(prob, x0, m.config.Settings, method)
	if optrslt == nil {
		return nil, fmt.Errorf("lc50: optimization failed: %v", err)
	}

	converged := err == nil && optrslt.Status.Err() == nil
	if m.log != nil {
		m.log.Printf("Optimizer status: %v (converged=%v)\n", optrslt.Status, converged)
	}

	xopt := make([]float64, len(optrslt.X))
	copy(xopt, optrslt.X)
	pa = UnpackParams(xopt, m.ngroup, m.nvar)

	// Numeric Hessian of the objective at the optimum.
	npar := m.NumParams()
	hess := mat.NewSymDense(npar, nil)
	fd.Hessian(hess, m.negLogLike, xopt, nil)

	rslt := &Results{
		model:     m,
		params:    pa,
		optim:     optrslt,
		converged: converged,
		status:    optrslt.Status,
		hess:      hess,
	}

	// The parameter covariance matrix is a pseudo-inverse of the
	// Hessian of the negative log-likelihood; a plain inverse would
	// fail for weakly identified fits.
	vcov, err := pinv(hess)
	if err != nil {
		if m.log != nil {
			m.log.Printf("No covariance available: %v\n", err)
		}
	} else {
		rslt.vcov = vcov
		rslt.covGamma = extractBlock(vcov, m.ngroup, m.ngroup)
		if m.nvar > 0 {
			rslt.covBeta = extractBlock(vcov, 2*m.ngroup, m.nvar)
		}
	}

	rslt.loglc50 = make([]float64, m.ngroup)
	if m.nvar > 0 {
		for g := 0; g < m.ngroup; g++ {
			var v float64
			for j := 0; j < m.nvar; j++ {
				v += m.xg.At(g, j) * pa.Beta[j]
			}
			rslt.loglc50[g] = v
		}
		if rslt.covBeta != nil {
			var w, cl mat.Dense
			w.Mul(m.xg, rslt.covBeta)
			cl.Mul(&w, m.xg.T())
			rslt.covLogLC50 = &cl
		}
	}

	rslt.fitted = m.FittedProb(pa)

	llsat := m.saturatedLogLike()
	rslt.loglike = -optrslt.F
	rslt.deviance = -2 * (rslt.loglike - llsat)
	rslt.nullDeviance = -2 * (m.pooledLogLike() - llsat)
	rslt.dfResid = m.nobs - (m.nvar + m.ngroup)
	rslt.dfNull = m.nobs - (1 + m.ngroup)
	rslt.aic = 2 * (float64(m.nvar+2*m.ngroup) + optrslt.F)

	if m.log != nil {
		m.log.Printf("Deviance=%.6f on %d df, log-likelihood=%.6f, AIC=%.6f\n",
			rslt.deviance, rslt.dfResid, rslt.loglike, rslt.aic)
	}

	return rslt, nil
}
