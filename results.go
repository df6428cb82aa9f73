package lc50

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Results holds the outcome of fitting a dose-response model.  A
// Results value is immutable; refitting produces a new value.
type Results struct {
	model  *Model
	params *Params

	// Raw optimizer output and the numeric Hessian of the negative
	// log-likelihood at the optimum, kept for downstream
	// diagnostics.
	optim     *optimize.Result
	hess      *mat.SymDense
	converged bool
	status    optimize.Status

	// Pseudo-inverse of the Hessian and its blocks.
	vcov       *mat.Dense
	covBeta    *mat.Dense
	covGamma   *mat.Dense
	covLogLC50 *mat.Dense

	loglc50 []float64
	fitted  []float64

	loglike      float64
	deviance     float64
	nullDeviance float64
	dfResid      int
	dfNull       int
	aic          float64
}

// Model returns the model that was fit.
func (rslt *Results) Model() *Model {
	return rslt.model
}

// Alpha returns the estimated concentration-response rate for each
// group.
func (rslt *Results) Alpha() []float64 {
	return rslt.params.Alpha
}

// Gamma returns the estimated probit of control survival for each
// group.
func (rslt *Results) Gamma() []float64 {
	return rslt.params.Gamma
}

// Beta returns the estimated log-LC50 regression coefficients.
func (rslt *Results) Beta() []float64 {
	return rslt.params.Beta
}

// Params returns the estimated parameters.
func (rslt *Results) Params() *Params {
	return rslt.params
}

// LogLC50 returns the fitted log-LC50 for each group, the representative
// design row of the group dotted with beta.
func (rslt *Results) LogLC50() []float64 {
	return rslt.loglc50
}

// LC50 returns the fitted LC50 for each group on the concentration
// scale.
func (rslt *Results) LC50() []float64 {
	lc := make([]float64, len(rslt.loglc50))
	for g, v := range rslt.loglc50 {
		lc[g] = math.Exp(v)
	}
	return lc
}

// ControlSurvival returns the fitted control survival probability for
// each group.
func (rslt *Results) ControlSurvival() []float64 {
	cs := make([]float64, len(rslt.params.Gamma))
	for g, v := range rslt.params.Gamma {
		cs[g] = normcdf(v)
	}
	return cs
}

// FittedValues returns the fitted survival probability for each sample.
func (rslt *Results) FittedValues() []float64 {
	return rslt.fitted
}

// VCov returns the covariance matrix of the full parameter vector, or
// nil if it could not be computed.
func (rslt *Results) VCov() *mat.Dense {
	return rslt.vcov
}

// CovBeta returns the covariance matrix of beta.
func (rslt *Results) CovBeta() *mat.Dense {
	return rslt.covBeta
}

// CovGamma returns the covariance matrix of gamma.
func (rslt *Results) CovGamma() *mat.Dense {
	return rslt.covGamma
}

// CovLogLC50 returns the covariance matrix of the per-group log-LC50
// values.
func (rslt *Results) CovLogLC50() *mat.Dense {
	return rslt.covLogLC50
}

// StdErrBeta returns the standard errors of the beta coefficients, or
// nil if no covariance is available.
func (rslt *Results) StdErrBeta() []float64 {
	return diagSqrt(rslt.covBeta)
}

// StdErrGamma returns the standard errors of the gamma parameters, or
// nil if no covariance is available.
func (rslt *Results) StdErrGamma() []float64 {
	return diagSqrt(rslt.covGamma)
}

// StdErrLogLC50 returns the standard errors of the per-group log-LC50
// values, or nil if no covariance is available.
func (rslt *Results) StdErrLogLC50() []float64 {
	return diagSqrt(rslt.covLogLC50)
}

// LogLike returns the maximized log-likelihood.
func (rslt *Results) LogLike() float64 {
	return rslt.loglike
}

// Deviance returns the deviance of the fitted model relative to the
// saturated model.
func (rslt *Results) Deviance() float64 {
	return rslt.deviance
}

// NullDeviance returns the deviance of a null model with a single
// pooled survival probability.
func (rslt *Results) NullDeviance() float64 {
	return rslt.nullDeviance
}

// ResidDF returns the residual degrees of freedom.
func (rslt *Results) ResidDF() int {
	return rslt.dfResid
}

// NullDF returns the degrees of freedom of the null model.
func (rslt *Results) NullDF() int {
	return rslt.dfNull
}

// AIC returns the Akaike information criterion of the fit.
func (rslt *Results) AIC() float64 {
	return rslt.aic
}

// Converged reports whether the optimizer converged.  When false, all
// result fields still reflect the best point found.
func (rslt *Results) Converged() bool {
	return rslt.converged
}

// Status returns the optimizer's termination status.
func (rslt *Results) Status() optimize.Status {
	return rslt.status
}

// Optim returns the raw optimizer result.
func (rslt *Results) Optim() *optimize.Result {
	return rslt.optim
}

// Hessian returns the numeric Hessian of the negative log-likelihood at
// the optimum.
func (rslt *Results) Hessian() *mat.SymDense {
	return rslt.hess
}

func diagSqrt(a *mat.Dense) []float64 {

	if a == nil {
		return nil
	}

	n, _ := a.Dims()
	se := make([]float64, n)
	for i := range se {
		se[i] = math.Sqrt(a.At(i, i))
	}

	return se
}
