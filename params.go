package lc50

import "fmt"

// Params holds the model parameters, partitioned into the per-group
// concentration-response rates (Alpha), the per-group probits of control
// survival (Gamma), and the shared log-LC50 regression coefficients (Beta).
type Params struct {
	Alpha []float64
	Gamma []float64
	Beta  []float64
}

// NumParams returns the total number of free parameters.
func (pa *Params) NumParams() int {
	return len(pa.Alpha) + len(pa.Gamma) + len(pa.Beta)
}

// Pack flattens the parameters into the layout seen by the optimizer:
// the alpha values first, then gamma, then beta.  The flat layout is
// confined to Pack and UnpackParams.
func (pa *Params) Pack(buf []float64) []float64 {
	x := resize(buf, pa.NumParams())
	q := copy(x, pa.Alpha)
	q += copy(x[q:], pa.Gamma)
	copy(x[q:], pa.Beta)
	return x
}

// UnpackParams splits a flat parameter vector into its alpha, gamma, and
// beta blocks, for a model with ngroup groups and p covariates.  The
// returned blocks reference x.
func UnpackParams(x []float64, ngroup, p int) *Params {

	if len(x) != 2*ngroup+p {
		msg := fmt.Sprintf("lc50: parameter vector has length %d, need %d",
			len(x), 2*ngroup+p)
		panic(msg)
	}

	return &Params{
		Alpha: x[0:ngroup],
		Gamma: x[ngroup : 2*ngroup],
		Beta:  x[2*ngroup:],
	}
}

// Clone returns a deep copy of the parameter value.
func (pa *Params) Clone() *Params {
	q := &Params{
		Alpha: make([]float64, len(pa.Alpha)),
		Gamma: make([]float64, len(pa.Gamma)),
		Beta:  make([]float64, len(pa.Beta)),
	}
	copy(q.Alpha, pa.Alpha)
	copy(q.Gamma, pa.Gamma)
	copy(q.Beta, pa.Beta)
	return q
}
