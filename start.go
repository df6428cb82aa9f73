package lc50

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// startValues produces optimizer starting values.  If the caller
// provided explicit values they are used, with a missing beta expanded
// from the per-group log-LC50 values by least squares.  Otherwise an
// independent probit regression is fit to each group's samples.
func (m *Model) startValues() (*Params, error) {

	if st := m.config.Start; st != nil {
		pa := &Params{Alpha: st.Alpha, Gamma: st.Gamma, Beta: st.Beta}
		if pa.Beta == nil {
			beta, err := m.expandBeta(st.LogLC50)
			if err != nil {
				return nil, err
			}
			pa.Beta = beta
		}
		return pa.Clone(), nil
	}

	alpha := make([]float64, m.ngroup)
	gamma := make([]float64, m.ngroup)
	loglc50 := make([]float64, m.ngroup)

	for g := range m.groupNames {
		c0, c1, c3, err := m.groupProbit(g)
		if err != nil {
			return nil, fmt.Errorf("%w for group %q: %v", ErrInit, m.groupNames[g], err)
		}
		alpha[g] = -c3
		gamma[g] = c0
		loglc50[g] = -(c0 + c1) / c3
	}

	beta, err := m.expandBeta(loglc50)
	if err != nil {
		return nil, err
	}

	if m.log != nil {
		m.log.Printf("Starting values: alpha=%v gamma=%v loglc50=%v\n",
			alpha, gamma, loglc50)
	}

	return &Params{Alpha: alpha, Gamma: gamma, Beta: beta}, nil
}

// expandBeta solves x*beta = loglc50[group] in the least squares sense,
// expanding each group's value to all of its samples.
func (m *Model) expandBeta(loglc50 []float64) ([]float64, error) {

	if m.nvar == 0 {
		return nil, nil
	}

	b := make([]float64, m.nobs)
	for i, g := range m.groupix {
		b[i] = loglc50[g]
	}

	return solveLS(m.x, b)
}

// groupProbit fits a binomial probit regression to the samples of one
// group, using a three column design: an intercept, an indicator of
// positive concentration, and the log concentration (zero for control
// samples).  The fit uses iteratively reweighted least squares.  The
// three coefficients are returned in order.
func (m *Model) groupProbit(g int) (float64, float64, float64, error) {

	const (
		maxiter = 50
		ctol    = 1e-10
	)

	// Subset the group and build the local design.
	var z *mat.Dense
	var prop, size []float64
	{
		var rows [][]float64
		for i, gi := range m.groupix {
			if gi != g {
				continue
			}
			c := m.conc[i]
			r := []float64{1, 0, 0}
			if c > 0 {
				r[1] = 1
				r[2] = math.Log(c)
			}
			rows = append(rows, r)
			n := m.y.Survived[i] + m.y.Died[i]
			prop = append(prop, m.y.Survived[i]/n)
			size = append(size, n)
		}
		z = mat.NewDense(len(rows), 3, nil)
		for i, r := range rows {
			z.SetRow(i, r)
		}
	}

	ng := len(prop)
	if ng < 3 {
		return 0, 0, 0, fmt.Errorf("%d samples cannot identify 3 coefficients", ng)
	}

	// Starting linear predictor from shrunken observed proportions.
	eta := make([]float64, ng)
	for i, p := range prop {
		eta[i] = norminv((size[i]*p + 0.5) / (size[i] + 1))
	}

	mu := make([]float64, ng)
	wgt := make([]float64, ng)
	adjy := make([]float64, ng)
	coeff := make([]float64, 3)

	var cnew mat.VecDense

	for iter := 0; iter < maxiter; iter++ {

		for i := range eta {
			mu[i] = normcdf(eta[i])
			d := normpdf(eta[i])
			v := mu[i] * (1 - mu[i])
			if v < 1e-10 || d < 1e-10 {
				return 0, 0, 0, fmt.Errorf("fitted probabilities numerically 0 or 1")
			}
			wgt[i] = size[i] * d * d / v
			adjy[i] = eta[i] + (prop[i]-mu[i])/d
		}

		// Weighted least squares step.
		xtx := mat.NewDense(3, 3, nil)
		xty := mat.NewVecDense(3, nil)
		for i := 0; i < ng; i++ {
			for j1 := 0; j1 < 3; j1++ {
				xty.SetVec(j1, xty.AtVec(j1)+wgt[i]*z.At(i, j1)*adjy[i])
				for j2 := 0; j2 <= j1; j2++ {
					xtx.Set(j1, j2, xtx.At(j1, j2)+wgt[i]*z.At(i, j1)*z.At(i, j2))
				}
			}
		}
		for j1 := 0; j1 < 3; j1++ {
			for j2 := j1 + 1; j2 < 3; j2++ {
				xtx.Set(j1, j2, xtx.At(j2, j1))
			}
		}

		if err := cnew.SolveVec(xtx, xty); err != nil {
			if _, ok := err.(mat.Condition); !ok {
				return 0, 0, 0, fmt.Errorf("singular weighted least squares system")
			}
		}

		var del float64
		for j := 0; j < 3; j++ {
			v := cnew.AtVec(j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, 0, 0, fmt.Errorf("non-finite coefficient")
			}
			if d := math.Abs(v - coeff[j]); d > del {
				del = d
			}
			coeff[j] = v
		}

		for i := range eta {
			eta[i] = 0
			for j := 0; j < 3; j++ {
				eta[i] += z.At(i, j) * coeff[j]
			}
		}

		if del < ctol {
			break
		}
		if iter == maxiter-1 {
			return 0, 0, 0, fmt.Errorf("probit regression did not converge in %d iterations", maxiter)
		}
	}

	if coeff[2] == 0 {
		return 0, 0, 0, fmt.Errorf("zero slope on log concentration")
	}

	return coeff[0], coeff[1], coeff[2], nil
}

func norminv(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
