package lc50

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// AnovaTable holds a sequential or multi-model analysis of deviance.
// Df and Deviance hold differences relative to the previous row; the
// first row has no differences.
type AnovaTable struct {
	Names    []string
	Df       []int
	Deviance []float64
	ResidDf  []int
	ResidDev []float64

	// P-values from chi-squared tests of the deviance differences,
	// nil unless a test was requested.
	PValues []float64
}

// Anova builds a sequential analysis of deviance table for a fitted
// model.  Terms are added one at a time in the order given by the
// model's Assign configuration, refitting the model for each column
// prefix with alpha and gamma started at the full fit and beta started
// at the full coefficients restricted to the kept columns.  The first
// row ("NULL") retains only intercept columns (assign 0).
func Anova(rslt *Results) (*AnovaTable, error) {

	m := rslt.model

	asn := m.config.Assign
	if asn == nil {
		// Each column is its own term.
		asn = make([]int, m.nvar)
		for j := range asn {
			asn[j] = j + 1
		}
	}

	// Distinct nonzero terms, in order.
	var terms []int
	for _, t := range asn {
		if t > 0 && (len(terms) == 0 || terms[len(terms)-1] != t) {
			terms = append(terms, t)
		}
	}

	tab := &AnovaTable{}
	addRow := func(name string, rdf int, rdev float64) {
		if len(tab.Names) == 0 {
			tab.Df = append(tab.Df, 0)
			tab.Deviance = append(tab.Deviance, math.NaN())
		} else {
			k := len(tab.ResidDf) - 1
			tab.Df = append(tab.Df, tab.ResidDf[k]-rdf)
			tab.Deviance = append(tab.Deviance, tab.ResidDev[k]-rdev)
		}
		tab.Names = append(tab.Names, name)
		tab.ResidDf = append(tab.ResidDf, rdf)
		tab.ResidDev = append(tab.ResidDev, rdev)
	}

	// Refit each column prefix; the final prefix is the full model
	// and its fit is reused directly.
	for k := 0; k <= len(terms); k++ {

		name := "NULL"
		if k > 0 {
			name = m.termName(asn, terms[k-1])
		}

		if k == len(terms) && len(terms) > 0 {
			addRow(name, rslt.ResidDF(), rslt.Deviance())
			break
		}
		if k == 0 && len(terms) == 0 {
			// Zero-term model: the single row is the fit itself.
			addRow(name, rslt.ResidDF(), rslt.Deviance())
			break
		}

		var cols []int
		for j, t := range asn {
			if t == 0 || (k > 0 && t <= terms[k-1]) {
				cols = append(cols, j)
			}
		}

		beta := make([]float64, 0, len(cols))
		for _, j := range cols {
			beta = append(beta, rslt.Beta()[j])
		}
		start := &Start{Alpha: rslt.Alpha(), Gamma: rslt.Gamma(), Beta: beta}

		sub := m.subset(cols, start)
		sr, err := sub.Fit()
		if err != nil {
			return nil, fmt.Errorf("lc50: anova refit with %d of %d terms: %w",
				k, len(terms), err)
		}

		addRow(name, sr.ResidDF(), sr.Deviance())
	}

	return tab, nil
}

// termName returns the display name of a nonzero term.
func (m *Model) termName(asn []int, t int) string {

	if m.config.TermNames != nil && t-1 < len(m.config.TermNames) {
		return m.config.TermNames[t-1]
	}

	for j, v := range asn {
		if v == t {
			return m.xnames[j]
		}
	}

	return fmt.Sprintf("term%d", t)
}

// CompareModels builds an analysis of deviance table for two or more
// independently fitted models of the same response data.  When test is
// true, consecutive deviance differences are referred to chi-squared
// distributions with the corresponding df differences.
func CompareModels(test bool, results ...*Results) (*AnovaTable, error) {

	if len(results) < 2 {
		return nil, fmt.Errorf("lc50: at least two models are required, got %d", len(results))
	}

	base := results[0].model
	for k, r := range results[1:] {
		if r.model.nobs != base.nobs {
			return nil, fmt.Errorf("%w: model %d has %d samples, model 1 has %d",
				ErrIncompatible, k+2, r.model.nobs, base.nobs)
		}
		for i := 0; i < base.nobs; i++ {
			if r.model.y.Survived[i] != base.y.Survived[i] || r.model.y.Died[i] != base.y.Died[i] {
				return nil, fmt.Errorf("%w: model %d response differs from model 1 at sample %d",
					ErrIncompatible, k+2, i)
			}
		}
	}

	tab := &AnovaTable{}
	if test {
		tab.PValues = make([]float64, len(results))
	}

	for k, r := range results {
		tab.Names = append(tab.Names, fmt.Sprintf("Model %d", k+1))
		tab.ResidDf = append(tab.ResidDf, r.ResidDF())
		tab.ResidDev = append(tab.ResidDev, r.Deviance())

		if k == 0 {
			tab.Df = append(tab.Df, 0)
			tab.Deviance = append(tab.Deviance, math.NaN())
			if test {
				tab.PValues[0] = math.NaN()
			}
			continue
		}

		df := tab.ResidDf[k-1] - tab.ResidDf[k]
		dev := tab.ResidDev[k-1] - tab.ResidDev[k]
		tab.Df = append(tab.Df, df)
		tab.Deviance = append(tab.Deviance, dev)

		if test {
			if df > 0 && dev >= 0 {
				chi := distuv.ChiSquared{K: float64(df)}
				tab.PValues[k] = chi.Survival(dev)
			} else {
				tab.PValues[k] = math.NaN()
			}
		}
	}

	return tab, nil
}

// String returns the analysis of deviance table as a string.
func (tab *AnovaTable) String() string {

	n := len(tab.Names)
	df := make([]string, n)
	dev := make([]string, n)
	rdf := make([]string, n)
	rdev := make([]string, n)

	for k := 0; k < n; k++ {
		if k > 0 {
			df[k] = fmt.Sprintf("%d", tab.Df[k])
			dev[k] = fmtNum(tab.Deviance[k])
		}
		rdf[k] = fmt.Sprintf("%d", tab.ResidDf[k])
		rdev[k] = fmtNum(tab.ResidDev[k])
	}

	s := &SummaryTable{
		Title:    "Analysis of deviance",
		ColNames: []string{"Term", "Df", "Deviance", "Resid. Df", "Resid. Dev"},
		Cols:     [][]string{tab.Names, df, dev, rdf, rdev},
	}

	if tab.PValues != nil {
		pv := make([]string, n)
		for k := 1; k < n; k++ {
			pv[k] = fmtNum(tab.PValues[k])
		}
		s.ColNames = append(s.ColNames, "P-value")
		s.Cols = append(s.Cols, pv)
	}

	return s.String()
}
