package lc50

import (
	"fmt"
	"math"
	"strings"
)

// SummaryTable renders a titled table of pre-formatted columns as text,
// with model-level summary values above the column block.
type SummaryTable struct {

	// Title
	Title string

	// Values at the top of the summary
	Top []string

	// Column names
	ColNames []string

	// Cols[j] holds the formatted values of the j^th column.
	Cols [][]string

	// Messages displayed below the table
	Msg []string
}

// String returns the table as a string.
func (s *SummaryTable) String() string {

	// Column widths.
	w := make([]int, len(s.Cols))
	for j, c := range s.Cols {
		w[j] = len(s.ColNames[j])
		for _, v := range c {
			if len(v) > w[j] {
				w[j] = len(v)
			}
		}
	}

	// Total width of the table.
	tw := 0
	for _, v := range w {
		tw += v + 2
	}
	if tw < len(s.Title) {
		tw = len(s.Title)
	}
	for _, v := range s.Top {
		if tw < len(v) {
			tw = len(v)
		}
	}

	var b strings.Builder

	k := (tw - len(s.Title)) / 2
	if k > 0 {
		b.WriteString(strings.Repeat(" ", k))
	}
	b.WriteString(s.Title + "\n")
	b.WriteString(strings.Repeat("=", tw) + "\n")

	for _, v := range s.Top {
		b.WriteString(v + "\n")
	}
	b.WriteString(strings.Repeat("-", tw) + "\n")

	for j, na := range s.ColNames {
		fmt.Fprintf(&b, "%*s  ", w[j], na)
	}
	b.WriteString("\n")

	nrow := 0
	if len(s.Cols) > 0 {
		nrow = len(s.Cols[0])
	}
	for i := 0; i < nrow; i++ {
		for j := range s.Cols {
			fmt.Fprintf(&b, "%*s  ", w[j], s.Cols[j][i])
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("-", tw) + "\n")

	for _, msg := range s.Msg {
		b.WriteString(msg + "\n")
	}

	return b.String()
}

// Summary presents the coefficient estimates, per-group LC50 values,
// and per-group control survival probabilities of a fitted model.
type Summary struct {
	results *Results
}

// Summary returns a Summary for the fitted model.
func (rslt *Results) Summary() *Summary {
	return &Summary{results: rslt}
}

const zq95 = 1.959963984540054

// coefTable builds the table of log-LC50 regression coefficients.
func (s *Summary) coefTable() *SummaryTable {

	rslt := s.results
	beta := rslt.Beta()
	se := rslt.StdErrBeta()

	zs := make([]string, len(beta))
	ps := make([]string, len(beta))
	ses := make([]string, len(beta))
	for j := range beta {
		if se == nil {
			zs[j], ps[j], ses[j] = "", "", ""
			continue
		}
		z := beta[j] / se[j]
		zs[j] = fmtNum(z)
		ps[j] = fmtNum(2 * normcdf(-math.Abs(z)))
		ses[j] = fmtNum(se[j])
	}

	return &SummaryTable{
		Title:    "Log-LC50 coefficients",
		Top:      s.topLines(),
		ColNames: []string{"Variable", "Estimate", "SE", "Z-score", "P-value"},
		Cols: [][]string{
			rslt.model.XNames(),
			fmtNums(beta),
			ses,
			zs,
			ps,
		},
	}
}

// lc50Table builds the per-group LC50 table.  The confidence interval
// is a symmetric Wald interval on the log scale, exponentiated, so it
// is asymmetric on the concentration scale.
func (s *Summary) lc50Table() *SummaryTable {

	rslt := s.results
	ll := rslt.LogLC50()
	se := rslt.StdErrLogLC50()

	lc := make([]string, len(ll))
	lcb := make([]string, len(ll))
	ucb := make([]string, len(ll))
	ses := make([]string, len(ll))
	for g, v := range ll {
		lc[g] = fmtNum(math.Exp(v))
		if se == nil {
			continue
		}
		ses[g] = fmtNum(se[g])
		lcb[g] = fmtNum(math.Exp(v - zq95*se[g]))
		ucb[g] = fmtNum(math.Exp(v + zq95*se[g]))
	}

	return &SummaryTable{
		Title:    "LC50 estimates",
		ColNames: []string{"Group", "LogLC50", "SE", "LC50", "LCB", "UCB"},
		Cols: [][]string{
			rslt.model.GroupNames(),
			fmtNums(ll),
			ses,
			lc,
			lcb,
			ucb,
		},
		Msg: []string{"95% confidence limits are computed on the log scale."},
	}
}

// controlTable builds the per-group control survival table.  The
// interval is a symmetric Wald interval on the probit scale mapped
// through the normal CDF.
func (s *Summary) controlTable() *SummaryTable {

	rslt := s.results
	gam := rslt.Gamma()
	se := rslt.StdErrGamma()

	est := make([]string, len(gam))
	lcb := make([]string, len(gam))
	ucb := make([]string, len(gam))
	for g, v := range gam {
		est[g] = fmtNum(normcdf(v))
		if se == nil {
			continue
		}
		lcb[g] = fmtNum(normcdf(v - zq95*se[g]))
		ucb[g] = fmtNum(normcdf(v + zq95*se[g]))
	}

	return &SummaryTable{
		Title:    "Control survival",
		ColNames: []string{"Group", "Estimate", "LCB", "UCB"},
		Cols: [][]string{
			rslt.model.GroupNames(),
			est,
			lcb,
			ucb,
		},
		Msg: []string{"95% confidence limits are computed on the probit scale."},
	}
}

func (s *Summary) topLines() []string {

	rslt := s.results
	conv := "converged"
	if !rslt.Converged() {
		conv = fmt.Sprintf("did not converge (%v)", rslt.Status())
	}

	return []string{
		fmt.Sprintf("Num obs:        %d", rslt.model.NumObs()),
		fmt.Sprintf("Num groups:     %d", rslt.model.NumGroup()),
		fmt.Sprintf("Log-likelihood: %.4f", rslt.LogLike()),
		fmt.Sprintf("Deviance:       %.4f on %d df", rslt.Deviance(), rslt.ResidDF()),
		fmt.Sprintf("Null deviance:  %.4f on %d df", rslt.NullDeviance(), rslt.NullDF()),
		fmt.Sprintf("AIC:            %.4f", rslt.AIC()),
		fmt.Sprintf("Optimizer:      %s", conv),
	}
}

// String returns a string representation of the model summary.
func (s *Summary) String() string {

	var b strings.Builder
	b.WriteString(s.coefTable().String())
	b.WriteString("\n")
	b.WriteString(s.lc50Table().String())
	b.WriteString("\n")
	b.WriteString(s.controlTable().String())

	return b.String()
}

func fmtNum(x float64) string {
	return fmt.Sprintf("%.4f", x)
}

func fmtNums(x []float64) []string {
	s := make([]string, len(x))
	for i, v := range x {
		s[i] = fmtNum(v)
	}
	return s
}
