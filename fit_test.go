package lc50

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFitTwoGroups(t *testing.T) {

	m := testModel(t, nil)
	rslt, err := m.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if !rslt.Converged() {
		t.Fatalf("optimizer did not converge: %v", rslt.Status())
	}

	// Survival declines with concentration in both groups, so the
	// rate parameters are positive.
	for g, a := range rslt.Alpha() {
		if a <= 0 {
			t.Fatalf("alpha[%d] = %v, want > 0", g, a)
		}
	}

	// Control survival is high in both groups.
	for g, q := range rslt.ControlSurvival() {
		if q < 0.7 || q > 1 {
			t.Fatalf("control survival[%d] = %v", g, q)
		}
	}

	lc := rslt.LC50()
	if lc[0] <= 0 || lc[1] <= 0 {
		t.Fatalf("LC50 not positive: %v", lc)
	}

	for i, p := range rslt.FittedValues() {
		if p < 0 || p > 1 || math.IsNaN(p) {
			t.Fatalf("fitted value %d out of range: %v", i, p)
		}
	}

	if rslt.Deviance() < 0 {
		t.Fatalf("negative deviance %v", rslt.Deviance())
	}
	if rslt.Deviance() > rslt.NullDeviance() {
		t.Fatalf("deviance %v exceeds null deviance %v",
			rslt.Deviance(), rslt.NullDeviance())
	}

	n, p, G := m.NumObs(), 2, 2
	if rslt.ResidDF() != n-(p+G) {
		t.Fatalf("residual df %d, want %d", rslt.ResidDF(), n-(p+G))
	}
	if rslt.NullDF() != n-(1+G) {
		t.Fatalf("null df %d, want %d", rslt.NullDF(), n-(1+G))
	}

	aic := 2 * (float64(p+2*G) - rslt.LogLike())
	if !scalarClose(rslt.AIC(), aic, 1e-8) {
		t.Fatalf("AIC %v, want %v", rslt.AIC(), aic)
	}
}

func TestFitCovariances(t *testing.T) {

	m := testModel(t, nil)
	rslt, err := m.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	se := rslt.StdErrBeta()
	if se == nil {
		t.Fatal("no beta covariance")
	}
	for j, s := range se {
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			t.Fatalf("beta SE %d degenerate: %v", j, s)
		}
	}

	for _, s := range append(rslt.StdErrGamma(), rslt.StdErrLogLC50()...) {
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			t.Fatalf("degenerate standard error %v", s)
		}
	}

	// The log-LC50 covariance is xg * covBeta * xg', so the first
	// group's variance equals the icept coefficient's variance.
	if !scalarClose(rslt.CovLogLC50().At(0, 0), rslt.CovBeta().At(0, 0), 1e-10) {
		t.Fatalf("loglc50 covariance does not match beta covariance block")
	}
}

func TestRefitFromOptimum(t *testing.T) {

	m := testModel(t, nil)
	rslt, err := m.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	config := &Config{
		Start: &Start{
			Alpha: rslt.Alpha(),
			Gamma: rslt.Gamma(),
			Beta:  rslt.Beta(),
		},
	}
	m2 := testModel(t, config)
	rslt2, err := m2.Fit()
	if err != nil {
		t.Fatalf("refit: %v", err)
	}

	if !scalarClose(rslt.LogLike(), rslt2.LogLike(), 1e-3) {
		t.Fatalf("refit from optimum moved the log-likelihood: %v -> %v",
			rslt.LogLike(), rslt2.LogLike())
	}
}

func TestStartValues(t *testing.T) {

	m := testModel(t, nil)
	pa, err := m.startValues()
	if err != nil {
		t.Fatalf("startValues: %v", err)
	}

	for g := 0; g < 2; g++ {
		if pa.Alpha[g] <= 0 {
			t.Fatalf("starting alpha[%d] = %v, want > 0", g, pa.Alpha[g])
		}
		if pa.Gamma[g] <= 0 {
			t.Fatalf("starting gamma[%d] = %v, want > 0 for high control survival", g, pa.Gamma[g])
		}
	}

	// With a saturated between-group design the starting beta
	// reproduces the per-group log-LC50 values, which must lie
	// within the range of the log concentrations used.
	ll := []float64{pa.Beta[0], pa.Beta[0] + pa.Beta[1]}
	for g, v := range ll {
		if v < math.Log(0.25) || v > math.Log(16) {
			t.Fatalf("starting loglc50[%d] = %v outside plausible range", g, v)
		}
	}
}

func TestStartBypassesInitializer(t *testing.T) {

	config := &Config{
		Start: &Start{
			Alpha:   []float64{2, 2},
			Gamma:   []float64{1.3, 1.3},
			LogLC50: []float64{math.Log(2), math.Log(2)},
		},
	}

	m := testModel(t, config)
	pa, err := m.startValues()
	if err != nil {
		t.Fatalf("startValues: %v", err)
	}

	// The design is (icept, groupB indicator), so beta expands the
	// group log-LC50 values exactly.
	if !scalarClose(pa.Beta[0], math.Log(2), 1e-8) || !scalarClose(pa.Beta[1], 0, 1e-8) {
		t.Fatalf("expanded beta %v", pa.Beta)
	}
}

func TestInitFailure(t *testing.T) {

	// A group with no control samples has a collinear initializer
	// design (the intercept equals the exposure indicator), so the
	// per-group probit regression cannot identify its coefficients.
	x := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	conc := []float64{1, 2, 4, 8}
	group := []string{"A", "A", "A", "A"}
	y := Response{
		Survived: []float64{9, 7, 4, 2},
		Died:     []float64{1, 3, 6, 8},
	}

	m, err := NewModel(x, nil, y, conc, group, nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	_, err = m.Fit()
	if !errors.Is(err, ErrInit) {
		t.Fatalf("expected ErrInit, got %v", err)
	}
	if !strings.Contains(err.Error(), `"A"`) {
		t.Fatalf("error does not name the group: %v", err)
	}

	// Explicit starting values bypass the initializer entirely.
	config := &Config{
		Start: &Start{Alpha: []float64{1}, Gamma: []float64{2}, LogLC50: []float64{math.Log(2)}},
	}
	m2, err := NewModel(x, nil, y, conc, group, config)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if _, err := m2.Fit(); err != nil {
		t.Fatalf("Fit with explicit start: %v", err)
	}
}

func TestSummaryString(t *testing.T) {

	m := testModel(t, nil)
	rslt, err := m.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	s := rslt.Summary().String()

	for _, frag := range []string{"LC50", "Control survival", "icept", "groupB", "AIC"} {
		if !strings.Contains(s, frag) {
			t.Fatalf("summary missing %q:\n%s", frag, s)
		}
	}
}

func TestLC50IntervalWidensWithSE(t *testing.T) {

	m := testModel(t, nil)
	rslt, err := m.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	parse := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			t.Fatalf("ParseFloat(%q): %v", s, err)
		}
		return v
	}

	// Inflate the log-LC50 variances and confirm that the reported
	// confidence interval widens with the standard error.
	var widths []float64
	for _, scale := range []float64{1, 4, 16} {

		r := *rslt
		var cl mat.Dense
		cl.Scale(scale, rslt.covLogLC50)
		r.covLogLC50 = &cl

		tab := (&Summary{results: &r}).lc50Table()
		lcb := parse(tab.Cols[4][0])
		ucb := parse(tab.Cols[5][0])
		lc := parse(tab.Cols[3][0])

		if lcb >= lc || ucb <= lc {
			t.Fatalf("interval [%v, %v] does not bracket the estimate %v", lcb, ucb, lc)
		}

		se := math.Sqrt(cl.At(0, 0))
		ll := rslt.LogLC50()[0]
		if !scalarClose(lcb, math.Exp(ll-zq95*se), 1e-3) || !scalarClose(ucb, math.Exp(ll+zq95*se), 1e-3) {
			t.Fatalf("interval [%v, %v] is not the Wald interval at se %v", lcb, ucb, se)
		}

		widths = append(widths, ucb-lcb)
	}

	for k := 1; k < len(widths); k++ {
		if widths[k] <= widths[k-1] {
			t.Fatalf("interval width did not increase with the standard error: %v", widths)
		}
	}
}
