package lc50

import (
	"testing"

	"golang.org/x/exp/rand"
)

func TestSimulateMeans(t *testing.T) {

	m := testModel(t, nil)
	rslt, err := m.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	const nsim = 1000
	sims := rslt.Simulate(nsim, rand.NewSource(7))
	if len(sims) != nsim {
		t.Fatalf("got %d replicates, want %d", len(sims), nsim)
	}

	fitted := rslt.FittedValues()

	for i := 0; i < m.NumObs(); i++ {

		n := m.y.Survived[i] + m.y.Died[i]

		var mean float64
		for _, s := range sims {
			if s.Survived[i]+s.Died[i] != n {
				t.Fatalf("trial size changed in replicate at sample %d", i)
			}
			mean += s.Survived[i]
		}
		mean /= nsim

		// The empirical mean survivor count converges to n*p; with
		// 1000 replicates the standard error is below 0.1.
		if !scalarClose(mean, n*fitted[i], 0.5) {
			t.Fatalf("sample %d: mean %v, expected %v", i, mean, n*fitted[i])
		}
	}
}

func TestSimulateDeterministic(t *testing.T) {

	m := testModel(t, nil)
	rslt, err := m.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	s1 := rslt.Simulate(3, rand.NewSource(11))
	s2 := rslt.Simulate(3, rand.NewSource(11))

	for k := range s1 {
		for i := range s1[k].Survived {
			if s1[k].Survived[i] != s2[k].Survived[i] {
				t.Fatalf("replicate %d sample %d differs across identical seeds", k, i)
			}
		}
	}
}

func TestSimulatedRefit(t *testing.T) {

	m := testModel(t, nil)
	rslt, err := m.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// Refitting to simulated data reuses the original fit as the
	// starting point and produces a valid new record.
	sims := rslt.Simulate(1, rand.NewSource(3))

	config := &Config{
		Start: &Start{Alpha: rslt.Alpha(), Gamma: rslt.Gamma(), Beta: rslt.Beta()},
	}
	m2, err := NewModel(m.x, m.xnames, sims[0], m.conc, m.group, config)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	r2, err := m2.Fit()
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if r2.Deviance() < 0 {
		t.Fatalf("negative deviance %v", r2.Deviance())
	}
}
