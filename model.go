package lc50

import (
	"errors"
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// ErrInit indicates that the per-group starting value regression failed.
// Callers can bypass the initializer by providing explicit starting
// values through Config.Start.
var ErrInit = errors.New("lc50: initialization failed")

// ErrIncompatible indicates that models supplied to CompareModels were
// not fit to the same response data.
var ErrIncompatible = errors.New("lc50: incompatible models")

// Response holds the outcome counts for each sample: the number of
// individuals that survived and the number that died.  The trial size
// for sample i is Survived[i] + Died[i].
type Response struct {
	Survived []float64
	Died     []float64
}

// Start holds optional starting values for the optimizer.  Alpha and
// Gamma must have one value per group.  The starting beta can be given
// directly, or indirectly through per-group LogLC50 values that are
// expanded to a beta by least squares.  Beta takes precedence when both
// are present.
type Start struct {
	Alpha   []float64
	Gamma   []float64
	LogLC50 []float64
	Beta    []float64
}

// Config configures the model fit.
type Config struct {

	// Start, if non-nil, bypasses the per-group initializer.
	Start *Start

	// Settings and Method configure the gonum optimizer.  If Method
	// is nil, Nelder-Mead is used.
	Settings *optimize.Settings
	Method   optimize.Method

	// Assign maps each design matrix column to a model term, with 0
	// indicating the intercept.  Terms must appear in nondecreasing
	// order.  Used by Anova; if nil, every column is its own term.
	Assign []int

	// TermNames names the model terms referenced by Assign.
	TermNames []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{}
}

// Model represents a dose-response model to be fit to data.
type Model struct {

	// The design matrix (n x p) and its column names.
	x      *mat.Dense
	xnames []string

	// The observed survival/death counts.
	y Response

	// The toxin concentration for each sample; 0 indicates an
	// unexposed control sample.
	conc []float64

	// The raw group labels, the distinct levels in order of first
	// occurrence, and the level index of each sample.
	group      []string
	groupNames []string
	groupix    []int

	// One representative design row per group (the first row
	// belonging to the group), stacked as a G x p matrix.
	xg *mat.Dense

	nobs   int
	nvar   int
	ngroup int

	config *Config
	log    *log.Logger
}

// NewModel returns a Model for the given design matrix, response,
// concentrations, and group labels.  xnames may be nil, in which case
// the columns are named x1, x2, ....  If config is nil the default
// configuration is used.
func NewModel(x *mat.Dense, xnames []string, y Response, conc []float64, group []string, config *Config) (*Model, error) {

	if x == nil {
		return nil, fmt.Errorf("lc50: design matrix is nil")
	}

	n, p := x.Dims()

	if p < 1 {
		return nil, fmt.Errorf("lc50: design matrix has no columns")
	}
	if xnames == nil {
		for j := 0; j < p; j++ {
			xnames = append(xnames, fmt.Sprintf("x%d", j+1))
		}
	}
	if len(xnames) != p {
		return nil, fmt.Errorf("lc50: %d column names given for %d design matrix columns",
			len(xnames), p)
	}

	if config == nil {
		config = DefaultConfig()
	}

	m := &Model{
		x:      x,
		xnames: xnames,
		y:      y,
		conc:   conc,
		group:  group,
		nobs:   n,
		nvar:   p,
		config: config,
	}

	if err := m.check(); err != nil {
		return nil, err
	}
	m.indexGroups()

	if m.nobs < 2*m.ngroup+m.nvar {
		return nil, fmt.Errorf("lc50: %d samples cannot identify %d parameters",
			m.nobs, 2*m.ngroup+m.nvar)
	}

	if err := m.checkGroups(); err != nil {
		return nil, err
	}
	if err := m.checkConfig(); err != nil {
		return nil, err
	}

	return m, nil
}

// Log sets a logger that receives progress messages during fitting.
func (m *Model) Log(log *log.Logger) *Model {
	m.log = log
	return m
}

// NumObs returns the number of samples in the data set.
func (m *Model) NumObs() int {
	return m.nobs
}

// NumGroup returns the number of treatment groups.
func (m *Model) NumGroup() int {
	return m.ngroup
}

// NumParams returns the number of free parameters in the model.
func (m *Model) NumParams() int {
	return 2*m.ngroup + m.nvar
}

// GroupNames returns the distinct group levels in order of first
// occurrence.
func (m *Model) GroupNames() []string {
	return m.groupNames
}

// XNames returns the design matrix column names.
func (m *Model) XNames() []string {
	return m.xnames
}

// check validates the shapes and values of the input arrays.
func (m *Model) check() error {

	if len(m.y.Survived) != m.nobs || len(m.y.Died) != m.nobs {
		return fmt.Errorf("lc50: response has %d/%d rows, design matrix has %d",
			len(m.y.Survived), len(m.y.Died), m.nobs)
	}
	if len(m.conc) != m.nobs {
		return fmt.Errorf("lc50: concentration has length %d, expected %d",
			len(m.conc), m.nobs)
	}
	if len(m.group) != m.nobs {
		return fmt.Errorf("lc50: group has length %d, expected %d",
			len(m.group), m.nobs)
	}

	for i := 0; i < m.nobs; i++ {
		s, d := m.y.Survived[i], m.y.Died[i]
		if s < 0 || d < 0 {
			return fmt.Errorf("lc50: response row %d has negative count", i)
		}
		if s+d == 0 {
			return fmt.Errorf("lc50: response row %d has zero trials", i)
		}
		if m.conc[i] < 0 {
			return fmt.Errorf("lc50: concentration %d is negative", i)
		}
		if m.group[i] == "" {
			return fmt.Errorf("lc50: group label %d is empty", i)
		}
	}

	return nil
}

// indexGroups determines the group levels, assigns a level index to
// every sample, and records one representative design row per group.
func (m *Model) indexGroups() {

	pos := make(map[string]int)
	m.groupNames = m.groupNames[0:0]
	m.groupix = make([]int, m.nobs)

	var first []int
	for i, g := range m.group {
		k, ok := pos[g]
		if !ok {
			k = len(m.groupNames)
			pos[g] = k
			m.groupNames = append(m.groupNames, g)
			first = append(first, i)
		}
		m.groupix[i] = k
	}
	m.ngroup = len(m.groupNames)

	if m.nvar > 0 {
		m.xg = mat.NewDense(m.ngroup, m.nvar, nil)
		for g, i := range first {
			for j := 0; j < m.nvar; j++ {
				m.xg.Set(g, j, m.x.At(i, j))
			}
		}
	}
}

// checkGroups confirms that every group can identify its rate
// parameter.
func (m *Model) checkGroups() error {

	exposed := make([]bool, m.ngroup)
	for i, c := range m.conc {
		if c > 0 {
			exposed[m.groupix[i]] = true
		}
	}

	for g, ok := range exposed {
		if !ok {
			return fmt.Errorf("lc50: group %q has no sample with positive concentration",
				m.groupNames[g])
		}
	}

	return nil
}

// checkConfig validates the starting values and term assignment, if
// present.
func (m *Model) checkConfig() error {

	if st := m.config.Start; st != nil {
		if len(st.Alpha) != m.ngroup {
			return fmt.Errorf("lc50: starting alpha has length %d, expected %d",
				len(st.Alpha), m.ngroup)
		}
		if len(st.Gamma) != m.ngroup {
			return fmt.Errorf("lc50: starting gamma has length %d, expected %d",
				len(st.Gamma), m.ngroup)
		}
		if st.Beta == nil && st.LogLC50 == nil {
			return fmt.Errorf("lc50: starting values must include beta or loglc50")
		}
		if st.Beta != nil && len(st.Beta) != m.nvar {
			return fmt.Errorf("lc50: starting beta has length %d, expected %d",
				len(st.Beta), m.nvar)
		}
		if st.Beta == nil && len(st.LogLC50) != m.ngroup {
			return fmt.Errorf("lc50: starting loglc50 has length %d, expected %d",
				len(st.LogLC50), m.ngroup)
		}
	}

	if asn := m.config.Assign; asn != nil {
		if len(asn) != m.nvar {
			return fmt.Errorf("lc50: assign has length %d, expected %d",
				len(asn), m.nvar)
		}
		for j := 1; j < len(asn); j++ {
			if asn[j] < asn[j-1] {
				return fmt.Errorf("lc50: assign is not nondecreasing at column %d", j)
			}
		}
		if asn[0] < 0 {
			return fmt.Errorf("lc50: assign contains a negative term index")
		}
	}

	return nil
}

// subset returns a model using only the given design matrix columns,
// sharing the response, concentration, and group data.  An empty column
// set is permitted; the resulting model has no beta parameters and its
// log-LC50 values are fixed at zero.  Used by Anova.
func (m *Model) subset(cols []int, start *Start) *Model {

	sub := &Model{
		y:      m.y,
		conc:   m.conc,
		group:  m.group,
		nobs:   m.nobs,
		nvar:   len(cols),
		config: &Config{Start: start, Settings: m.config.Settings, Method: m.config.Method},
		log:    m.log,
	}

	if len(cols) > 0 {
		sub.x = mat.NewDense(m.nobs, len(cols), nil)
		for j, c := range cols {
			for i := 0; i < m.nobs; i++ {
				sub.x.Set(i, j, m.x.At(i, c))
			}
		}
		for _, c := range cols {
			sub.xnames = append(sub.xnames, m.xnames[c])
		}
	}

	sub.indexGroups()

	return sub
}

// resize returns a float64 slice of length n, using the initial
// subslice of x if it is big enough.
func resize(x []float64, n int) []float64 {
	if cap(x) >= n {
		return x[0:n]
	}
	return make([]float64, n)
}
