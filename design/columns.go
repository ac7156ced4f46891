package design

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Columns represents a mapping of independent variable name to its observations.
type Columns map[string][]float64

// Names returns the variable names sorted in ascending lexicographic order. This order is
// the only thing that decides column placement in the design matrix.
func (c Columns) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Labels returns the column labels of the design matrix with the bias label first if an
// intercept is requested.
func (c Columns) Labels(intercept bool) *Labels {
	if c == nil {
		return nil
	}
	return NewLabels(c.Names(), intercept)
}

// Matrix returns a matrix representation of the columns. The matrix has m rows representing
// the number of observations and n columns representing the number of variables, plus one
// leading column of ones when intercept is set. Columns are assumed to be validated.
func (c Columns) Matrix(intercept bool) *mat.Dense {
	if len(c) == 0 {
		return nil
	}

	names := c.Names()
	m := len(c[names[0]])
	if m == 0 {
		return nil
	}
	n := len(names)
	if intercept {
		n += 1
	}

	obs := make([]float64, m*n)

	featNum := 0
	if intercept {
		for i := 0; i < m; i++ {
			idx := n * i
			obs[idx] = 1.0
		}
		featNum += 1
	}

	for _, name := range names {
		feature := c[name]
		for i := 0; i < len(feature); i++ {
			idx := n*i + featNum
			obs[idx] = feature[i]
		}
		featNum += 1
	}
	return mat.NewDense(m, n, obs)
}
