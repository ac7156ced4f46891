// Package design converts a dependent variable and a set of named independent variables into
// the response vector and design matrix consumed by the least squares solver.
package design

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DependentLabel is the key used for the dependent variable in length diagnostics.
const DependentLabel = "y"

// maxReportedRows caps the offending row indices attached to an InvalidInputError.
const maxReportedRows = 5

// Validate checks the raw columns without building anything. It returns an
// *InvalidInputError on empty, misaligned, unnamed or non-finite data.
func Validate(y []float64, x Columns) error {
	if len(x) == 0 {
		return invalid(ReasonNoFeatures, "")
	}
	if len(y) == 0 {
		return invalid(ReasonEmptyColumn, DependentLabel)
	}
	if rows := nonFiniteRows(y); len(rows) > 0 {
		e := invalid(ReasonNonFinite, DependentLabel)
		e.Rows = rows
		return e
	}

	lengths := map[string]int{DependentLabel: len(y)}
	mismatch := false
	for _, name := range x.Names() {
		col := x[name]
		if strings.TrimSpace(name) == "" {
			return invalid(ReasonEmptyName, name)
		}
		if len(col) == 0 {
			return invalid(ReasonEmptyColumn, name)
		}
		if rows := nonFiniteRows(col); len(rows) > 0 {
			e := invalid(ReasonNonFinite, name)
			e.Rows = rows
			return e
		}
		lengths[name] = len(col)
		if len(col) != len(y) {
			mismatch = true
		}
	}
	if mismatch {
		return &InvalidInputError{Reason: ReasonLengthMismatch, Lengths: lengths}
	}
	return nil
}

// Build validates the input and produces the n-length response vector, the n x k design
// matrix, and the column labels. The first column is all ones when fitIntercept is set,
// followed by each independent variable in ascending lexicographic order of its name.
// Input slices are copied.
func Build(y []float64, x Columns, fitIntercept bool) (*mat.VecDense, *mat.Dense, *Labels, error) {
	if err := Validate(y, x); err != nil {
		return nil, nil, nil, err
	}
	if _, exists := x[InterceptLabel]; exists && fitIntercept {
		return nil, nil, nil, invalid(ReasonReservedName, InterceptLabel)
	}

	yData := make([]float64, len(y))
	copy(yData, y)

	// Matrix copies every value into a fresh backing slice
	return mat.NewVecDense(len(yData), yData), x.Matrix(fitIntercept), x.Labels(fitIntercept), nil
}

func nonFiniteRows(data []float64) []int {
	var rows []int
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			rows = append(rows, i)
			if len(rows) == maxReportedRows {
				break
			}
		}
	}
	return rows
}
