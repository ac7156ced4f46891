// Package regress fits ordinary least squares models to named columns and shapes the fit into
// a labeled result whose serialized form never carries NaN or infinite values.
package regress

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-regress/design"
	"github.com/aouyang1/go-regress/models"
	"github.com/aouyang1/go-regress/stats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoPredictors      = errors.New("no columns to predict with")
	ErrMissingColumn     = errors.New("fitted column missing from prediction input")
	ErrColumnLenMismatch = errors.New("prediction columns have different lengths")
)

// BuildDesignMatrix validates the raw columns and lays them out as a response vector and
// design matrix. Failures are *design.InvalidInputError and match design.ErrInvalidInput.
func BuildDesignMatrix(y []float64, x design.Columns, fitIntercept bool) (*mat.VecDense, *mat.Dense, *design.Labels, error) {
	return design.Build(y, x, fitIntercept)
}

// FitOLS solves the least squares problem for a prebuilt design matrix and labels the
// statistics with the column names. A singular design is solved with the pseudo-inverse
// rather than failing. The rows of x must match the length of y and labels must name every
// column of x; violating either is a programming error and panics.
func FitOLS(y *mat.VecDense, x *mat.Dense, labels *design.Labels) *NamedFitResult {
	sol, err := models.Solve(x, y)
	if err != nil {
		panic(fmt.Sprintf("regress: unable to solve design matrix, %v", err))
	}
	if labels.Len() != sol.K {
		panic(fmt.Sprintf("regress: %d labels for %d design matrix columns", labels.Len(), sol.K))
	}
	return newNamedFitResult(stats.NewFit(sol), sol, labels)
}

// Fit builds the design matrix from the raw columns and fits it.
func Fit(y []float64, x design.Columns, fitIntercept bool) (*NamedFitResult, error) {
	yVec, xMx, labels, err := BuildDesignMatrix(y, x, fitIntercept)
	if err != nil {
		return nil, err
	}
	return FitOLS(yVec, xMx, labels), nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}

func finiteSlice(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = finite(v)
	}
	return out
}
