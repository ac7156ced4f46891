package stats

import (
	"math"
	"testing"

	mat_ "github.com/aouyang1/go-regress/mat"
	"github.com/aouyang1/go-regress/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func solve(t *testing.T, x [][]float64, y []float64) *models.Solution {
	t.Helper()
	xMx, err := mat_.NewDenseFromArray(x)
	require.Nil(t, err)
	sol, err := models.Solve(xMx, mat.NewVecDense(len(y), y))
	require.Nil(t, err)
	return sol
}

func assertFinite(t *testing.T, fit *Fit) {
	t.Helper()
	for _, vals := range [][]float64{fit.Coef, fit.StdErr, fit.TStat, fit.PValue} {
		for _, v := range vals {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non finite %v", v)
		}
	}
	for _, v := range []float64{fit.R2, fit.AdjR2, fit.SSE, fit.Sigma2} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non finite %v", v)
	}
}

func TestNewFit(t *testing.T) {
	//   x = [1 2 3 4 5], y = [2 4 5 4 5]
	//   b1 = 0.6, b0 = 2.2, SSE = 2.4, SST = 6, R2 = 0.6
	//   sigma2 = 2.4/3 = 0.8, se(b1) = sqrt(0.8/10), se(b0) = sqrt(0.8*(1/5 + 9/10))
	sol := solve(t,
		[][]float64{{1, 1}, {1, 2}, {1, 3}, {1, 4}, {1, 5}},
		[]float64{2, 4, 5, 4, 5},
	)
	fit := NewFit(sol)

	tol := 1e-9
	assert.InDeltaSlice(t, []float64{2.2, 0.6}, fit.Coef, tol)
	assert.InDelta(t, 2.4, fit.SSE, tol)
	assert.InDelta(t, 6.0, fit.SST, tol)
	assert.InDelta(t, 0.6, fit.R2, tol)
	assert.InDelta(t, 1.0-0.4*4.0/3.0, fit.AdjR2, tol)
	assert.Equal(t, 3, fit.DoF)
	assert.InDelta(t, 0.8, fit.Sigma2, tol)

	se0 := math.Sqrt(0.8 * 1.1)
	se1 := math.Sqrt(0.08)
	assert.InDeltaSlice(t, []float64{se0, se1}, fit.StdErr, tol)
	assert.InDeltaSlice(t, []float64{2.2 / se0, 0.6 / se1}, fit.TStat, tol)

	for _, p := range fit.PValue {
		assert.True(t, p > 0 && p < 1)
	}
	// t = 2.1213 with 3 dof is not significant at 5%
	assert.True(t, fit.PValue[1] > 0.05)
}

func TestNewFitPerfectThroughOrigin(t *testing.T) {
	sol := solve(t, [][]float64{{1}, {2}, {3}}, []float64{2, 4, 6})
	fit := NewFit(sol)

	assert.InDelta(t, 2.0, fit.Coef[0], 1e-9)
	assert.InDelta(t, 1.0, fit.R2, 1e-9)
	assert.InDelta(t, 0.0, fit.SSE, 1e-9)
	assertFinite(t, fit)
}

func TestNewFitConstantTarget(t *testing.T) {
	sol := solve(t, [][]float64{{1, 1}, {1, 2}, {1, 3}}, []float64{7, 7, 7})
	fit := NewFit(sol)

	assert.Equal(t, 0.0, fit.SST)
	assert.Equal(t, 1.0, fit.R2)
	assert.Equal(t, 1.0, fit.AdjR2)
	assertFinite(t, fit)
}

func TestNewFitZeroStdErr(t *testing.T) {
	// a perfect fit has sigma2 = 0 so every standard error is zero and t is defined as 0
	sol := solve(t, [][]float64{{1, 0}, {1, 1}, {1, 2}, {1, 3}}, []float64{1, 3, 5, 7})
	fit := NewFit(sol)

	for i := range fit.StdErr {
		assert.InDelta(t, 0.0, fit.StdErr[i], 1e-6)
		if fit.StdErr[i] == 0 {
			assert.Equal(t, 0.0, fit.TStat[i])
			assert.Equal(t, 1.0, fit.PValue[i])
		}
	}
	assertFinite(t, fit)
}

func TestNewFitRankDeficient(t *testing.T) {
	sol := solve(t,
		[][]float64{{1, 1, 2}, {1, 2, 4}, {1, 3, 6}, {1, 4, 8}, {1, 5, 10}},
		[]float64{3, 5, 8, 9, 12},
	)
	assert.Equal(t, mat_.PseudoInverse, sol.Inversion.Strategy)

	fit := NewFit(sol)
	assertFinite(t, fit)
	for _, se := range fit.StdErr {
		assert.True(t, se >= 0)
	}
}

func TestNewFitMoreColumnsThanRows(t *testing.T) {
	sol := solve(t, [][]float64{{1, 2, 3}, {1, 5, 1}}, []float64{4, 2})
	fit := NewFit(sol)

	assert.Equal(t, 1, fit.DoF)
	assertFinite(t, fit)
	// n - 1 = 1 and dof = 1 so adjusted r2 equals r2
	assert.InDelta(t, fit.R2, fit.AdjR2, 1e-12)
}

func TestDegreesOfFreedom(t *testing.T) {
	assert.Equal(t, 3, DegreesOfFreedom(5, 2))
	assert.Equal(t, 1, DegreesOfFreedom(3, 3))
	assert.Equal(t, 1, DegreesOfFreedom(2, 5))
}

func TestTotalSumOfSquares(t *testing.T) {
	assert.Equal(t, 0.0, TotalSumOfSquares(nil))
	assert.Equal(t, 0.0, TotalSumOfSquares([]float64{3, 3}))
	assert.InDelta(t, 6.0, TotalSumOfSquares([]float64{2, 4, 5, 4, 5}), 1e-12)
}
