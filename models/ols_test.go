package models

import (
	"math"
	"testing"

	mat_ "github.com/aouyang1/go-regress/mat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOLSOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *OLSOptions
		err      error
		expected *OLSOptions
	}{
		"nil": {nil, nil, NewDefaultOLSOptions()},
		"valid": {
			&OLSOptions{
				FitIntercept: true,
			}, nil,
			&OLSOptions{
				FitIntercept: true,
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorAs(t, err, &td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, opt)
		})
	}
}

func TestOLSRegression(t *testing.T) {
	tol := 1e-5
	testData := map[string]struct {
		x         [][]float64
		y         []float64
		opt       *OLSOptions
		intercept float64
		coef      []float64
	}{
		"ols model intercept": {
			x: [][]float64{
				{0, 0},
				{3, 5},
				{9, 20},
				{12, 6},
				{15, 10},
			},
			y:         []float64{2, 31, 109, 62, 87},
			intercept: 2.0,
			coef:      []float64{3.0, 4.0},
		},
		"ols model no intercept": {
			x: [][]float64{
				{1, 0, 0},
				{1, 3, 5},
				{1, 9, 20},
				{1, 12, 6},
				{1, 15, 10},
			},
			y: []float64{2, 31, 109, 62, 87},
			opt: &OLSOptions{
				FitIntercept: false,
			},
			intercept: 0.0,
			coef:      []float64{2.0, 3.0, 4.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := mat_.NewDenseFromArray(td.x)
			require.Nil(t, err)

			y := mat.NewDense(len(td.y), 1, td.y)

			model, err := NewOLSRegression(td.opt)
			require.Nil(t, err)

			testModel(t, model, x, y, td.intercept, td.coef, tol)
		})
	}
}

func TestOLSRegressionErrors(t *testing.T) {
	model, err := NewOLSRegression(nil)
	require.Nil(t, err)

	x := mat.NewDense(3, 1, []float64{1, 2, 3})
	assert.ErrorIs(t, model.Fit(nil, x), ErrNoTrainingMatrix)
	assert.ErrorIs(t, model.Fit(x, nil), ErrNoTargetMatrix)
	assert.ErrorIs(t, model.Fit(x, mat.NewDense(2, 1, []float64{1, 2})), ErrTargetLenMismatch)

	require.Nil(t, model.Fit(x, mat.NewDense(3, 1, []float64{1, 2, 3})))
	_, err = model.Predict(mat.NewDense(3, 2, nil))
	assert.ErrorIs(t, err, ErrFeatureLenMismatch)
	_, err = model.Predict(nil)
	assert.ErrorIs(t, err, ErrNoDesignMatrix)
	_, err = model.Score(x, mat.NewDense(2, 1, nil))
	assert.ErrorIs(t, err, ErrTargetLenMismatch)

	empty := &OLSRegression{}
	assert.ErrorIs(t, empty.Fit(x, x), ErrNoOptions)
}

func TestSolve(t *testing.T) {
	tol := 1e-9
	testData := map[string]struct {
		x        [][]float64
		y        []float64
		strategy mat_.Strategy
		coef     []float64
		fitted   []float64
	}{
		"exact line through origin": {
			x:        [][]float64{{1}, {2}, {3}},
			y:        []float64{2, 4, 6},
			strategy: mat_.Direct,
			coef:     []float64{2},
			fitted:   []float64{2, 4, 6},
		},
		"duplicated column": {
			// x2 = 2 * x1 so X^T X is exactly singular; the least norm solution splits the
			// slope of 5 on x1 as b1 + 2*b2 = 5 with b2 = 2*b1
			x: [][]float64{
				{1, 1, 2},
				{1, 2, 4},
				{1, 3, 6},
				{1, 4, 8},
				{1, 5, 10},
			},
			y:        []float64{6, 11, 16, 21, 26},
			strategy: mat_.PseudoInverse,
			coef:     []float64{1, 1, 2},
			fitted:   []float64{6, 11, 16, 21, 26},
		},
		"constant target": {
			x:        [][]float64{{1, 1}, {1, 2}, {1, 3}},
			y:        []float64{4, 4, 4},
			strategy: mat_.Direct,
			coef:     []float64{4, 0},
			fitted:   []float64{4, 4, 4},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := mat_.NewDenseFromArray(td.x)
			require.Nil(t, err)

			sol, err := Solve(x, mat.NewVecDense(len(td.y), td.y))
			require.Nil(t, err)

			assert.Equal(t, td.strategy, sol.Inversion.Strategy)
			assert.InDeltaSlice(t, td.coef, sol.Coef, 1e-6)
			assert.InDeltaSlice(t, td.fitted, sol.Fitted, 1e-6)
			assert.Equal(t, td.y, sol.Observed)
			assert.Equal(t, len(td.y), sol.N)
			assert.Equal(t, len(td.x[0]), sol.K)
			for i := range td.y {
				assert.InDelta(t, td.y[i]-sol.Fitted[i], sol.Residuals[i], tol)
			}
		})
	}
}

func TestSolveMoreColumnsThanRows(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{
		1, 1, 2,
		1, 3, 1,
	})
	sol, err := Solve(x, mat.NewVecDense(2, []float64{1, 2}))
	require.Nil(t, err)
	assert.Equal(t, mat_.PseudoInverse, sol.Inversion.Strategy)
	for _, c := range sol.Coef {
		assert.False(t, math.IsNaN(c) || math.IsInf(c, 0))
	}
	// two equations and three unknowns are solved exactly
	assert.InDeltaSlice(t, []float64{1, 2}, sol.Fitted, 1e-6)
}

func TestSolveErrors(t *testing.T) {
	_, err := Solve(nil, mat.NewVecDense(1, nil))
	assert.ErrorIs(t, err, ErrNoTrainingMatrix)

	_, err = Solve(mat.NewDense(2, 1, nil), nil)
	assert.ErrorIs(t, err, ErrNoTargetMatrix)

	_, err = Solve(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(3, nil))
	assert.ErrorIs(t, err, ErrTargetLenMismatch)
}

func BenchmarkOLSRegression(b *testing.B) {
	x, y, err := generateBenchData(1000, 100)
	if err != nil {
		b.Fatal(err)
	}

	for i := 0; i < b.N; i++ {
		model, err := NewOLSRegression(
			&OLSOptions{
				FitIntercept: false,
			},
		)
		if err != nil {
			b.Error(err)
			continue
		}
		if err := model.Fit(x, y); err != nil {
			b.Error(err)
			continue
		}
	}
}
