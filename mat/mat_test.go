package mat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewDenseFromArray(t *testing.T) {
	testData := map[string]struct {
		err error
		x   [][]float64
		m   int
		n   int
	}{
		"nil input": {
			ErrEmptyArray,
			nil,
			0, 0,
		},
		"empty input": {
			ErrEmptyArray,
			[][]float64{},
			0, 0,
		},
		"empty rows": {
			ErrEmptyArray,
			[][]float64{{}, {}},
			0, 0,
		},
		"single element": {
			nil,
			[][]float64{{1}},
			1, 1,
		},
		"one row multiple cols": {
			nil,
			[][]float64{{1, 2, 3}},
			1, 3,
		},
		"multiple rows one col": {
			nil,
			[][]float64{{1}, {2}, {3}},
			3, 1,
		},
		"multiple rows and cols": {
			nil,
			[][]float64{{1, 2, 3}, {4, 5, 6}},
			2, 3,
		},
		"inconsistent cols": {
			ErrColMismatch,
			[][]float64{{1, 2, 3}, {4, 5}},
			0, 0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			mx, err := NewDenseFromArray(td.x)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)

			m, n := mx.Dims()
			assert.Equal(t, td.m, m, "m")
			assert.Equal(t, td.n, n, "n")

			for ri, row := range td.x {
				assert.Equal(t, row, mat.Row(nil, ri, mx), "array")
			}
		})
	}
}

func TestNewDenseFromColumns(t *testing.T) {
	testData := map[string]struct {
		cols     [][]float64
		err      error
		expected [][]float64
	}{
		"no columns":    {cols: nil, err: ErrEmptyArray},
		"empty column":  {cols: [][]float64{{}}, err: ErrEmptyArray},
		"row mismatch":  {cols: [][]float64{{1, 2}, {3}}, err: ErrRowMismatch},
		"single column": {cols: [][]float64{{1, 2, 3}}, expected: [][]float64{{1}, {2}, {3}}},
		"two columns": {
			cols:     [][]float64{{1, 2, 3}, {4, 5, 6}},
			expected: [][]float64{{1, 4}, {2, 5}, {3, 6}},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			mx, err := NewDenseFromColumns(td.cols)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			for i, row := range td.expected {
				assert.Equal(t, row, mat.Row(nil, i, mx))
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	assert.False(t, IsFinite(mat.NewDense(1, 2, []float64{1, math.NaN()})))
	assert.False(t, IsFinite(mat.NewDense(1, 2, []float64{math.Inf(-1), 1})))
}
