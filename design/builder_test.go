package design

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBuild(t *testing.T) {
	testData := map[string]struct {
		y            []float64
		x            Columns
		fitIntercept bool
		labels       []string
		expected     [][]float64
	}{
		"single variable no intercept": {
			y:        []float64{2, 4, 6},
			x:        Columns{"x": {1, 2, 3}},
			labels:   []string{"x"},
			expected: [][]float64{{1}, {2}, {3}},
		},
		"single variable intercept": {
			y:            []float64{2, 4, 6},
			x:            Columns{"x": {1, 2, 3}},
			fitIntercept: true,
			labels:       []string{InterceptLabel, "x"},
			expected:     [][]float64{{1, 1}, {1, 2}, {1, 3}},
		},
		"columns sorted by name": {
			y: []float64{1, 2},
			x: Columns{
				"zeta":  {30, 31},
				"alpha": {10, 11},
				"Beta":  {20, 21},
			},
			fitIntercept: true,
			labels:       []string{InterceptLabel, "Beta", "alpha", "zeta"},
			expected:     [][]float64{{1, 20, 10, 30}, {1, 21, 11, 31}},
		},
		"variable named like bias": {
			y:            []float64{1, 2},
			x:            Columns{"intercept": {5, 6}},
			fitIntercept: false,
			labels:       []string{"intercept"},
			expected:     [][]float64{{5}, {6}},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			yVec, x, labels, err := Build(td.y, td.x, td.fitIntercept)
			require.Nil(t, err)

			m, n := x.Dims()
			assert.Equal(t, len(td.y), m, "rows")
			assert.Equal(t, len(td.x)+btoi(td.fitIntercept), n, "cols")
			assert.Equal(t, len(td.y), yVec.Len())
			assert.Equal(t, td.y, mat.Col(nil, 0, yVec))
			assert.Equal(t, td.labels, labels.Labels())
			assert.Equal(t, td.fitIntercept, labels.Intercept())

			for i, row := range td.expected {
				assert.Equal(t, row, mat.Row(nil, i, x), "row %d", i)
			}
			if td.fitIntercept {
				for i := 0; i < m; i++ {
					assert.Equal(t, 1.0, x.At(i, 0))
				}
			}
		})
	}
}

func TestBuildCopiesInput(t *testing.T) {
	y := []float64{1, 2, 3}
	x := Columns{"a": {4, 5, 6}}

	yVec, xMx, _, err := Build(y, x, true)
	require.Nil(t, err)

	y[0] = 100
	x["a"][0] = 100
	assert.Equal(t, 1.0, yVec.AtVec(0))
	assert.Equal(t, 4.0, xMx.At(0, 1))
}

func TestBuildInvalidInput(t *testing.T) {
	testData := map[string]struct {
		y       []float64
		x       Columns
		reason  string
		column  string
		lengths map[string]int
		rows    []int
	}{
		"nil x": {
			y:      []float64{1},
			x:      nil,
			reason: ReasonNoFeatures,
		},
		"empty x": {
			y:      []float64{1},
			x:      Columns{},
			reason: ReasonNoFeatures,
		},
		"empty y": {
			y:      nil,
			x:      Columns{"x": {1}},
			reason: ReasonEmptyColumn,
			column: DependentLabel,
		},
		"blank name": {
			y:      []float64{1},
			x:      Columns{"  ": {1}},
			reason: ReasonEmptyName,
			column: "  ",
		},
		"empty column": {
			y:      []float64{1},
			x:      Columns{"x": {}},
			reason: ReasonEmptyColumn,
			column: "x",
		},
		"nan in y": {
			y:      []float64{1, math.NaN(), 3},
			x:      Columns{"x": {1, 2, 3}},
			reason: ReasonNonFinite,
			column: DependentLabel,
			rows:   []int{1},
		},
		"inf in x": {
			y:      []float64{1, 2, 3},
			x:      Columns{"x": {math.Inf(1), 2, math.Inf(-1)}},
			reason: ReasonNonFinite,
			column: "x",
			rows:   []int{0, 2},
		},
		"bias label collision": {
			y:      []float64{1, 2},
			x:      Columns{InterceptLabel: {1, 2}},
			reason: ReasonReservedName,
			column: InterceptLabel,
		},
		"length mismatch": {
			y:       []float64{1, 2, 3, 4, 5},
			x:       Columns{"x1": {1, 2, 3, 4}},
			reason:  ReasonLengthMismatch,
			lengths: map[string]int{"y": 5, "x1": 4},
		},
		"length mismatch between features": {
			y:       []float64{1, 2, 3},
			x:       Columns{"a": {1, 2, 3}, "b": {1, 2}},
			reason:  ReasonLengthMismatch,
			lengths: map[string]int{"y": 3, "a": 3, "b": 2},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := Build(td.y, td.x, true)
			require.NotNil(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var invalidErr *InvalidInputError
			require.True(t, errors.As(err, &invalidErr))
			assert.Equal(t, td.reason, invalidErr.Reason)
			assert.Equal(t, td.column, invalidErr.Column)
			assert.Equal(t, td.lengths, invalidErr.Lengths)
			assert.Equal(t, td.rows, invalidErr.Rows)
		})
	}
}

func TestInvalidInputErrorMessage(t *testing.T) {
	err := &InvalidInputError{
		Reason:  ReasonLengthMismatch,
		Lengths: map[string]int{"y": 5, "x1": 4},
	}
	assert.Equal(t, "inconsistent column lengths, lengths {x1=4 y=5}", err.Error())
	assert.Equal(t, "lengths {x1=4 y=5}", err.Detail())
}

func TestLabels(t *testing.T) {
	labels := Columns{"b": {1}, "a": {2}}.Labels(true)
	assert.Equal(t, 3, labels.Len())
	assert.Equal(t, []string{"a", "b"}, labels.Features())

	idx, ok := labels.Index("b")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = labels.Index("c")
	assert.False(t, ok)

	assert.Equal(t,
		map[string]float64{InterceptLabel: 1, "a": 2, "b": 3},
		labels.Named([]float64{1, 2, 3}),
	)

	var nilLabels *Labels
	assert.Equal(t, 0, nilLabels.Len())
	assert.Nil(t, nilLabels.Labels())
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
