package regress

import (
	"bytes"
	"testing"

	"github.com/aouyang1/go-regress/design"
	"github.com/aouyang1/go-regress/payload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose(t *testing.T) {
	testData := map[string]struct {
		y        []float64
		x        design.Columns
		opt      *DiagnosticOptions
		outliers []int
		vif      []string
		inflated []string
	}{
		"single variable has no vif": {
			y:        []float64{1.1, 1.9, 3.1, 3.9, 5.1, 6.0, 7.1, 7.9, 9.1, 9.9},
			x:        design.Columns{"x": {1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
			outliers: []int{},
		},
		"residual spike": {
			y:        []float64{1.1, 1.9, 3.1, 3.9, 5.1, 30, 7.1, 7.9, 9.1, 9.9},
			x:        design.Columns{"x": {1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
			outliers: []int{5},
		},
		"collinear variables": {
			y: []float64{1.2, 1.8, 3.3, 3.9, 5.2, 5.7},
			x: design.Columns{
				"a": {1, 2, 3, 4, 5, 6},
				"b": {2, 4, 6, 8, 10, 12},
				"c": {1, 0, 1, 0, 1, 1},
			},
			outliers: []int{},
			vif:      []string{"a", "b", "c"},
			inflated: []string{"a", "b"},
		},
		"vif skipped": {
			y: []float64{1, 2, 3, 4},
			x: design.Columns{
				"a": {1, 2, 3, 5},
				"b": {0, 1, 0, 1},
			},
			opt:      &DiagnosticOptions{SkipVIF: true},
			outliers: []int{},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Fit(td.y, td.x, true)
			require.Nil(t, err)

			d, err := Diagnose(res, td.x, td.opt)
			require.Nil(t, err)
			assert.Equal(t, td.outliers, d.Outliers)
			assert.GreaterOrEqual(t, d.MSE, 0.0)

			if td.vif == nil {
				assert.Nil(t, d.VIF)
				return
			}
			assert.Len(t, d.VIF, len(td.vif))
			for _, name := range td.inflated {
				assert.Greater(t, d.VIF[name], 1e6, name)
			}

			vif := d.Payload()["vif"].(payload.Mapping)
			for name, v := range vif {
				assert.True(t, v.(payload.Number).IsFinite(), name)
			}
		})
	}
}

func TestDiagnoseNoResult(t *testing.T) {
	_, err := Diagnose(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoFitResult)
}

func TestPlotFit(t *testing.T) {
	y := []float64{2, 4, 5, 4, 5}
	res, err := Fit(y, design.Columns{"x": {1, 2, 3, 4, 5}}, true)
	require.Nil(t, err)

	var buf bytes.Buffer
	require.Nil(t, PlotFit(&buf, res, y))
	assert.Contains(t, buf.String(), "Fit Residual")
	assert.Contains(t, buf.String(), "Actual")

	err = PlotFit(&buf, res, y[:2])
	assert.ErrorIs(t, err, ErrPlotLenMismatch)
}
