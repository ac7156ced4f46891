package regress

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var ErrPlotLenMismatch = errors.New("observed values do not match the fitted values")

// LineSeries generates an echart multi-line chart over observation index. Every series must
// have the same length as the first. NaN points are dropped.
func LineSeries(title string, seriesName []string, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	var n int
	if len(y) > 0 {
		n = len(y[0])
	}
	idx := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx = append(idx, strconv.Itoa(i))
	}

	line = line.SetXAxis(idx)
	for i, series := range seriesName {
		if i >= len(y) {
			break
		}
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			if math.IsNaN(v) {
				lineData = append(lineData, opts.LineData{Value: "-"})
				continue
			}
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// LineFit generates an echart line chart of the observed values against the fitted values.
func LineFit(res *NamedFitResult, y []float64) *charts.Line {
	return LineSeries(
		fmt.Sprintf("OLS Fit (R2=%.4f)", res.R2),
		[]string{"Actual", "Fitted"},
		[][]float64{y, res.Fitted},
	)
}

// PlotFit renders an html page with the fit and its residuals.
func PlotFit(w io.Writer, res *NamedFitResult, y []float64) error {
	if res == nil {
		return ErrNoFitResult
	}
	if len(y) != len(res.Fitted) {
		return fmt.Errorf("got %d observed and %d fitted values, %w", len(y), len(res.Fitted), ErrPlotLenMismatch)
	}

	page := components.NewPage()
	page.AddCharts(
		LineFit(res, y),
		LineSeries(
			"Fit Residual",
			[]string{"Residual"},
			[][]float64{res.Residuals},
		),
	)
	return page.Render(w)
}
