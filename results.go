package regress

import (
	"fmt"
	"maps"

	"github.com/aouyang1/go-regress/design"
	"github.com/aouyang1/go-regress/models"
	"github.com/aouyang1/go-regress/payload"
	"github.com/aouyang1/go-regress/stats"
	"gonum.org/v1/gonum/floats"
)

// NamedFitResult is a fit keyed by column name. The bias column, if fitted, is keyed by
// design.InterceptLabel. Every number is finite.
type NamedFitResult struct {
	Coefficients map[string]float64 `json:"coefficients"`
	StdErrors    map[string]float64 `json:"std_errors"`
	TStats       map[string]float64 `json:"t_stats"`
	PValues      map[string]float64 `json:"p_values"`

	R2     float64 `json:"r2"`
	AdjR2  float64 `json:"adj_r2"`
	SSE    float64 `json:"sse"`
	Sigma2 float64 `json:"sigma2"`
	DoF    int     `json:"dof"`

	N            int  `json:"n"`
	K            int  `json:"k"`
	FitIntercept bool `json:"fit_intercept"`

	// Strategy names how X^T X was inverted
	Strategy string   `json:"solver"`
	Labels   []string `json:"labels"`
	Columns  []string `json:"columns"`
	Shape    [2]int   `json:"design_matrix_shape"`

	Fitted    []float64 `json:"fitted"`
	Residuals []float64 `json:"residuals"`
}

func newNamedFitResult(fit *stats.Fit, sol *models.Solution, labels *design.Labels) *NamedFitResult {
	return &NamedFitResult{
		Coefficients: labels.Named(finiteSlice(fit.Coef)),
		StdErrors:    labels.Named(finiteSlice(fit.StdErr)),
		TStats:       labels.Named(finiteSlice(fit.TStat)),
		PValues:      labels.Named(finiteSlice(fit.PValue)),
		R2:           finite(fit.R2),
		AdjR2:        finite(fit.AdjR2),
		SSE:          finite(fit.SSE),
		Sigma2:       finite(fit.Sigma2),
		DoF:          fit.DoF,
		N:            sol.N,
		K:            sol.K,
		FitIntercept: labels.Intercept(),
		Strategy:     sol.Inversion.Strategy.String(),
		Labels:       labels.Labels(),
		Columns:      labels.Features(),
		Shape:        [2]int{sol.N, sol.K},
		Fitted:       finiteSlice(sol.Fitted),
		Residuals:    finiteSlice(sol.Residuals),
	}
}

// Payload shapes the result for the wire:
//
//	{coefficients, std_errors, t_stats, p_values, r2, adj_r2, sse, sigma2, n, k,
//	 fit_intercept, debug: {columns, design_matrix_shape, solver, dof, ...extra}}
//
// Entries of extra are merged into debug and may override the defaults. The returned tree is
// sanitized.
func (r *NamedFitResult) Payload(extra payload.Mapping) payload.Mapping {
	debug := payload.Mapping{
		"columns":             payload.MustFrom(r.Columns),
		"design_matrix_shape": payload.Sequence{payload.Int(r.Shape[0]), payload.Int(r.Shape[1])},
		"solver":              payload.String(r.Strategy),
		"dof":                 payload.Int(r.DoF),
	}
	maps.Copy(debug, extra)

	out := payload.Mapping{
		"coefficients":  payload.MustFrom(r.Coefficients),
		"std_errors":    payload.MustFrom(r.StdErrors),
		"t_stats":       payload.MustFrom(r.TStats),
		"p_values":      payload.MustFrom(r.PValues),
		"r2":            payload.Number(r.R2),
		"adj_r2":        payload.Number(r.AdjR2),
		"sse":           payload.Number(r.SSE),
		"sigma2":        payload.Number(r.Sigma2),
		"n":             payload.Int(r.N),
		"k":             payload.Int(r.K),
		"fit_intercept": payload.Bool(r.FitIntercept),
		"debug":         debug,
	}
	return payload.Sanitize(out).(payload.Mapping)
}

// Predict evaluates the fitted model on new observations. Every fitted column must be present
// in x and all of them must have the same length. Extra columns are ignored.
func (r *NamedFitResult) Predict(x design.Columns) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrNoPredictors
	}
	n := -1
	for _, name := range r.Columns {
		col, exists := x[name]
		if !exists {
			return nil, fmt.Errorf("column %q, %w", name, ErrMissingColumn)
		}
		if n == -1 {
			n = len(col)
		}
		if len(col) != n {
			return nil, fmt.Errorf("column %q has %d values, expected %d, %w", name, len(col), n, ErrColumnLenMismatch)
		}
	}

	out := make([]float64, n)
	if r.FitIntercept {
		floats.AddConst(r.Coefficients[design.InterceptLabel], out)
	}
	for _, name := range r.Columns {
		floats.AddScaled(out, r.Coefficients[name], x[name])
	}
	return out, nil
}
