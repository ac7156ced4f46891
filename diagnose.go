package regress

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-regress/design"
	"github.com/aouyang1/go-regress/payload"
	"github.com/aouyang1/go-regress/stats"
)

var ErrNoFitResult = errors.New("no fit result to diagnose")

// Diagnostics holds checks on a fit that go beyond the coefficient statistics.
type Diagnostics struct {
	// VIF is the variance inflation factor of each independent variable. Only computed with
	// two or more variables. A perfectly collinear variable reports +Inf.
	VIF map[string]float64 `json:"vif,omitempty"`

	// Outliers are the observation indices whose residual falls outside the Tukey fences
	Outliers []int `json:"outliers"`

	MSE float64 `json:"mse"`
}

// Diagnose computes multicollinearity and residual outlier checks for a fit of the columns x.
func Diagnose(res *NamedFitResult, x design.Columns, opt *DiagnosticOptions) (*Diagnostics, error) {
	if res == nil {
		return nil, ErrNoFitResult
	}
	if opt == nil {
		opt = NewDefaultDiagnosticOptions()
	}
	outlierOpt := opt.OutlierOptions
	if outlierOpt == nil {
		outlierOpt = NewDefaultOutlierOptions()
	}

	d := &Diagnostics{
		Outliers: stats.DetectOutliers(
			res.Residuals,
			outlierOpt.LowerPercentile,
			outlierOpt.UpperPercentile,
			outlierOpt.TukeyFactor,
		),
	}
	if d.Outliers == nil {
		d.Outliers = []int{}
	}

	zeros := make([]float64, len(res.Residuals))
	mse, err := stats.MSE(zeros, res.Residuals)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	d.MSE = mse

	if opt.SkipVIF || len(x) < 2 || res.N < 2 {
		return d, nil
	}
	vif, err := stats.VarianceInflationFactor(x)
	if err != nil {
		return nil, fmt.Errorf("unable to compute variance inflation factors, %w", err)
	}
	d.VIF = vif
	return d, nil
}

// Payload returns the sanitized wire form of the diagnostics.
func (d *Diagnostics) Payload() payload.Mapping {
	out := payload.Mapping{
		"outliers": payload.MustFrom(d.Outliers),
		"mse":      payload.Number(d.MSE),
	}
	if d.VIF != nil {
		out["vif"] = payload.MustFrom(d.VIF)
	}
	return payload.Sanitize(out).(payload.Mapping)
}
