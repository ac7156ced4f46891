package stats

import (
	"errors"
	"math"
	"sort"

	mat_ "github.com/aouyang1/go-regress/mat"
	"github.com/aouyang1/go-regress/models"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrMinimumFeatures    = errors.New("need at least 2 features to compute VIF")
	ErrFeatureLenMismatch = errors.New("some feature length is not consistent")
	ErrFeatureLen         = errors.New("must have at least 2 points per feature")
)

// VarianceInflationFactor regresses each feature on all of the others plus an intercept and
// returns 1/(1-R2) keyed by feature. A feature that is perfectly explained by the others
// reports +Inf.
func VarianceInflationFactor(features map[string][]float64) (map[string]float64, error) {
	if len(features) < 2 {
		return nil, ErrMinimumFeatures
	}
	n := len(features)
	var m int
	for _, feature := range features {
		if len(feature) < 2 {
			return nil, ErrFeatureLen
		}
		if m == 0 {
			m = len(feature)
			continue
		}
		if m != len(feature) {
			return nil, ErrFeatureLenMismatch
		}
	}

	labels := make([]string, 0, n)
	for label := range features {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	vif := make(map[string]float64, n)
	for _, label := range labels {
		others := make([][]float64, 0, n-1)
		for _, otherLabel := range labels {
			if otherLabel == label {
				continue
			}
			others = append(others, features[otherLabel])
		}
		x, err := mat_.NewDenseFromColumns(others)
		if err != nil {
			return nil, err
		}
		y := mat.NewVecDense(m, features[label])

		var model models.Model
		model, err = models.NewOLSRegression(&models.OLSOptions{FitIntercept: true})
		if err != nil {
			return nil, err
		}
		if err := model.Fit(x, y); err != nil {
			return nil, err
		}
		r2, err := model.Score(x, y)
		if err != nil {
			return nil, err
		}
		if r2 >= 1.0 {
			vif[label] = math.Inf(1)
			continue
		}
		vif[label] = 1.0 / (1.0 - r2)
	}
	return vif, nil
}
