// Package stats derives inferential statistics and fit diagnostics from a least squares
// solution.
package stats

import (
	"math"

	"github.com/aouyang1/go-regress/floatsunrolled"
	"github.com/aouyang1/go-regress/models"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Fit holds the statistics of an ordinary least squares fit. All slices are in design matrix
// column order.
type Fit struct {
	Coef   []float64 `json:"beta"`
	StdErr []float64 `json:"se_beta"`
	TStat  []float64 `json:"t_stats"`
	PValue []float64 `json:"p_values"`

	R2     float64 `json:"r2"`
	AdjR2  float64 `json:"adj_r2"`
	SSE    float64 `json:"sse"`
	SST    float64 `json:"sst"`
	Sigma2 float64 `json:"sigma2"`
	DoF    int     `json:"dof"`
}

// DegreesOfFreedom returns n - k floored at 1 so that variance estimates never divide by
// zero or a negative count.
func DegreesOfFreedom(n, k int) int {
	return max(n-k, 1)
}

// NewFit computes the statistics package of a solution:
//
//	R2     = 1 - SSE/SST, or 1 when SST is zero
//	sigma2 = SSE / max(n-k, 1)
//	se_i   = sqrt(max(sigma2 * inv(X^T X)_ii, 0))
//	t_i    = beta_i / se_i, or 0 when se_i is zero
//	adjR2  = 1 - (1-R2)(n-1)/max(n-k, 1)
//
// p-values are two sided against a Student's t with max(n-k, 1) degrees of freedom.
func NewFit(sol *models.Solution) *Fit {
	n, k := sol.N, sol.K

	sse := sol.SSE()
	sst := TotalSumOfSquares(sol.Observed)

	r2 := 1.0
	if sst > 0 {
		r2 = 1.0 - sse/sst
	}

	dof := DegreesOfFreedom(n, k)
	sigma2 := sse / float64(dof)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}

	coef := make([]float64, k)
	copy(coef, sol.Coef)
	se := make([]float64, k)
	tStats := make([]float64, k)
	pValues := make([]float64, k)
	for i := 0; i < k; i++ {
		variance := math.Max(sigma2*sol.Inversion.Inv.At(i, i), 0.0)
		se[i] = math.Sqrt(variance)

		pValues[i] = 1.0
		if se[i] > 0 {
			tStats[i] = coef[i] / se[i]
			pValues[i] = 2.0 * tDist.Survival(math.Abs(tStats[i]))
		}
	}

	adjR2 := 1.0 - (1.0-r2)*float64(n-1)/float64(dof)

	return &Fit{
		Coef:   coef,
		StdErr: se,
		TStat:  tStats,
		PValue: pValues,
		R2:     r2,
		AdjR2:  adjR2,
		SSE:    sse,
		SST:    sst,
		Sigma2: sigma2,
		DoF:    dof,
	}
}

// TotalSumOfSquares returns sum((y_i - mean(y))^2).
func TotalSumOfSquares(y []float64) float64 {
	if len(y) == 0 {
		return 0.0
	}
	return floatsunrolled.SumSquaredDev(y, stat.Mean(y, nil))
}
