package stats

import (
	"math"
	"sort"
)

// DetectOutliers returns the indices of y that fall on or outside Tukey fences built from the
// lower and upper percentiles, widened by tukeyFactor times the inner range. Percentiles are
// clamped to [0, 1]; inverted or NaN percentiles detect nothing.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	if len(y) == 0 || math.IsNaN(lowerPerc) || math.IsNaN(upperPerc) {
		return nil
	}
	lowerPerc = min(max(lowerPerc, 0.0), 1.0)
	upperPerc = min(max(upperPerc, 0.0), 1.0)
	if lowerPerc > upperPerc {
		return nil
	}
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, len(y))
	copy(yCopy, y)
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(yCopy)) * upperPerc))
	lowerIdx = min(max(lowerIdx, 0), len(yCopy)-1)
	upperIdx = min(max(upperIdx, 0), len(yCopy)-1)

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	if innerRange == 0 {
		return nil
	}
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] >= upper || y[i] <= lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}
