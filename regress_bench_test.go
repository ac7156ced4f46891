package regress

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/aouyang1/go-regress/design"

	"github.com/pkg/profile"
)

var benchFitRes *NamedFitResult

func benchColumns(n, k int) ([]float64, design.Columns) {
	r := rand.New(rand.NewSource(7))
	y := make([]float64, n)
	x := make(design.Columns, k)
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		for i := range col {
			col[i] = r.NormFloat64()
			y[i] += float64(j+1) * col[i]
		}
		x[fmt.Sprintf("x%02d", j)] = col
	}
	for i := range y {
		y[i] += 3.0 + 0.1*r.NormFloat64()
	}
	return y, x
}

func BenchmarkFit(b *testing.B) {
	y, x := benchColumns(10000, 8)

	b.ResetTimer()
	for b.Loop() {
		res, err := Fit(y, x, true)
		if err != nil {
			panic(err)
		}
		benchFitRes = res
	}
}

func BenchmarkFitProfile(b *testing.B) {
	y, x := benchColumns(10000, 8)

	b.ResetTimer()
	defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	for b.Loop() {
		res, err := Fit(y, x, true)
		if err != nil {
			panic(err)
		}
		benchFitRes = res
	}
}
