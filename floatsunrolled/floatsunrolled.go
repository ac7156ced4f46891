// Package floatsunrolled provides loop unrolled reductions over float64 slices for the sums of
// squares computed on every fit. Slices of any length are accepted; the tail past the last full
// batch is folded in one element at a time.
package floatsunrolled

import (
	"errors"
)

const UnrollBatch = 4

var (
	ErrSliceLengthMismatch       = errors.New("slices must have equal lengths")
	ErrOutputSliceLengthMismatch = errors.New("output slice length not the same as input")
)

// batched returns the length covered by full unroll batches.
func batched(n int) int {
	return n - n%UnrollBatch
}

// Dot returns sum(a_i * b_i).
func Dot(a, b []float64) float64 {
	if len(a) != len(b) {
		panic(ErrSliceLengthMismatch)
	}

	var sum float64
	end := batched(len(a))
	for i := 0; i < end; i += UnrollBatch {
		aTmp := a[i : i+UnrollBatch : i+UnrollBatch]
		bTmp := b[i : i+UnrollBatch : i+UnrollBatch]
		s0 := aTmp[0] * bTmp[0]
		s1 := aTmp[1] * bTmp[1]
		s2 := aTmp[2] * bTmp[2]
		s3 := aTmp[3] * bTmp[3]
		sum += s0 + s1 + s2 + s3
	}
	for i := end; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// SumSquares returns sum(s_i^2), the residual sum of squares when s holds residuals.
func SumSquares(s []float64) float64 {
	return Dot(s, s)
}

// SumSquaredDev returns sum((s_i - c)^2).
func SumSquaredDev(s []float64, c float64) float64 {
	var sum float64
	end := batched(len(s))
	for i := 0; i < end; i += UnrollBatch {
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		d0 := sTmp[0] - c
		d1 := sTmp[1] - c
		d2 := sTmp[2] - c
		d3 := sTmp[3] - c
		sum += d0*d0 + d1*d1 + d2*d2 + d3*d3
	}
	for i := end; i < len(s); i++ {
		d := s[i] - c
		sum += d * d
	}
	return sum
}

// SubTo stores s - t element wise into dst, allocating dst when nil.
func SubTo(dst, s, t []float64) []float64 {
	if len(s) != len(t) {
		panic(ErrSliceLengthMismatch)
	}

	if dst == nil {
		dst = make([]float64, len(s))
	} else if len(dst) != len(s) {
		panic(ErrOutputSliceLengthMismatch)
	}

	end := batched(len(s))
	for i := 0; i < end; i += UnrollBatch {
		dstTmp := dst[i : i+UnrollBatch : i+UnrollBatch]
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		tTmp := t[i : i+UnrollBatch : i+UnrollBatch]
		dstTmp[0] = sTmp[0] - tTmp[0]
		dstTmp[1] = sTmp[1] - tTmp[1]
		dstTmp[2] = sTmp[2] - tTmp[2]
		dstTmp[3] = sTmp[3] - tTmp[3]
	}
	for i := end; i < len(s); i++ {
		dst[i] = s[i] - t[i]
	}

	return dst
}
