package mat

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Strategy names the decomposition that produced an Inversion.
type Strategy int

const (
	Direct Strategy = iota
	PseudoInverse
)

func (s Strategy) String() string {
	switch s {
	case Direct:
		return "direct"
	case PseudoInverse:
		return "pseudo_inverse"
	default:
		return "unknown"
	}
}

// RelativeSingularCutoff drops singular values below this fraction of the largest one when
// building the pseudo-inverse.
const RelativeSingularCutoff = 1e-12

// Inversion is the result of inverting a square matrix. Inv is always populated and
// Strategy records whether the direct inverse or the Moore-Penrose pseudo-inverse was used.
type Inversion struct {
	Strategy Strategy
	Inv      *mat.Dense
}

// Invert attempts a direct inverse of a and falls back to the pseudo-inverse when a is
// exactly singular or the direct inverse has non-finite entries. An ill conditioned but
// invertible matrix keeps its direct inverse.
func Invert(a mat.Matrix) Inversion {
	if inv, ok := directInverse(a); ok {
		return Inversion{Strategy: Direct, Inv: inv}
	}
	return Inversion{Strategy: PseudoInverse, Inv: NewPseudoInverse(a)}
}

func directInverse(a mat.Matrix) (*mat.Dense, bool) {
	m, n := a.Dims()
	if m != n || m == 0 {
		return nil, false
	}

	inv := new(mat.Dense)
	if err := inv.Inverse(a); err != nil {
		// a finite Condition still carries the inverse computed from the LU factors; an
		// infinite one means a zero pivot and inv holds no inverse
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) || math.IsNaN(float64(cond)) {
			return nil, false
		}
	}
	if !IsFinite(inv) {
		return nil, false
	}
	return inv, true
}

// NewPseudoInverse computes the Moore-Penrose pseudo-inverse of a using a thin SVD,
// A+ = V * S+ * U^T. An all zero matrix, or a failed factorization, yields a zero
// matrix of the transposed shape.
func NewPseudoInverse(a mat.Matrix) *mat.Dense {
	m, n := a.Dims()
	pinv := mat.NewDense(n, m, nil)

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return pinv
	}

	values := svd.Values(nil)
	if len(values) == 0 || values[0] == 0 {
		return pinv
	}
	cutoff := values[0] * RelativeSingularCutoff

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// accumulate v_i * u_i^T / s_i for each retained singular value
	for idx, s := range values {
		if s <= cutoff {
			continue
		}
		inv := 1.0 / s
		for i := 0; i < n; i++ {
			vi := v.At(i, idx) * inv
			if vi == 0 {
				continue
			}
			for j := 0; j < m; j++ {
				pinv.Set(i, j, pinv.At(i, j)+vi*u.At(j, idx))
			}
		}
	}
	return pinv
}
