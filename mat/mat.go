// Package mat holds small helpers on top of gonum matrices used by the design matrix
// builder and the least squares solver.
package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyArray  = errors.New("no rows or columns in array")
	ErrColMismatch = errors.New("column size mismatch")
	ErrRowMismatch = errors.New("row size mismatch")
)

// NewDenseFromArray builds a dense matrix from a row major slice of slices. Every row must
// have the same number of columns.
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)

	n := -1
	for i, row := range x {
		if n >= 0 && len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		if n < 0 {
			n = len(row)
		}
	}
	if m == 0 || n <= 0 {
		return nil, ErrEmptyArray
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// NewDenseFromColumns builds an m x n dense matrix where each input slice is a column.
func NewDenseFromColumns(cols [][]float64) (*mat.Dense, error) {
	n := len(cols)
	if n == 0 {
		return nil, ErrEmptyArray
	}
	m := len(cols[0])
	if m == 0 {
		return nil, ErrEmptyArray
	}
	for j, col := range cols {
		if len(col) != m {
			return nil, fmt.Errorf("at column %d expected %d rows but got %d, %w", j, m, len(col), ErrRowMismatch)
		}
	}

	data := make([]float64, m*n)
	for j, col := range cols {
		for i, val := range col {
			data[i*n+j] = val
		}
	}
	return mat.NewDense(m, n, data), nil
}

// IsFinite reports whether every element of the matrix is a finite number.
func IsFinite(a mat.Matrix) bool {
	m, n := a.Dims()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			if v-v != 0 {
				return false
			}
		}
	}
	return true
}
