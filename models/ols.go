package models

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-regress/floatsunrolled"
	mat_ "github.com/aouyang1/go-regress/mat"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// OLSOptions represents input options to run the OLS Regression
type OLSOptions struct {
	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool
}

// Validate runs basic validation on OLS options
func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		o = NewDefaultOLSOptions()
	}

	return o, nil
}

// NewDefaultOLSOptions returns a default set of OLS Regression options
func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// Solution holds everything derived from solving the normal equations of a design matrix.
// Coef is in design matrix column order, including the bias column if the design has one.
type Solution struct {
	Coef      []float64
	Fitted    []float64
	Residuals []float64
	Observed  []float64

	// Inversion is the inverse of X^T X and the strategy used to obtain it
	Inversion mat_.Inversion

	N int // observations
	K int // design matrix columns
}

// SSE returns the sum of squared residuals.
func (s *Solution) SSE() float64 {
	return floatsunrolled.SumSquares(s.Residuals)
}

// Solve fits ordinary least squares on a prebuilt design matrix x (n x k) and response y
// using the normal equations, beta = (X^T X)^-1 X^T y. A singular or ill conditioned X^T X
// is inverted with the Moore-Penrose pseudo-inverse, which yields the least norm solution.
func Solve(x mat.Matrix, y mat.Vector) (*Solution, error) {
	if x == nil {
		return nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, ErrNoTargetMatrix
	}
	m, n := x.Dims()
	if m == 0 || n == 0 {
		return nil, ErrNoTrainingMatrix
	}
	if y.Len() != m {
		return nil, fmt.Errorf("training data has %d rows and target has %d row, %w", m, y.Len(), ErrTargetLenMismatch)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	inversion := mat_.Invert(&xtx)

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	beta.MulVec(inversion.Inv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	observed := mat.Col(nil, 0, y)
	fittedVals := mat.Col(nil, 0, &fitted)

	return &Solution{
		Coef:      mat.Col(nil, 0, &beta),
		Fitted:    fittedVals,
		Residuals: floatsunrolled.SubTo(nil, observed, fittedVals),
		Observed:  observed,
		Inversion: inversion,
		N:         m,
		K:         n,
	}, nil
}

// OLSRegression computes ordinary least squares through the normal equations
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
}

// NewOLSRegression initializes an ordinary least squares model ready for fitting
func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data. y must be a single column matrix.
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, _ := x.Dims()

	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	if o.opt.FitIntercept {
		x = withOnes(x)
	}

	sol, err := Solve(x, mat.NewVecDense(ym, mat.Col(nil, 0, y)))
	if err != nil {
		return err
	}

	c := sol.Coef
	if o.opt.FitIntercept {
		o.intercept = c[0]
		o.coef = c[1:]
	} else {
		o.intercept = 0.0
		o.coef = c
	}

	return nil
}

// Predict using the OLS model
func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	coef := o.coef
	if o.opt.FitIntercept {
		coef = append([]float64{o.intercept}, o.coef...)
		x = withOnes(x)
	}
	n := len(coef)

	xT := x.T()
	xn, _ := xT.Dims()
	if xn != n {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", xn, n, ErrFeatureLenMismatch)
	}
	coefMx := mat.NewDense(1, n, coef)

	var res mat.Dense
	res.Mul(coefMx, xT)
	return res.RawRowView(0), nil
}

// Score computes the coefficient of determination of the prediction. A constant target
// that is predicted exactly scores 1.0.
func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	if o.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()

	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}

	ySlice := mat.Col(nil, 0, y)

	r2 := stat.RSquaredFrom(res, ySlice, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 1.0, nil
	}
	return r2, nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}

func withOnes(x mat.Matrix) mat.Matrix {
	m, _ := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	onesMx := mat.NewDense(1, m, ones)
	xT := x.T()

	var xWithOnes mat.Dense
	xWithOnes.Stack(onesMx, xT)
	return xWithOnes.T()
}
