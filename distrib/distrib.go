// Package distrib evaluates densities, tail probabilities and critical values of the
// continuous distributions used in hypothesis testing.
package distrib

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrUnknownDistribution = errors.New("unknown distribution")
	ErrInvalidParameter    = errors.New("invalid distribution parameter")
	ErrUnknownTail         = errors.New("unknown tail")
	ErrNothingToEvaluate   = errors.New("one of x, p, or lower and upper bounds is required")
)

// Name identifies a supported distribution.
type Name string

const (
	Normal      Name = "normal"
	StudentsT   Name = "t"
	ChiSquared  Name = "chi2"
	F           Name = "f"
	Exponential Name = "exponential"
)

// Names lists every supported distribution.
var Names = []Name{Normal, StudentsT, ChiSquared, F, Exponential}

// Tail selects which region of the distribution a probability refers to.
type Tail string

const (
	Left   Tail = "left"
	Right  Tail = "right"
	Two    Tail = "two"
	Center Tail = "center"
)

// Params holds the parameters for every distribution. Only the ones relevant to the
// selected distribution are read.
type Params struct {
	Mu     float64 `json:"mu"`
	Sigma  float64 `json:"sigma"`
	DF     float64 `json:"df"`
	DF1    float64 `json:"df1"`
	DF2    float64 `json:"df2"`
	Lambda float64 `json:"lambda"`
}

// NewDefaultParams returns the standard normal, 10 degrees of freedom for t and chi2,
// F(5, 10) and a unit rate exponential.
func NewDefaultParams() Params {
	return Params{
		Mu:     0,
		Sigma:  1,
		DF:     10,
		DF1:    5,
		DF2:    10,
		Lambda: 1,
	}
}

// Distribution is the subset of distuv behavior needed to evaluate a request.
type Distribution interface {
	Prob(x float64) float64
	CDF(x float64) float64
	Survival(x float64) float64
	Quantile(p float64) float64
}

// New returns the distuv distribution for the name and parameters.
func New(name Name, p Params) (Distribution, error) {
	switch name {
	case Normal:
		if !positive(p.Sigma) || !isFinite(p.Mu) {
			return nil, fmt.Errorf("normal requires finite mu and sigma > 0, %w", ErrInvalidParameter)
		}
		return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma}, nil
	case StudentsT:
		if !positive(p.DF) {
			return nil, fmt.Errorf("t requires df > 0, %w", ErrInvalidParameter)
		}
		return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: p.DF}, nil
	case ChiSquared:
		if !positive(p.DF) {
			return nil, fmt.Errorf("chi2 requires df > 0, %w", ErrInvalidParameter)
		}
		return distuv.ChiSquared{K: p.DF}, nil
	case F:
		if !positive(p.DF1) || !positive(p.DF2) {
			return nil, fmt.Errorf("f requires df1 > 0 and df2 > 0, %w", ErrInvalidParameter)
		}
		return distuv.F{D1: p.DF1, D2: p.DF2}, nil
	case Exponential:
		if !positive(p.Lambda) {
			return nil, fmt.Errorf("exponential requires lambda > 0, %w", ErrInvalidParameter)
		}
		return distuv.Exponential{Rate: p.Lambda}, nil
	}
	return nil, fmt.Errorf("%q, %w", name, ErrUnknownDistribution)
}

// Request asks for the evaluation of a distribution at a point x, at a probability p, over
// an interval [Lower, Upper], or any combination of them.
type Request struct {
	Distribution Name
	Params       Params
	Tail         Tail

	X     *float64
	P     *float64
	Lower *float64
	Upper *float64
}

// Result holds whatever the request asked for. Fields that were not requested are nil.
type Result struct {
	Distribution Name   `json:"distribution"`
	Tail         Tail   `json:"tail"`
	Params       Params `json:"params"`

	X        *float64 `json:"x,omitempty"`
	PDF      *float64 `json:"pdf,omitempty"`
	CDF      *float64 `json:"cdf,omitempty"`
	Survival *float64 `json:"survival,omitempty"`

	// TailProbability is the probability of the selected tail beyond x, or of the interval
	// when bounds were given
	TailProbability *float64 `json:"tail_probability,omitempty"`

	P *float64 `json:"p,omitempty"`
	// Critical is the point whose selected tail has probability p. Two and center tails
	// report a symmetric-probability interval instead.
	Critical      *float64 `json:"critical,omitempty"`
	CriticalLower *float64 `json:"critical_lower,omitempty"`
	CriticalUpper *float64 `json:"critical_upper,omitempty"`
}

// Evaluate computes the density, cumulative and tail probabilities at x, the critical values
// for p, and the probability of the interval [Lower, Upper].
func Evaluate(req Request) (*Result, error) {
	tail := req.Tail
	if tail == "" {
		tail = Right
	}
	switch tail {
	case Left, Right, Two, Center:
	default:
		return nil, fmt.Errorf("%q, %w", tail, ErrUnknownTail)
	}

	if req.X == nil && req.P == nil && (req.Lower == nil || req.Upper == nil) {
		return nil, ErrNothingToEvaluate
	}

	dist, err := New(req.Distribution, req.Params)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Distribution: req.Distribution,
		Tail:         tail,
		Params:       req.Params,
	}

	if req.X != nil {
		x := *req.X
		if math.IsNaN(x) {
			return nil, fmt.Errorf("x is NaN, %w", ErrInvalidParameter)
		}
		res.X = ptr(x)
		res.PDF = ptr(dist.Prob(x))
		res.CDF = ptr(dist.CDF(x))
		res.Survival = ptr(dist.Survival(x))
		res.TailProbability = ptr(tailProbability(dist, tail, x))
	}

	if req.Lower != nil && req.Upper != nil {
		lower, upper := *req.Lower, *req.Upper
		if math.IsNaN(lower) || math.IsNaN(upper) || lower > upper {
			return nil, fmt.Errorf("bounds must satisfy lower <= upper, %w", ErrInvalidParameter)
		}
		res.TailProbability = ptr(intervalProbability(dist, tail, lower, upper))
	}

	if req.P != nil {
		p := *req.P
		if !(p > 0 && p < 1) {
			return nil, fmt.Errorf("p must be in (0, 1), got %v, %w", p, ErrInvalidParameter)
		}
		res.P = ptr(p)
		switch tail {
		case Left:
			res.Critical = ptr(dist.Quantile(p))
		case Right:
			res.Critical = ptr(dist.Quantile(1 - p))
		case Two:
			res.CriticalLower = ptr(dist.Quantile(p / 2))
			res.CriticalUpper = ptr(dist.Quantile(1 - p/2))
			res.Critical = res.CriticalUpper
		case Center:
			res.CriticalLower = ptr(dist.Quantile((1 - p) / 2))
			res.CriticalUpper = ptr(dist.Quantile((1 + p) / 2))
		}
	}
	return res, nil
}

// tailProbability for a two tailed test doubles the smaller tail at x.
func tailProbability(dist Distribution, tail Tail, x float64) float64 {
	switch tail {
	case Left:
		return dist.CDF(x)
	case Two:
		return math.Min(1, 2*math.Min(dist.CDF(x), dist.Survival(x)))
	case Center:
		return math.Max(0, 1-2*math.Min(dist.CDF(x), dist.Survival(x)))
	default:
		return dist.Survival(x)
	}
}

func intervalProbability(dist Distribution, tail Tail, lower, upper float64) float64 {
	switch tail {
	case Left:
		return dist.CDF(lower)
	case Right:
		return dist.Survival(upper)
	case Two:
		return math.Min(1, dist.CDF(lower)+dist.Survival(upper))
	default:
		return math.Max(0, dist.CDF(upper)-dist.CDF(lower))
	}
}

func positive(v float64) bool {
	return v > 0 && isFinite(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ptr(v float64) *float64 {
	return &v
}
