package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/aouyang1/go-regress/distrib"
	"github.com/aouyang1/go-regress/payload"
)

type distributionsResponse struct {
	Distributions []distrib.Name `json:"distributions"`
	Tails         []distrib.Tail `json:"tails"`
	Defaults      distrib.Params `json:"defaults"`
}

// listDistributions handles GET /api/distributions
func (s *Server) listDistributions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, distributionsResponse{
		Distributions: distrib.Names,
		Tails:         []distrib.Tail{distrib.Left, distrib.Right, distrib.Two, distrib.Center},
		Defaults:      distrib.NewDefaultParams(),
	})
}

// evaluateDistribution handles GET /api/distributions/{name}?x=&p=&lower=&upper=&tail= with
// optional mu, sigma, df, df1, df2 and lambda overriding the defaults.
func (s *Server) evaluateDistribution(w http.ResponseWriter, r *http.Request) {
	req, err := distributionRequest(chi.URLParam(r, "name"), r.URL.Query())
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	res, err := distrib.Evaluate(req)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writePayload(w, r, distributionPayload(res))
}

func distributionRequest(name string, q url.Values) (distrib.Request, error) {
	req := distrib.Request{
		Distribution: distrib.Name(strings.ToLower(name)),
		Params:       distrib.NewDefaultParams(),
		Tail:         distrib.Tail(strings.ToLower(strings.TrimSpace(q.Get("tail")))),
	}

	params := map[string]*float64{
		"mu":     &req.Params.Mu,
		"sigma":  &req.Params.Sigma,
		"df":     &req.Params.DF,
		"df1":    &req.Params.DF1,
		"df2":    &req.Params.DF2,
		"lambda": &req.Params.Lambda,
	}
	for key, dst := range params {
		v, err := queryFloat(q, key)
		if err != nil {
			return req, err
		}
		if v != nil {
			*dst = *v
		}
	}

	var err error
	if req.X, err = queryFloat(q, "x"); err != nil {
		return req, err
	}
	if req.P, err = queryFloat(q, "p"); err != nil {
		return req, err
	}
	if req.Lower, err = queryFloat(q, "lower"); err != nil {
		return req, err
	}
	if req.Upper, err = queryFloat(q, "upper"); err != nil {
		return req, err
	}
	return req, nil
}

func queryFloat(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s=%q is not a number, %w", key, raw, distrib.ErrInvalidParameter)
	}
	return &v, nil
}

// distributionPayload keeps only the requested values. Infinite densities, such as chi2 with
// one degree of freedom at zero, are sanitized to 0 when written.
func distributionPayload(res *distrib.Result) payload.Mapping {
	out := payload.Mapping{
		"distribution": payload.String(res.Distribution),
		"tail":         payload.String(res.Tail),
		"params": payload.Mapping{
			"mu":     payload.Number(res.Params.Mu),
			"sigma":  payload.Number(res.Params.Sigma),
			"df":     payload.Number(res.Params.DF),
			"df1":    payload.Number(res.Params.DF1),
			"df2":    payload.Number(res.Params.DF2),
			"lambda": payload.Number(res.Params.Lambda),
		},
	}
	values := map[string]*float64{
		"x":                res.X,
		"pdf":              res.PDF,
		"cdf":              res.CDF,
		"survival":         res.Survival,
		"tail_probability": res.TailProbability,
		"p":                res.P,
		"critical":         res.Critical,
		"critical_lower":   res.CriticalLower,
		"critical_upper":   res.CriticalUpper,
	}
	for key, v := range values {
		if v != nil {
			out[key] = payload.Number(*v)
		}
	}
	return out
}
