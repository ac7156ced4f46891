package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateDistribution(t *testing.T) {
	testData := map[string]struct {
		path     string
		expected map[string]float64
		absent   []string
	}{
		"normal two tailed at x": {
			path: "/api/distributions/normal?x=1.96&tail=two",
			expected: map[string]float64{
				"x":                1.96,
				"tail_probability": 0.04999579029644087,
				"cdf":              0.9750021048517795,
			},
			absent: []string{"critical"},
		},
		"normal critical values": {
			path: "/api/distributions/normal?p=0.05&tail=two",
			expected: map[string]float64{
				"critical_lower": -1.959963984540054,
				"critical_upper": 1.959963984540054,
			},
			absent: []string{"pdf"},
		},
		"right tail by default": {
			path: "/api/distributions/NORMAL?x=0&mu=0&sigma=2",
			expected: map[string]float64{
				"tail_probability": 0.5,
				"survival":         0.5,
			},
		},
		"exponential": {
			path: "/api/distributions/exponential?x=1&lambda=2&tail=left",
			expected: map[string]float64{
				"tail_probability": 0.8646647167633873,
			},
		},
	}

	ts := newTestServer(t)
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			rec := ts.get(td.path, testSID)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			out := decodeBody(t, rec)
			for key, v := range td.expected {
				assert.InDelta(t, v, out[key], 1e-9, key)
			}
			for _, key := range td.absent {
				assert.NotContains(t, out, key)
			}
		})
	}
}

func TestEvaluateDistributionErrors(t *testing.T) {
	testData := map[string]struct {
		path         string
		expectedCode int
		expectedErr  string
	}{
		"unknown distribution": {"/api/distributions/gamma?x=1", http.StatusNotFound, "UNKNOWN_DISTRIBUTION"},
		"not a number":         {"/api/distributions/normal?x=abc", http.StatusBadRequest, "INVALID_PARAMETER"},
		"nothing to evaluate":  {"/api/distributions/normal", http.StatusBadRequest, "INVALID_PARAMETER"},
		"bad sigma":            {"/api/distributions/normal?x=1&sigma=-1", http.StatusBadRequest, "INVALID_PARAMETER"},
		"bad tail":             {"/api/distributions/t?x=1&tail=up", http.StatusBadRequest, "INVALID_PARAMETER"},
		"p out of range":       {"/api/distributions/chi2?p=1.5", http.StatusBadRequest, "INVALID_PARAMETER"},
	}

	ts := newTestServer(t)
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			rec := ts.get(td.path, testSID)
			require.Equal(t, td.expectedCode, rec.Code, rec.Body.String())
			assert.Equal(t, td.expectedErr, decodeBody(t, rec)["error_code"])
		})
	}
}

func TestListDistributions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/api/distributions", testSID)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	assert.Equal(t, []any{"normal", "t", "chi2", "f", "exponential"}, out["distributions"])
	assert.Equal(t, 1.0, out["defaults"].(map[string]any)["sigma"])
}
