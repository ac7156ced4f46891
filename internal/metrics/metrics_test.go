package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.Nil(t, err)
	return string(body)
}

func TestObserveFit(t *testing.T) {
	m := New()
	m.ObserveFit(SourceJSON, "direct", 2*time.Millisecond)
	m.ObserveFit(SourceJSON, "direct", time.Millisecond)
	m.ObserveFit(SourceExcel, "pseudo_inverse", time.Millisecond)
	m.ObserveInvalidInput(SourceJSON)

	out := scrape(t, m)
	assert.Contains(t, out, `regress_fits_total{solver="direct",source="json"} 2`)
	assert.Contains(t, out, `regress_fits_total{solver="pseudo_inverse",source="excel"} 1`)
	assert.Contains(t, out, `regress_fit_duration_seconds_count{source="json"} 2`)
	assert.Contains(t, out, `regress_invalid_inputs_total{source="json"} 1`)
	assert.Contains(t, out, "go_goroutines")
}

func TestMiddleware(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/distributions/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/distributions/normal", "/api/distributions/t", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := scrape(t, m)
	assert.Contains(t, out, `regress_http_requests_total{code="418",method="GET",route="/api/distributions/{name}"} 2`)
	assert.Contains(t, out, `regress_http_requests_total{code="200",method="GET",route="/ok"} 1`)
}
