package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentHandlerLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := httpRequests.WithLabelValues(http.MethodGet, "/api/products/{id}", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
	assert.Zero(t, testutil.ToFloat64(httpInFlight))
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(productWrites.WithLabelValues("delete"))
	ProductWritten("delete")
	assert.Equal(t, before+1, testutil.ToFloat64(productWrites.WithLabelValues("delete")))

	before = testutil.ToFloat64(authDenied.WithLabelValues("missing"))
	AuthDenied("missing")
	assert.Equal(t, before+1, testutil.ToFloat64(authDenied.WithLabelValues("missing")))
}

func TestHandlerServesRegistry(t *testing.T) {
	LoginFailed()
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_auth_login_failures_total")
}
