package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordClientConstructed(t *testing.T) {
	before := testutil.ToFloat64(ClientsConstructed("metrics-test"))
	RecordClientConstructed("metrics-test")
	assert.Equal(t, before+1, testutil.ToFloat64(ClientsConstructed("metrics-test")))
}

func TestRecordMissingConfiguration_EmptyKey(t *testing.T) {
	before := testutil.ToFloat64(MissingConfiguration("unknown"))
	RecordMissingConfiguration("")
	assert.Equal(t, before+1, testutil.ToFloat64(MissingConfiguration("unknown")))
}

func TestInstrumentHandler_UsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := httpRequests.WithLabelValues("GET", "/api/items/{id}", "418")
	before := testutil.ToFloat64(counter)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/items/7", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestHandler_ServesRegistry(t *testing.T) {
	RecordClientConstructed("metrics-handler-test")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `admin_console_clients_constructed_total{client="metrics-handler-test"}`)
}
