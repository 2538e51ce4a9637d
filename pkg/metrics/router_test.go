package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedHealth int64

func (f fixedHealth) Running() int64 { return int64(f) }

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(Router(fixedHealth(3)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestMetricsEndpointExposesCollectors(t *testing.T) {
	TasksSpawned.Inc()
	ChannelOps.WithLabelValues("send").Inc()

	rec := httptest.NewRecorder()
	Router(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zeno_tasks_spawned_total")
	assert.Contains(t, rec.Body.String(), `zeno_channel_ops_total{op="send"}`)
}

func TestMiddlewareLabelsStatus(t *testing.T) {
	h := Router(fixedHealth(0))
	ok := httpRequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200")
	missing := httpRequestsTotal.WithLabelValues(http.MethodGet, "/nope", "404")
	okBefore, missingBefore := testutil.ToFloat64(ok), testutil.ToFloat64(missing)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, missingBefore+1, testutil.ToFloat64(missing))
}
