package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgate/internal/target"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	srv := httptest.NewServer(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(body)
}

func TestStateFollowsStore(t *testing.T) {
	store := target.NewStore()
	m := New(store)

	body := scrape(t, m)
	assert.Contains(t, body, "switchgate_flips_total 0")
	assert.Contains(t, body, `switchgate_active_backend{backend="A"} 1`)
	assert.Contains(t, body, `switchgate_active_backend{backend="B"} 0`)

	store.Toggle()

	body = scrape(t, m)
	assert.Contains(t, body, "switchgate_flips_total 1")
	assert.Contains(t, body, `switchgate_active_backend{backend="A"} 0`)
	assert.Contains(t, body, `switchgate_active_backend{backend="B"} 1`)
}

func TestRequestCounters(t *testing.T) {
	m := New(target.NewStore())

	m.ObserveResponse(target.A, 200, 10*time.Millisecond)
	m.ObserveResponse(target.A, 200, 20*time.Millisecond)
	m.ObserveResponse(target.B, 404, time.Millisecond)
	m.ObserveUpstreamError(target.B, 502)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("A", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("B", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("B", "502")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamErrors.WithLabelValues("B")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}
