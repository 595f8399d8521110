package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternhq/tern/config"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:   true,
		Path:      "/metrics",
		Namespace: "tern",
		Subsystem: "urlshortener",
	}
}

func TestNewPrometheusRegistry(t *testing.T) {
	registry, err := NewPrometheusRegistry(testConfig())
	require.NoError(t, err)
	require.NotNil(t, registry)
	assert.NotNil(t, registry.GetRegistry())
	assert.NotNil(t, registry.GetHandler())
}

func TestPrometheusRegistry_BusinessCounters(t *testing.T) {
	registry, err := NewPrometheusRegistry(testConfig())
	require.NoError(t, err)

	registry.IncURLsCreated()
	registry.IncURLsCreated()
	registry.IncURLsRedirected()
	registry.IncURLsDeleted()
	registry.IncCacheHit()
	registry.IncCacheMiss()
	registry.IncCacheMiss()

	prom := registry.(*PrometheusRegistry)
	assert.Equal(t, float64(2), testutil.ToFloat64(prom.urlsCreatedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(prom.urlsRedirectedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(prom.urlsDeletedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(prom.cacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(prom.cacheLookupsTotal.WithLabelValues("miss")))
}

func TestPrometheusMiddleware_RecordsRequests(t *testing.T) {
	registry, err := NewPrometheusRegistry(testConfig())
	require.NoError(t, err)

	handler := PrometheusMiddleware(registry)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/shorten", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	prom := registry.(*PrometheusRegistry)
	count := testutil.ToFloat64(prom.httpRequestsTotal.WithLabelValues(http.MethodGet, "/shorten", "204"))
	assert.Equal(t, float64(1), count)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"", "/"},
		{"/health", "/health"},
		{"/shorten", "/shorten"},
		{"/stats", "/stats"},
		{"/stats/Ab3-_9", "/stats/{code}"},
		{"/Ab3-_9", "/{code}"},
		{"/swagger/index.html", "/swagger/*"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.path), "path %q", tt.path)
	}
}
