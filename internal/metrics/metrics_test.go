package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExposed(t *testing.T) {
	m := NewMetrics()
	m.BackendRequestsTotal.WithLabelValues("GET", "success").Inc()
	m.PluginsInstalled.Set(2)
	m.PluginOperationsTotal.WithLabelValues("monitor", "install", "success").Inc()

	if got := testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("GET", "success")); got != 1 {
		t.Fatalf("expected 1 backend request, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, name := range []string{
		"opshub_backend_requests_total",
		"opshub_plugins_installed 2",
		`opshub_plugin_operations_total{operation="install",plugin="monitor",status="success"} 1`,
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.WSClients.Inc()
	if got := testutil.ToFloat64(b.WSClients); got != 0 {
		t.Fatalf("expected separate registries, got %v", got)
	}
}
