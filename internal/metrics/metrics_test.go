package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	m := New()

	if m.ManifestRequests == nil {
		t.Error("ManifestRequests not initialized")
	}
	if m.ArtifactDownloads == nil {
		t.Error("ArtifactDownloads not initialized")
	}
	if m.registry == nil {
		t.Error("registry not initialized")
	}
}

func TestCounters(t *testing.T) {
	m := New()

	m.ManifestRequests.Inc()
	m.ManifestRequests.Inc()
	if got := testutil.ToFloat64(m.ManifestRequests); got != 2 {
		t.Errorf("ManifestRequests = %v, want 2", got)
	}

	m.ArtifactDownloads.WithLabelValues("agent-linux-amd64").Inc()
	m.ArtifactBytes.WithLabelValues("agent-linux-amd64").Add(1024)
	if got := testutil.ToFloat64(m.ArtifactBytes.WithLabelValues("agent-linux-amd64")); got != 1024 {
		t.Errorf("ArtifactBytes = %v, want 1024", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ManifestRequests.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("metrics handler status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ratatosk_feed_manifest_requests_total") {
		t.Error("metrics output missing manifest request counter")
	}
}
