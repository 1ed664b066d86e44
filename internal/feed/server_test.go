package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rennerdo30/ratatosk/internal/updater"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	artifactsDir := t.TempDir()
	cfg := Config{
		Listen:       ":0",
		ArtifactsDir: artifactsDir,
		AppVersion:   "2.0",
		Artifact:     "agent-linux-amd64",
	}

	s, err := New(cfg)
	require.NoError(t, err)
	return s, artifactsDir
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"empty artifacts dir", func(c *Config) { c.ArtifactsDir = "" }},
		{"empty version", func(c *Config) { c.AppVersion = "" }},
		{"empty artifact", func(c *Config) { c.Artifact = "" }},
		{"relative base url", func(c *Config) { c.BaseURL = "/not/absolute" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Listen:       ":0",
				ArtifactsDir: "artifacts",
				AppVersion:   "1.0",
				Artifact:     "agent",
			}
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestHandleManifest(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/v1/manifest.json", nil)
	req.Host = "updates.example.com"
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// The agent-facing field names are the external contract.
	body := rec.Body.String()
	assert.Contains(t, body, `"AppVersion"`)
	assert.Contains(t, body, `"UpdateLink"`)

	var m updater.Manifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "2.0", m.AppVersion)
	assert.Equal(t, "http://updates.example.com/artifacts/agent-linux-amd64", m.UpdateLink)
}

func TestHandleManifest_ConfiguredBaseURL(t *testing.T) {
	s, _ := newTestServer(t)
	s.config.BaseURL = "https://updates.example.com/"

	req := httptest.NewRequest("GET", "/v1/manifest.json", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var m updater.Manifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "https://updates.example.com/artifacts/agent-linux-amd64", m.UpdateLink)
}

func TestHandleArtifact(t *testing.T) {
	s, artifactsDir := newTestServer(t)

	payload := []byte("compiled agent bytes")
	require.NoError(t, os.WriteFile(filepath.Join(artifactsDir, "agent-linux-amd64"), payload, 0o644))

	req := httptest.NewRequest("GET", "/artifacts/agent-linux-amd64", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, rec.Body.Bytes())
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}

func TestHandleArtifact_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/artifacts/no-such-artifact", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleArtifact_RejectsTraversal(t *testing.T) {
	s, _ := newTestServer(t)

	for _, name := range []string{"..", ".hidden"} {
		req := httptest.NewRequest("GET", "/artifacts/"+name, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "name %q should be rejected", name)
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s, artifactsDir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(artifactsDir, "agent-linux-amd64"), []byte("x"), 0o644))

	router := s.Router()

	// Generate some traffic first.
	for _, path := range []string{"/v1/manifest.json", "/artifacts/agent-linux-amd64"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ratatosk_feed_manifest_requests_total 1")
	assert.True(t, strings.Contains(body, `ratatosk_feed_artifact_downloads_total{artifact="agent-linux-amd64"} 1`),
		"artifact download counter missing:\n%s", body)
}

// TestFeedServesUpdaterEndToEnd wires a real agent-side resolver and stager
// against the feed router, proving both halves speak the same contract.
func TestFeedServesUpdaterEndToEnd(t *testing.T) {
	s, artifactsDir := newTestServer(t)

	payload := []byte("release 2.0 bytes")
	require.NoError(t, os.WriteFile(filepath.Join(artifactsDir, "agent-linux-amd64"), payload, 0o644))

	httpSrv := httptest.NewServer(s.Router())
	defer httpSrv.Close()

	d := updater.NewDownloader(0, 0)
	resolver := updater.NewResolver(d)

	m, ok := resolver.Fetch(context.Background(), httpSrv.URL+"/v1/manifest.json")
	require.True(t, ok)
	assert.Equal(t, "2.0", m.AppVersion)

	dest := filepath.Join(t.TempDir(), "staged.new")
	require.NoError(t, d.Download(context.Background(), m.UpdateLink, dest, nil))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}
