// Package feed implements the update feed server: it publishes the manifest
// agents poll and serves the artifact bytes the manifest points at.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rennerdo30/ratatosk/internal/logging"
	"github.com/rennerdo30/ratatosk/internal/metrics"
	"github.com/rennerdo30/ratatosk/internal/updater"
	"github.com/rennerdo30/ratatosk/internal/util"
)

// Config holds feed server configuration.
type Config struct {
	// Listen is the address the feed binds to.
	Listen string `yaml:"listen" json:"listen"`

	// ArtifactsDir is the directory artifact files are served from.
	ArtifactsDir string `yaml:"artifacts_dir" json:"artifacts_dir"`

	// BaseURL is the externally reachable URL advertised in the manifest.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// AppVersion is the version string published in the manifest. Agents
	// compare it with bare string inequality, so publish exactly the
	// version the fleet should run.
	AppVersion string `yaml:"app_version" json:"app_version"`

	// Artifact is the artifact filename the manifest links to.
	Artifact string `yaml:"artifact" json:"artifact"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Listen:       ":7460",
		ArtifactsDir: "artifacts",
	}
}

// Validate checks the configuration for usability.
func (c Config) Validate() error {
	if c.Listen == "" {
		return util.WrapError(util.ErrInvalidConfig, "feed: listen address is empty")
	}
	if c.ArtifactsDir == "" {
		return util.WrapError(util.ErrInvalidConfig, "feed: artifacts directory is empty")
	}
	if c.AppVersion == "" {
		return util.WrapError(util.ErrInvalidConfig, "feed: app version is empty")
	}
	if c.Artifact == "" {
		return util.WrapError(util.ErrInvalidConfig, "feed: artifact name is empty")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return util.WrapError(util.ErrInvalidConfig, fmt.Sprintf("feed: base URL %q is not absolute", c.BaseURL))
		}
	}
	return nil
}

// Server serves the manifest and artifacts over HTTP.
type Server struct {
	config  Config
	metrics *metrics.Metrics
	httpSrv *http.Server
}

// New creates a feed server from the given configuration.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		config:  cfg,
		metrics: metrics.New(),
	}, nil
}

// Router builds the feed's HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/v1/manifest.json", s.handleManifest)
	r.Get("/artifacts/{name}", s.handleArtifact)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	return r
}

// Start runs the feed until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // artifacts may be large
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("feed listening", "addr", s.config.Listen, "version", s.config.AppVersion)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// manifest assembles the document agents poll. The field names are the
// external contract shared with internal/updater.
func (s *Server) manifest(r *http.Request) updater.Manifest {
	base := s.config.BaseURL
	if base == "" {
		// Fall back to the address the client reached us on.
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return updater.Manifest{
		AppVersion: s.config.AppVersion,
		UpdateLink: strings.TrimSuffix(base, "/") + "/artifacts/" + s.config.Artifact,
	}
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	s.metrics.ManifestRequests.Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.manifest(r)); err != nil {
		logging.FromContext(r.Context()).Debug("manifest encode failed", "error", err)
	}
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	// Artifact names are flat filenames; anything path-like is rejected.
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.Error(w, "invalid artifact name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.config.ArtifactsDir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "artifact not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error("artifact open failed", "artifact", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.metrics.ArtifactDownloads.WithLabelValues(name).Inc()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))

	n, err := io.Copy(w, f)
	s.metrics.ArtifactBytes.WithLabelValues(name).Add(float64(n))
	if err != nil {
		logging.FromContext(r.Context()).Debug("artifact transfer aborted", "artifact", name, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// instrument records per-route request durations.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
