package updater

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rennerdo30/ratatosk/internal/logging"
)

// Manifest is the remote update document. The field names are the external
// contract and must match deployed manifests exactly.
type Manifest struct {
	AppVersion string `json:"AppVersion"`
	UpdateLink string `json:"UpdateLink"`
}

// Valid reports whether the manifest carries usable update information.
func (m Manifest) Valid() bool {
	return m.AppVersion != "" && m.UpdateLink != ""
}

// Resolver fetches and parses the update manifest.
type Resolver struct {
	downloader *Downloader
	tempDir    string // empty means the OS default
}

// NewResolver creates a Resolver backed by the given Downloader.
func NewResolver(d *Downloader) *Resolver {
	return &Resolver{downloader: d}
}

// Fetch downloads the manifest at url to a throwaway temp file, parses it,
// and deletes the temp file whether or not parsing succeeded. It returns
// ok=false on transport failure, malformed JSON, or a missing AppVersion or
// UpdateLink field. A flaky endpoint is an expected condition, so no error
// surfaces to the caller.
func (r *Resolver) Fetch(ctx context.Context, url string) (Manifest, bool) {
	log := logging.WithComponent("updater")

	tmp, err := os.CreateTemp(r.tempDir, "ratatosk-manifest-*.json")
	if err != nil {
		log.Debug("manifest temp file creation failed", "error", err)
		return Manifest{}, false
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := r.downloader.Download(ctx, url, tmpPath, nil); err != nil {
		log.Debug("manifest download failed", "url", url, "error", err)
		return Manifest{}, false
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		log.Debug("manifest read failed", "error", err)
		return Manifest{}, false
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		log.Debug("manifest parse failed", "error", err)
		return Manifest{}, false
	}

	if !m.Valid() {
		log.Debug("manifest missing AppVersion or UpdateLink")
		return Manifest{}, false
	}

	return m, true
}
