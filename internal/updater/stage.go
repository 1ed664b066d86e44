package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Stager downloads the candidate executable to the staging path.
//
// The staged file lives in the temp directory under a fixed name, which is
// distinct from the running executable's path by construction. There is no
// uniqueness token: two agents staging concurrently on one machine would
// collide. That matches the deployed contract and is documented rather
// than fixed.
type Stager struct {
	downloader *Downloader
	dir        string // staging directory, empty means the OS temp dir
	name       string
}

// NewStager creates a Stager that stages under the given filename.
func NewStager(d *Downloader, name string) *Stager {
	return &Stager{downloader: d, name: name}
}

// Stage downloads the artifact at url and returns the staged path.
func (s *Stager) Stage(ctx context.Context, url string) (string, error) {
	dir := s.dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, s.name)

	if err := s.downloader.Download(ctx, url, path, nil); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return path, nil
}
