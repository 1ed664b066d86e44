package updater

import (
	"fmt"
	"net/url"
	"time"
)

// defaultManifestURL is the compile-time default update endpoint. Hosts
// normally override it per deployment.
const defaultManifestURL = "https://rennerdo30.github.io/ratatosk/manifest.json"

// Config holds updater configuration. It is read-only after construction
// and passed into New; nothing in the package reaches for globals.
type Config struct {
	// ManifestURL is the endpoint serving the update manifest.
	ManifestURL string

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration

	// Retries is how many times a failed download is retried.
	Retries int

	// RelaunchGrace is how long the helper waits for this process to exit
	// before swapping the executable.
	RelaunchGrace time.Duration

	// StagingName is the fixed filename the candidate binary is staged
	// under in the temp directory.
	StagingName string

	// StateFile is where the pending-attempt marker lives. Empty selects
	// the per-OS default.
	StateFile string
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ManifestURL:    defaultManifestURL,
		RequestTimeout: 30 * time.Second,
		Retries:        1,
		RelaunchGrace:  2 * time.Second,
		StagingName:    "ratatosk-update.new",
		StateFile:      DefaultStatePath(),
	}
}

// Validate checks the configuration for usability.
func (c Config) Validate() error {
	if c.ManifestURL == "" {
		return fmt.Errorf("%w: manifest URL is empty", ErrInvalidConfig)
	}
	u, err := url.Parse(c.ManifestURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: manifest URL %q is not absolute", ErrInvalidConfig, c.ManifestURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: negative request timeout", ErrInvalidConfig)
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: negative retry count", ErrInvalidConfig)
	}
	if c.StagingName == "" {
		return fmt.Errorf("%w: staging name is empty", ErrInvalidConfig)
	}
	return nil
}
