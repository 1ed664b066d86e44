package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rennerdo30/ratatosk/internal/logging"
)

// Outcome is the tri-state result of a check-and-apply cycle.
type Outcome int

const (
	// OutcomeNoUpdate means the remote version matches the running one.
	OutcomeNoUpdate Outcome = iota

	// OutcomeUpdated means the helper was handed the swap. With the real
	// replacer the process exits before this value is ever observed; it
	// exists as the documented contract and for testing the orchestration
	// with a fake replacer.
	OutcomeUpdated

	// OutcomeFailed means the cycle stopped before the handoff; the error
	// returned alongside says why.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoUpdate:
		return "no-update"
	case OutcomeUpdated:
		return "updated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// manifestResolver and artifactStager are the seams the orchestrator is
// tested through.
type manifestResolver interface {
	Fetch(ctx context.Context, url string) (Manifest, bool)
}

type artifactStager interface {
	Stage(ctx context.Context, url string) (string, error)
}

// Updater orchestrates one check-and-apply cycle.
type Updater struct {
	config   Config
	current  string // version string of the running executable
	target   string // resolved path of the running executable
	resolver manifestResolver
	stager   artifactStager
	replacer Replacer
	state    *State
}

// New creates an Updater for the given current version. Failing to resolve
// the running executable or the state file is a configuration failure and
// surfaces here, at startup, rather than as a silent false later.
func New(cfg Config, currentVersion string) (*Updater, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	target, err := executablePath()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTarget, err)
	}

	statePath := cfg.StateFile
	if statePath == "" {
		statePath = DefaultStatePath()
	}
	state, err := LoadState(statePath)
	if err != nil {
		return nil, fmt.Errorf("load update state: %w", err)
	}

	d := NewDownloader(cfg.RequestTimeout, cfg.Retries)

	return &Updater{
		config:   cfg,
		current:  currentVersion,
		target:   target,
		resolver: NewResolver(d),
		stager:   NewStager(d, cfg.StagingName),
		replacer: NewScriptReplacer(cfg.RelaunchGrace),
		state:    state,
	}, nil
}

// CheckAndApply runs one update cycle: fetch the manifest, compare
// versions, stage the artifact, and hand the swap to the helper.
//
// On the success path this call DOES NOT RETURN: the process exits inside
// it once the helper is launched. Callers must treat everything after the
// call as the no-update or failure path, the same way the relaunch-based
// contract reads in the agent's main.
func (u *Updater) CheckAndApply(ctx context.Context) (Outcome, error) {
	log := logging.WithComponent("updater")

	log.Info("checking for updates", "url", u.config.ManifestURL, "current", u.current)

	manifest, ok := u.resolver.Fetch(ctx, u.config.ManifestURL)
	if !ok {
		return OutcomeFailed, ErrManifestUnavailable
	}

	if !UpdateAvailable(u.current, manifest.AppVersion) {
		log.Info("up to date", "version", u.current)
		return OutcomeNoUpdate, nil
	}

	log.Info("update available", "remote", manifest.AppVersion, "link", manifest.UpdateLink)

	staged, err := u.stager.Stage(ctx, manifest.UpdateLink)
	if err != nil {
		return OutcomeFailed, err
	}

	if err := u.state.MarkPending(manifest.AppVersion, staged); err != nil {
		// The swap can proceed without the marker; the next launch just
		// cannot report on it.
		log.Warn("failed to record pending update", "error", err)
	}

	log.Info("applying update", "staged", staged, "target", u.target)

	if err := u.replacer.Replace(staged, u.target); err != nil {
		return OutcomeFailed, err
	}

	return OutcomeUpdated, nil
}

// ResolvePrevious reports and clears the outcome of the last recorded
// update attempt, if any. Call it once at startup.
func (u *Updater) ResolvePrevious() *PreviousAttempt {
	return u.state.ResolvePrevious(u.current)
}

// CheckAndApply is the host-facing one-shot entry point: it builds an
// updater with defaults for the given current version, optionally
// overriding the manifest endpoint, and runs one cycle. The same
// never-returns-on-success contract as Updater.CheckAndApply applies.
func CheckAndApply(ctx context.Context, currentVersion, manifestURL string) (Outcome, error) {
	cfg := DefaultConfig()
	if manifestURL != "" {
		cfg.ManifestURL = manifestURL
	}

	u, err := New(cfg, currentVersion)
	if err != nil {
		return OutcomeFailed, err
	}
	return u.CheckAndApply(ctx)
}

// executablePath resolves the running executable, following symlinks so
// the helper swaps the real file.
func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
