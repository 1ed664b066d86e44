package updater

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rennerdo30/ratatosk/internal/logging"
)

// Replacer swaps the running executable for a staged one. Implementations
// that perform a real swap never return on success: the process terminates
// inside Replace.
type Replacer interface {
	Replace(stagedPath, targetPath string) error
}

// ScriptReplacer implements the detached-helper swap. A running executable
// cannot overwrite its own file, so Replace writes a short helper script
// with three paths baked in (the staged artifact, the target executable,
// and the script itself), launches it without waiting, and terminates the
// current process unconditionally. From that point the helper owns the
// update: it sleeps out the grace period so the OS releases the file
// handle, copies staged over target, relaunches the target only if the
// copy succeeded, and deletes the staged file and itself either way.
//
// The handoff is one-way. A failure inside the helper cannot reach a
// process that has already exited; the pending-attempt state marker is how
// the next launch finds out.
type ScriptReplacer struct {
	grace time.Duration
	dir   string    // where the helper script is written, empty means the OS temp dir
	exit  func(int) // os.Exit, swapped out in tests
}

// NewScriptReplacer creates a replacer whose helper waits the given grace
// period before swapping.
func NewScriptReplacer(grace time.Duration) *ScriptReplacer {
	return &ScriptReplacer{grace: grace, exit: os.Exit}
}

// Replace launches the helper and terminates the process. It returns only
// if the helper could not be prepared or started.
func (r *ScriptReplacer) Replace(stagedPath, targetPath string) error {
	scriptPath, err := r.writeScript(stagedPath, targetPath)
	if err != nil {
		return err
	}

	if err := launchDetached(scriptPath, filepath.Dir(targetPath)); err != nil {
		os.Remove(scriptPath)
		return fmt.Errorf("%w: %v", ErrHelperLaunch, err)
	}

	logging.WithComponent("updater").Info("helper launched, exiting for swap",
		"script", scriptPath, "target", targetPath)
	r.exit(0)
	return nil // unreachable with the real exit func
}

func (r *ScriptReplacer) writeScript(stagedPath, targetPath string) (string, error) {
	f, err := os.CreateTemp(r.dir, helperPattern)
	if err != nil {
		return "", fmt.Errorf("create helper script: %w", err)
	}
	path := f.Name()

	if _, err := f.WriteString(helperScript(stagedPath, targetPath, graceSeconds(r.grace))); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write helper script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("finalize helper script: %w", err)
	}
	if err := os.Chmod(path, 0o700); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("chmod helper script: %w", err)
	}
	return path, nil
}

// graceSeconds converts the grace period to whole seconds for the script.
func graceSeconds(d time.Duration) int {
	return int(d / time.Second)
}
