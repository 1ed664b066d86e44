//go:build !windows

package updater

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelperScript_BindsAllThreePaths(t *testing.T) {
	script := helperScript("/tmp/staged.new", "/usr/local/bin/agent", 2)

	assert.Contains(t, script, `"/tmp/staged.new"`)
	assert.Contains(t, script, `"/usr/local/bin/agent"`)
	assert.Contains(t, script, `rm -f -- "$0"`, "helper must delete itself")
	assert.Contains(t, script, "sleep 2")
	assert.True(t, strings.HasPrefix(script, "#!/bin/sh\n"))
}

func TestGraceSeconds(t *testing.T) {
	assert.Equal(t, 2, graceSeconds(2*time.Second))
	assert.Equal(t, 0, graceSeconds(500*time.Millisecond))
	assert.Equal(t, 0, graceSeconds(0))
}

func TestScriptReplacer_WriteScript(t *testing.T) {
	dir := t.TempDir()
	r := NewScriptReplacer(2 * time.Second)
	r.dir = dir

	path, err := r.writeScript("/tmp/staged.new", "/opt/agent")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/tmp/staged.new")
	assert.Contains(t, string(data), "/opt/agent")
}

// TestScriptReplacer_Replace runs the generated helper against filesystem
// fixtures: a fake target and a staged "binary" that records its own
// relaunch. It verifies the whole helper contract (copy, relaunch, staged
// cleanup, self-delete) without touching the real executable.
func TestScriptReplacer_Replace(t *testing.T) {
	dir := t.TempDir()

	marker := filepath.Join(dir, "relaunched")
	stagedContent := "#!/bin/sh\ntouch " + marker + "\n"

	staged := filepath.Join(dir, "agent-update.new")
	require.NoError(t, os.WriteFile(staged, []byte(stagedContent), 0o644))

	target := filepath.Join(dir, "agent")
	require.NoError(t, os.WriteFile(target, []byte("old binary"), 0o755))

	exited := false
	r := NewScriptReplacer(0)
	r.dir = dir
	r.exit = func(code int) {
		exited = true
		assert.Equal(t, 0, code)
	}

	require.NoError(t, r.Replace(staged, target))
	assert.True(t, exited, "Replace must terminate the process after the handoff")

	// The helper runs detached; give it time to finish.
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(marker); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, stagedContent, string(data), "staged bytes must land on the target path")

	_, err = os.Stat(marker)
	assert.NoError(t, err, "helper should have relaunched the target")

	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err), "helper should delete the staged file")

	scripts, err := filepath.Glob(filepath.Join(dir, "ratatosk-swap-*"))
	require.NoError(t, err)
	assert.Empty(t, scripts, "helper should delete itself")
}

func TestScriptReplacer_Replace_FailedCopyStillCleansUp(t *testing.T) {
	dir := t.TempDir()

	// No staged file at all: the copy fails, so no relaunch happens, but
	// the helper still removes itself.
	staged := filepath.Join(dir, "missing.new")
	target := filepath.Join(dir, "agent")
	require.NoError(t, os.WriteFile(target, []byte("old binary"), 0o755))

	r := NewScriptReplacer(0)
	r.dir = dir
	r.exit = func(int) {}

	require.NoError(t, r.Replace(staged, target))

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		scripts, _ := filepath.Glob(filepath.Join(dir, "ratatosk-swap-*"))
		if len(scripts) == 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "old binary", string(data), "target must be untouched when the copy fails")

	scripts, err := filepath.Glob(filepath.Join(dir, "ratatosk-swap-*"))
	require.NoError(t, err)
	assert.Empty(t, scripts, "helper deletes itself even when the copy fails")
}
