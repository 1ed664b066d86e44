//go:build !windows

package updater

import (
	"fmt"
	"os/exec"
	"syscall"
)

const helperPattern = "ratatosk-swap-*.sh"

// helperScript renders the POSIX helper. The relaunch happens only if the
// copy succeeded; removal of the staged file and of the script itself
// happens regardless.
func helperScript(stagedPath, targetPath string, graceSecs int) string {
	return fmt.Sprintf(`#!/bin/sh
sleep %d
if cp -f %q %q; then
  chmod +x %q
  %q >/dev/null 2>&1 &
fi
rm -f %q
rm -f -- "$0"
`, graceSecs, stagedPath, targetPath, targetPath, targetPath, stagedPath)
}

// launchDetached starts the helper in its own session so it survives this
// process exiting.
func launchDetached(scriptPath, workDir string) error {
	cmd := exec.Command("/bin/sh", scriptPath)
	cmd.Dir = workDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
