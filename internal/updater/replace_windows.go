//go:build windows

package updater

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

const helperPattern = "ratatosk-swap-*.cmd"

// helperScript renders the cmd helper. timeout needs at least one second;
// copy /Y sets ERRORLEVEL on failure, which gates the relaunch. del of the
// staged file and of the script itself runs regardless.
func helperScript(stagedPath, targetPath string, graceSecs int) string {
	if graceSecs < 1 {
		graceSecs = 1
	}
	return fmt.Sprintf("@echo off\r\n"+
		"timeout /t %d /nobreak >nul\r\n"+
		"copy /Y \"%s\" \"%s\" >nul\r\n"+
		"if not errorlevel 1 start \"\" \"%s\"\r\n"+
		"del \"%s\" >nul 2>&1\r\n"+
		"del \"%%~f0\"\r\n",
		graceSecs, stagedPath, targetPath, targetPath, stagedPath)
}

// launchDetached starts the helper detached from this console so it
// survives the process exiting.
func launchDetached(scriptPath, workDir string) error {
	cmd := exec.Command("cmd", "/C", scriptPath)
	cmd.Dir = workDir
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
