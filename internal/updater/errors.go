// Package updater implements self-update for Ratatosk binaries: manifest
// resolution, staging download, and the detached helper swap that replaces
// the running executable.
package updater

import "errors"

var (
	// ErrManifestUnavailable indicates the update manifest could not be
	// fetched or did not contain usable update information.
	ErrManifestUnavailable = errors.New("update manifest unavailable")

	// ErrDownloadFailed indicates the staging download could not be completed.
	ErrDownloadFailed = errors.New("download failed")

	// ErrNetworkError indicates a network-related failure.
	ErrNetworkError = errors.New("network error")

	// ErrNoTarget indicates the running executable path could not be resolved.
	ErrNoTarget = errors.New("cannot resolve running executable")

	// ErrHelperLaunch indicates the replacement helper could not be started.
	ErrHelperLaunch = errors.New("helper launch failed")

	// ErrInvalidConfig indicates the updater configuration is unusable.
	ErrInvalidConfig = errors.New("invalid updater configuration")
)
