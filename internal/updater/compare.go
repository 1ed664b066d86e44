package updater

// UpdateAvailable reports whether the remote version should replace the
// current one. The policy is bare string inequality: any difference,
// including case, whitespace, or formatting, counts as an update, so
// "1.0" vs "0.9" registers the same as "1.0" vs "2.0". Semantic ordering
// is intentionally out of scope; deployments publish exactly the version
// string they expect agents to run.
func UpdateAvailable(current, remote string) bool {
	return current != remote
}
