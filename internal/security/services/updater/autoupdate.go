package updater

// AutoUpdate decides whether the host may apply an update for itemSlug
// unattended. For our own slug the persisted setting wins; for every other
// plugin the host's current decision is returned untouched.
func AutoUpdate(itemSlug, slug string, current, enabled bool) bool {
	if itemSlug != "" && itemSlug == slug {
		return enabled
	}
	return current
}
