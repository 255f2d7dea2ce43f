package updater

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// isNewer reports whether remote is strictly greater than installed using
// dotted version ordering ("1.10" > "1.9", "1.0" == "1.0.0"). Surrounding
// whitespace is ignored on both sides.
func isNewer(installed, remote string) (bool, error) {
	installed, remote = strings.TrimSpace(installed), strings.TrimSpace(remote)
	iv, err := goversion.NewVersion(installed)
	if err != nil {
		return false, fmt.Errorf("installed version %q: %w", installed, err)
	}
	rv, err := goversion.NewVersion(remote)
	if err != nil {
		return false, fmt.Errorf("remote version %q: %w", remote, err)
	}
	return iv.LessThan(rv), nil
}
