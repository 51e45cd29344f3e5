// Package version holds the build version string.
package version

import "strings"

// Version is set at build time via -ldflags "-X ...version.Version=v1.2.3".
var Version = "dev"

// IsDevelopmentVersion returns true for non-release versions.
func IsDevelopmentVersion(v string) bool {
	if v == "" || v == "unknown" || v == "dev" || v == "devel" {
		return true
	}
	return strings.HasPrefix(v, "devel+")
}
