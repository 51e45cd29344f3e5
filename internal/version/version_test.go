package version

import "testing"

func TestIsDevelopmentVersion(t *testing.T) {
	dev := []string{"", "unknown", "dev", "devel", "devel+abc123"}
	for _, v := range dev {
		if !IsDevelopmentVersion(v) {
			t.Errorf("%q should be a development version", v)
		}
	}
	release := []string{"v1.0.0", "v0.3.1", "1.2.3"}
	for _, v := range release {
		if IsDevelopmentVersion(v) {
			t.Errorf("%q should be a release version", v)
		}
	}
}
