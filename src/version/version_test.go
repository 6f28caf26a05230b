package version

import (
	"strings"
	"testing"
)

// TestFlagEmpty fails if version.Flag is not empty. Release builds must not
// carry a development flag.
func TestFlagEmpty(t *testing.T) {
	if len(Flag) > 0 {
		t.Fatalf("Version Flag is not empty: %s", Flag)
	}
}

func TestVersionPrefix(t *testing.T) {
	if !strings.HasPrefix(Version, "0.1.0") {
		t.Fatalf("Version should start with 0.1.0, got %s", Version)
	}
}
