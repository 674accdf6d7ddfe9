package version

import (
	"strings"
	"testing"
)

func TestInfoString(t *testing.T) {
	Version, Commit = "1.2.3", "abc123"
	t.Cleanup(func() { Version, Commit = "dev", "unknown" })

	out := Get().String()
	if !strings.Contains(out, "version: 1.2.3") || !strings.Contains(out, "commit: abc123") {
		t.Fatalf("unexpected output %q", out)
	}
	if UserAgent() != "rockwatch/1.2.3" {
		t.Fatalf("unexpected user agent %s", UserAgent())
	}
}
