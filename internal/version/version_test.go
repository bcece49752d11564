package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	Version, Commit, BuildDate = "1.2.3", "abc123", "2025-09-01"
	t.Cleanup(func() { Version, Commit, BuildDate = "dev", "unknown", "unknown" })

	out := String()
	for _, want := range []string{"jackpotwatch 1.2.3", "commit: abc123", "built: 2025-09-01"} {
		if !strings.Contains(out, want) {
			t.Fatalf("版本信息缺少 %q: %q", want, out)
		}
	}
}
