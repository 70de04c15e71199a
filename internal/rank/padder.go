package rank

import (
	"strings"

	"github.com/sells-group/rivalscan/internal/domainutil"
)

// Pad fills primary up to n entries by borrowing from the pools in priority
// order. Entries already present (case-insensitive), blocked domains and
// self-domains of the target never get in. The result length is min(n,
// distinct admissible candidates).
func Pad(primary []string, n int, target string, blocked map[string]bool, pools ...[]string) []string {
	out := make([]string, 0, n)
	seen := make(map[string]struct{}, n)

	admit := func(d string) {
		if len(out) >= n {
			return
		}
		key := strings.ToLower(strings.TrimSpace(d))
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		if blocked[key] || domainutil.IsSelf(key, target) {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	for _, d := range primary {
		admit(d)
	}
	for _, pool := range pools {
		if len(out) >= n {
			break
		}
		for _, d := range pool {
			admit(d)
		}
	}
	return out
}
