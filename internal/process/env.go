package process

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// BuildEnvironment merges extra variables over the inherited environment.
// Extra values win. Keys are emitted in sorted order for reproducibility.
func BuildEnvironment(extra map[string]string) []string {
	merged := make(map[string]string)

	for _, kv := range os.Environ() {
		if idx := strings.Index(kv, "="); idx > 0 {
			merged[kv[:idx]] = kv[idx+1:]
		}
	}
	for k, v := range extra {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, merged[k]))
	}
	return env
}
