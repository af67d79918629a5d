package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/system.txt
var systemRaw string

// System returns the fixed oracle instruction. The embed is compile-time, so
// this is safe to call concurrently.
func System() string {
	return strings.TrimSpace(systemRaw)
}
