package keys

import (
	"strconv"
	"strings"
)

const recentPrefix = "recent_"

// Recent returns the storage key of a recent object of the given kind.
// The netuid is always the suffix after the last '_', so distinct
// (kind, netuid) pairs never collide.
func Recent(kind string, netuid uint16) string {
	var b strings.Builder
	b.Grow(len(recentPrefix) + len(kind) + 1 + 5)
	b.WriteString(recentPrefix)
	b.WriteString(kind)
	b.WriteByte('_')
	b.WriteString(strconv.FormatUint(uint64(netuid), 10))
	return b.String()
}
