// Package refresh keeps recent cache entries warm: tasks fetch the latest
// block, its timestamp and a payload from the chain and save them, a job
// fans tasks out over partitions, and a scheduler runs jobs on a fixed
// interval.
package refresh

import "time"

// margin is how many blocks before the effective limit a refresh is due.
const margin = 10

// Interval derives the refresh period from the freshness limits:
//
//	effective = min(hard/2, soft)
//	blocks    = max(effective-10, 1)
//	interval  = blocks * blockTime
//
// This leaves a margin of refreshes before the soft limit and at least two
// before the hard limit.
func Interval(soft, hard int64, blockTime time.Duration) time.Duration {
	effective := min(floorDiv(hard, 2), soft)
	blocks := max(effective-margin, 1)
	return time.Duration(blocks) * blockTime
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
