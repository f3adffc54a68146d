package models

import (
	"cmp"
	"slices"
)

// SpreadLog contains the cumulative number of reached nodes after each completed
// step. The first entry is always 1 (the seed), e.g. {1, 4, 9, 9+...}.
type SpreadLog []int

// Reach() returns the total number of nodes reached, which is the last entry
// of the log. An empty log counts as the seed alone.
func (log SpreadLog) Reach() int {
	if len(log) == 0 {
		return 1
	}
	return log[len(log)-1]
}

// Steps() returns the number of completed steps, the seed step included.
func (log SpreadLog) Steps() int {
	return len(log)
}

// SpreaderResult associates a seed node with its total reach.
type SpreaderResult struct {
	NodeID uint32
	Reach  int
}

// SortByReach() sorts the results by descending reach. Ties are broken by
// ascending nodeID so that the ranking is stable across runs.
func SortByReach(results []SpreaderResult) {
	slices.SortFunc(results, func(a, b SpreaderResult) int {
		if c := cmp.Compare(b.Reach, a.Reach); c != 0 {
			return c
		}
		return cmp.Compare(a.NodeID, b.NodeID)
	})
}
