// Package analytics tracks in-process usage counters for the advice service:
// how many queries were received and how the answered ones distribute over
// waste categories. Counters live in memory only and reset on restart;
// durable metrics go through the Prometheus registry in internal/server
// instead.
package analytics

import "sync"

// residualCategory is excluded from the recycling rate: residual waste is
// the one category that is not recycled.
const residualCategory = "residual"

// Counters accumulates query statistics. Safe for concurrent use.
type Counters struct {
	mu         sync.Mutex
	total      int64
	byCategory map[string]int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	// TotalQueries is the number of received queries, answered or not.
	TotalQueries int64 `json:"total_queries"`
	// ByCategory maps each seen category to its answered-query count.
	ByCategory map[string]int64 `json:"categories"`
	// MostCommon is the category with the highest count, empty when no
	// queries have been answered.
	MostCommon string `json:"most_common_category,omitempty"`
	// RecyclingRate is the share of all received queries that resolved to
	// a recyclable category, in [0,1].
	RecyclingRate float64 `json:"recycling_rate"`
}

// New returns zeroed counters.
func New() *Counters {
	return &Counters{byCategory: make(map[string]int64)}
}

// RecordQuery counts one received query. Callers record every query,
// whether or not it produces a confident answer.
func (c *Counters) RecordQuery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
}

// RecordCategory counts one confidently answered query for the given
// category. The total is tracked separately by RecordQuery.
func (c *Counters) RecordCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCategory[category]++
}

// Snapshot returns a consistent copy of the current counts. The returned
// map is owned by the caller.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		TotalQueries: c.total,
		ByCategory:   make(map[string]int64, len(c.byCategory)),
	}

	var best int64
	var recyclable int64
	for category, n := range c.byCategory {
		snap.ByCategory[category] = n
		if category != residualCategory {
			recyclable += n
		}
		// Ties resolve to the lexically smaller name so snapshots are
		// deterministic.
		if n > best || (n == best && best > 0 && category < snap.MostCommon) {
			best = n
			snap.MostCommon = category
		}
	}

	if c.total > 0 {
		snap.RecyclingRate = float64(recyclable) / float64(c.total)
	}
	return snap
}
