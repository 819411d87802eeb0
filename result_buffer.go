package tsinfer

import (
	"sort"
	"sync"
)

// MatchResult is one child's find_path output: the (left, right, parent)
// segments to insert plus any mismatch mutations to record alongside them.
type MatchResult struct {
	Child           int
	Lefts           []int
	Rights          []int
	Parents         []int
	MismatchSites   []int
	MismatchDerived []uint8
}

// ResultBuffer is the shared, mutex-guarded sink that concurrent find_path
// workers write into during an epoch, per spec.md §5: "Results go into a
// shared result buffer guarded by a mutex." A single subsequent pass reads
// it back in ascending child-id order to drive add_path/add_mutations.
type ResultBuffer struct {
	mu      sync.Mutex
	results map[int]*MatchResult
}

// NewResultBuffer creates an empty buffer.
func NewResultBuffer() *ResultBuffer {
	return &ResultBuffer{results: make(map[int]*MatchResult)}
}

// Put records one child's result. Concurrency-safe.
func (r *ResultBuffer) Put(res *MatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[res.Child] = res
}

// Get retrieves a child's result, if present.
func (r *ResultBuffer) Get(child int) (*MatchResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[child]
	return res, ok
}

// SortedChildIDs returns every recorded child id in ascending order, the
// order path insertion must follow (§5).
func (r *ResultBuffer) SortedChildIDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.results))
	for id := range r.results {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
