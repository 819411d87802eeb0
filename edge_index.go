package tsinfer

import (
	"golang.org/x/exp/slices"
)

// EdgeIndex is one of TreeSequenceBuilder's three ordered multi-indexes over
// edge-arena indices (spec.md §4.2/§9). It keeps a sorted slice of arena
// indices under a comparator and supports ordered iteration, insertion and
// removal in O(log n + n) (the n is the shift cost of a slice insert/delete,
// matching "arena allocation of edges with stable indices... the three
// indexes become ordered sets of indices with comparator functions").
type EdgeIndex struct {
	arena *EdgeArena
	cmp   func(arena *EdgeArena, a, b int) int
	order []int
}

// NewEdgeIndex creates an empty index over arena, ordered by cmp.
func NewEdgeIndex(arena *EdgeArena, cmp func(arena *EdgeArena, a, b int) int) *EdgeIndex {
	return &EdgeIndex{arena: arena, cmp: cmp}
}

func (idx *EdgeIndex) Len() int { return len(idx.order) }

// At returns the arena index stored at rank i.
func (idx *EdgeIndex) At(i int) int { return idx.order[i] }

// Insert adds arena index e to the index, preserving sort order.
func (idx *EdgeIndex) Insert(e int) {
	pos, _ := slices.BinarySearchFunc(idx.order, e, func(a, b int) int { return idx.cmp(idx.arena, a, b) })
	idx.order = slices.Insert(idx.order, pos, e)
}

// Remove deletes the first occurrence of arena index e. Reports whether it
// was found.
func (idx *EdgeIndex) Remove(e int) bool {
	pos, found := slices.BinarySearchFunc(idx.order, e, func(a, b int) int { return idx.cmp(idx.arena, a, b) })
	if !found {
		return false
	}
	// BinarySearchFunc only guarantees *a* match under the comparator, not
	// necessarily this exact arena index if duplicates compare equal; scan
	// forward/backward among ties to find the exact slot.
	for i := pos; i < len(idx.order) && idx.cmp(idx.arena, idx.order[i], e) == 0; i++ {
		if idx.order[i] == e {
			idx.order = slices.Delete(idx.order, i, i+1)
			return true
		}
	}
	for i := pos - 1; i >= 0 && idx.cmp(idx.arena, idx.order[i], e) == 0; i-- {
		if idx.order[i] == e {
			idx.order = slices.Delete(idx.order, i, i+1)
			return true
		}
	}
	return false
}

// Reset clears the index.
func (idx *EdgeIndex) Reset() {
	idx.order = idx.order[:0]
}

// All returns a copy of the current ordered arena indices.
func (idx *EdgeIndex) All() []int {
	out := make([]int, len(idx.order))
	copy(out, idx.order)
	return out
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ilCompare orders by (left, time[child], child) ascending.
func ilCompare(nodes *NodeTable) func(arena *EdgeArena, a, b int) int {
	return func(arena *EdgeArena, a, b int) int {
		ea, eb := arena.Edge(a), arena.Edge(b)
		if c := cmpInt(ea.Left, eb.Left); c != 0 {
			return c
		}
		if c := cmpFloat(nodes.Time[ea.Child], nodes.Time[eb.Child]); c != 0 {
			return c
		}
		return cmpInt(ea.Child, eb.Child)
	}
}

// irCompare orders by (right, -time[child], child) ascending, i.e. time
// descending within equal right.
func irCompare(nodes *NodeTable) func(arena *EdgeArena, a, b int) int {
	return func(arena *EdgeArena, a, b int) int {
		ea, eb := arena.Edge(a), arena.Edge(b)
		if c := cmpInt(ea.Right, eb.Right); c != 0 {
			return c
		}
		if c := cmpFloat(nodes.Time[eb.Child], nodes.Time[ea.Child]); c != 0 {
			return c
		}
		return cmpInt(ea.Child, eb.Child)
	}
}

// ipCompare orders by (left, right, parent, child) ascending.
func ipCompare() func(arena *EdgeArena, a, b int) int {
	return func(arena *EdgeArena, a, b int) int {
		ea, eb := arena.Edge(a), arena.Edge(b)
		if c := cmpInt(ea.Left, eb.Left); c != 0 {
			return c
		}
		if c := cmpInt(ea.Right, eb.Right); c != 0 {
			return c
		}
		if c := cmpInt(ea.Parent, eb.Parent); c != 0 {
			return c
		}
		return cmpInt(ea.Child, eb.Child)
	}
}
