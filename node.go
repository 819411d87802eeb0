package tsinfer

// NodeFlagSample marks a node as a sample or ancestor node — i.e. a node
// whose child-chain must be contiguous over its own [start, end) interval,
// per spec.md §3's chain-contiguity invariant. Synthetic (path-compression)
// nodes carry flag 0.
const NodeFlagSample uint32 = 1

// NodeTable is the append-only time/flags arrays backing every node in a
// TreeSequenceBuilder. Nodes are never removed; ids are allocation order.
type NodeTable struct {
	Time  []float64
	Flags []uint32
}

// AddNode appends a node and returns its id.
func (t *NodeTable) AddNode(time float64, isSample bool) int {
	id := len(t.Time)
	t.Time = append(t.Time, time)
	var flags uint32
	if isSample {
		flags = NodeFlagSample
	}
	t.Flags = append(t.Flags, flags)
	return id
}

func (t *NodeTable) Len() int {
	return len(t.Time)
}

func (t *NodeTable) IsSample(id int) bool {
	return t.Flags[id]&NodeFlagSample != 0
}

// Restore replaces the table's contents wholesale, used by RestoreNodes.
func (t *NodeTable) Restore(times []float64, flags []uint32) error {
	if len(times) != len(flags) {
		return invalidInputf("node restore: %d times but %d flags", len(times), len(flags))
	}
	t.Time = append([]float64(nil), times...)
	t.Flags = append([]uint32(nil), flags...)
	return nil
}
