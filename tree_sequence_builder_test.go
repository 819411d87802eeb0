package tsinfer

import "testing"

func newTestBuilder(t *testing.T, numSites int) *TreeSequenceBuilder {
	t.Helper()
	return NewTreeSequenceBuilder(numSites)
}

func TestAddNodeAssignsAscendingIDs(t *testing.T) {
	b := newTestBuilder(t, 10)
	for i := 0; i < 5; i++ {
		id, err := b.AddNode(float64(i+1), i == 4)
		if err != nil {
			t.Fatalf("AddNode: %s", err)
		}
		if id != i {
			t.Fatalf("AddNode returned id %d, want %d", id, i)
		}
	}
}

func TestAddPathRejectsNonIncreasingTime(t *testing.T) {
	b := newTestBuilder(t, 10)
	root, _ := b.AddNode(1, false)
	child, _ := b.AddNode(1, false) // same time as root, not strictly greater
	err := b.AddPath(child, []int{0}, []int{10}, []int{root}, false)
	if err == nil {
		t.Fatal("expected an error adding a path to a same-or-older-time parent")
	}
}

func TestAddPathSquashesAdjacentSegments(t *testing.T) {
	b := newTestBuilder(t, 10)
	root, _ := b.AddNode(2, false)
	child, _ := b.AddNode(1, false)
	if err := b.AddPath(child, []int{0, 5}, []int{5, 10}, []int{root, root}, false); err != nil {
		t.Fatalf("AddPath: %s", err)
	}
	chain := b.ChainOf(child)
	if len(chain) != 1 {
		t.Fatalf("expected squashed chain of length 1, got %d: %+v", len(chain), chain)
	}
	if chain[0].Left != 0 || chain[0].Right != 10 {
		t.Fatalf("squashed edge is [%d, %d), want [0, 10)", chain[0].Left, chain[0].Right)
	}
}

func TestAddPathRejectsSecondCallForSameChild(t *testing.T) {
	b := newTestBuilder(t, 10)
	root, _ := b.AddNode(2, false)
	child, _ := b.AddNode(1, false)
	if err := b.AddPath(child, []int{0}, []int{10}, []int{root}, false); err != nil {
		t.Fatalf("AddPath: %s", err)
	}
	if err := b.AddPath(child, []int{0}, []int{10}, []int{root}, false); err == nil {
		t.Fatal("expected an error re-adding a path for a child that already has one")
	}
}

func TestCompressPathCreatesSyntheticParent(t *testing.T) {
	b := newTestBuilder(t, 10)
	p1, _ := b.AddNode(5, false)
	p2, _ := b.AddNode(4, false)
	c1, _ := b.AddNode(1, true)
	c2, _ := b.AddNode(1, true)

	if err := b.AddPath(c1, []int{0, 5}, []int{5, 10}, []int{p1, p2}, false); err != nil {
		t.Fatalf("AddPath(c1): %s", err)
	}
	numNodesBefore := b.NumNodes()
	if err := b.AddPath(c2, []int{0, 5}, []int{5, 10}, []int{p1, p2}, true); err != nil {
		t.Fatalf("AddPath(c2, compress): %s", err)
	}
	if b.NumNodes() != numNodesBefore+1 {
		t.Fatalf("expected compression to add exactly one synthetic node, got %d new nodes", b.NumNodes()-numNodesBefore)
	}
	synthetic := b.NumNodes() - 1
	if b.NodeIsSample(synthetic) {
		t.Fatal("synthetic path-compression node must not be flagged as a sample")
	}
	c2Chain := b.ChainOf(c2)
	if len(c2Chain) != 1 || c2Chain[0].Parent != synthetic {
		t.Fatalf("expected c2's single edge to parent the synthetic node, got %+v", c2Chain)
	}
}

func TestCheckStateAcceptsAWellFormedTree(t *testing.T) {
	b := newTestBuilder(t, 10)
	root, _ := b.AddNode(2, false)
	child, _ := b.AddNode(1, true)
	if err := b.AddPath(child, []int{0}, []int{10}, []int{root}, false); err != nil {
		t.Fatalf("AddPath: %s", err)
	}
	if err := b.CheckState(); err != nil {
		t.Fatalf("CheckState rejected a well-formed tree: %s", err)
	}
}

func TestAddMutationsRoundTrip(t *testing.T) {
	b := newTestBuilder(t, 10)
	root, _ := b.AddNode(2, false)
	child, _ := b.AddNode(1, true)
	if err := b.AddPath(child, []int{0}, []int{10}, []int{root}, false); err != nil {
		t.Fatalf("AddPath: %s", err)
	}
	if err := b.AddMutations(child, []int{3, 7}, []uint8{1, 1}); err != nil {
		t.Fatalf("AddMutations: %s", err)
	}
	if got := b.MutationNodeAtSite(3); got != child {
		t.Fatalf("MutationNodeAtSite(3) = %d, want %d", got, child)
	}
}
