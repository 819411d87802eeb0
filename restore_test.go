package tsinfer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestDumpRestoreRoundTrip checks spec.md §8 property 8: dumping a
// TreeSequenceBuilder and restoring it into a fresh one reproduces an
// identical node/edge/mutation state.
func TestDumpRestoreRoundTrip(t *testing.T) {
	b := NewTreeSequenceBuilder(12)
	root, _ := b.AddNode(5, false)
	mid, _ := b.AddNode(3, false)
	leaf1, _ := b.AddNode(1, true)
	leaf2, _ := b.AddNode(1, true)

	if err := b.AddPath(mid, []int{0}, []int{12}, []int{root}, false); err != nil {
		t.Fatalf("AddPath(mid): %s", err)
	}
	if err := b.AddPath(leaf1, []int{0, 6}, []int{6, 12}, []int{mid, root}, false); err != nil {
		t.Fatalf("AddPath(leaf1): %s", err)
	}
	if err := b.AddPath(leaf2, []int{0}, []int{12}, []int{mid}, false); err != nil {
		t.Fatalf("AddPath(leaf2): %s", err)
	}
	if err := b.AddMutations(leaf1, []int{2, 9}, []uint8{1, 1}); err != nil {
		t.Fatalf("AddMutations: %s", err)
	}

	wantTimes, wantFlags := b.DumpNodes()
	wantLeft, wantRight, wantParent, wantChild := b.DumpEdges()
	wantSites, wantNodes, wantStates, _ := b.DumpMutations()

	restored := NewTreeSequenceBuilder(12)
	if err := restored.RestoreNodes(wantTimes, wantFlags); err != nil {
		t.Fatalf("RestoreNodes: %s", err)
	}
	if err := restored.RestoreEdges(wantLeft, wantRight, wantParent, wantChild); err != nil {
		t.Fatalf("RestoreEdges: %s", err)
	}
	if err := restored.RestoreMutations(wantSites, wantNodes, wantStates); err != nil {
		t.Fatalf("RestoreMutations: %s", err)
	}

	gotTimes, gotFlags := restored.DumpNodes()
	if diff := cmp.Diff(wantTimes, gotTimes); diff != "" {
		t.Errorf("node times differ after round-trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantFlags, gotFlags); diff != "" {
		t.Errorf("node flags differ after round-trip (-want +got):\n%s", diff)
	}

	gotLeft, gotRight, gotParent, gotChild := restored.DumpEdges()
	if diff := cmp.Diff(wantLeft, gotLeft); diff != "" {
		t.Errorf("edge lefts differ after round-trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantRight, gotRight); diff != "" {
		t.Errorf("edge rights differ after round-trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantParent, gotParent); diff != "" {
		t.Errorf("edge parents differ after round-trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantChild, gotChild); diff != "" {
		t.Errorf("edge children differ after round-trip (-want +got):\n%s", diff)
	}

	gotSites, gotNodes, gotStates, _ := restored.DumpMutations()
	if diff := cmp.Diff(wantSites, gotSites); diff != "" {
		t.Errorf("mutation sites differ after round-trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantNodes, gotNodes); diff != "" {
		t.Errorf("mutation nodes differ after round-trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantStates, gotStates); diff != "" {
		t.Errorf("mutation derived states differ after round-trip (-want +got):\n%s", diff)
	}
}

// TestSquashChainIsIdempotent checks spec.md §8 property 7.
func TestSquashChainIsIdempotent(t *testing.T) {
	b := NewTreeSequenceBuilder(12)
	root, _ := b.AddNode(2, false)
	child, _ := b.AddNode(1, false)
	if err := b.AddPath(child, []int{0, 4, 8}, []int{4, 8, 12}, []int{root, root, root}, false); err != nil {
		t.Fatalf("AddPath: %s", err)
	}
	first := b.edges.ChainIndices(child)
	squashedOnce := b.squashChain(first)
	squashedTwice := b.squashChain(squashedOnce)
	if diff := cmp.Diff(squashedOnce, squashedTwice); diff != "" {
		t.Errorf("re-squashing an already-squashed chain changed it (-once +twice):\n%s", diff)
	}
}
