package tsinfer

import (
	"testing"

	"pgregory.net/rapid"
)

func randomGenotypeSource(t *rapid.T) (*InMemoryGenotypeSource, bool) {
	numSamples := rapid.IntRange(4, 10).Draw(t, "numSamples")
	numSites := rapid.IntRange(1, 6).Draw(t, "numSites")
	sites := make([]*Site, numSites)
	for i := 0; i < numSites; i++ {
		genotypes := make([]uint8, numSamples)
		for s := 0; s < numSamples; s++ {
			genotypes[s] = uint8(rapid.IntRange(0, 1).Draw(t, "allele"))
		}
		sites[i] = &Site{SiteID: i, Position: float64(i) + 1, Ancestral: "A", Derived: "T", Genotypes: genotypes}
	}
	source, err := NewInMemoryGenotypeSource(numSamples, float64(numSites)+1, sites)
	if err != nil {
		return nil, false
	}
	return source, true
}

func dumpEdgesEqual(a, b *TreeSequenceBuilder) bool {
	l1, r1, p1, c1 := a.DumpEdges()
	l2, r2, p2, c2 := b.DumpEdges()
	return equalIntSlices(l1, l2) && equalIntSlices(r1, r2) && equalIntSlices(p1, p2) && equalIntSlices(c1, c2)
}

func equalIntSlices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestPropertyDeterminismAcrossThreadCounts checks spec.md §8 property 1:
// inference output is independent of worker-goroutine count.
func TestPropertyDeterminismAcrossThreadCounts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		source, ok := randomGenotypeSource(t)
		if !ok {
			t.Skip("degenerate genotype matrix")
		}

		sink1 := NewInMemoryAncestorSink()
		o1 := NewInferenceOrchestrator(RunConfig{NumThreads: 1, PathCompression: true}, nil)
		tsb1, err := o1.Infer(source, sink1)
		if err != nil {
			t.Fatalf("Infer(threads=1): %s", err)
		}

		sink3 := NewInMemoryAncestorSink()
		o3 := NewInferenceOrchestrator(RunConfig{NumThreads: 3, PathCompression: true}, nil)
		tsb3, err := o3.Infer(source, sink3)
		if err != nil {
			t.Fatalf("Infer(threads=3): %s", err)
		}

		if !dumpEdgesEqual(tsb1, tsb3) {
			t.Fatalf("edge dumps differ between thread counts 1 and 3")
		}
	})
}

// TestPropertyMutationsAreWellFormed checks that every recorded mutation
// names a real node and carries a binary derived state. It does not
// simulate allelic states down the genealogy (spec.md §8 property 5).
func TestPropertyMutationsAreWellFormed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		source, ok := randomGenotypeSource(t)
		if !ok {
			t.Skip("degenerate genotype matrix")
		}
		sink := NewInMemoryAncestorSink()
		o := NewInferenceOrchestrator(RunConfig{NumThreads: 2, PathCompression: true}, nil)
		tsb, err := o.Infer(source, sink)
		if err != nil {
			t.Fatalf("Infer: %s", err)
		}
		numNodes := tsb.NumNodes()
		_, nodes, derivedStates, _ := tsb.DumpMutations()
		for i, n := range nodes {
			if n < 0 || n >= numNodes {
				t.Fatalf("mutation %d names out-of-range node %d (numNodes=%d)", i, n, numNodes)
			}
			if derivedStates[i] > 1 {
				t.Fatalf("mutation %d has non-binary derived state %d", i, derivedStates[i])
			}
		}
	})
}
