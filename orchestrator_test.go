package tsinfer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTestSource(t *testing.T) *InMemoryGenotypeSource {
	t.Helper()
	// 6 samples, 5 sites: one invariant, one singleton, three inference
	// sites of varying frequency sharing a nested structure.
	sites := []*Site{
		{SiteID: 0, Position: 1, Ancestral: "A", Derived: "T", Genotypes: []uint8{0, 0, 0, 0, 0, 0}},             // invariant
		{SiteID: 1, Position: 2, Ancestral: "A", Derived: "T", Genotypes: []uint8{1, 0, 0, 0, 0, 0}},             // singleton
		{SiteID: 2, Position: 3, Ancestral: "A", Derived: "T", Genotypes: []uint8{1, 1, 1, 1, 0, 0}},             // freq 4
		{SiteID: 3, Position: 4, Ancestral: "A", Derived: "T", Genotypes: []uint8{1, 1, 1, 0, 0, 0}},             // freq 3
		{SiteID: 4, Position: 5, Ancestral: "A", Derived: "T", Genotypes: []uint8{1, 1, 0, 0, 0, 0}},             // freq 2
	}
	source, err := NewInMemoryGenotypeSource(6, 10, sites)
	require.NoError(t, err)
	return source
}

func TestInferEndToEnd(t *testing.T) {
	source := buildTestSource(t)
	sink := NewInMemoryAncestorSink()
	orchestrator := NewInferenceOrchestrator(RunConfig{NumThreads: 2, PathCompression: true}, nil)

	tsb, err := orchestrator.Infer(source, sink)
	require.NoError(t, err)
	require.NoError(t, tsb.CheckState())

	// node 0 is the ultimate ancestor; the root ancestor and at least 3
	// inference-site descriptors get their own node; every sample gets a
	// node too.
	require.GreaterOrEqual(t, tsb.NumNodes(), 1+1+3+source.NumSamples())

	// Sample nodes directly follow the one node per sink ancestor (this
	// input's ancestor paths are single edges, so no synthetic nodes come
	// before them); path compression may append synthetic nodes after them.
	for s := 0; s < source.NumSamples(); s++ {
		id := sink.Len() + s
		require.True(t, tsb.NodeIsSample(id), "sample node %d should be flagged as a sample", id)
	}
	require.False(t, tsb.NodeIsSample(0), "root node must not be flagged as a sample")
}

func TestInferIsDeterministicAcrossThreadCounts(t *testing.T) {
	source := buildTestSource(t)

	sink1 := NewInMemoryAncestorSink()
	o1 := NewInferenceOrchestrator(RunConfig{NumThreads: 1, PathCompression: true}, nil)
	tsb1, err := o1.Infer(source, sink1)
	require.NoError(t, err)

	sink4 := NewInMemoryAncestorSink()
	o4 := NewInferenceOrchestrator(RunConfig{NumThreads: 4, PathCompression: true}, nil)
	tsb4, err := o4.Infer(source, sink4)
	require.NoError(t, err)

	left1, right1, parent1, child1 := tsb1.DumpEdges()
	left4, right4, parent4, child4 := tsb4.DumpEdges()
	require.Equal(t, left1, left4, "edge lefts must be identical regardless of thread count")
	require.Equal(t, right1, right4, "edge rights must be identical regardless of thread count")
	require.Equal(t, parent1, parent4, "edge parents must be identical regardless of thread count")
	require.Equal(t, child1, child4, "edge children must be identical regardless of thread count")
}

func TestGenerateAncestorsPrependsSyntheticAncestors(t *testing.T) {
	source := buildTestSource(t)
	sink := NewInMemoryAncestorSink()
	orchestrator := NewInferenceOrchestrator(DefaultRunConfig(), nil)
	_, err := orchestrator.GenerateAncestors(source, sink)
	require.NoError(t, err)

	ultimate, err := sink.Get(0)
	require.NoError(t, err)
	root, err := sink.Get(1)
	require.NoError(t, err)
	require.Empty(t, ultimate.FocalSites)
	require.Empty(t, root.FocalSites)
	require.Equal(t, root.Time+1, ultimate.Time)
}
