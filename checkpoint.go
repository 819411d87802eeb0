package tsinfer

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// treeSequenceCheckpoint is the on-disk shape of a dumped TreeSequenceBuilder,
// used only to hand state from bin/match-ancestors to bin/match-samples and
// to store bin/match-samples' final result (bin/build-ancestors hands its
// output on through the SQLite ancestor sink instead). Persistent/columnar
// tree-sequence storage proper is out of the core's scope (spec.md §1); this
// is CLI-internal checkpoint plumbing, not a core interface.
type treeSequenceCheckpoint struct {
	NumSites      int
	NodeTimes     []float64
	NodeFlags     []uint32
	EdgeLeft      []int
	EdgeRight     []int
	EdgeParent    []int
	EdgeChild     []int
	MutationSite  []int
	MutationNode  []int
	MutationState []uint8
}

// SaveTreeSequence writes tsb's dumped state to path via encoding/gob.
func SaveTreeSequence(tsb *TreeSequenceBuilder, path string) error {
	times, flags := tsb.DumpNodes()
	left, right, parent, child := tsb.DumpEdges()
	sites, nodes, states, _ := tsb.DumpMutations()
	cp := treeSequenceCheckpoint{
		NumSites:      tsb.NumSites(),
		NodeTimes:     times,
		NodeFlags:     flags,
		EdgeLeft:      left,
		EdgeRight:     right,
		EdgeParent:    parent,
		EdgeChild:     child,
		MutationSite:  sites,
		MutationNode:  nodes,
		MutationState: states,
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating checkpoint %s", path)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(cp); err != nil {
		return errors.Wrapf(err, "encoding checkpoint %s", path)
	}
	return nil
}

// LoadTreeSequence reconstructs a TreeSequenceBuilder from a checkpoint
// written by SaveTreeSequence.
func LoadTreeSequence(path string) (*TreeSequenceBuilder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening checkpoint %s", path)
	}
	defer f.Close()
	var cp treeSequenceCheckpoint
	if err := gob.NewDecoder(f).Decode(&cp); err != nil {
		return nil, errors.Wrapf(err, "decoding checkpoint %s", path)
	}
	tsb := NewTreeSequenceBuilder(cp.NumSites)
	if err := tsb.RestoreNodes(cp.NodeTimes, cp.NodeFlags); err != nil {
		return nil, err
	}
	if err := tsb.RestoreEdges(cp.EdgeLeft, cp.EdgeRight, cp.EdgeParent, cp.EdgeChild); err != nil {
		return nil, err
	}
	if err := tsb.RestoreMutations(cp.MutationSite, cp.MutationNode, cp.MutationState); err != nil {
		return nil, err
	}
	return tsb, nil
}
