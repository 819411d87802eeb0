package tsinfer

import "sort"

// Mutation is one (node, derived_state) entry in a site's mutation list.
type Mutation struct {
	Node         int
	DerivedState uint8
}

// MutationTable holds the per-site mutation lists, keyed by site index.
// Per spec.md §3: the first mutation at a site is ancestral-rooted (parent
// -1); any later entry whose derived state is 0 (a reversion) points back
// to the immediately preceding entry as its parent, otherwise it is also
// ancestral-rooted.
type MutationTable struct {
	numSites int
	bySite   [][]Mutation
}

// NewMutationTable creates an empty table over numSites sites.
func NewMutationTable(numSites int) *MutationTable {
	return &MutationTable{numSites: numSites, bySite: make([][]Mutation, numSites)}
}

// Add appends one mutation at site for the given node, in call order.
func (t *MutationTable) Add(site, node int, derivedState uint8) error {
	if site < 0 || site >= t.numSites {
		return invalidInputf("mutation at site %d out of range [0, %d)", site, t.numSites)
	}
	for _, m := range t.bySite[site] {
		if m.Node == node {
			return invalidInputf("mutation at site %d: node %d already has a mutation at this site", site, node)
		}
	}
	t.bySite[site] = append(t.bySite[site], Mutation{Node: node, DerivedState: derivedState})
	return nil
}

// At returns the mutation list for a site, in insertion (ascending parent
// dependency) order.
func (t *MutationTable) At(site int) []Mutation {
	return t.bySite[site]
}

// ParentOf returns the index, within site's mutation list, of the parent of
// the mutation at position i (-1 for ancestral-rooted).
func (t *MutationTable) ParentOf(site, i int) int {
	if i == 0 {
		return -1
	}
	if t.bySite[site][i].DerivedState == 0 {
		return i - 1
	}
	return -1
}

// NodeOfSite returns the node carrying the most recent mutation at site, or
// -1 if none. AncestorMatcher's update_site needs this lookup per site.
func (t *MutationTable) NodeOfSite(site int) int {
	ms := t.bySite[site]
	if len(ms) == 0 {
		return -1
	}
	return ms[len(ms)-1].Node
}

// Dump produces parallel arrays (site, node, derived_state, parent) in
// ascending site order, matching the external interface of spec.md §6.
func (t *MutationTable) Dump() (sites, nodes []int, derivedStates []uint8, parents []int) {
	for s := 0; s < t.numSites; s++ {
		for i, m := range t.bySite[s] {
			sites = append(sites, s)
			nodes = append(nodes, m.Node)
			derivedStates = append(derivedStates, m.DerivedState)
			parents = append(parents, t.ParentOf(s, i))
		}
	}
	return
}

// Restore rebuilds the table from dumped arrays, grouping by site while
// preserving each site-group's relative order.
func (t *MutationTable) Restore(sites, nodes []int, derivedStates []uint8) error {
	if len(sites) != len(nodes) || len(nodes) != len(derivedStates) {
		return invalidInputf("mutation restore: mismatched array lengths (%d, %d, %d)", len(sites), len(nodes), len(derivedStates))
	}
	type idxRec struct {
		order int
		site  int
		m     Mutation
	}
	recs := make([]idxRec, len(sites))
	for i := range sites {
		if sites[i] < 0 || sites[i] >= t.numSites {
			return invalidInputf("mutation restore: site %d out of range [0, %d)", sites[i], t.numSites)
		}
		recs[i] = idxRec{order: i, site: sites[i], m: Mutation{Node: nodes[i], DerivedState: derivedStates[i]}}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].site < recs[j].site })
	fresh := make([][]Mutation, t.numSites)
	for _, r := range recs {
		fresh[r.site] = append(fresh[r.site], r.m)
	}
	t.bySite = fresh
	return nil
}
