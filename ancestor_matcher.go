package tsinfer

import "sort"

// AncestorMatcher is a per-thread copying-HMM state machine that runs
// against a TreeSequenceBuilder's indexed edges, per spec.md §4.3. Each
// find_path call is self-contained: all per-call scratch state (parent
// array, likelihoods, active set, traceback map) is freshly allocated, so a
// single AncestorMatcher value may be reused serially across many targets,
// matching §5's "per-thread matcher state is exclusively owned and never
// shared" discipline — one matcher per worker goroutine.
type AncestorMatcher struct {
	tsb      *TreeSequenceBuilder
	numSites int

	// ExtendedChecks mirrors the original's extended_checks option. The
	// matcher never reads it and has no check_likelihoods pass.
	ExtendedChecks bool

	stats MatcherStats
}

// MatcherStats tracks the original's mean_traceback_size / memory
// accounting telemetry (SPEC_FULL §4). The orchestrator creates one matcher
// per target and does not read these stats, so the mean_traceback_size
// column MatchAncestors writes through the CSV telemetry logger is always 0.
type MatcherStats struct {
	SitesProcessed   int
	TracebackEntries int
}

// MeanTracebackSize returns the running average size of the per-site
// traceback map, or 0 if no sites have been processed yet.
func (s MatcherStats) MeanTracebackSize() float64 {
	if s.SitesProcessed == 0 {
		return 0
	}
	return float64(s.TracebackEntries) / float64(s.SitesProcessed)
}

// NewAncestorMatcher creates a matcher bound to tsb.
func NewAncestorMatcher(tsb *TreeSequenceBuilder) *AncestorMatcher {
	return &AncestorMatcher{tsb: tsb, numSites: tsb.NumSites()}
}

// Stats returns the matcher's accumulated telemetry.
func (m *AncestorMatcher) Stats() MatcherStats { return m.stats }

// findPathState is the per-call scratch state for one FindPath invocation.
type findPathState struct {
	parent      []int
	childCount  []int
	active      map[int]bool
	likelihood  []Likelihood
	currentRoot int
	T           []map[int]bool
	argmaxNode  []int
	siteParent  [][]int
	ancestorCache *PathCache
	nearestCache  *PathCache
}

func newFindPathState(numNodes, numSites int) *findPathState {
	s := &findPathState{
		parent:       make([]int, numNodes),
		childCount:   make([]int, numNodes),
		active:       map[int]bool{0: true},
		likelihood:   make([]Likelihood, numNodes),
		currentRoot:  0,
		T:            make([]map[int]bool, numSites),
		argmaxNode:   make([]int, numSites),
		siteParent:   make([][]int, numSites),
		ancestorCache: NewPathCache(256),
		nearestCache:  NewPathCache(256),
	}
	for i := range s.parent {
		s.parent[i] = -1
		s.likelihood[i] = Missing
	}
	s.likelihood[0] = Match
	for i := range s.argmaxNode {
		s.argmaxNode[i] = -1
	}
	return s
}

// FindPath runs the copying HMM for one target haplotype over [start, end),
// returning the minimum-recombination path segments and the matcher's
// reconstructed match array (used by SPEC_FULL's sample mismatch-derivation
// feature, which needs the *observed* derived state at each mismatch).
func (m *AncestorMatcher) FindPath(haplotype []uint8, start, end int) (lefts, rights, parents []int, matchArray []uint8, err error) {
	if start < 0 || start >= end || end > m.numSites {
		return nil, nil, nil, nil, invalidInputf("find_path: invalid interval [%d, %d) over %d sites", start, end, m.numSites)
	}
	numNodes := m.tsb.NumNodes()
	st := newFindPathState(numNodes, m.numSites)

	pos := 0
	iL, iR := 0, 0
	ilLen, irLen := m.tsb.IlLen(), m.tsb.IrLen()
	for pos < m.numSites {
		for iR < irLen {
			e := m.tsb.IrEdge(iR)
			if e.Right != pos {
				break
			}
			m.removeEdge(st, e)
			iR++
		}
		m.handleRootSwitch(st)
		for iL < ilLen {
			e := m.tsb.IlEdge(iL)
			if e.Left != pos {
				break
			}
			st.parent[e.Child] = e.Parent
			st.childCount[e.Parent]++
			if st.likelihood[e.Child] == Missing && e.Child != 0 {
				st.likelihood[e.Child] = Mismatch
				st.active[e.Child] = true
			}
			iL++
		}

		nextLeft := m.numSites
		if iL < ilLen {
			nextLeft = m.tsb.IlEdge(iL).Left
		}
		nextRight := m.numSites
		if iR < irLen {
			nextRight = m.tsb.IrEdge(iR).Right
		}
		segEnd := nextLeft
		if nextRight < segEnd {
			segEnd = nextRight
		}
		if segEnd <= pos {
			segEnd = pos + 1
		}

		lo, hi := pos, segEnd
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		for s := lo; s < hi; s++ {
			m.updateSite(st, s, haplotype[s])
			m.compressLikelihoods(st, s)
			snap := append([]int(nil), st.parent...)
			st.siteParent[s] = snap
			m.stats.SitesProcessed++
			m.stats.TracebackEntries += len(st.T[s])
		}
		pos = segEnd
	}

	lefts, rights, parents, matchArray = m.runTraceback(st, start, end)
	return lefts, rights, parents, matchArray, nil
}

func (m *AncestorMatcher) removeEdge(st *findPathState, e Edge) {
	c, p := e.Child, e.Parent
	st.parent[c] = -1
	st.childCount[p]--
	if st.parent[c] == -1 && st.childCount[c] == 0 && c != 0 {
		st.likelihood[c] = Missing
		delete(st.active, c)
	}
	if st.parent[p] == -1 && st.childCount[p] == 0 && p != 0 {
		st.likelihood[p] = Missing
		delete(st.active, p)
	}
}

// handleRootSwitch implements spec.md §4.3 step 2: at most one non-0 root
// exists in the tree of interest; if the active orphan root changes,
// transfer the likelihood label from the old root to the new one.
func (m *AncestorMatcher) handleRootSwitch(st *findPathState) {
	newRoot := -1
	for n := range st.active {
		if n != 0 && st.parent[n] == -1 {
			newRoot = n
			break
		}
	}
	if newRoot != -1 && newRoot != st.currentRoot {
		lk := st.likelihood[st.currentRoot]
		if lk == Missing {
			lk = Mismatch
		}
		st.likelihood[newRoot] = lk
		st.active[newRoot] = true
		st.currentRoot = newRoot
	}
}

// updateSite implements spec.md §4.3's update_site.
func (m *AncestorMatcher) updateSite(st *findPathState, s int, state uint8) {
	st.ancestorCache.Reset()
	st.nearestCache.Reset()
	mNode := m.tsb.MutationNodeAtSite(s)
	if mNode != -1 && st.likelihood[mNode] == Compressed {
		lk := m.nearestActiveAncestorLikelihood(st, mNode)
		st.likelihood[mNode] = lk
		st.active[mNode] = true
	}

	active := make([]int, 0, len(st.active))
	for n := range st.active {
		active = append(active, n)
	}
	sort.Ints(active)

	traceback := make(map[int]bool, len(active))
	maxL := Missing
	argmax := -1
	for _, u := range active {
		var d int
		if mNode != -1 {
			if m.isAncestor(st, mNode, u) {
				d = 1
			}
		}
		traceback[u] = st.likelihood[u] == Mismatch
		if mNode != -1 && d != int(state) {
			st.likelihood[u] = Mismatch
		} else if st.likelihood[u] == Mismatch {
			st.likelihood[u] = Recomb
		}
		if st.likelihood[u] > maxL || (st.likelihood[u] == maxL && argmax == -1) {
			maxL = st.likelihood[u]
			argmax = u
		}
	}
	st.T[s] = traceback
	if maxL != Match {
		for _, u := range active {
			if st.likelihood[u] == maxL {
				st.likelihood[u] = Match
			}
		}
	}
	st.argmaxNode[s] = argmax
}

// compressLikelihoods implements spec.md §4.3's compress_likelihoods.
func (m *AncestorMatcher) compressLikelihoods(st *findPathState, s int) {
	st.nearestCache.Reset()
	active := make([]int, 0, len(st.active))
	for n := range st.active {
		active = append(active, n)
	}
	sort.Ints(active)
	for _, u := range active {
		if u == st.currentRoot {
			continue
		}
		nearest := m.nearestActiveAncestorLikelihood(st, u)
		if nearest == st.likelihood[u] {
			st.likelihood[u] = Compressed
			delete(st.active, u)
		}
	}
}

// nearestActiveAncestorLikelihood walks up from node's parent until it
// finds an active ancestor, caching the visited chain (spec.md §9's
// per-traversal-amortized path cache).
func (m *AncestorMatcher) nearestActiveAncestorLikelihood(st *findPathState, node int) Likelihood {
	var visited []int
	cur := st.parent[node]
	for cur != -1 {
		if v, ok := st.nearestCache.Get(cur); ok {
			for _, n := range visited {
				st.nearestCache.Put(n, v)
			}
			return Likelihood(v)
		}
		if st.active[cur] {
			lk := st.likelihood[cur]
			for _, n := range visited {
				st.nearestCache.Put(n, int(lk))
			}
			st.nearestCache.Put(cur, int(lk))
			return lk
		}
		visited = append(visited, cur)
		cur = st.parent[cur]
	}
	return st.likelihood[st.currentRoot]
}

// isAncestor reports whether mNode is an ancestor of u (or equals it),
// caching results along the traversed path.
func (m *AncestorMatcher) isAncestor(st *findPathState, mNode, u int) bool {
	if u == mNode {
		return true
	}
	var visited []int
	cur := u
	for cur != -1 {
		if v, ok := st.ancestorCache.Get(cur); ok {
			result := v == 1
			for _, n := range visited {
				st.ancestorCache.Put(n, v)
			}
			return result
		}
		if cur == mNode {
			for _, n := range visited {
				st.ancestorCache.Put(n, 1)
			}
			return true
		}
		visited = append(visited, cur)
		cur = st.parent[cur]
	}
	for _, n := range visited {
		st.ancestorCache.Put(n, 0)
	}
	return false
}

// runTraceback implements spec.md §4.3's run_traceback.
func (m *AncestorMatcher) runTraceback(st *findPathState, start, end int) (lefts, rights, parents []int, matchArray []uint8) {
	u := st.argmaxNode[end-1]
	curRight := end
	curParent := u
	required := make(map[int]bool)
	matchArray = make([]uint8, m.numSites)

	for l := end - 1; l >= start; l-- {
		mNode := m.tsb.MutationNodeAtSite(l)
		if mNode != -1 && isDescendant(st.siteParent[l], u, mNode) {
			matchArray[l] = 1
		}
		for node, bit := range st.T[l] {
			required[node] = bit
		}
		cur := u
		for {
			if bit, ok := required[cur]; ok {
				if bit && l > start {
					lefts = append(lefts, l)
					rights = append(rights, curRight)
					parents = append(parents, curParent)
					curRight = l
					u = st.argmaxNode[l-1]
					curParent = u
				}
				break
			}
			nxt := st.siteParent[l][cur]
			if nxt == -1 {
				break
			}
			cur = nxt
		}
		for node := range st.T[l] {
			delete(required, node)
		}
	}
	lefts = append(lefts, start)
	rights = append(rights, curRight)
	parents = append(parents, curParent)
	return lefts, rights, parents, matchArray
}

func isDescendant(parentSnapshot []int, u, ancestor int) bool {
	cur := u
	for cur != -1 {
		if cur == ancestor {
			return true
		}
		cur = parentSnapshot[cur]
	}
	return false
}
