package tsinfer

import (
	"log"
	"runtime"
	"sort"
	"sync"
)

// InferenceOrchestrator drives the three phases of spec.md §4.4 over a
// GenotypeSource: generate_ancestors, match_ancestors, and match_samples. It
// owns no state of its own beyond configuration; all mutable state lives in
// the TreeSequenceBuilder and AncestorSink passed to it, matching the
// teacher's simulation-loop shape (bin/contagion/main.go), which drives a
// config-built simulation/logger pair rather than holding state itself.
type InferenceOrchestrator struct {
	NumThreads      int
	PathCompression bool
	Telemetry       *CSVTelemetryLogger
}

// NewInferenceOrchestrator builds an orchestrator from a RunConfig.
func NewInferenceOrchestrator(cfg RunConfig, telemetry *CSVTelemetryLogger) *InferenceOrchestrator {
	threads := cfg.NumThreads
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	return &InferenceOrchestrator{
		NumThreads:      threads,
		PathCompression: cfg.PathCompression,
		Telemetry:       telemetry,
	}
}

// inferenceSite is one site restricted to the dense inference-site space the
// AncestorBuilder and TreeSequenceBuilder operate over.
type inferenceSite struct {
	globalID int
	site     *Site
}

// buildInferenceSites scans every site in source and keeps only the ones
// spec.md §4.1 calls inference sites (1 < frequency < N), in ascending
// global order; the returned slice's index is the dense local site id.
func buildInferenceSites(source GenotypeSource) ([]inferenceSite, error) {
	n := source.NumSamples()
	var out []inferenceSite
	for g := 0; g < source.NumSites(); g++ {
		s, err := source.Site(g)
		if err != nil {
			return nil, err
		}
		if s.IsInferenceSite(n) {
			out = append(out, inferenceSite{globalID: g, site: s})
		}
	}
	return out, nil
}

// GenerateAncestors implements spec.md §4.4's generate_ancestors phase: it
// registers every inference site with a fresh AncestorBuilder, computes
// descriptors and times, then appends the ultimate ancestor, the root
// ancestor, and every builder-emitted ancestor to sink, in that order
// (sink ids 0 and 1 are always the ultimate and root ancestors,
// respectively, per spec.md §3). Descriptor haplotypes are materialized in
// parallel across NumThreads workers, keyed by descriptor index, and
// committed to the single-writer sink in ascending-index order by a drain
// loop running in the calling goroutine — the same "one ordered commit pass after a
// parallel production phase" shape as match_ancestors (§5).
func (o *InferenceOrchestrator) GenerateAncestors(source GenotypeSource, sink AncestorSink) (inferenceSites []inferenceSite, err error) {
	sites, err := buildInferenceSites(source)
	if err != nil {
		return nil, err
	}
	builder := NewAncestorBuilder(source.NumSamples(), len(sites))
	for local, is := range sites {
		if err := builder.AddSite(local, is.site.Frequency(), is.site.Genotypes); err != nil {
			return nil, err
		}
	}
	descriptors, err := builder.AncestorDescriptors()
	if err != nil {
		return nil, err
	}
	times, rootTime, ultimateTime := AssignTimes(descriptors)

	ultimate := ultimateAncestor(len(sites), ultimateTime)
	if _, err := sink.Append(ultimate.Start, ultimate.End, ultimate.Time, ultimate.FocalSites, ultimate.Haplotype); err != nil {
		return nil, err
	}
	root := rootAncestor(len(sites), rootTime)
	if _, err := sink.Append(root.Start, root.End, root.Time, root.FocalSites, root.Haplotype); err != nil {
		return nil, err
	}

	if len(descriptors) == 0 {
		return sites, nil
	}

	type job struct {
		index      int
		descriptor Descriptor
	}
	type result struct {
		index             int
		start, end        int
		haplotype         []uint8
		err               error
	}

	jobs := make(chan job)
	results := make(chan result)
	var wg sync.WaitGroup
	for w := 0; w < o.NumThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				start, end, hap, err := builder.MakeAncestor(j.descriptor.FocalSites)
				results <- result{index: j.index, start: start, end: end, haplotype: hap, err: err}
			}
		}()
	}
	go func() {
		for i, d := range descriptors {
			jobs <- job{index: i, descriptor: d}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	// Drain results through a pending buffer keyed by index so they commit to
	// the single-writer sink in ascending descriptor-index order, even
	// though workers finish out of order (§5).
	pending := make(map[int]result)
	next := 0
	for r := range results {
		if r.err != nil {
			err = r.err
			continue
		}
		pending[r.index] = r
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			d := descriptors[ready.index]
			if _, appendErr := sink.Append(ready.start, ready.end, times[d.Frequency], d.FocalSites, ready.haplotype); appendErr != nil {
				err = appendErr
			}
			next++
		}
	}
	if err != nil {
		return nil, err
	}
	return sites, nil
}

// MatchAncestors implements spec.md §4.4's match_ancestors phase: it seeds
// node 0 directly from the ultimate ancestor (never matched, since it *is*
// the tree's base case — it has the largest time of anything in the sink),
// then processes every remaining ancestor (the root ancestor plus every
// builder-emitted one) in epochs ordered by strictly decreasing time,
// matching every epoch's members concurrently against a shared
// ResultBuffer before committing their paths/mutations to tsb in ascending
// node-id order — the concurrency shape spec.md §5 mandates.
func (o *InferenceOrchestrator) MatchAncestors(tsb *TreeSequenceBuilder, sink AncestorSink) error {
	all := sink.All()
	if len(all) < 2 {
		return invalidInputf("match_ancestors: sink must contain at least the ultimate and root synthetic ancestors")
	}
	ultimate, root := all[0], all[1]

	ultimateNodeID, err := tsb.AddNode(float64(ultimate.Time), false)
	if err != nil {
		return err
	}
	if ultimateNodeID != 0 {
		return invalidInputf("match_ancestors: ultimate ancestor did not receive node id 0 (got %d)", ultimateNodeID)
	}
	if tsb.NumSites() == 0 {
		// No inference sites: there is no interval to match any ancestor
		// over, so node 0 is the whole genealogy.
		return nil
	}

	toMatch := append([]*Ancestor{root}, all[2:]...)
	sort.SliceStable(toMatch, func(i, j int) bool { return toMatch[i].Time > toMatch[j].Time })

	epochNum := 0
	for i := 0; i < len(toMatch); {
		t := toMatch[i].Time
		j := i
		for j < len(toMatch) && toMatch[j].Time == t {
			j++
		}
		epoch := append([]*Ancestor(nil), toMatch[i:j]...)
		sort.Slice(epoch, func(a, b int) bool { return epoch[a].ID < epoch[b].ID })

		nodeIDs := make([]int, len(epoch))
		for k, a := range epoch {
			// Ancestor nodes carry NodeFlagSample; only node 0 and
			// path-compression nodes carry flag 0.
			id, err := tsb.AddNode(float64(a.Time), true)
			if err != nil {
				return err
			}
			nodeIDs[k] = id
		}

		rb := NewResultBuffer()
		if err := o.runMatchEpoch(tsb, epoch, nodeIDs, rb); err != nil {
			return err
		}
		numEdges, err := o.commitEpoch(tsb, rb)
		if err != nil {
			return err
		}

		if o.Telemetry != nil {
			if err := o.Telemetry.WriteEpoch(epochNum, t, len(epoch), numEdges, 0); err != nil {
				log.Printf("warning: failed to write epoch telemetry: %s", err)
			}
		}
		epochNum++
		i = j
	}
	return nil
}

// runMatchEpoch matches every ancestor in epoch against tsb concurrently,
// bounded by o.NumThreads, writing each result into rb.
func (o *InferenceOrchestrator) runMatchEpoch(tsb *TreeSequenceBuilder, epoch []*Ancestor, nodeIDs []int, rb *ResultBuffer) error {
	sem := make(chan struct{}, o.NumThreads)
	var wg sync.WaitGroup
	errs := make(chan error, len(epoch))
	numSites := tsb.NumSites()
	for k, a := range epoch {
		wg.Add(1)
		sem <- struct{}{}
		go func(a *Ancestor, nodeID int) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := matchOneAncestor(tsb, numSites, a, nodeID)
			if err != nil {
				errs <- err
				return
			}
			rb.Put(res)
		}(a, nodeIDs[k])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// matchOneAncestor builds the padded haplotype buffer spec.md §4.4
// describes (UNKNOWN outside [start,end), the ancestor's own haplotype
// inside it, focal sites forced to 0 so find_path rediscovers them as
// mismatches) and records the resulting path plus an explicit derived-1
// mutation at each focal site — ancestors always claim their own focal
// sites, independent of what the matcher's match array says.
func matchOneAncestor(tsb *TreeSequenceBuilder, numSites int, a *Ancestor, nodeID int) (*MatchResult, error) {
	h := make([]uint8, numSites)
	for i := range h {
		h[i] = UnknownAllele
	}
	copy(h[a.Start:a.End], a.Haplotype)
	for _, f := range a.FocalSites {
		h[f] = 0
	}
	matcher := NewAncestorMatcher(tsb)
	lefts, rights, parents, _, err := matcher.FindPath(h, a.Start, a.End)
	if err != nil {
		return nil, err
	}
	derived := make([]uint8, len(a.FocalSites))
	for i := range derived {
		derived[i] = 1
	}
	return &MatchResult{
		Child:           nodeID,
		Lefts:           lefts,
		Rights:          rights,
		Parents:         parents,
		MismatchSites:   append([]int(nil), a.FocalSites...),
		MismatchDerived: derived,
	}, nil
}

// commitEpoch drains rb in ascending child-id order and applies each
// result's path and mutations to tsb, returning the number of path
// segments committed (used for telemetry).
func (o *InferenceOrchestrator) commitEpoch(tsb *TreeSequenceBuilder, rb *ResultBuffer) (int, error) {
	numEdges := 0
	for _, id := range rb.SortedChildIDs() {
		res, _ := rb.Get(id)
		if err := tsb.AddPath(res.Child, res.Lefts, res.Rights, res.Parents, o.PathCompression); err != nil {
			return numEdges, err
		}
		if len(res.MismatchSites) > 0 {
			if err := tsb.AddMutations(res.Child, res.MismatchSites, res.MismatchDerived); err != nil {
				return numEdges, err
			}
		}
		numEdges += len(res.Lefts)
	}
	return numEdges, nil
}

// MatchSamples implements spec.md §4.4's match_samples phase, generalized
// per SPEC_FULL §4's supplemented mismatch-derivation feature: every
// sample is matched against the final ancestor genealogy over the full
// inference-site interval [0, M), and any site where the matcher's
// reconstructed match array disagrees with the observed genotype becomes a
// mutation carrying the *observed* derived state (not a hardcoded 1).
// The inference-site set is recomputed from source, so MatchSamples can run
// as an independent CLI phase against a checkpointed TreeSequenceBuilder.
func (o *InferenceOrchestrator) MatchSamples(tsb *TreeSequenceBuilder, source GenotypeSource) error {
	sites, err := buildInferenceSites(source)
	if err != nil {
		return err
	}
	return o.matchSamplesWithSites(tsb, source, sites)
}

func (o *InferenceOrchestrator) matchSamplesWithSites(tsb *TreeSequenceBuilder, source GenotypeSource, sites []inferenceSite) error {
	numSites := len(sites)
	if numSites == 0 {
		return nil
	}
	numSamples := source.NumSamples()
	sampleGenotypes := make([][]uint8, numSamples)
	for local, is := range sites {
		for sample := 0; sample < numSamples; sample++ {
			if sampleGenotypes[sample] == nil {
				sampleGenotypes[sample] = make([]uint8, numSites)
			}
			sampleGenotypes[sample][local] = is.site.Genotypes[sample]
		}
	}

	nodeIDs := make([]int, numSamples)
	for sample := 0; sample < numSamples; sample++ {
		id, err := tsb.AddNode(0, true)
		if err != nil {
			return err
		}
		nodeIDs[sample] = id
	}

	rb := NewResultBuffer()
	sem := make(chan struct{}, o.NumThreads)
	var wg sync.WaitGroup
	errs := make(chan error, numSamples)
	for sample := 0; sample < numSamples; sample++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(sample, nodeID int) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := matchOneSample(tsb, numSites, sampleGenotypes[sample], nodeID)
			if err != nil {
				errs <- err
				return
			}
			rb.Put(res)
		}(sample, nodeIDs[sample])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	_, err := o.commitEpoch(tsb, rb)
	return err
}

// matchOneSample runs find_path over the sample's full haplotype and
// derives mismatch mutations by comparing the observed genotype against the
// matcher's reconstructed match array, per SPEC_FULL §4.
func matchOneSample(tsb *TreeSequenceBuilder, numSites int, haplotype []uint8, nodeID int) (*MatchResult, error) {
	matcher := NewAncestorMatcher(tsb)
	lefts, rights, parents, matchArray, err := matcher.FindPath(haplotype, 0, numSites)
	if err != nil {
		return nil, err
	}
	var mismatchSites []int
	var mismatchDerived []uint8
	for site := 0; site < numSites; site++ {
		if haplotype[site] != matchArray[site] {
			mismatchSites = append(mismatchSites, site)
			mismatchDerived = append(mismatchDerived, haplotype[site])
		}
	}
	return &MatchResult{
		Child:           nodeID,
		Lefts:           lefts,
		Rights:          rights,
		Parents:         parents,
		MismatchSites:   mismatchSites,
		MismatchDerived: mismatchDerived,
	}, nil
}

// Infer runs all three phases in order against a fresh TreeSequenceBuilder
// and returns it, the convenience entry point the bin/infer command uses.
func (o *InferenceOrchestrator) Infer(source GenotypeSource, sink AncestorSink) (*TreeSequenceBuilder, error) {
	sites, err := o.GenerateAncestors(source, sink)
	if err != nil {
		return nil, err
	}
	tsb := NewTreeSequenceBuilder(len(sites))
	if err := o.MatchAncestors(tsb, sink); err != nil {
		return nil, err
	}
	if err := o.matchSamplesWithSites(tsb, source, sites); err != nil {
		return nil, err
	}
	return tsb, nil
}
