package tsinfer

import (
	"sort"
)

// builderSite is one inference site registered with the AncestorBuilder.
// SiteID here lives in the builder's own dense [0, numSites) space, which
// covers only inference sites — the orchestrator is responsible for mapping
// this space back to the GenotypeSource's global site indices.
type builderSite struct {
	siteID     int
	frequency  int
	genotypes  []uint8
	registered bool
}

// Descriptor is an (frequency, focal_sites) tuple as emitted by
// AncestorDescriptors, in the deterministic order spec.md §4.1 requires.
type Descriptor struct {
	Frequency  int
	FocalSites []int
}

// AncestorBuilder synthesizes putative ancestral haplotypes from the
// site-by-sample genotype matrix restricted to inference sites. See
// spec.md §4.1.
type AncestorBuilder struct {
	numSamples int
	numSites   int
	sites      []builderSite
	// frequencyMap[f][patternKey] holds the list of site ids sharing the
	// exact genotype byte pattern, at frequency f. patternKey is the raw
	// genotype bytes, so that lexicographic iteration of keys matches
	// "lexicographic order of the raw genotype bytes" per spec.md §4.1.
	frequencyMap map[int]map[string][]int
}

// NewAncestorBuilder creates an empty builder for numSamples samples over
// numSites inference sites.
func NewAncestorBuilder(numSamples, numSites int) *AncestorBuilder {
	return &AncestorBuilder{
		numSamples:   numSamples,
		numSites:     numSites,
		sites:        make([]builderSite, numSites),
		frequencyMap: make(map[int]map[string][]int),
	}
}

// AddSite registers one inference site. Frequency must be > 1 (singletons
// and invariant sites are not inference sites and must not be registered).
func (b *AncestorBuilder) AddSite(siteID, frequency int, genotypes []uint8) error {
	if siteID < 0 || siteID >= b.numSites {
		return invalidInputf("site %d out of range [0, %d)", siteID, b.numSites)
	}
	if frequency <= 1 {
		return invalidInputf("site %d: frequency %d must be > 1 for an inference site", siteID, frequency)
	}
	if len(genotypes) != b.numSamples {
		return invalidInputf("site %d: genotype vector has %d entries, want %d", siteID, len(genotypes), b.numSamples)
	}
	gcopy := make([]uint8, len(genotypes))
	copy(gcopy, genotypes)
	b.sites[siteID] = builderSite{siteID: siteID, frequency: frequency, genotypes: gcopy, registered: true}

	patternMap, ok := b.frequencyMap[frequency]
	if !ok {
		patternMap = make(map[string][]int)
		b.frequencyMap[frequency] = patternMap
	}
	key := string(gcopy)
	patternMap[key] = append(patternMap[key], siteID)
	return nil
}

// AncestorDescriptors emits (frequency, focal_sites) tuples in decreasing
// frequency; within a frequency, pattern keys are iterated in lexicographic
// byte order (a deterministic tie-break independent of registration order),
// and each pattern's site list may be split into runs by the break rule.
func (b *AncestorBuilder) AncestorDescriptors() ([]Descriptor, error) {
	for i := range b.sites {
		if !b.sites[i].registered {
			return nil, invalidInputf("site %d was never registered via AddSite", i)
		}
	}
	var out []Descriptor
	for freq := b.numSamples; freq >= 0; freq-- {
		patternMap, ok := b.frequencyMap[freq]
		if !ok {
			continue
		}
		keys := make([]string, 0, len(patternMap))
		for k := range patternMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			sites := append([]int(nil), patternMap[key]...)
			sort.Ints(sites)
			samples := patternSamples([]byte(key))
			start := 0
			for j := 0; j < len(sites)-1; j++ {
				if b.breakAncestor(sites[j], sites[j+1], samples) {
					out = append(out, Descriptor{Frequency: freq, FocalSites: append([]int(nil), sites[start:j+1]...)})
					start = j + 1
				}
			}
			out = append(out, Descriptor{Frequency: freq, FocalSites: append([]int(nil), sites[start:]...)})
		}
	}
	return out, nil
}

func patternSamples(key []byte) []bool {
	samples := make([]bool, len(key))
	for i, v := range key {
		samples[i] = v == 1
	}
	return samples
}

// breakAncestor reports whether the run should be split after site a,
// before site b: there must be an intervening inference site k with a
// strictly higher frequency than a, whose genotypes restricted to the
// pattern-1 samples are neither all-0 nor all-1.
func (b *AncestorBuilder) breakAncestor(a, bSite int, samples []bool) bool {
	freqA := b.sites[a].frequency
	for k := a + 1; k < bSite; k++ {
		sk := b.sites[k]
		if sk.frequency > freqA {
			allOne, allZero := true, true
			for i, inPattern := range samples {
				if !inPattern {
					continue
				}
				if sk.genotypes[i] == 1 {
					allZero = false
				} else {
					allOne = false
				}
			}
			if !allOne && !allZero {
				return true
			}
		}
	}
	return false
}

// extendSites fills a[l] for each site l in sites, given the focal
// frequency/sample-set of the ancestor being built, per spec.md §4.1 steps
// 2-4. It stops (leaving the remainder of sites untouched/UNKNOWN) at the
// first older, ambiguous site, matching the original's "stop rightward
// extension" behavior.
func (b *AncestorBuilder) extendSites(sites []int, focalFrequency int, samples []bool, a []uint8) {
	for _, l := range sites {
		sl := b.sites[l]
		if sl.frequency > focalFrequency {
			numOnes, total := 0, 0
			for i, inPattern := range samples {
				if !inPattern {
					continue
				}
				total++
				if sl.genotypes[i] == 1 {
					numOnes++
				}
			}
			if numOnes == total {
				a[l] = 1
			} else if numOnes == 0 {
				a[l] = 0
			} else {
				break
			}
		} else {
			a[l] = 0
		}
	}
}

// MakeAncestor materializes the haplotype for one descriptor's focal
// sites, per spec.md §4.1. focalSites must be the strictly increasing,
// nonempty list from a Descriptor emitted by this same builder.
func (b *AncestorBuilder) MakeAncestor(focalSites []int) (start, end int, haplotype []uint8, err error) {
	if len(focalSites) == 0 {
		return 0, 0, nil, invalidAncestorf("MakeAncestor called with no focal sites")
	}
	a := make([]uint8, b.numSites)
	for i := range a {
		a[i] = UnknownAllele
	}
	first, last := focalSites[0], focalSites[len(focalSites)-1]
	freq := b.sites[first].frequency
	samples := make([]bool, b.numSamples)
	for i, g := range b.sites[first].genotypes {
		samples[i] = g == 1
	}

	rightSites := make([]int, 0, b.numSites-last-1)
	for l := last + 1; l < b.numSites; l++ {
		rightSites = append(rightSites, l)
	}
	b.extendSites(rightSites, freq, samples, a)

	leftSites := make([]int, 0, first)
	for l := first - 1; l >= 0; l-- {
		leftSites = append(leftSites, l)
	}
	b.extendSites(leftSites, freq, samples, a)

	focalSet := make(map[int]bool, len(focalSites))
	for _, f := range focalSites {
		focalSet[f] = true
	}
	for j := first; j <= last; j++ {
		if focalSet[j] {
			a[j] = 1
		} else {
			b.extendSites([]int{j}, freq, samples, a)
		}
	}

	s, e := -1, -1
	for i, v := range a {
		if v != UnknownAllele {
			if s == -1 {
				s = i
			}
			e = i + 1
		}
	}
	if s == -1 {
		return 0, 0, nil, invalidAncestorf("MakeAncestor produced an all-unknown haplotype for focal sites %v", focalSites)
	}
	return s, e, a[s:e], nil
}

// AssignTimes assigns integer times to descriptors in their emission order,
// giving each distinct frequency the next unused time value starting at 1,
// per spec.md §3. It also returns the root and ultimate-ancestor times.
func AssignTimes(descriptors []Descriptor) (times map[int]uint32, rootTime, ultimateTime uint32) {
	times = make(map[int]uint32)
	next := uint32(1)
	for _, d := range descriptors {
		if _, ok := times[d.Frequency]; !ok {
			times[d.Frequency] = next
			next++
		}
	}
	rootTime = next
	ultimateTime = next + 1
	return times, rootTime, ultimateTime
}
