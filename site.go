package tsinfer

import "fmt"

// UnknownAllele is the sentinel byte used in wire buffers and partially
// materialized haplotypes for "not yet known at this position".
const UnknownAllele uint8 = 255

// Site is a read-only description of one variable genomic position.
// Position is strictly increasing in SiteID across a GenotypeSource.
type Site struct {
	SiteID     int
	Position   float64
	Ancestral  string
	Derived    string
	Genotypes  []uint8 // one entry per sample, values in {0, 1}
}

// Frequency returns f_i = sum(g_i), the number of samples carrying the
// derived (1) allele at this site.
func (s *Site) Frequency() int {
	f := 0
	for _, g := range s.Genotypes {
		if g == 1 {
			f++
		}
	}
	return f
}

// IsInferenceSite reports whether 1 < f < N: variable sites that are
// neither invariant nor singleton, and thus actually carry phylogenetic
// signal for the copying process.
func (s *Site) IsInferenceSite(numSamples int) bool {
	f := s.Frequency()
	return f > 1 && f < numSamples
}

// GenotypeSource is the external, read-only provider of site metadata and
// per-site sample genotype vectors. Persistent/columnar storage of this
// data is out of the core's scope; only this interface is specified.
type GenotypeSource interface {
	NumSamples() int
	NumSites() int
	SequenceLength() float64
	Site(siteID int) (*Site, error)
	// SampleMetadata and SiteMetadata pass opaque per-sample / per-site
	// blobs through unexamined by the core.
	SampleMetadata(sampleID int) []byte
	SiteMetadata(siteID int) []byte
}

// InMemoryGenotypeSource is a simple slice-backed GenotypeSource, useful
// for tests and for small CLI invocations that load an entire matrix into
// memory. It validates its invariants eagerly at construction time the way
// the core's add_* operations validate theirs.
type InMemoryGenotypeSource struct {
	numSamples     int
	sequenceLength float64
	sites          []*Site
	sampleMeta     [][]byte
	siteMeta       [][]byte
}

// NewInMemoryGenotypeSource validates and wraps a dense site list.
func NewInMemoryGenotypeSource(numSamples int, sequenceLength float64, sites []*Site) (*InMemoryGenotypeSource, error) {
	lastPos := -1.0
	first := true
	for i, s := range sites {
		if s.SiteID != i {
			return nil, invalidInputf("site %d: site_id must equal its position in the source (got %d)", i, s.SiteID)
		}
		if s.Position < 0 {
			return nil, invalidInputf("site %d: negative position %f", i, s.Position)
		}
		if s.Position >= sequenceLength {
			return nil, invalidInputf("site %d: position %f >= sequence_length %f", i, s.Position, sequenceLength)
		}
		if !first && s.Position <= lastPos {
			return nil, invalidInputf("site %d: position %f is not strictly increasing (previous %f)", i, s.Position, lastPos)
		}
		lastPos = s.Position
		first = false
		if len(s.Genotypes) != numSamples {
			return nil, invalidInputf("site %d: genotype vector has %d entries, want %d", i, len(s.Genotypes), numSamples)
		}
		for _, g := range s.Genotypes {
			if g > 1 {
				return nil, invalidInputf("site %d: non-biallelic genotype value %d", i, g)
			}
		}
	}
	return &InMemoryGenotypeSource{
		numSamples:     numSamples,
		sequenceLength: sequenceLength,
		sites:          sites,
		sampleMeta:     make([][]byte, numSamples),
		siteMeta:       make([][]byte, len(sites)),
	}, nil
}

func (s *InMemoryGenotypeSource) NumSamples() int         { return s.numSamples }
func (s *InMemoryGenotypeSource) NumSites() int            { return len(s.sites) }
func (s *InMemoryGenotypeSource) SequenceLength() float64 { return s.sequenceLength }

func (s *InMemoryGenotypeSource) Site(siteID int) (*Site, error) {
	if siteID < 0 || siteID >= len(s.sites) {
		return nil, invalidInputf("site index %d out of range [0, %d)", siteID, len(s.sites))
	}
	return s.sites[siteID], nil
}

func (s *InMemoryGenotypeSource) SampleMetadata(sampleID int) []byte {
	if sampleID < 0 || sampleID >= len(s.sampleMeta) {
		return nil
	}
	return s.sampleMeta[sampleID]
}

func (s *InMemoryGenotypeSource) SiteMetadata(siteID int) []byte {
	if siteID < 0 || siteID >= len(s.siteMeta) {
		return nil
	}
	return s.siteMeta[siteID]
}

// SetSampleMetadata stores an opaque metadata blob for a sample, passed
// through unexamined to downstream consumers.
func (s *InMemoryGenotypeSource) SetSampleMetadata(sampleID int, blob []byte) {
	s.sampleMeta[sampleID] = blob
}

// SetSiteMetadata stores an opaque metadata blob for a site.
func (s *InMemoryGenotypeSource) SetSiteMetadata(siteID int, blob []byte) {
	s.siteMeta[siteID] = blob
}

func (s *Site) String() string {
	return fmt.Sprintf("Site(id=%d, pos=%g, freq=%d)", s.SiteID, s.Position, s.Frequency())
}
