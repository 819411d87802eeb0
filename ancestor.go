package tsinfer

import "sync"

// Ancestor is a putative ancestral haplotype over a half-open site-index
// interval, tagged with a pseudo-time and the focal sites it is
// "responsible" for.
type Ancestor struct {
	ID         int
	Start      int
	End        int
	Time       uint32
	FocalSites []int
	Haplotype  []uint8 // length End-Start, UnknownAllele never appears
}

// Validate checks the §3 Ancestor invariants: 0 <= start < end <= M,
// focal sites strictly increasing within [start, end), and a 1 at every
// focal site.
func (a *Ancestor) Validate(numSites int) error {
	if a.Start < 0 || a.Start >= a.End || a.End > numSites {
		return invalidAncestorf("ancestor %d: invalid interval [%d, %d) over %d sites", a.ID, a.Start, a.End, numSites)
	}
	if len(a.Haplotype) != a.End-a.Start {
		return invalidAncestorf("ancestor %d: haplotype length %d does not match interval length %d", a.ID, len(a.Haplotype), a.End-a.Start)
	}
	if len(a.FocalSites) == 0 {
		return invalidAncestorf("ancestor %d: focal_sites is empty", a.ID)
	}
	last := -1
	for _, f := range a.FocalSites {
		if f <= last {
			return invalidAncestorf("ancestor %d: focal_sites not strictly increasing at %d", a.ID, f)
		}
		last = f
		if f < a.Start || f >= a.End {
			return invalidAncestorf("ancestor %d: focal site %d outside interval [%d, %d)", a.ID, f, a.Start, a.End)
		}
		if a.Haplotype[f-a.Start] != 1 {
			return invalidAncestorf("ancestor %d: focal site %d is not 1 in the haplotype", a.ID, f)
		}
	}
	for i, v := range a.Haplotype {
		if v > 1 {
			return invalidAncestorf("ancestor %d: allele value %d > 1 at offset %d", a.ID, v, i)
		}
	}
	return nil
}

// rootAncestor / ultimateAncestor build the two synthetic ancestors. Their
// times are assigned relative to the largest assigned descriptor time, per
// spec.md §3: the root gets len(times)+1, the ultimate ancestor len(times)+2.
func rootAncestor(numSites int, rootTime uint32) *Ancestor {
	return &Ancestor{
		ID:         0,
		Start:      0,
		End:        numSites,
		Time:       rootTime,
		FocalSites: nil,
		Haplotype:  make([]uint8, numSites),
	}
}

func ultimateAncestor(numSites int, ultimateTime uint32) *Ancestor {
	return &Ancestor{
		ID:         -1, // assigned by the sink on append; see AncestorSink
		Start:      0,
		End:        numSites,
		Time:       ultimateTime,
		FocalSites: nil,
		Haplotype:  make([]uint8, numSites),
	}
}

// AncestorSink is the append-only store of emitted ancestors with in-order
// readback. Persistent/columnar storage is out of the core's scope (§1);
// only this interface is part of the core contract. AncestorSink
// implementations must be single-writer (§5).
type AncestorSink interface {
	// Append assigns the next ascending ancestor ID and stores the record.
	// IDs follow call order; an identical record appended twice is stored
	// twice.
	Append(start, end int, t uint32, focalSites []int, haplotype []uint8) (id int, err error)
	// Len returns the number of ancestors stored so far.
	Len() int
	// Get retrieves a previously appended ancestor by ID, in the order it
	// was appended.
	Get(id int) (*Ancestor, error)
	// All returns every stored ancestor in ascending ID order.
	All() []*Ancestor
}

// InMemoryAncestorSink is the default AncestorSink: an in-order append-only
// slice guarded by a mutex (the sink is single-writer, but readers may run
// concurrently with generation in the orchestrator's drain loop).
type InMemoryAncestorSink struct {
	mu        sync.Mutex
	ancestors []*Ancestor
}

// NewInMemoryAncestorSink creates an empty sink.
func NewInMemoryAncestorSink() *InMemoryAncestorSink {
	return &InMemoryAncestorSink{}
}

func (s *InMemoryAncestorSink) Append(start, end int, t uint32, focalSites []int, haplotype []uint8) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := len(s.ancestors)
	hapCopy := make([]uint8, len(haplotype))
	copy(hapCopy, haplotype)
	focalCopy := make([]int, len(focalSites))
	copy(focalCopy, focalSites)
	s.ancestors = append(s.ancestors, &Ancestor{
		ID:         id,
		Start:      start,
		End:        end,
		Time:       t,
		FocalSites: focalCopy,
		Haplotype:  hapCopy,
	})
	return id, nil
}

func (s *InMemoryAncestorSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ancestors)
}

func (s *InMemoryAncestorSink) Get(id int) (*Ancestor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.ancestors) {
		return nil, invalidInputf("ancestor id %d out of range [0, %d)", id, len(s.ancestors))
	}
	return s.ancestors[id], nil
}

func (s *InMemoryAncestorSink) All() []*Ancestor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Ancestor, len(s.ancestors))
	copy(out, s.ancestors)
	return out
}
