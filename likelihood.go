package tsinfer

// Likelihood is an element of the 5-valued lattice used by AncestorMatcher's
// copying HMM, per spec.md §4.3/§9. It is not ordinal-arithmetic: MATCH,
// RECOMB and MISMATCH form a genuine max-ordered chain of HMM states, while
// COMPRESSED and MISSING are flags meaning "defer to an ancestor" and "not in
// the local tree" respectively. The underlying integer values only need to
// support max() and ordering comparisons, never arithmetic.
type Likelihood int8

const (
	Missing    Likelihood = -2
	Compressed Likelihood = -1
	Mismatch   Likelihood = 0
	Recomb     Likelihood = 1
	Match      Likelihood = 2
)

func (l Likelihood) String() string {
	switch l {
	case Missing:
		return "MISSING"
	case Compressed:
		return "COMPRESSED"
	case Mismatch:
		return "MISMATCH"
	case Recomb:
		return "RECOMB"
	case Match:
		return "MATCH"
	default:
		return "INVALID"
	}
}

// maxLikelihood returns the greater of a and b in the lattice's total order.
func maxLikelihood(a, b Likelihood) Likelihood {
	if a > b {
		return a
	}
	return b
}
