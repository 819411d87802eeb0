package tsinfer

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind classifies the errors the core must distinguish from one another.
type Kind int

const (
	// InvalidInput marks malformed site data: non-biallelic genotypes,
	// negative positions, positions past the sequence length, wrong-sized
	// genotype vectors, or non-increasing positions.
	InvalidInput Kind = iota
	// InvalidAncestor marks a malformed ancestor descriptor or haplotype.
	InvalidAncestor
	// IncompatibleRestore marks a restored ancestors-tree-sequence whose
	// site positions or edge endpoints don't align with the sample data.
	IncompatibleRestore
	// InternalInvariant marks a violation of one of the §3/§4.2 invariants.
	// These are always fatal; the caller should abort the current operation.
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case InvalidAncestor:
		return "InvalidAncestor"
	case IncompatibleRestore:
		return "IncompatibleRestore"
	case InternalInvariant:
		return "InternalInvariant"
	default:
		return "UnknownKind"
	}
}

// Error is the error type returned by the core's validation and invariant
// checks; file, decoding and database failures in the loaders, checkpoint
// code and SQLite sink are returned as wrapped or raw errors instead.
// It carries a short Kind label plus a human-readable message identifying
// the offending entity (site index, ancestor id, child id).
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to a wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalidInputf(format string, args ...interface{}) *Error {
	return newError(InvalidInput, format, args...)
}

func invalidAncestorf(format string, args ...interface{}) *Error {
	return newError(InvalidAncestor, format, args...)
}

func incompatibleRestoref(format string, args ...interface{}) *Error {
	return newError(IncompatibleRestore, format, args...)
}

// invariantPanic is raised by check_state / check_likelihoods style
// assertions. It is always fatal: callers recover it at the boundary of a
// single public operation and surface it as an InternalInvariant Error,
// preserving a wrapped-frame cause via xerrors for debugging.
type invariantPanic struct {
	err *Error
}

func invariantf(format string, args ...interface{}) {
	panic(invariantPanic{err: &Error{
		Kind:    InternalInvariant,
		Message: fmt.Sprintf(format, args...),
		cause:   xerrors.Errorf("invariant check failed: " + fmt.Sprintf(format, args...)),
	}})
}

// recoverInvariant converts an invariantPanic into an *Error return value.
// Any other panic is re-raised: only invariant violations are a recoverable
// (to the caller) fatal condition, everything else is a genuine bug.
func recoverInvariant(errp *error) {
	if r := recover(); r != nil {
		if ip, ok := r.(invariantPanic); ok {
			*errp = ip.err
			return
		}
		panic(r)
	}
}
