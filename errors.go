package md

import "errors"

// Kind classifies the failure conditions of this module. All failures
// here are deterministic functions of the input; nothing is retried.
type Kind int

const (
	// KindDimensionMismatch: atom counts (after subsetting) differ
	// between the operands of a comparison.
	KindDimensionMismatch Kind = iota + 1
	// KindEmptyStructure: a zero-atom comparison was requested.
	KindEmptyStructure
	// KindInvalidSubset: an atom-index subset contains an out-of-range
	// or duplicate index. Caught at validation, before any numeric work.
	KindInvalidSubset
	// KindStreamState: a pull was requested on a closed or exhausted
	// chunk reader. A programmer error, fatal to that call.
	KindStreamState
	// KindResource: the underlying trajectory source could not be
	// opened or read. Propagated, never masked.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindDimensionMismatch:
		return "dimension mismatch"
	case KindEmptyStructure:
		return "empty structure"
	case KindInvalidSubset:
		return "invalid subset"
	case KindStreamState:
		return "stream state"
	case KindResource:
		return "resource"
	}
	return "unknown"
}

// Error is the interface implemented by the errors of every package in
// this module. Decorate adds information (normally the caller's name)
// to the error as it travels up, without changing its type.
type Error interface {
	error
	Decorate(string) []string
	Kind() Kind
}

// TrajError is the interface for errors coming from trajectory sources.
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError marks the harmless error returned when a trajectory
// runs out of frames, so it can be filtered in a type switch.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just tags the type
}

// IsLastFrame reports whether err signals a normal end of trajectory.
func IsLastFrame(err error) bool {
	var lfe LastFrameError
	return errors.As(err, &lfe)
}

// IsKind reports whether err, or any error it wraps, has kind k.
func IsKind(err error, k Kind) bool {
	var kerr interface{ Kind() Kind }
	if errors.As(err, &kerr) {
		return kerr.Kind() == k
	}
	return false
}

// baseError is the md implementation of Error.
type baseError struct {
	kind    Kind
	message string
	deco    []string
}

// NewError returns an Error with the given kind and message.
func NewError(kind Kind, message string) Error {
	return &baseError{kind: kind, message: message}
}

func (err *baseError) Error() string {
	return err.kind.String() + ": " + err.message
}

func (err *baseError) Kind() Kind { return err.kind }

func (err *baseError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
