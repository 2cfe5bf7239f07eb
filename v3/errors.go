package v3

import "fmt"

// Error is the error type returned by this package. The Decorate method
// lets callers add their names to the error as it goes up the stack
// without changing its type.
type Error struct {
	message string
	deco    []string
}

func (err Error) Error() string {
	return err.message
}

// Decorate adds dec to the decoration slice of the error and returns the
// resulting slice. An empty string only returns the current value.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

func errDecorate(err error, caller string) error {
	e, ok := err.(Error)
	if !ok {
		return fmt.Errorf("%s: %w", caller, err)
	}
	e.Decorate(caller)
	return e
}

// PanicMsg is the message type used for panics on conditions that can
// only come from programming errors, such as shape mismatches.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix      = PanicMsg("gomd/v3: a Matrix must have 3 columns")
	ErrShape             = PanicMsg("gomd/v3: dimension mismatch")
	ErrNotEnoughElements = PanicMsg("gomd/v3: not enough elements in Matrix")
)
