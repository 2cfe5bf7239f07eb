package ztf

import (
	"fmt"

	md "github.com/gomd/gomd"
)

// Error is the general structure for ztf trajectory errors. It fulfills
// md.Error and md.TrajError.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("ztf file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "ztf") associated to the error
func (err Error) Format() string { return "ztf" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

// Kind classifies every ztf error as a resource failure.
func (err Error) Kind() md.Kind { return md.KindResource }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	NilCoordinates = "Given nil coordinates"
	NotEnoughSpace = "Not enough space in passed blocks"
)

// lastFrameError implements md.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing, it only tags the error as
// the normal end of a trajectory.
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "ztf" }

func (E lastFrameError) Kind() md.Kind { return 0 }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newLastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
