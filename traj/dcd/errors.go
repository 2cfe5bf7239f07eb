package dcd

import (
	"fmt"

	md "github.com/gomd/gomd"
)

// errDecorate adds the caller to an error's trace when the error type
// supports it.
func errDecorate(err error, caller string) error {
	err2, ok := err.(md.Error)
	if !ok {
		return err
	}
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for DCD trajectory errors. It fulfills
// md.Error and md.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("dcd file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "dcd") associated to the error
func (err Error) Format() string { return "dcd" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

// Kind classifies every DCD error as a resource failure.
func (err Error) Kind() md.Kind { return md.KindResource }

const (
	TrajUnIni           = "Traj object uninitialized to read"
	TrajUnIniWrite      = "Traj object uninitialized to write"
	ReadError           = "Error reading frame"
	UnableToOpen        = "Unable to open file"
	SecurityCheckFailed = "Failed security check"
	NilCoordinates      = "Given nil coordinates"
	NotEnoughSpace      = "Not enough space in passed blocks"
	WrongFormat         = "Wrong format in the DCD file or frame"
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

func (E lastFrameError) Format() string { return "dcd" }

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
