package md

import v3 "github.com/gomd/gomd/v3"

// Traj is the pull interface implemented by any trajectory source. A
// source yields frames strictly in order; it is inherently a
// single-consumer object.
type Traj interface {
	// Readable reports whether the source is ready to be read. It does
	// not guarantee that there are frames left.
	Readable() bool

	// Next reads the next frame into output, or discards it if output
	// is nil. If a box slice of at least 9 elements is given and the
	// frame carries a unit cell, the cell vectors are written to it,
	// row-major. When the trajectory ends, Next returns an error
	// satisfying LastFrameError.
	Next(output *v3.Matrix, box ...[]float64) error

	// Len returns the number of atoms per frame.
	Len() int
}

// TrajCloser is a trajectory source whose underlying resource can be
// released. Close must be safe to call more than once.
type TrajCloser interface {
	Traj
	Close()
}

// Topologer is the minimal view of a topology this module needs: the
// topology itself (atom names, residues, connectivity) is an external
// collaborator, here it only fixes the atom count.
type Topologer interface {
	Len() int
}
