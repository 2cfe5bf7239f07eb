package md

import (
	"fmt"

	v3 "github.com/gomd/gomd/v3"
)

// Trajectory is an in-memory, ordered sequence of conformations sharing
// one atom count and, optionally, one topology. It may carry a per-frame
// unit cell (9 floats, row-major cell vectors) and a per-frame time.
// Frame times are by convention monotonically non-decreasing; this is
// relied upon downstream but not enforced.
type Trajectory struct {
	frames []*v3.Matrix
	cells  [][]float64
	times  []float64
	top    Topologer
	natoms int
}

// NewTrajectory returns an empty Trajectory for natoms atoms per frame.
// top may be nil; if given, its atom count must match natoms.
func NewTrajectory(natoms int, top Topologer) (*Trajectory, error) {
	if natoms <= 0 {
		return nil, NewError(KindEmptyStructure, "a trajectory needs at least one atom per frame")
	}
	if top != nil && top.Len() != natoms {
		return nil, NewError(KindDimensionMismatch, fmt.Sprintf("topology has %d atoms, trajectory expects %d", top.Len(), natoms))
	}
	return &Trajectory{natoms: natoms, top: top}, nil
}

// NAtoms returns the number of atoms per frame.
func (T *Trajectory) NAtoms() int { return T.natoms }

// NFrames returns the number of frames currently held.
func (T *Trajectory) NFrames() int { return len(T.frames) }

// Top returns the shared topology, or nil if none was supplied.
func (T *Trajectory) Top() Topologer { return T.top }

// Frame returns the ith conformation. The matrix is the trajectory's own
// storage: a caller that mutates it after it has been cached in
// precentered form must invalidate the cache (see rmsd.Cache).
func (T *Trajectory) Frame(i int) *v3.Matrix { return T.frames[i] }

// Cell returns the unit cell of the ith frame, or nil if that frame
// carries none.
func (T *Trajectory) Cell(i int) []float64 { return T.cells[i] }

// Time returns the time of the ith frame, or 0 if times were not set.
func (T *Trajectory) Time(i int) float64 {
	if T.times == nil {
		return 0
	}
	return T.times[i]
}

// AppendFrame appends coords as the next frame, taking ownership of the
// matrix. cell may be nil; if given it must have 9 elements.
func (T *Trajectory) AppendFrame(coords *v3.Matrix, cell []float64) error {
	if coords == nil {
		return NewError(KindEmptyStructure, "nil coordinates")
	}
	if coords.NVecs() != T.natoms {
		return NewError(KindDimensionMismatch, fmt.Sprintf("frame has %d atoms, trajectory has %d", coords.NVecs(), T.natoms))
	}
	if cell != nil && len(cell) != 9 {
		return NewError(KindDimensionMismatch, fmt.Sprintf("unit cell needs 9 values, got %d", len(cell)))
	}
	T.frames = append(T.frames, coords)
	T.cells = append(T.cells, cell)
	return nil
}

// SetTimes sets the per-frame times. Its length must match the current
// frame count.
func (T *Trajectory) SetTimes(times []float64) error {
	if len(times) != len(T.frames) {
		return NewError(KindDimensionMismatch, fmt.Sprintf("%d times for %d frames", len(times), len(T.frames)))
	}
	T.times = times
	return nil
}

// ReadAll drains a trajectory source into memory. It is the opposite of
// out-of-core processing and should only be used when the whole
// trajectory is known to fit; otherwise use a ChunkReader.
func ReadAll(src TrajCloser, top Topologer) (*Trajectory, error) {
	defer src.Close()
	t, err := NewTrajectory(src.Len(), top)
	if err != nil {
		return nil, err
	}
	box := make([]float64, 9)
	for {
		frame := v3.Zeros(src.Len())
		err := src.Next(frame, box)
		if err != nil {
			if IsLastFrame(err) {
				return t, nil
			}
			return nil, err
		}
		var cell []float64
		if nonZero(box) {
			cell = make([]float64, 9)
			copy(cell, box)
		}
		if err := t.AppendFrame(frame, cell); err != nil {
			return nil, err
		}
	}
}

func nonZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return true
		}
	}
	return false
}

// MemSource adapts an in-memory Trajectory to the TrajCloser interface,
// mostly so that chunked and whole-trajectory code paths can be compared
// against each other.
type MemSource struct {
	t        *Trajectory
	next     int
	readable bool
}

// NewMemSource returns a source that yields copies of the frames of t,
// in order.
func NewMemSource(t *Trajectory) *MemSource {
	return &MemSource{t: t, readable: true}
}

// Readable reports whether the source can still be read.
func (M *MemSource) Readable() bool { return M.readable }

// Len returns the number of atoms per frame.
func (M *MemSource) Len() int { return M.t.NAtoms() }

// Close marks the source as unreadable.
func (M *MemSource) Close() { M.readable = false }

// Next implements Traj. The frame is copied into output, so the caller
// never aliases the trajectory's storage.
func (M *MemSource) Next(output *v3.Matrix, box ...[]float64) error {
	if !M.readable {
		return NewError(KindStreamState, "source is closed")
	}
	if M.next >= M.t.NFrames() {
		M.Close()
		return newLastFrameError("", "mem")
	}
	i := M.next
	M.next++
	if output != nil {
		if output.NVecs() != M.t.NAtoms() {
			return NewError(KindDimensionMismatch, "output matrix has the wrong number of rows")
		}
		output.Copy(M.t.Frame(i))
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		if c := M.t.Cell(i); c != nil {
			copy(box[0], c)
		} else {
			for j := range box[0][:9] {
				box[0][j] = 0
			}
		}
	}
	return nil
}
