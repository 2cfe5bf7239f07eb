// Package dcd reads and writes CHARMM/NAMD binary DCD trajectories. It
// supports both endiannesses, CHARMM-style headers, and the unit-cell
// extrablock; fixed atoms are not supported. X-plor DCDs are rejected.
package dcd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	v3 "github.com/gomd/gomd/v3"
)

const maxTitle int32 = 80

// Reader is a handle to a DCD file open for reading. It implements
// md.TrajCloser.
type Reader struct {
	f          *os.File
	order      binary.ByteOrder
	natoms     int32
	fixed      int32
	charmm     bool
	extrablock bool
	fourdim    bool
	delta      float32
	readable   bool
	readLast   bool
	filename   string
	x, y, z    []float32
	cell       [6]float64
	hasCell    bool
}

// New opens name for reading and parses the header.
func New(name string) (*Reader, error) {
	R := new(Reader)
	R.filename = name
	if err := R.initRead(name); err != nil {
		return nil, errDecorate(err, "New")
	}
	R.x = make([]float32, R.natoms)
	R.y = make([]float32, R.natoms)
	R.z = make([]float32, R.natoms)
	return R, nil
}

func (R *Reader) initRead(name string) error {
	R.order = binary.LittleEndian
	NB := bytes.NewBuffer //shortness sake
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return Error{err.Error(), R.filename, []string{"os.Open", "initRead"}, true}
	}
	var check int32
	if err := binary.Read(R.f, R.order, &check); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	//the first record marker is always 84; if it doesn't read as 84 the
	//file is big endian
	if check != 84 {
		R.order = binary.BigEndian
	}
	magic := make([]byte, 4)
	if err := binary.Read(R.f, R.order, magic); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if string(magic) != "CORD" {
		return Error{"wrong magic number", R.filename, []string{"initRead"}, true}
	}
	//one big block read at once for random access within it
	buf := make([]byte, 80)
	if err := binary.Read(R.f, R.order, buf); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	//X-plor zeroes the last int, CHARMM puts its version there
	if err := binary.Read(NB(buf[76:]), R.order, &check); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if check == 0 {
		return Error{"X-plor DCD not supported", R.filename, []string{"initRead"}, true}
	}
	R.charmm = true
	if err := binary.Read(NB(buf[40:]), R.order, &check); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if check != 0 {
		R.extrablock = true
	}
	if err := binary.Read(NB(buf[44:]), R.order, &check); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if check == 1 {
		R.fourdim = true
	}
	if err := binary.Read(NB(buf[32:]), R.order, &R.fixed); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(NB(buf[36:]), R.order, &R.delta); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(R.f, R.order, &check); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if check != 84 {
		return Error{"wrong DCD format", R.filename, []string{"initRead"}, true}
	}
	var blockmark int32
	if err := binary.Read(R.f, R.order, &blockmark); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	var ntitle int32
	if err := binary.Read(R.f, R.order, &ntitle); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	title := make([]byte, maxTitle*ntitle)
	if err := binary.Read(R.f, R.order, title); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(R.f, R.order, &blockmark); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(R.f, R.order, &check); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if check != 4 { //a 4 must precede the atom count
		return Error{"wrong format in DCD", R.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(R.f, R.order, &R.natoms); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(R.f, R.order, &check); err != nil {
		return Error{err.Error(), R.filename, []string{"initRead"}, true}
	}
	if check != 4 {
		return Error{"wrong format in DCD", R.filename, []string{"initRead"}, true}
	}
	if R.fixed != 0 {
		return Error{"fixed atoms not supported", R.filename, []string{"initRead"}, true}
	}
	runtime.SetFinalizer(R, func(R *Reader) {
		R.Close()
	})
	R.readable = true
	return nil
}

// Readable reports whether R is ready to be read. It does not guarantee
// that frames remain.
func (R *Reader) Readable() bool { return R.readable }

// Len returns the number of atoms per frame.
func (R *Reader) Len() int { return int(R.natoms) }

// Delta returns the integration timestep recorded in the header, in the
// unit the writing program used (CHARMM uses AKMA time).
func (R *Reader) Delta() float32 { return R.delta }

// Close releases the underlying file. Idempotent.
func (R *Reader) Close() {
	if R.f != nil {
		R.f.Close()
	}
	R.readable = false
}

// Next reads the next frame into keep, or discards it if keep is nil.
// If a box of at least 9 elements is given and the file carries a unit
// cell, the cell vectors are written to it, row-major.
func (R *Reader) Next(keep *v3.Matrix, box ...[]float64) error {
	if !R.readable {
		return Error{TrajUnIni, R.filename, []string{"Next"}, true}
	}
	if R.readLast {
		R.Close()
		return newLastFrameError(R.filename, "Next")
	}
	if err := R.nextRaw(); err != nil {
		return err
	}
	if keep != nil {
		if keep.NVecs() < int(R.natoms) {
			return Error{NotEnoughSpace, R.filename, []string{"Next"}, true}
		}
		for i := 0; i < int(R.natoms); i++ {
			keep.Set(i, 0, float64(R.x[i]))
			keep.Set(i, 1, float64(R.y[i]))
			keep.Set(i, 2, float64(R.z[i]))
		}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		if R.hasCell {
			paramsToVectors(R.cell, box[0])
		} else {
			for i := range box[0][:9] {
				box[0][i] = 0
			}
		}
	}
	return nil
}

func (R *Reader) nextRaw() error {
	R.hasCell = false
	var blocksize int32
	//the extrablock, when flagged, holds the 6 unit-cell parameters as
	//doubles, but some writers omit it in some frames, so the size has
	//to be used to tell it apart from the X block
	if R.extrablock {
		if err := binary.Read(R.f, R.order, &blocksize); err != nil {
			return R.wrapEOF(err)
		}
		switch {
		case blocksize == 48:
			if err := binary.Read(R.f, R.order, R.cell[:]); err != nil {
				return Error{err.Error(), R.filename, []string{"nextRaw"}, true}
			}
			if err := R.checkMark(blocksize); err != nil {
				return err
			}
			R.hasCell = true
			blocksize = 0
		case blocksize == R.natoms*4:
			//not an extrablock after all, this is already the X block
		default:
			if err := R.skipBlock(blocksize); err != nil {
				return err
			}
			blocksize = 0
		}
	}
	if blocksize == 0 {
		if err := binary.Read(R.f, R.order, &blocksize); err != nil {
			return R.wrapEOF(err)
		}
	}
	if err := R.readFloat32Block(blocksize, R.x); err != nil {
		return err
	}
	if err := binary.Read(R.f, R.order, &blocksize); err != nil {
		return Error{err.Error(), R.filename, []string{"nextRaw"}, true}
	}
	if err := R.readFloat32Block(blocksize, R.y); err != nil {
		return err
	}
	if err := binary.Read(R.f, R.order, &blocksize); err != nil {
		return Error{err.Error(), R.filename, []string{"nextRaw"}, true}
	}
	if err := R.readFloat32Block(blocksize, R.z); err != nil {
		return err
	}
	//4-D values, if any, are skipped. They are absent from the last
	//snapshot, so an EOF here marks the final frame.
	if R.charmm && R.fourdim {
		if err := binary.Read(R.f, R.order, &blocksize); err != nil {
			if errors.Is(err, io.EOF) {
				R.readLast = true
				return nil
			}
			return Error{err.Error(), R.filename, []string{"nextRaw"}, true}
		}
		if err := R.skipBlock(blocksize); err != nil {
			return err
		}
	}
	return nil
}

// wrapEOF turns an EOF at a frame boundary into the normal
// end-of-trajectory signal; everything else is a real failure.
func (R *Reader) wrapEOF(err error) error {
	if errors.Is(err, io.EOF) {
		R.Close()
		return newLastFrameError(R.filename, "Next")
	}
	return Error{err.Error(), R.filename, []string{"nextRaw"}, true}
}

func (R *Reader) readFloat32Block(blocksize int32, block []float32) error {
	if blocksize != int32(len(block))*4 {
		return Error{fmt.Sprintf("unexpected coordinate block size %d", blocksize), R.filename, []string{"readFloat32Block"}, true}
	}
	if err := binary.Read(R.f, R.order, block); err != nil {
		return Error{err.Error(), R.filename, []string{"readFloat32Block"}, true}
	}
	return R.checkMark(blocksize)
}

func (R *Reader) skipBlock(blocksize int32) error {
	block := make([]byte, blocksize)
	if err := binary.Read(R.f, R.order, block); err != nil {
		return Error{err.Error(), R.filename, []string{"skipBlock"}, true}
	}
	return R.checkMark(blocksize)
}

// checkMark consumes the trailing record marker of a block, which must
// equal its size.
func (R *Reader) checkMark(blocksize int32) error {
	var check int32
	if err := binary.Read(R.f, R.order, &check); err != nil {
		return Error{err.Error(), R.filename, []string{"checkMark"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, R.filename, []string{"checkMark"}, true}
	}
	return nil
}
