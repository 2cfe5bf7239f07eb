package dcd

import (
	"encoding/binary"
	"io"
	"os"
	"runtime"

	v3 "github.com/gomd/gomd/v3"
)

// Writer is a handle to a DCD file open for writing.
type Writer struct {
	f        *os.File
	order    binary.ByteOrder
	natoms   int32
	withCell bool
	writable bool
	frames   int32
	filename string
	x, y, z  []float32
}

// NewWriter creates name and writes a CHARMM-style header for natoms
// atoms per frame. If cell is given and true, every frame carries a
// unit-cell extrablock and WNext expects a 9-element box.
func NewWriter(name string, natoms int, cell ...bool) (*Writer, error) {
	W := new(Writer)
	W.filename = name
	W.natoms = int32(natoms)
	if len(cell) > 0 {
		W.withCell = cell[0]
	}
	if err := W.initWrite(name); err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	W.x = make([]float32, natoms)
	W.y = make([]float32, natoms)
	W.z = make([]float32, natoms)
	return W, nil
}

func (W *Writer) initWrite(name string) error {
	wrapbinerr := func(err error) error {
		return Error{err.Error(), W.filename, []string{"binary.Write", "initWrite"}, true}
	}
	if W.natoms <= 0 {
		return Error{"cannot write a trajectory with zero atoms per frame", W.filename, []string{"initWrite"}, true}
	}
	W.order = binary.LittleEndian
	var err error
	W.f, err = os.Create(name)
	if err != nil {
		return Error{err.Error(), W.filename, []string{"os.Create", "initWrite"}, true}
	}
	if err := binary.Write(W.f, W.order, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(W.f, W.order, []byte("CORD")); err != nil {
		return wrapbinerr(err)
	}
	//frame count, patched by updateFrames after every write
	if err := binary.Write(W.f, W.order, int32(0)); err != nil {
		return wrapbinerr(err)
	}
	//initial step and save interval
	if err := binary.Write(W.f, W.order, int32(0)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(W.f, W.order, int32(1)); err != nil {
		return wrapbinerr(err)
	}
	//5 zeros plus the fixed-atom count (always zero)
	for i := 0; i < 6; i++ {
		if err := binary.Write(W.f, W.order, int32(0)); err != nil {
			return wrapbinerr(err)
		}
	}
	//timestep
	if err := binary.Write(W.f, W.order, float32(1)); err != nil {
		return wrapbinerr(err)
	}
	//unit-cell flag
	cellflag := int32(0)
	if W.withCell {
		cellflag = 1
	}
	if err := binary.Write(W.f, W.order, cellflag); err != nil {
		return wrapbinerr(err)
	}
	//8 zeros for charmm
	for i := 0; i < 8; i++ {
		if err := binary.Write(W.f, W.order, int32(0)); err != nil {
			return wrapbinerr(err)
		}
	}
	//a nonzero version marks the file as CHARMM-flavored
	if err := binary.Write(W.f, W.order, int32(24)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(W.f, W.order, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	//title block: 2 slots of 80 bytes
	if err := binary.Write(W.f, W.order, int32(244)); err != nil {
		return wrapbinerr(err)
	}
	var ntitle int32 = 2
	if err := binary.Write(W.f, W.order, ntitle); err != nil {
		return wrapbinerr(err)
	}
	title := make([]byte, ntitle*maxTitle)
	copy(title, "written by gomd")
	title[len(title)-1] = byte('\000')
	if err := binary.Write(W.f, W.order, title); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(W.f, W.order, int32(244)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(W.f, W.order, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(W.f, W.order, W.natoms); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(W.f, W.order, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	runtime.SetFinalizer(W, func(W *Writer) {
		W.Close()
	})
	W.writable = true
	return nil
}

// Close flushes the frame count and releases the file. Idempotent.
func (W *Writer) Close() {
	if !W.writable {
		return
	}
	W.f.Close()
	W.writable = false
}

// WNext appends towrite as the next frame. If the writer was created
// with cell support, box must hold the 9 row-major cell vector
// components of the frame.
func (W *Writer) WNext(towrite *v3.Matrix, box ...[]float64) error {
	if !W.writable {
		return Error{TrajUnIniWrite, W.filename, []string{"WNext"}, true}
	}
	if towrite == nil {
		return Error{NilCoordinates, W.filename, []string{"WNext"}, true}
	}
	if int32(towrite.NVecs()) != W.natoms {
		return Error{"coordinates don't match the trajectory size", W.filename, []string{"WNext"}, true}
	}
	if W.withCell {
		if len(box) == 0 || len(box[0]) < 9 {
			return Error{"cell-enabled trajectory needs a 9-element box per frame", W.filename, []string{"WNext"}, true}
		}
		cell := vectorsToParams(box[0])
		if err := binary.Write(W.f, W.order, int32(48)); err != nil {
			return Error{err.Error(), W.filename, []string{"binary.Write", "WNext"}, true}
		}
		if err := binary.Write(W.f, W.order, cell[:]); err != nil {
			return Error{err.Error(), W.filename, []string{"binary.Write", "WNext"}, true}
		}
		if err := binary.Write(W.f, W.order, int32(48)); err != nil {
			return Error{err.Error(), W.filename, []string{"binary.Write", "WNext"}, true}
		}
	}
	for i := 0; i < int(W.natoms); i++ {
		W.x[i] = float32(towrite.At(i, 0))
		W.y[i] = float32(towrite.At(i, 1))
		W.z[i] = float32(towrite.At(i, 2))
	}
	for _, block := range [][]float32{W.x, W.y, W.z} {
		if err := W.writeFloat32Block(block); err != nil {
			return errDecorate(err, "WNext")
		}
	}
	W.frames++
	return W.updateFrames()
}

// writeFloat32Block writes one coordinate block with its leading and
// trailing record markers.
func (W *Writer) writeFloat32Block(block []float32) error {
	blocksize := int32(len(block)) * 4
	if err := binary.Write(W.f, W.order, blocksize); err != nil {
		return Error{err.Error(), W.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	if err := binary.Write(W.f, W.order, block); err != nil {
		return Error{err.Error(), W.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	if err := binary.Write(W.f, W.order, blocksize); err != nil {
		return Error{err.Error(), W.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	return nil
}

// updateFrames patches the frame count kept in the header, which DCD
// requires up front.
func (W *Writer) updateFrames() error {
	current, err := W.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return Error{err.Error(), W.filename, []string{"Seek", "updateFrames"}, true}
	}
	//the count sits right after the 84 marker and the magic
	if _, err := W.f.Seek(8, io.SeekStart); err != nil {
		return Error{err.Error(), W.filename, []string{"Seek", "updateFrames"}, true}
	}
	if err := binary.Write(W.f, W.order, W.frames); err != nil {
		return Error{err.Error(), W.filename, []string{"binary.Write", "updateFrames"}, true}
	}
	if _, err := W.f.Seek(current, io.SeekStart); err != nil {
		return Error{err.Error(), W.filename, []string{"Seek", "updateFrames"}, true}
	}
	return nil
}
