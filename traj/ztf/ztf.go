// Package ztf reads and writes compressed plain-text trajectories. A
// ztf file is a compressed stream holding an optional key=value header,
// a "** natoms" line, and one line of scaled integer coordinates per
// atom, with frames separated by a "*" line that optionally carries the
// 9 cell vector components. The compression codec is chosen from the
// file name: .gz means gzip, .fl means DEFLATE, anything else zstd.
package ztf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	v3 "github.com/gomd/gomd/v3"
)

const defaultPrec = 2

// Writer encodes frames into a compressed ztf stream.
type Writer struct {
	f        *os.File
	h        io.WriteCloser
	natoms   int
	filename string
	writable bool
	prec     int
	scale    float64
}

// NewWriter creates name and writes the header. The header map is
// optional; a "prec" key sets the number of decimals kept per
// coordinate (default 2).
func NewWriter(name string, natoms int, header map[string]string) (*Writer, error) {
	if natoms <= 0 {
		return nil, Error{"cannot write a trajectory with zero atoms per frame", name, []string{"NewWriter"}, true}
	}
	W := new(Writer)
	W.filename = name
	W.natoms = natoms
	var err error
	W.f, err = os.Create(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"os.Create", "NewWriter"}, true}
	}
	W.h, err = newCompressor(W.f, name)
	if err != nil {
		W.f.Close()
		return nil, Error{err.Error(), name, []string{"NewWriter"}, true}
	}
	W.prec = defaultPrec
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 0 {
			W.h.Close()
			W.f.Close()
			return nil, Error{fmt.Sprintf("invalid precision %q in header", p), name, []string{"NewWriter"}, true}
		}
		W.prec = prec
	}
	W.scale = math.Pow(10, float64(W.prec))
	for k, v := range header {
		if _, err := fmt.Fprintf(W.h, "%s=%s\n", k, v); err != nil {
			return nil, Error{err.Error(), name, []string{"NewWriter"}, true}
		}
	}
	if _, err := fmt.Fprintf(W.h, "** %d\n", natoms); err != nil {
		return nil, Error{err.Error(), name, []string{"NewWriter"}, true}
	}
	W.writable = true
	return W, nil
}

// Len returns the number of atoms per frame.
func (W *Writer) Len() int { return W.natoms }

// WNext appends coord as the next frame, with the cell vectors from box
// on the terminator line if a 9-element box is given.
func (W *Writer) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !W.writable {
		return Error{TrajUnIniWrite, W.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return Error{NilCoordinates, W.filename, []string{"WNext"}, true}
	}
	if v := coord.NVecs(); v != W.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, W.natoms), W.filename, []string{"WNext"}, true}
	}
	for i := 0; i < W.natoms; i++ {
		x := int(math.RoundToEven(coord.At(i, 0) * W.scale))
		y := int(math.RoundToEven(coord.At(i, 1) * W.scale))
		z := int(math.RoundToEven(coord.At(i, 2) * W.scale))
		if _, err := fmt.Fprintf(W.h, "%d %d %d\n", x, y, z); err != nil {
			return Error{err.Error(), W.filename, []string{"WNext"}, true}
		}
	}
	var err error
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		_, err = fmt.Fprintf(W.h, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n",
			b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	} else {
		_, err = io.WriteString(W.h, "*\n")
	}
	if err != nil {
		return Error{err.Error(), W.filename, []string{"WNext"}, true}
	}
	return nil
}

// Close flushes the compressor and releases the file. Idempotent.
func (W *Writer) Close() {
	if W == nil || !W.writable {
		return
	}
	W.h.Close()
	W.f.Close()
	W.writable = false
}

// Reader decodes frames from a compressed ztf stream. It implements
// md.TrajCloser.
type Reader struct {
	f        *os.File
	z        io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	scale    float64
	readable bool
}

// zstd's Decoder.Close returns nothing, so it needs a shim to pass as
// an io.ReadCloser.
type zstdShim struct {
	*zstd.Decoder
}

func (s zstdShim) Close() error {
	s.Decoder.Close()
	return nil
}

// New opens name and parses the header, which is returned along with
// the reader.
func New(name string) (*Reader, map[string]string, error) {
	R := new(Reader)
	R.filename = name
	R.natoms = -1
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{err.Error(), name, []string{"os.Open", "New"}, true}
	}
	R.z, err = newDecompressor(bufio.NewReader(R.f), name)
	if err != nil {
		R.f.Close()
		return nil, nil, Error{err.Error(), name, []string{"New"}, true}
	}
	R.h = bufio.NewReader(R.z)
	m := make(map[string]string)
	for {
		str, err := R.h.ReadString('\n')
		if err != nil {
			return nil, nil, Error{"can't read header: " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			fields := strings.Fields(str)
			if len(fields) < 2 {
				return nil, nil, Error{fmt.Sprintf("can't read atom count from %q", str), name, []string{"New"}, true}
			}
			R.natoms, err = strconv.Atoi(fields[1])
			if err != nil {
				return nil, nil, Error{fmt.Sprintf("can't read atom count from %q: %s", fields[1], err.Error()), name, []string{"New"}, true}
			}
			break
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			return nil, nil, Error{fmt.Sprintf("malformed header line %q", str), name, []string{"New"}, true}
		}
		m[kv[0]] = kv[1]
	}
	R.prec = defaultPrec
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 0 {
			return nil, nil, Error{fmt.Sprintf("invalid precision %q in header", p), name, []string{"New"}, true}
		}
		R.prec = prec
	}
	R.scale = math.Pow(10, float64(R.prec))
	R.readable = true
	return R, m, nil
}

// Readable reports whether R is ready to be read.
func (R *Reader) Readable() bool { return R.readable }

// Len returns the number of atoms per frame.
func (R *Reader) Len() int { return R.natoms }

// Close closes the object and marks it as unreadable. Idempotent.
func (R *Reader) Close() {
	if !R.readable {
		return
	}
	R.z.Close()
	R.f.Close()
	R.readable = false
}

// Next puts the coordinates of the next frame into c, or discards the
// frame if c is nil (the frame is still checked for correctness). If a
// 9-element box is given and the frame carries cell information, the
// cell vector components are written to it.
func (R *Reader) Next(c *v3.Matrix, box ...[]float64) error {
	if !R.readable {
		return Error{TrajUnIniRead, R.filename, []string{"Next"}, true}
	}
	for i := 0; i < R.natoms; i++ {
		b, err := R.h.ReadBytes('\n')
		if err != nil {
			//an EOF on the first atom is just the end of the trajectory
			if err == io.EOF && i == 0 && len(b) == 0 {
				R.Close()
				return newLastFrameError(R.filename, "Next")
			}
			return Error{err.Error(), R.filename, []string{"Next"}, true}
		}
		x, y, z, err := coordsDecode(string(b[:len(b)-1]), R.scale)
		if err != nil {
			return Error{err.Error(), R.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		if c.NVecs() < R.natoms {
			return Error{NotEnoughSpace, R.filename, []string{"Next"}, true}
		}
		c.Set(i, 0, x)
		c.Set(i, 1, y)
		c.Set(i, 2, z)
	}
	s, err := R.h.ReadString('\n')
	if err != nil {
		return Error{"can't read the frame termination mark: " + err.Error(), R.filename, []string{"Next"}, true}
	}
	if s[0] != '*' {
		return Error{"wrong number of atoms in frame", R.filename, []string{"Next"}, true}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		fields := strings.Fields(strings.TrimSpace(s))
		if len(fields) >= 10 { //the "*" plus the 9 numbers
			for j, v := range fields[1:10] {
				box[0][j], err = strconv.ParseFloat(v, 64)
				if err != nil {
					return Error{fmt.Sprintf("malformed box in frame: %q", s), R.filename, []string{"Next"}, true}
				}
			}
		} else {
			for j := range box[0][:9] {
				box[0][j] = 0
			}
		}
	}
	return nil
}

func coordsDecode(str string, scale float64) (x, y, z float64, err error) {
	s := strings.Fields(str)
	if len(s) != 3 {
		return 0, 0, 0, fmt.Errorf("ill-formed coordinate line: %q", str)
	}
	var v [3]float64
	for i, field := range s {
		n, err := strconv.Atoi(field)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("can't parse coordinate %d (%q): %s", i, field, err.Error())
		}
		v[i] = float64(n) / scale
	}
	return v[0], v[1], v[2], nil
}

func newCompressor(w io.Writer, name string) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case strings.HasSuffix(name, ".fl"):
		return flate.NewWriter(w, flate.BestCompression)
	default:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
}

func newDecompressor(r io.Reader, name string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".fl"):
		return flate.NewReader(r), nil
	default:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdShim{d}, nil
	}
}
