package v3

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a set of vectors in 3D space, one per row. It embeds a gonum
// Dense matrix, so it satisfies the gonum mat.Matrix interface.
type Matrix struct {
	*mat.Dense
}

// Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	const cols = 3
	return &Matrix{mat.NewDense(vecs, cols, make([]float64, cols*vecs))}
}

// NewMatrix builds a Matrix from a flat, row-major slice of coordinates.
// The slice is used directly, not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols = 3
	if len(data)%cols != 0 {
		return nil, Error{fmt.Sprintf("input slice length %d not divisible by %d", len(data), cols), []string{"NewMatrix"}}
	}
	return &Matrix{mat.NewDense(len(data)/cols, cols, data)}, nil
}

// Dense2Matrix wraps a gonum Dense with 3 columns. It panics if the
// column count is wrong.
func Dense2Matrix(d *mat.Dense) *Matrix {
	_, c := d.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{d}
}

// Matrix2Dense returns the embedded gonum Dense.
func Matrix2Dense(m *Matrix) *mat.Dense {
	return m.Dense
}

// NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

// VecView returns a view of the ith vector of F. Changes in the view are
// reflected in F and vice versa.
func (F *Matrix) VecView(i int) *Matrix {
	return &Matrix{F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)}
}

// View returns a view of F starting from i,j and spanning r rows and c
// columns.
func (F *Matrix) View(i, j, r, c int) *Matrix {
	return &Matrix{F.Dense.Slice(i, i+r, j, j+c).(*mat.Dense)}
}

// Clone returns a newly allocated copy of F. The copy owns its storage,
// even when F is a view.
func (F *Matrix) Clone() *Matrix {
	r := Zeros(F.NVecs())
	r.Copy(F)
	return r
}

// SomeVecs puts in the receiver the vectors of A with the indexes in
// clist, in the order of clist. The receiver must have len(clist) rows.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	ar, _ := A.Dims()
	fr, _ := F.Dims()
	if fr != len(clist) || ar < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		for j := 0; j < 3; j++ {
			F.Set(key, j, A.At(val, j))
		}
	}
}

// AddVec adds the 1x3 vector vec to every vector of A, putting the
// result in the receiver. A and the receiver may be the same matrix.
func (F *Matrix) AddVec(A, vec *Matrix) {
	ar, ac := A.Dims()
	vr, vc := vec.Dims()
	fr, fc := F.Dims()
	if vr != 1 || vc != 3 || ac != fc || ar != fr {
		panic(ErrShape)
	}
	x, y, z := vec.At(0, 0), vec.At(0, 1), vec.At(0, 2)
	for i := 0; i < ar; i++ {
		F.Set(i, 0, A.At(i, 0)+x)
		F.Set(i, 1, A.At(i, 1)+y)
		F.Set(i, 2, A.At(i, 2)+z)
	}
}

// SubVec subtracts the 1x3 vector vec from every vector of A, putting
// the result in the receiver.
func (F *Matrix) SubVec(A, vec *Matrix) {
	ar, ac := A.Dims()
	vr, vc := vec.Dims()
	fr, fc := F.Dims()
	if vr != 1 || vc != 3 || ac != fc || ar != fr {
		panic(ErrShape)
	}
	x, y, z := vec.At(0, 0), vec.At(0, 1), vec.At(0, 2)
	for i := 0; i < ar; i++ {
		F.Set(i, 0, A.At(i, 0)-x)
		F.Set(i, 1, A.At(i, 1)-y)
		F.Set(i, 2, A.At(i, 2)-z)
	}
}

// String returns a neat string representation of a Matrix.
func (F *Matrix) String() string {
	r, _ := F.Dims()
	v := make([]string, r+2)
	v[0] = "\n["
	v[len(v)-1] = " ]"
	for i := 0; i < r; i++ {
		v[i+1] = fmt.Sprintf(" %6.2f %6.2f %6.2f\n", F.At(i, 0), F.At(i, 1), F.At(i, 2))
	}
	v[len(v)-2] = strings.TrimSuffix(v[len(v)-2], "\n")
	return strings.Join(v, "")
}
