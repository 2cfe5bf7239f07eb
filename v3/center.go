package v3

import "fmt"

// appzero is the threshold under which a float is considered zero, to
// absorb accumulated rounding.
const appzero float64 = 1e-12

// Centroid returns the arithmetic mean of the vectors of F with indexes
// in clist, or of all vectors if clist is nil, as a 1x3 Matrix.
func (F *Matrix) Centroid(clist []int) (*Matrix, error) {
	n := F.NVecs()
	if clist == nil {
		clist = allIndexes(n)
	}
	if len(clist) == 0 {
		return nil, Error{"empty index list", []string{"Centroid"}}
	}
	var x, y, z float64
	for _, i := range clist {
		if i < 0 || i >= n {
			return nil, Error{fmt.Sprintf("index %d out of range for %d vectors", i, n), []string{"Centroid"}}
		}
		x += F.At(i, 0)
		y += F.At(i, 1)
		z += F.At(i, 2)
	}
	inv := 1.0 / float64(len(clist))
	c := Zeros(1)
	c.Set(0, 0, x*inv)
	c.Set(0, 1, y*inv)
	c.Set(0, 2, z*inv)
	return c, nil
}

// Center subtracts, in place, the centroid of the vectors with indexes
// in clist (all vectors if nil) from every vector of F, and returns the
// removed centroid. Centering twice is harmless: the second call removes
// an approximately zero vector.
func (F *Matrix) Center(clist []int) (*Matrix, error) {
	c, err := F.Centroid(clist)
	if err != nil {
		return nil, errDecorate(err, "Center")
	}
	F.SubVec(F, c)
	return c, nil
}

// SquaredNorm returns the sum, over the vectors with indexes in clist
// (all vectors if nil), of the squared euclidean length of each vector.
func (F *Matrix) SquaredNorm(clist []int) (float64, error) {
	n := F.NVecs()
	if clist == nil {
		clist = allIndexes(n)
	}
	var g float64
	for _, i := range clist {
		if i < 0 || i >= n {
			return 0, Error{fmt.Sprintf("index %d out of range for %d vectors", i, n), []string{"SquaredNorm"}}
		}
		x, y, z := F.At(i, 0), F.At(i, 1), F.At(i, 2)
		g += x*x + y*y + z*z
	}
	return g, nil
}

func allIndexes(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}
