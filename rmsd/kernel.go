package rmsd

import (
	"os"

	"gonum.org/v1/gonum/blas/blas64"
)

// covFunc accumulates the 3x3 cross-covariance matrix between two
// centered coordinate sets of equal length, plus the squared norm of the
// second set. Row-major Nx3 input, any stride.
type covFunc func(a, b blas64.General) (s [9]float64, gb float64)

// kernel is the inner loop used by every RMSD computation in this
// package. It is resolved exactly once, at process start, and treated as
// immutable afterwards: set GOMD_KERNEL=scalar to force the plain loop
// instead of the default unrolled one.
var kernel = pickKernel()

func pickKernel() covFunc {
	if os.Getenv("GOMD_KERNEL") == "scalar" {
		return covScalar
	}
	return covUnrolled
}

func covScalar(a, b blas64.General) (s [9]float64, gb float64) {
	for i := 0; i < a.Rows; i++ {
		ra := a.Data[i*a.Stride : i*a.Stride+3]
		rb := b.Data[i*b.Stride : i*b.Stride+3]
		ax, ay, az := ra[0], ra[1], ra[2]
		bx, by, bz := rb[0], rb[1], rb[2]
		gb += bx*bx + by*by + bz*bz
		s[0] += ax * bx
		s[1] += ax * by
		s[2] += ax * bz
		s[3] += ay * bx
		s[4] += ay * by
		s[5] += ay * bz
		s[6] += az * bx
		s[7] += az * by
		s[8] += az * bz
	}
	return s, gb
}

// covUnrolled processes two atoms per iteration with independent
// accumulator banks, which shortens the floating-point dependency chains
// on superscalar hardware. Results match covScalar up to summation
// order.
func covUnrolled(a, b blas64.General) (s [9]float64, gb float64) {
	var t [9]float64
	var gb2 float64
	n := a.Rows
	i := 0
	for ; i+1 < n; i += 2 {
		ra := a.Data[i*a.Stride : i*a.Stride+3]
		rb := b.Data[i*b.Stride : i*b.Stride+3]
		ra2 := a.Data[(i+1)*a.Stride : (i+1)*a.Stride+3]
		rb2 := b.Data[(i+1)*b.Stride : (i+1)*b.Stride+3]
		ax, ay, az := ra[0], ra[1], ra[2]
		bx, by, bz := rb[0], rb[1], rb[2]
		cx, cy, cz := ra2[0], ra2[1], ra2[2]
		dx, dy, dz := rb2[0], rb2[1], rb2[2]
		gb += bx*bx + by*by + bz*bz
		gb2 += dx*dx + dy*dy + dz*dz
		s[0] += ax * bx
		s[1] += ax * by
		s[2] += ax * bz
		s[3] += ay * bx
		s[4] += ay * by
		s[5] += ay * bz
		s[6] += az * bx
		s[7] += az * by
		s[8] += az * bz
		t[0] += cx * dx
		t[1] += cx * dy
		t[2] += cx * dz
		t[3] += cy * dx
		t[4] += cy * dy
		t[5] += cy * dz
		t[6] += cz * dx
		t[7] += cz * dy
		t[8] += cz * dz
	}
	if i < n {
		ra := a.Data[i*a.Stride : i*a.Stride+3]
		rb := b.Data[i*b.Stride : i*b.Stride+3]
		ax, ay, az := ra[0], ra[1], ra[2]
		bx, by, bz := rb[0], rb[1], rb[2]
		gb += bx*bx + by*by + bz*bz
		s[0] += ax * bx
		s[1] += ax * by
		s[2] += ax * bz
		s[3] += ay * bx
		s[4] += ay * by
		s[5] += ay * bz
		s[6] += az * bx
		s[7] += az * by
		s[8] += az * bz
	}
	for k := range s {
		s[k] += t[k]
	}
	return s, gb + gb2
}
