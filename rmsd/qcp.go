package rmsd

import (
	"fmt"
	"math"

	md "github.com/gomd/gomd"
	v3 "github.com/gomd/gomd/v3"
)

const (
	// evalPrec is the relative tolerance for the Newton-Raphson
	// eigenvalue iteration.
	evalPrec = 1e-11
	// maxIter bounds the iteration, so a single call has bounded
	// latency no matter the input.
	maxIter = 50
	// degenZero is the total variance under which both structures are
	// taken as fully coincident points.
	degenZero = 1e-12
)

// Superpose returns the minimal RMSD between conformations a and b over
// all rigid rotations and translations. Neither argument is mutated:
// centering happens on local copies.
func Superpose(a, b *v3.Matrix) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	ca := a.Clone()
	cb := b.Clone()
	if _, err := ca.Center(nil); err != nil {
		return 0, err
	}
	if _, err := cb.Center(nil); err != nil {
		return 0, err
	}
	return SuperposePrecentered(ca, cb)
}

// SuperposePrecentered is the fast path for callers that manage
// centering themselves: both inputs must already have a zero centroid.
// Feeding it uncentered coordinates silently yields a too-large value;
// that contract is the price of skipping the copies.
func SuperposePrecentered(a, b *v3.Matrix) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	ga, err := a.SquaredNorm(nil)
	if err != nil {
		return 0, err
	}
	s, gb := kernel(a.RawMatrix(), b.RawMatrix())
	return qcpRMSD(s, ga, gb, a.NVecs()), nil
}

func checkPair(a, b *v3.Matrix) error {
	if a == nil || b == nil {
		return md.NewError(md.KindEmptyStructure, "nil conformation")
	}
	na, nb := a.NVecs(), b.NVecs()
	if na == 0 || nb == 0 {
		return md.NewError(md.KindEmptyStructure, "conformation with zero atoms")
	}
	if na != nb {
		return md.NewError(md.KindDimensionMismatch, fmt.Sprintf("conformations have %d and %d atoms", na, nb))
	}
	return nil
}

// qcpRMSD solves for the largest eigenvalue of the QCP key matrix from
// the characteristic polynomial and converts it to an RMSD. Inputs are
// the cross-covariance sums, the squared norms of each centered set and
// the atom count.
func qcpRMSD(s [9]float64, ga, gb float64, n int) float64 {
	if n == 1 {
		//a rotation is meaningless for a single centered point
		return 0
	}
	e0 := ga + gb
	if e0 < degenZero {
		//all points coincident; the polynomial would be identically zero
		return 0
	}
	sxx, sxy, sxz := s[0], s[1], s[2]
	syx, syy, syz := s[3], s[4], s[5]
	szx, szy, szz := s[6], s[7], s[8]

	sxx2, syy2, szz2 := sxx*sxx, syy*syy, szz*szz
	sxy2, syz2, sxz2 := sxy*sxy, syz*syz, sxz*sxz
	syx2, szy2, szx2 := syx*syx, szy*szy, szx*szx

	syzszymsyyszz2 := 2.0 * (syz*szy - syy*szz)
	sxx2syy2szz2syz2szy2 := syy2 + szz2 - sxx2 + syz2 + szy2

	c2 := -2.0 * (sxx2 + syy2 + szz2 + sxy2 + syx2 + sxz2 + szx2 + syz2 + szy2)
	c1 := 8.0 * (sxx*syz*szy + syy*szx*sxz + szz*sxy*syx - sxx*syy*szz - syz*szx*sxy - szy*syx*sxz)

	sxzpszx := sxz + szx
	syzpszy := syz + szy
	sxypsyx := sxy + syx
	syzmszy := syz - szy
	sxzmszx := sxz - szx
	sxymsyx := sxy - syx
	sxxpsyy := sxx + syy
	sxxmsyy := sxx - syy
	sxy2sxz2syx2szx2 := sxy2 + sxz2 - syx2 - szx2

	c0 := sxy2sxz2syx2szx2*sxy2sxz2syx2szx2 +
		(sxx2syy2szz2syz2szy2+syzszymsyyszz2)*(sxx2syy2szz2syz2szy2-syzszymsyyszz2) +
		(-sxzpszx*syzmszy+sxymsyx*(sxxmsyy-szz))*(-sxzmszx*syzpszy+sxymsyx*(sxxmsyy+szz)) +
		(-sxzpszx*syzpszy-sxypsyx*(sxxpsyy-szz))*(-sxzmszx*syzmszy-sxypsyx*(sxxpsyy+szz)) +
		(sxypsyx*syzpszy+sxzpszx*(sxxmsyy+szz))*(-sxymsyx*syzmszy+sxzpszx*(sxxpsyy+szz)) +
		(sxypsyx*syzmszy+sxzmszx*(sxxmsyy-szz))*(-sxymsyx*syzpszy+sxzmszx*(sxxpsyy-szz))

	//Newton-Raphson from the closed-form upper bound E0/2. The largest
	//eigenvalue is always below it, so the iteration descends onto it.
	lambda := e0 / 2.0
	for i := 0; i < maxIter; i++ {
		old := lambda
		x2 := lambda * lambda
		b := (x2 + c2) * lambda
		a := b + c1
		den := 2.0*x2*lambda + b + a
		if den == 0 {
			break
		}
		lambda -= (a*lambda + c0) / den
		if math.Abs(lambda-old) < math.Abs(evalPrec*lambda) {
			break
		}
	}
	//clamp: near-identical structures can push the radicand a hair
	//below zero by cancellation
	rad := (e0 - 2.0*lambda) / float64(n)
	if rad < 0 {
		return 0
	}
	return math.Sqrt(rad)
}
