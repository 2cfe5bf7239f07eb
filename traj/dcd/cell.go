package dcd

import "math"

const deg2rad = math.Pi / 180.0

// The extrablock stores the unit cell as [a, gamma, b, beta, alpha, c].
// CHARMM and recent NAMD write the angles as cosines, older programs as
// degrees; values within [-1,1] are taken as cosines.

func cosFromEntry(v float64) float64 {
	if v >= -1 && v <= 1 {
		return v
	}
	return math.Cos(v * deg2rad)
}

// paramsToVectors converts the 6 cell parameters of the extrablock into
// the 3 cell vectors, written row-major into the first 9 elements of
// box. The a vector lies on x, the b vector on the xy plane.
func paramsToVectors(cell [6]float64, box []float64) {
	a, b, c := cell[0], cell[2], cell[5]
	cosGamma := cosFromEntry(cell[1])
	cosBeta := cosFromEntry(cell[3])
	cosAlpha := cosFromEntry(cell[4])
	sinGamma := math.Sqrt(1 - cosGamma*cosGamma)
	box[0], box[1], box[2] = a, 0, 0
	box[3], box[4], box[5] = b*cosGamma, b*sinGamma, 0
	cx := c * cosBeta
	var cy float64
	if sinGamma != 0 {
		cy = c * (cosAlpha - cosBeta*cosGamma) / sinGamma
	}
	cz2 := c*c - cx*cx - cy*cy
	var cz float64
	if cz2 > 0 {
		cz = math.Sqrt(cz2)
	}
	box[6], box[7], box[8] = cx, cy, cz
}

// vectorsToParams is the inverse used when writing: 9 row-major cell
// vector components to the 6-parameter extrablock layout, with the
// angles stored as cosines.
func vectorsToParams(box []float64) (cell [6]float64) {
	norm := func(x, y, z float64) float64 { return math.Sqrt(x*x + y*y + z*z) }
	a := norm(box[0], box[1], box[2])
	b := norm(box[3], box[4], box[5])
	c := norm(box[6], box[7], box[8])
	cos := func(x1, y1, z1, x2, y2, z2, n1, n2 float64) float64 {
		if n1 == 0 || n2 == 0 {
			return 0
		}
		return (x1*x2 + y1*y2 + z1*z2) / (n1 * n2)
	}
	cell[0] = a
	cell[1] = cos(box[0], box[1], box[2], box[3], box[4], box[5], a, b) //gamma
	cell[2] = b
	cell[3] = cos(box[0], box[1], box[2], box[6], box[7], box[8], a, c) //beta
	cell[4] = cos(box[3], box[4], box[5], box[6], box[7], box[8], b, c) //alpha
	cell[5] = c
	return cell
}
