/*
Package rmsd computes the minimal root-mean-square deviation between
conformations after optimal rigid-body superposition, using Theobald's
quaternion-characteristic-polynomial (QCP) method: instead of building
the rotation matrix, the largest eigenvalue of the 4x4 key matrix is
obtained directly from its characteristic polynomial by Newton-Raphson,
which is what makes one-against-a-whole-trajectory workloads cheap.

Only proper rotations are considered (no reflections), and translation
is removed by centering, so the result is invariant under any rigid
transformation of either input.

The package also provides a precentering cache for repeated-reference
workloads and batch drivers (one-vs-many, all-pairs, chunked streaming)
that parallelize across frames while preserving input order in the
results.
*/
package rmsd
