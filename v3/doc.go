// Package v3 implements the coordinate buffers used everywhere else in
// gomd: sets of points in 3D space stored as Nx3 matrices of float64,
// one row per atom. It wraps the gonum dense matrix, so a *Matrix can be
// used directly with gonum functions, and adds the operations that only
// make sense for Nx3 coordinate sets: centroid removal, squared norms
// and index-list gathering.
//
// Whatever representation a trajectory source uses on disk (float32 in
// DCD, scaled integers in ZTF), coordinates become float64 here, at the
// boundary, and stay float64.
package v3
