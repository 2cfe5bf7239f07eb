/*
Package md provides the core machinery for analyzing molecular dynamics
trajectories: the data model (conformations, trajectories, atom-index
subsets), the error taxonomy shared by the whole module, the pull
interfaces implemented by trajectory sources, and the out-of-core
ChunkReader that lets arbitrarily large trajectories be processed in
fixed-size chunks without ever loading the whole file.

The actual structural-similarity computation lives in the rmsd
subpackage; on-disk codecs live under traj. Coordinates are handled by
the v3 package.
*/
package md
