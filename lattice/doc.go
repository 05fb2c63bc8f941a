// Package lattice models the single-band Hubbard Hamiltonian on a periodic
// two-dimensional grid. It supports:
//
//   - Nearest-neighbor hopping matrix H1 (one per spin in this band: both
//     spins share the same hopping stencil)
//   - Periodic boundary conditions with correct handling of extent-2 axes
//     (no doubled bonds)
//   - Row-major site indexing with (x,y) <-> index conversion
//   - Eigen-decomposition of H1 for trial-state construction
//
// One auxiliary field lives on every site, so the field count equals the
// basis size.
//
// Complexity quicksheet:
//
//	NewHubbard      O(N²) time and memory (N = Nx×Ny)
//	H1              O(N²) copy
//	Eig             O(N³)
//	Index/Coordinate O(1)
package lattice
