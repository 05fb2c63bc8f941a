// Package trial builds the reference states that anchor importance sampling:
//
//   - FreeElectron: ground-state single determinant from the lowest one-body
//     eigenvectors per spin, with its mixed-estimator reference energy
//   - OneBody: finite-temperature trial density matrix
//     B_T = exp(−Δτ·(H1 − μ_T·I)) per spin, with the trial chemical
//     potential μ_T located by bisection on the exact Fermi occupancy so the
//     equilibrium density carries the target particle number
//
// For a one-body trial the Fermi occupancy is exact: the product of
// per-slice B_T matrices over β/Δτ slices equals exp(−β·(H1 − μ_T·I))
// with no splitting error, so the bisection target and the stabilized
// numerical density agree to machine precision.
//
// Complexity quicksheet (N = basis size):
//
//	NewFreeElectron O(N³)
//	NewOneBody      O(N³) eigen + O(iters·N) bisection
package trial
