// Package walker holds the stochastic wavefunction representatives and their
// numerical-stability machinery. It supports:
//
//   - Walker: ground-state single-determinant walker with per-spin amplitude
//     blocks, inverse trial overlaps, a mixed Green's function, weight and
//     phase accumulators, and historic copies for back propagation
//   - PropagatorStack: per-bin products of per-slice one-body propagators for
//     finite-temperature walkers, with stabilized reconstruction of the long
//     product through interleaved QR
//   - ThermalWalker: finite-temperature walker whose Green's function is
//     always rebuilt from its stack
//   - FieldConfig: ring buffer of sampled auxiliary-field configurations and
//     the per-step cosine/weight factors back propagation needs
//
// Overlap failures follow a two-regime rule: a singular overlap during
// construction is a hard error, while a singular overlap mid-run marks the
// walker dead (weight zero) and is never reported as an error.
//
// Complexity quicksheet (N = basis, M = particles per spin, S = bins):
//
//	UpdateInverseOverlap O(M²) per spin
//	GreensFunction        O(N²·M) ground state, O(S·N³) thermal
//	Reortho               O(N·M²)
//	Stack Update          O(N³) per slice
package walker
