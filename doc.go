// Package afqmc is a walker propagation and population-control engine for
// auxiliary-field quantum Monte Carlo (AFQMC): stochastic imaginary-time
// projection of an ensemble of many-fermion wavefunction representatives
// ("walkers") toward a ground or thermal state.
//
// What the engine does:
//
//   - Advances each walker one imaginary-time step through a stochastic
//     auxiliary-field transformation (continuous Gaussian or discrete Ising
//     fields, with or without force bias)
//   - Maintains a numerically stable mixed-estimator Green's function under
//     repeated matrix products (Sherman–Morrison hot paths, periodic QR
//     reorthogonalization, QDT-stabilized propagator stacks)
//   - Redistributes walker weight across the distributed ensemble (comb
//     systematic resampling or local birth/death branching) to control the
//     sign/phase problem and weight variance
//
// Package map:
//
//	linalg/     — complex dense kernels: QR, LU, Sherman–Morrison, stabilized products
//	lattice/    — Hubbard model collaborator (one-body Hamiltonian, lattice geometry)
//	trial/      — trial states: free-electron determinant, one-body thermal density
//	walker/     — Walker state, PropagatorStack, field-history record
//	propagator/ — propagation strategies: continuous/discrete HS, phaseless/free, force bias
//	estimator/  — pure energy/density functions of a Green's function
//	comm/       — communication layer: weight gather, broadcast, walker migration
//	ensemble/   — walker shard, parallel stepping, comb & branching population control
//	qmc/        — driver loop, configuration, reproducible seeding
//
// Construction of Hamiltonians beyond the Hubbard lattice, self-consistent
// trial wavefunctions, observable persistence, and CLI/config parsing are
// intentionally out of scope; the engine consumes those as collaborators.
package afqmc
