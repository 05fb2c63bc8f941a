// Package propagator implements the imaginary-time projection strategies.
// Every variant is selected once at construction and exposes a single
// Propagate entry point; no caller ever branches on the variant afterwards.
// It supports:
//
//   - ThermalDiscrete: Ising auxiliary fields for finite-temperature Hubbard
//     walkers, with spin or charge decomposition, in constrained, free-site,
//     free-slice and dynamic force-bias modes
//   - Continuous: Gaussian auxiliary fields for ground-state Hubbard walkers
//     with mean-field shift, optional force bias, and phaseless or
//     free-projection weight handling
//   - DiscreteCPMC: Ising auxiliary fields for ground-state walkers with
//     Sherman-Morrison overlap updates per site
//
// All variants perform the symmetric split: half one-body propagator, one
// stochastic two-body step, half one-body propagator (thermal discrete folds
// the one-body factor into each slice matrix instead, as the stack requires
// whole-slice propagators).
//
// Randomness always flows through an explicit *rand.Rand handle; the package
// never touches a global generator.
package propagator
