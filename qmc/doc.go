// Package qmc drives an auxiliary-field quantum Monte Carlo run: it wires
// the lattice, trial state, propagator, walker ensemble and communication
// layer together and executes the imaginary-time loop.
//
// What you get:
//
//   - functional Options (WithTimeStep, WithBeta, WithWalkers, ...) with
//     documented default constants; nonsensical single values panic at
//     option construction, incompatible combinations surface as
//     ErrOptionConflict from New.
//   - Runner — one worker's view of the run. New selects the propagation
//     strategy once from the options (ground-state continuous or discrete,
//     finite-temperature discrete) and Run never branches on it again.
//   - reproducible randomness: rank 0 establishes the root seed, broadcasts
//     it, each rank offsets by its rank, and every stochastic call receives
//     an explicit *rand.Rand stream; there is no global generator.
//
// Each Run step propagates every walker in parallel, periodically
// reorthogonalizes and applies population control, and emits one StepStats
// record of scalar observables for an external persistence consumer.
// Walker-level failures (singular overlap, non-finite weight) stay local:
// the walker dies, the run continues. Worker-level failures abort the run.
package qmc
