// Package ensemble owns the local shard of the walker population: parallel
// per-walker stepping, periodic reorthogonalization, and the two
// population-control algorithms that keep weight variance bounded.
//
// What you get:
//
//   - Ensemble — the shard container; total weight is recomputed from the
//     walkers at every control step, never carried stale across one.
//   - Step — one independent task per walker over an errgroup pool; walkers
//     share no mutable state during propagation, so the only
//     synchronization points are the control-step collectives.
//   - Comb — systematic resampling (Booth & Gubernatis, PRE 80, 046704):
//     one global uniform draw, evenly spaced teeth over the cumulative
//     weight distribution, walker-state exchange across ranks, all weights
//     reset to one.
//   - Branching — local birth/death control against the wmin/wmax
//     thresholds after rescaling; clones fill dead slots before the shard
//     grows. Higher variance than Comb, no communication.
//
// Logging goes through go.uber.org/zap and defaults to a nop logger, so
// the package stays silent unless the caller wires one in.
//
// Complexity quicksheet (n = local walkers, N = global walkers, b = basis):
//
//	Step            O(n/P) wall time on P workers
//	Orthogonalise   O(n·b·nocc²) QR sweeps
//	Comb            O(N) assignment + O(moved·b²) state exchange
//	Branching       O(n log n) including the final alive-first sort
package ensemble
