package ensemble

import "errors"

// Sentinel errors for ensemble construction and population control.
var (
	// ErrEmptyShard indicates a worker holding zero walkers; the per-worker
	// parallel invariant is broken and the run must abort.
	ErrEmptyShard = errors.New("ensemble: worker holds zero walkers")
	// ErrNilCommunicator indicates construction without a transport.
	ErrNilCommunicator = errors.New("ensemble: communicator must not be nil")
	// ErrInvalidThresholds indicates weight thresholds with wmin >= wmax or
	// non-positive values.
	ErrInvalidThresholds = errors.New("ensemble: weight thresholds must satisfy 0 < wmin < wmax")
	// ErrPopulationMismatch indicates a global walker count that no longer
	// matches the construction-time target during comb communication.
	ErrPopulationMismatch = errors.New("ensemble: global walker count mismatch during comb")
	// ErrCollapsed indicates the local shard carries no weight at a control
	// step, so rescaling is impossible.
	ErrCollapsed = errors.New("ensemble: total walker weight is zero")
)
