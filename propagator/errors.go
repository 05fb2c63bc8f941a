package propagator

import "errors"

// Sentinel errors for propagator construction and stepping.
var (
	// ErrInvalidTimeStep indicates a non-positive imaginary-time step.
	ErrInvalidTimeStep = errors.New("propagator: time step must be positive")
	// ErrInvalidStabilization indicates a non-positive stabilization interval.
	ErrInvalidStabilization = errors.New("propagator: stabilization interval must be positive")
	// ErrModeConflict indicates an unsupported option combination, e.g.
	// site-resolved free projection under charge decomposition.
	ErrModeConflict = errors.New("propagator: incompatible propagation mode options")
	// ErrDeadWalker indicates a Propagate call on a walker that is no longer
	// alive.
	ErrDeadWalker = errors.New("propagator: walker is dead")
)
