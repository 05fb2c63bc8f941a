package qmc

import "errors"

// Sentinel errors for run construction.
var (
	// ErrNilSystem indicates construction without a lattice.
	ErrNilSystem = errors.New("qmc: system must not be nil")
	// ErrNilCommunicator indicates construction without a transport.
	ErrNilCommunicator = errors.New("qmc: communicator must not be nil")
	// ErrOptionConflict indicates an option combination with no matching
	// propagation strategy, e.g. a continuous-field finite-temperature run
	// or charge decomposition at zero temperature.
	ErrOptionConflict = errors.New("qmc: incompatible option combination")
)
