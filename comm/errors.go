package comm

import "github.com/pkg/errors"

// Sentinel errors for communication-protocol violations. All of them are
// fatal to a run; none are locally recoverable.
var (
	// ErrRank indicates a source or destination rank outside [0, Size).
	ErrRank = errors.New("comm: rank out of range")
	// ErrCountMismatch indicates ranks contributed differently sized
	// payloads to a collective, e.g. unequal walker shards during a gather.
	ErrCountMismatch = errors.New("comm: collective payload size mismatch")
	// ErrNoMessage indicates a receive with no matching pending message.
	ErrNoMessage = errors.New("comm: no pending message")
	// ErrInvalidSize indicates a communicator size below one.
	ErrInvalidSize = errors.New("comm: size must be at least one")
)
