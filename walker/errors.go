package walker

import "errors"

// Sentinel errors for walker operations.
var (
	// ErrSingularOverlap indicates the trial/walker overlap was singular at
	// construction time, where no stochastic recovery exists.
	ErrSingularOverlap = errors.New("walker: trial overlap is singular at initialization")
	// ErrStackGranularity indicates a stack size that does not divide the
	// slice count.
	ErrStackGranularity = errors.New("walker: stack size must divide the number of time slices")
	// ErrSliceIndex indicates a time-slice index outside [0, nslice).
	ErrSliceIndex = errors.New("walker: time-slice index out of range")
	// ErrFieldLength indicates a pushed field vector of the wrong length.
	ErrFieldLength = errors.New("walker: field configuration length mismatch")
	// ErrBufferShape indicates a migration buffer whose dimensions do not
	// match the receiving walker.
	ErrBufferShape = errors.New("walker: migration buffer shape mismatch")
	// ErrMemberType indicates a population-control copy between walkers of
	// different concrete kinds.
	ErrMemberType = errors.New("walker: member kind mismatch")
)
