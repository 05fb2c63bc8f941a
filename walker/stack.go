// Package walker: stabilized propagator stack for thermal walkers.
package walker

import (
	"fmt"

	"github.com/qmcgo/afqmc/linalg"
)

// PropagatorStack stores the per-slice one-body propagators of a thermal
// walker as per-bin products of stackSize consecutive slices, one product
// per spin. Keeping bins short bounds the conditioning of any product the
// stabilized reconstruction has to factorize.
type PropagatorStack struct {
	nslice    int
	stackSize int
	nbins     int
	nbasis    int

	timeSlice int
	binIx     int
	counter   int

	bins [][2]*linalg.Dense
}

// NewPropagatorStack builds an identity-filled stack.
// Returns ErrStackGranularity unless stackSize divides nslice.
func NewPropagatorStack(stackSize, nslice, nbasis int) (*PropagatorStack, error) {
	if stackSize < 1 || nslice < 1 || nslice%stackSize != 0 {
		return nil, ErrStackGranularity
	}
	if nbasis < 1 {
		return nil, fmt.Errorf("walker: stack: %w", linalg.ErrInvalidDimensions)
	}
	s := &PropagatorStack{
		nslice:    nslice,
		stackSize: stackSize,
		nbins:     nslice / stackSize,
		nbasis:    nbasis,
		bins:      make([][2]*linalg.Dense, nslice/stackSize),
	}
	s.Reset()

	return s, nil
}

// Reset rewinds the slice pointer and refills every bin with the identity.
func (s *PropagatorStack) Reset() {
	s.timeSlice, s.binIx, s.counter = 0, 0, 0
	for i := range s.bins {
		for sp := 0; sp < 2; sp++ {
			s.bins[i][sp], _ = linalg.Identity(s.nbasis)
		}
	}
}

// SetAll fills the stack as if b had been applied at every slice: each bin
// becomes b^stackSize per spin. The slice pointer stays at zero.
func (s *PropagatorStack) SetAll(b [2]*linalg.Dense) error {
	s.Reset()
	for slice := 0; slice < s.nslice; slice++ {
		ix := slice / s.stackSize
		for sp := 0; sp < 2; sp++ {
			prod, err := linalg.Mul(b[sp], s.bins[ix][sp])
			if err != nil {
				return fmt.Errorf("walker: stack set: %w", err)
			}
			s.bins[ix][sp] = prod
		}
	}

	return nil
}

// Update left-multiplies the current bin by the slice propagator b and
// advances the slice pointer. The first slice of a bin overwrites whatever
// the bin held before.
func (s *PropagatorStack) Update(b [2]*linalg.Dense) error {
	if s.counter == 0 {
		for sp := 0; sp < 2; sp++ {
			s.bins[s.binIx][sp], _ = linalg.Identity(s.nbasis)
		}
	}
	for sp := 0; sp < 2; sp++ {
		prod, err := linalg.Mul(b[sp], s.bins[s.binIx][sp])
		if err != nil {
			return fmt.Errorf("walker: stack update: %w", err)
		}
		s.bins[s.binIx][sp] = prod
	}
	s.timeSlice = (s.timeSlice + 1) % s.nslice
	s.binIx = s.timeSlice / s.stackSize
	s.counter = (s.counter + 1) % s.stackSize

	return nil
}

// Get returns the bin at index ix.
func (s *PropagatorStack) Get(ix int) ([2]*linalg.Dense, error) {
	if ix < 0 || ix >= s.nbins {
		return [2]*linalg.Dense{}, ErrSliceIndex
	}

	return s.bins[ix], nil
}

// Set overwrites the bin at index ix with deep copies of b.
func (s *PropagatorStack) Set(ix int, b [2]*linalg.Dense) error {
	if ix < 0 || ix >= s.nbins {
		return ErrSliceIndex
	}
	for sp := 0; sp < 2; sp++ {
		s.bins[ix][sp] = b[sp].Clone()
	}

	return nil
}

// TimeSlice returns the number of slices applied since the last wrap.
func (s *PropagatorStack) TimeSlice() int { return s.timeSlice }

// NBins returns the number of bins.
func (s *PropagatorStack) NBins() int { return s.nbins }

// StackSize returns the stabilization granularity.
func (s *PropagatorStack) StackSize() int { return s.stackSize }

// NSlice returns the total slice count.
func (s *PropagatorStack) NSlice() int { return s.nslice }

// Ordered returns the bins for one spin arranged oldest-first relative to
// sliceIx, the order the stabilized inverse product consumes: the bin
// containing sliceIx is applied last.
func (s *PropagatorStack) Ordered(sliceIx, spin int) ([]*linalg.Dense, error) {
	if sliceIx < 0 || sliceIx >= s.nslice {
		return nil, ErrSliceIndex
	}
	bin := sliceIx / s.stackSize
	if bin > s.nbins-1 {
		bin = s.nbins - 1
	}
	seq := make([]*linalg.Dense, s.nbins)
	for i := 0; i < s.nbins; i++ {
		seq[i] = s.bins[(bin+1+i)%s.nbins][spin]
	}

	return seq, nil
}

// Clone returns a deep copy of the stack.
func (s *PropagatorStack) Clone() *PropagatorStack {
	c := *s
	c.bins = make([][2]*linalg.Dense, len(s.bins))
	for i := range s.bins {
		for sp := 0; sp < 2; sp++ {
			c.bins[i][sp] = s.bins[i][sp].Clone()
		}
	}

	return &c
}
