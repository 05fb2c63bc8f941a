package walker

// Member is the population-control view of a walker: weight bookkeeping,
// life cycle, state serialization for cross-worker migration, and deep
// copies for local cloning. Both walker kinds satisfy it, so the ensemble
// never branches on the walker type.
type Member interface {
	// CurrentWeight returns the importance-sampling weight.
	CurrentWeight() float64
	// SetWeight overwrites the importance-sampling weight.
	SetWeight(v float64)
	// IsAlive reports whether the walker still carries statistical weight.
	IsAlive() bool
	// Kill zeroes the weight and marks the walker dead.
	Kill()
	// MarshalState serializes the full walker state for migration.
	MarshalState() ([]byte, error)
	// UnmarshalState overwrites the walker from serialized state.
	UnmarshalState(data []byte) error
	// CloneMember returns a deep copy that shares no buffers with the
	// receiver.
	CloneMember() Member
	// CopyMember overwrites the receiver from another member of the same
	// concrete type. Returns ErrMemberType on a kind mismatch.
	CopyMember(src Member) error
}

var (
	_ Member = (*Walker)(nil)
	_ Member = (*ThermalWalker)(nil)
)

// CurrentWeight returns the importance-sampling weight.
func (w *Walker) CurrentWeight() float64 { return w.Weight }

// SetWeight overwrites the importance-sampling weight.
func (w *Walker) SetWeight(v float64) { w.Weight = v }

// CloneMember returns a deep copy of the walker.
func (w *Walker) CloneMember() Member { return w.Clone() }

// CopyMember overwrites the walker from another ground-state walker.
func (w *Walker) CopyMember(src Member) error {
	s, ok := src.(*Walker)
	if !ok {
		return ErrMemberType
	}
	w.CopyFrom(s)

	return nil
}

// CurrentWeight returns the importance-sampling weight.
func (w *ThermalWalker) CurrentWeight() float64 { return w.Weight }

// SetWeight overwrites the importance-sampling weight.
func (w *ThermalWalker) SetWeight(v float64) { w.Weight = v }

// CloneMember returns a deep copy of the walker.
func (w *ThermalWalker) CloneMember() Member { return w.Clone() }

// CopyMember overwrites the walker from another thermal walker.
func (w *ThermalWalker) CopyMember(src Member) error {
	s, ok := src.(*ThermalWalker)
	if !ok {
		return ErrMemberType
	}
	w.CopyFrom(s)

	return nil
}
