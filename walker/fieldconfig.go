// Package walker: auxiliary-field path record.
package walker

// FieldConfig is a ring buffer over the sampled auxiliary-field vectors of
// one walker, together with the per-step cosine projection factor and
// complex weight factor that back propagation replays.
type FieldConfig struct {
	configs   [][]float64
	cosFac    []float64
	weightFac []complex128

	step, ib, block              int
	nfields, nbp, npropTot, nblk int
}

// NewFieldConfig sizes the ring for npropTot recorded steps of nfields
// fields each, grouped into back-propagation blocks of nbp steps.
func NewFieldConfig(nfields, npropTot, nbp int) (*FieldConfig, error) {
	if nfields < 1 || nbp < 1 || npropTot < nbp || npropTot%nbp != 0 {
		return nil, ErrFieldLength
	}
	fc := &FieldConfig{
		configs:   make([][]float64, npropTot),
		cosFac:    make([]float64, npropTot),
		weightFac: make([]complex128, npropTot),
		block:     -1,
		nfields:   nfields,
		nbp:       nbp,
		npropTot:  npropTot,
		nblk:      npropTot / nbp,
	}
	for i := range fc.configs {
		fc.configs[i] = make([]float64, nfields)
	}

	return fc, nil
}

// Push records a single field value; a step completes once nfields values
// have been pushed, a block once nbp steps have.
func (fc *FieldConfig) Push(x float64) {
	fc.configs[fc.step][fc.ib] = x
	fc.ib = (fc.ib + 1) % fc.nfields
	if fc.ib == 0 {
		fc.step = (fc.step + 1) % fc.npropTot
		if fc.step%fc.nbp == 0 {
			fc.block = (fc.block + 1) % fc.nblk
		}
	}
}

// PushFull records a whole step at once: the field vector plus its cosine
// and weight factors. Returns ErrFieldLength on a wrong-sized vector.
func (fc *FieldConfig) PushFull(config []float64, cfac float64, wfac complex128) error {
	if len(config) != fc.nfields {
		return ErrFieldLength
	}
	copy(fc.configs[fc.step], config)
	fc.cosFac[fc.step] = cfac
	fc.weightFac[fc.step] = wfac
	fc.step = (fc.step + 1) % fc.npropTot
	if fc.step%fc.nbp == 0 {
		fc.block = (fc.block + 1) % fc.nblk
	}

	return nil
}

// Block returns views over the most recently completed back-propagation
// block. Callers must not retain them across further pushes.
func (fc *FieldConfig) Block() (configs [][]float64, cos []float64, wfac []complex128) {
	start := fc.block * fc.nbp
	end := start + fc.nbp

	return fc.configs[start:end], fc.cosFac[start:end], fc.weightFac[start:end]
}

// Superblock returns views over everything except the most recent block,
// the span imaginary-time correlation functions consume.
func (fc *FieldConfig) Superblock() (configs [][]float64, cos []float64, wfac []complex128) {
	end := fc.npropTot - fc.nbp

	return fc.configs[:end], fc.cosFac[:end], fc.weightFac[:end]
}

// Clone returns a deep copy.
func (fc *FieldConfig) Clone() *FieldConfig {
	c := *fc
	c.configs = make([][]float64, len(fc.configs))
	for i := range fc.configs {
		c.configs[i] = append([]float64(nil), fc.configs[i]...)
	}
	c.cosFac = append([]float64(nil), fc.cosFac...)
	c.weightFac = append([]complex128(nil), fc.weightFac...)

	return &c
}

// ZeroLast clears the most recently completed step's record. Phaseless
// propagation calls this when a walker dies mid-step so back propagation
// never replays the killing fields.
func (fc *FieldConfig) ZeroLast() {
	prev := (fc.step - 1 + fc.npropTot) % fc.npropTot
	for i := range fc.configs[prev] {
		fc.configs[prev][i] = 0
	}
	fc.cosFac[prev] = 0
	fc.weightFac[prev] = 0
}
