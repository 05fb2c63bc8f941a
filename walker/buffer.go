// Package walker: serialized state for cross-rank migration.
package walker

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/qmcgo/afqmc/linalg"
)

// MatState is a gob-friendly matrix snapshot. gob has no complex kind, so
// entries are stored as interleaved re/im float64 pairs.
type MatState struct {
	Rows, Cols int
	Data       []float64
}

func matState(m *linalg.Dense) MatState {
	d := m.Data()
	flat := make([]float64, 2*len(d))
	for i, v := range d {
		flat[2*i] = real(v)
		flat[2*i+1] = imag(v)
	}

	return MatState{Rows: m.Rows(), Cols: m.Cols(), Data: flat}
}

func (ms MatState) restore() (*linalg.Dense, error) {
	m, err := linalg.NewDense(ms.Rows, ms.Cols)
	if err != nil {
		return nil, fmt.Errorf("walker: buffer restore: %w", err)
	}
	if len(ms.Data) != 2*ms.Rows*ms.Cols {
		return nil, ErrBufferShape
	}
	d := m.Data()
	for i := range d {
		d[i] = complex(ms.Data[2*i], ms.Data[2*i+1])
	}

	return m, nil
}

// Buffer is the full migratable state of a ground-state walker.
type Buffer struct {
	Weight             float64
	PhaseRe, PhaseIm   float64
	OtRe, OtIm         float64
	EL                 float64
	Alive              bool
	Phi, InvO, G       [2]MatState
	PhiOld, PhiInit    [2]MatState
	Fields             *FieldBuffer
}

// FieldBuffer is the migratable state of a FieldConfig ring.
type FieldBuffer struct {
	Configs          [][]float64
	CosFac           []float64
	WeightFacRe      []float64
	WeightFacIm      []float64
	Step, Ib, Block  int
	NFields, NBP     int
	NPropTot, NBlk   int
}

// Buffer snapshots the walker for migration.
func (w *Walker) Buffer() *Buffer {
	b := &Buffer{
		Weight:  w.Weight,
		PhaseRe: real(w.Phase), PhaseIm: imag(w.Phase),
		OtRe: real(w.Ot), OtIm: imag(w.Ot),
		EL:    w.EL,
		Alive: w.Alive,
	}
	for s := 0; s < 2; s++ {
		b.Phi[s] = matState(w.Phi[s])
		b.InvO[s] = matState(w.InvO[s])
		b.G[s] = matState(w.G[s])
		b.PhiOld[s] = matState(w.PhiOld[s])
		b.PhiInit[s] = matState(w.PhiInit[s])
	}
	if w.Fields != nil {
		b.Fields = w.Fields.buffer()
	}

	return b
}

// SetBuffer restores the walker from a snapshot taken by Buffer.
func (w *Walker) SetBuffer(b *Buffer) error {
	restored := [][2]MatState{b.Phi, b.InvO, b.G, b.PhiOld, b.PhiInit}
	targets := []*[2]*linalg.Dense{&w.Phi, &w.InvO, &w.G, &w.PhiOld, &w.PhiInit}
	for k, pair := range restored {
		for s := 0; s < 2; s++ {
			m, err := pair[s].restore()
			if err != nil {
				return err
			}
			targets[k][s] = m
		}
	}
	w.Weight = b.Weight
	w.Phase = complex(b.PhaseRe, b.PhaseIm)
	w.Ot = complex(b.OtRe, b.OtIm)
	w.EL = b.EL
	w.Alive = b.Alive
	if b.Fields != nil {
		w.Fields = b.Fields.restore()
	}

	return nil
}

// MarshalState encodes the walker for transport.
func (w *Walker) MarshalState() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w.Buffer()); err != nil {
		return nil, fmt.Errorf("walker: marshal: %w", err)
	}

	return buf.Bytes(), nil
}

// UnmarshalState restores the walker from MarshalState output.
func (w *Walker) UnmarshalState(data []byte) error {
	var b Buffer
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return fmt.Errorf("walker: unmarshal: %w", err)
	}

	return w.SetBuffer(&b)
}

func (fc *FieldConfig) buffer() *FieldBuffer {
	b := &FieldBuffer{
		Configs:     make([][]float64, len(fc.configs)),
		CosFac:      append([]float64(nil), fc.cosFac...),
		WeightFacRe: make([]float64, len(fc.weightFac)),
		WeightFacIm: make([]float64, len(fc.weightFac)),
		Step:        fc.step, Ib: fc.ib, Block: fc.block,
		NFields: fc.nfields, NBP: fc.nbp,
		NPropTot: fc.npropTot, NBlk: fc.nblk,
	}
	for i := range fc.configs {
		b.Configs[i] = append([]float64(nil), fc.configs[i]...)
	}
	for i, v := range fc.weightFac {
		b.WeightFacRe[i] = real(v)
		b.WeightFacIm[i] = imag(v)
	}

	return b
}

func (b *FieldBuffer) restore() *FieldConfig {
	fc := &FieldConfig{
		configs:   make([][]float64, len(b.Configs)),
		cosFac:    append([]float64(nil), b.CosFac...),
		weightFac: make([]complex128, len(b.WeightFacRe)),
		step:      b.Step, ib: b.Ib, block: b.Block,
		nfields: b.NFields, nbp: b.NBP,
		npropTot: b.NPropTot, nblk: b.NBlk,
	}
	for i := range b.Configs {
		fc.configs[i] = append([]float64(nil), b.Configs[i]...)
	}
	for i := range fc.weightFac {
		fc.weightFac[i] = complex(b.WeightFacRe[i], b.WeightFacIm[i])
	}

	return fc
}

// ThermalBuffer is the full migratable state of a thermal walker.
type ThermalBuffer struct {
	Weight           float64
	PhaseRe, PhaseIm float64
	Alive            bool
	G                [2]MatState
	Bins             [][2]MatState
	TimeSlice        int
	BinIx, Counter   int
	StackSize        int
	NSlice, NBasis   int
}

// Buffer snapshots the thermal walker for migration.
func (w *ThermalWalker) Buffer() *ThermalBuffer {
	b := &ThermalBuffer{
		Weight:  w.Weight,
		PhaseRe: real(w.Phase), PhaseIm: imag(w.Phase),
		Alive:     w.Alive,
		Bins:      make([][2]MatState, len(w.Stack.bins)),
		TimeSlice: w.Stack.timeSlice,
		BinIx:     w.Stack.binIx,
		Counter:   w.Stack.counter,
		StackSize: w.Stack.stackSize,
		NSlice:    w.Stack.nslice,
		NBasis:    w.nbasis,
	}
	for s := 0; s < 2; s++ {
		b.G[s] = matState(w.G[s])
	}
	for i := range w.Stack.bins {
		for s := 0; s < 2; s++ {
			b.Bins[i][s] = matState(w.Stack.bins[i][s])
		}
	}

	return b
}

// SetBuffer restores the thermal walker from a snapshot.
func (w *ThermalWalker) SetBuffer(b *ThermalBuffer) error {
	stack, err := NewPropagatorStack(b.StackSize, b.NSlice, b.NBasis)
	if err != nil {
		return err
	}
	if len(b.Bins) != stack.nbins {
		return ErrBufferShape
	}
	for i := range b.Bins {
		for s := 0; s < 2; s++ {
			if stack.bins[i][s], err = b.Bins[i][s].restore(); err != nil {
				return err
			}
		}
	}
	stack.timeSlice, stack.binIx, stack.counter = b.TimeSlice, b.BinIx, b.Counter
	for s := 0; s < 2; s++ {
		if w.G[s], err = b.G[s].restore(); err != nil {
			return err
		}
	}
	w.Stack = stack
	w.Weight = b.Weight
	w.Phase = complex(b.PhaseRe, b.PhaseIm)
	w.Alive = b.Alive
	w.nbasis = b.NBasis

	return nil
}

// MarshalState encodes the thermal walker for transport.
func (w *ThermalWalker) MarshalState() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w.Buffer()); err != nil {
		return nil, fmt.Errorf("walker: marshal: %w", err)
	}

	return buf.Bytes(), nil
}

// UnmarshalState restores the thermal walker from MarshalState output.
func (w *ThermalWalker) UnmarshalState(data []byte) error {
	var b ThermalBuffer
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return fmt.Errorf("walker: unmarshal: %w", err)
	}

	return w.SetBuffer(&b)
}
