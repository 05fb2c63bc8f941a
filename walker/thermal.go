// Package walker: finite-temperature walker.
package walker

import (
	"fmt"

	"github.com/qmcgo/afqmc/estimator"
	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
	"github.com/qmcgo/afqmc/trial"
)

// ThermalWalker represents one sample of the finite-temperature density
// matrix. Its Green's function is never propagated indefinitely: it is
// periodically rebuilt from the propagator stack so numerical drift stays
// bounded by the stabilization granularity.
type ThermalWalker struct {
	Weight float64
	Phase  complex128
	Alive  bool

	// G is the equal-time Green's function per spin at the current slice.
	G [2]*linalg.Dense
	// Stack holds the per-bin slice-propagator products.
	Stack *PropagatorStack

	nbasis int
}

// NewThermal seeds the walker at equilibrium under the trial density: every
// stack slice starts as the trial propagator B_T, and G is reconstructed
// from the full cycle.
func NewThermal(tr *trial.OneBody, stackSize int) (*ThermalWalker, error) {
	n := tr.Dmat[0].Rows()
	stack, err := NewPropagatorStack(stackSize, tr.NSlice, n)
	if err != nil {
		return nil, err
	}
	if err = stack.SetAll(tr.Dmat); err != nil {
		return nil, err
	}
	w := &ThermalWalker{Weight: 1, Phase: 1, Alive: true, Stack: stack, nbasis: n}
	if err = w.GreensFunction(0); err != nil {
		return nil, err
	}

	return w, nil
}

// GreensFunction rebuilds G in place from the stack at time slice sliceIx:
// G_s = (I + B(β,τ)·B(τ,0))⁻¹ via the stabilized inverse product.
func (w *ThermalWalker) GreensFunction(sliceIx int) error {
	g, err := w.GreensFunctionAt(sliceIx)
	if err != nil {
		return err
	}
	w.G = g

	return nil
}

// GreensFunctionAt computes the Green's function at sliceIx without touching
// the walker's stored G.
func (w *ThermalWalker) GreensFunctionAt(sliceIx int) ([2]*linalg.Dense, error) {
	var g [2]*linalg.Dense
	for sp := 0; sp < 2; sp++ {
		seq, err := w.Stack.Ordered(sliceIx, sp)
		if err != nil {
			return g, err
		}
		if g[sp], err = linalg.StabilizedInverseProduct(seq); err != nil {
			return g, fmt.Errorf("walker: thermal greens function: %w", err)
		}
	}

	return g, nil
}

// LocalEnergy evaluates the Hubbard local energy through the one-RDM.
func (w *ThermalWalker) LocalEnergy(h *lattice.Hubbard) (etot, ke, pe complex128, err error) {
	return estimator.ThermalLocalEnergyHubbard(h, w.G)
}

// Kill zeroes the weight and marks the walker dead.
func (w *ThermalWalker) Kill() {
	w.Weight = 0
	w.Alive = false
}

// IsAlive reports whether the walker still participates in the ensemble.
func (w *ThermalWalker) IsAlive() bool { return w.Alive }

// Clone returns a deep copy sharing no storage with the receiver.
func (w *ThermalWalker) Clone() *ThermalWalker {
	c := &ThermalWalker{
		Weight: w.Weight,
		Phase:  w.Phase,
		Alive:  w.Alive,
		Stack:  w.Stack.Clone(),
		nbasis: w.nbasis,
	}
	for sp := 0; sp < 2; sp++ {
		c.G[sp] = w.G[sp].Clone()
	}

	return c
}

// CopyFrom overwrites the receiver's state with a deep copy of src.
func (w *ThermalWalker) CopyFrom(src *ThermalWalker) {
	*w = *src.Clone()
}
