// Package propagator: discrete (Ising) auxiliary fields for ground-state
// walkers.
package propagator

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
	"github.com/qmcgo/afqmc/trial"
	"github.com/qmcgo/afqmc/walker"
)

// DiscreteCPMCOptions selects the weight handling of the ground-state
// discrete propagator.
type DiscreteCPMCOptions struct {
	// FreeProjection removes the sign constraint on overlap ratios.
	FreeProjection bool
}

// DiscreteCPMC propagates ground-state walkers with spin-decomposed Ising
// fields: half kinetic, a sequential site sweep with Sherman-Morrison
// overlap updates, half kinetic.
type DiscreteCPMC struct {
	h    *lattice.Hubbard
	dt   float64
	free bool

	gamma   float64
	auxf    [2][2]complex128
	delta   [2][2]complex128
	bh1Half *linalg.Dense
	psi     [2]*linalg.Dense
}

// NewDiscreteCPMC precomputes the field table and the half kinetic
// propagator exp(−dt/2·H1).
func NewDiscreteCPMC(h *lattice.Hubbard, tr *trial.FreeElectron, dt float64, opts DiscreteCPMCOptions) (*DiscreteCPMC, error) {
	if dt <= 0 {
		return nil, ErrInvalidTimeStep
	}
	p := &DiscreteCPMC{
		h:     h,
		dt:    dt,
		free:  opts.FreeProjection,
		gamma: math.Acosh(math.Exp(0.5 * dt * h.U)),
		psi:   [2]*linalg.Dense{tr.SpinBlock(0), tr.SpinBlock(1)},
	}
	eg := complex(math.Exp(p.gamma), 0)
	emg := complex(math.Exp(-p.gamma), 0)
	p.auxf = [2][2]complex128{{eg, emg}, {emg, eg}}
	norm := complex(math.Exp(-0.5*dt*h.U), 0)
	for f := 0; f < 2; f++ {
		for s := 0; s < 2; s++ {
			p.auxf[f][s] *= norm
			p.delta[f][s] = p.auxf[f][s] - 1
		}
	}

	bh1Half, err := linalg.ExpmSym(h.H1(), -0.5*dt)
	if err != nil {
		return nil, fmt.Errorf("propagator: discrete cpmc: %w", err)
	}
	p.bh1Half = bh1Half

	return p, nil
}

// Propagate advances the walker one time step.
func (p *DiscreteCPMC) Propagate(rng *rand.Rand, w *walker.Walker) error {
	if !w.IsAlive() {
		return ErrDeadWalker
	}
	if err := p.halfKinetic(w); err != nil || !w.IsAlive() {
		return err
	}
	if err := p.siteSweep(rng, w); err != nil || !w.IsAlive() {
		return err
	}

	return p.halfKinetic(w)
}

// halfKinetic applies exp(−dt/2·H1), refreshes the overlap machinery and
// folds the overlap ratio into the weight under the sign constraint (or
// magnitude and phase under free projection).
func (p *DiscreteCPMC) halfKinetic(w *walker.Walker) error {
	for s := 0; s < 2; s++ {
		phi, err := linalg.Mul(p.bh1Half, w.Phi[s])
		if err != nil {
			return fmt.Errorf("propagator: half kinetic: %w", err)
		}
		w.Phi[s] = phi
	}
	if err := w.InverseOverlap(p.psi); err != nil {
		w.Kill()
		return nil
	}
	otNew, err := w.CalcOverlap()
	if err != nil {
		return err
	}
	ratio := otNew / w.Ot
	if p.free {
		magn, theta := cmplx.Polar(ratio)
		w.Weight *= magn
		w.Phase *= cmplx.Exp(complex(0, theta))
	} else {
		if real(ratio) <= 0 {
			w.Kill()
			return nil
		}
		w.Weight *= real(ratio)
	}
	w.Ot = otNew

	return w.GreensFunction(p.psi)
}

// siteSweep fixes one Ising field per site, updating φ rows, the inverse
// overlaps and the Green's function as it goes.
func (p *DiscreteCPMC) siteSweep(rng *rand.Rand, w *walker.Walker) error {
	n := p.h.NBasis()
	for i := 0; i < n; i++ {
		var probs [2]complex128
		for f := 0; f < 2; f++ {
			prod := complex128(0.5)
			for s := 0; s < 2; s++ {
				gii := w.G[s].Data()[i*n+i]
				prod *= 1 + p.delta[f][s]*gii
			}
			probs[f] = prod
		}

		var xi int
		if p.free {
			xi = rng.Intn(2)
			magn, theta := cmplx.Polar(probs[xi])
			w.Weight *= 2 * magn
			w.Phase *= cmplx.Exp(complex(0, theta))
		} else {
			r0 := math.Max(real(probs[0]), 0)
			r1 := math.Max(real(probs[1]), 0)
			norm := r0 + r1
			if norm <= 0 {
				w.Kill()
				return nil
			}
			w.Weight *= norm
			xi = 1
			if rng.Float64() < r0/norm {
				xi = 0
			}
		}

		if err := p.applyField(w, i, xi); err != nil || !w.IsAlive() {
			return err
		}
		if w.Fields != nil {
			w.Fields.Push(float64(xi))
		}
	}

	return nil
}

// applyField scales row i of both amplitude blocks by (1+δ) and pushes the
// rank-1 change through the inverse overlaps and the Green's function.
func (p *DiscreteCPMC) applyField(w *walker.Walker, i, xi int) error {
	var vt [2][]complex128
	for s := 0; s < 2; s++ {
		m := w.Phi[s].Cols()
		vt[s] = make([]complex128, m)
		d := w.Phi[s].Data()
		for k := 0; k < m; k++ {
			vt[s][k] = p.delta[xi][s] * d[i*m+k]
			d[i*m+k] += vt[s][k]
		}
	}
	if err := w.UpdateInverseOverlap(p.psi, vt[0], vt[1], i); err != nil {
		return err
	}
	if !w.IsAlive() {
		return nil
	}
	w.Ot, _ = w.CalcOverlap()

	return w.GreensFunction(p.psi)
}
