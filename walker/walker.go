// Package walker: ground-state single-determinant walker.
package walker

import (
	"errors"
	"fmt"

	"github.com/qmcgo/afqmc/estimator"
	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
	"github.com/qmcgo/afqmc/trial"
)

// Walker is a single-determinant ground-state walker. Per-spin quantities
// are indexed 0 = up, 1 = down.
type Walker struct {
	// Weight is the importance-sampling weight, Phase the accumulated
	// complex phase under free projection.
	Weight float64
	Phase  complex128
	// Alive is cleared when population control or a singular overlap kills
	// the walker.
	Alive bool

	// Phi holds the amplitude blocks, InvO the inverse trial overlaps and
	// G the mixed Green's function per spin.
	Phi  [2]*linalg.Dense
	InvO [2]*linalg.Dense
	G    [2]*linalg.Dense

	// Ot is the current trial overlap ⟨ψ_T|φ⟩.
	Ot complex128
	// EL caches the local energy at the last evaluation point.
	EL float64

	// PhiOld and PhiInit are historic copies for back propagation and
	// imaginary-time correlation functions.
	PhiOld  [2]*linalg.Dense
	PhiInit [2]*linalg.Dense

	// Fields records the sampled auxiliary-field path.
	Fields *FieldConfig
}

// New builds a walker initialized to the trial determinant, with unit weight
// and overlap. A singular trial overlap here is a hard error.
func New(h *lattice.Hubbard, tr *trial.FreeElectron) (*Walker, error) {
	w := &Walker{Weight: 1, Phase: 1, Alive: true, Ot: 1}
	psi := [2]*linalg.Dense{tr.SpinBlock(0), tr.SpinBlock(1)}
	for s := 0; s < 2; s++ {
		w.Phi[s] = psi[s].Clone()
	}
	if err := w.InverseOverlap(psi); err != nil {
		return nil, ErrSingularOverlap
	}
	if err := w.GreensFunction(psi); err != nil {
		return nil, fmt.Errorf("walker: new: %w", err)
	}
	etot, _, _, err := estimator.LocalEnergyHubbard(h, w.G)
	if err != nil {
		return nil, fmt.Errorf("walker: new: %w", err)
	}
	w.EL = real(etot)
	for s := 0; s < 2; s++ {
		w.PhiOld[s] = w.Phi[s].Clone()
		w.PhiInit[s] = w.Phi[s].Clone()
	}

	return w, nil
}

// InverseOverlap recomputes Ω⁻¹ = (ψ_Tᴴ·φ)⁻¹ for both spins from scratch.
func (w *Walker) InverseOverlap(psi [2]*linalg.Dense) error {
	for s := 0; s < 2; s++ {
		ovlp, err := linalg.MulAdj(psi[s], w.Phi[s])
		if err != nil {
			return fmt.Errorf("walker: inverse overlap: %w", err)
		}
		if w.InvO[s], err = linalg.Inverse(ovlp); err != nil {
			return err
		}
	}

	return nil
}

// UpdateInverseOverlap applies the rank-1 Sherman-Morrison update after row
// site of each amplitude block changed by the outer products
// conj(ψ_T[site,:])⊗vt. A vanishing denominator mid-run kills the walker
// instead of failing.
func (w *Walker) UpdateInverseOverlap(psi [2]*linalg.Dense, vtup, vtdown []complex128, site int) error {
	vt := [2][]complex128{vtup, vtdown}
	for s := 0; s < 2; s++ {
		m := psi[s].Cols()
		u := make([]complex128, m)
		pd := psi[s].Data()
		for k := 0; k < m; k++ {
			c := pd[site*m+k]
			u[k] = complex(real(c), -imag(c))
		}
		upd, err := linalg.ShermanMorrison(w.InvO[s], u, vt[s])
		if errors.Is(err, linalg.ErrSingular) {
			w.Kill()
			return nil
		}
		if err != nil {
			return fmt.Errorf("walker: sherman-morrison: %w", err)
		}
		w.InvO[s] = upd
	}

	return nil
}

// CalcOverlap returns ⟨ψ_T|φ⟩ = 1/(det Ω⁻¹↑ · det Ω⁻¹↓).
func (w *Walker) CalcOverlap() (complex128, error) {
	var det complex128 = 1
	for s := 0; s < 2; s++ {
		d, err := linalg.Det(w.InvO[s])
		if err != nil {
			return 0, fmt.Errorf("walker: overlap: %w", err)
		}
		det *= d
	}
	if det == 0 {
		return 0, nil
	}

	return 1 / det, nil
}

// GreensFunction recomputes the mixed Green's function from the current
// amplitude and inverse overlap: G_s = (φ_s·Ω_s⁻¹·ψ_Tsᴴ)ᵀ.
func (w *Walker) GreensFunction(psi [2]*linalg.Dense) error {
	for s := 0; s < 2; s++ {
		t1, err := linalg.Mul(w.Phi[s], w.InvO[s])
		if err != nil {
			return fmt.Errorf("walker: greens function: %w", err)
		}
		t2, err := linalg.MulAdjRight(t1, psi[s])
		if err != nil {
			return fmt.Errorf("walker: greens function: %w", err)
		}
		if w.G[s], err = linalg.Transpose(t2); err != nil {
			return fmt.Errorf("walker: greens function: %w", err)
		}
	}

	return nil
}

// Reortho orthonormalizes both amplitude blocks in place and divides the
// removed scale detR = detR↑·detR↓ out of the stored overlap.
// Returns detR for free-projection weight folding.
func (w *Walker) Reortho() (float64, error) {
	detR := 1.0
	for s := 0; s < 2; s++ {
		d, err := linalg.Reortho(w.Phi[s])
		if err != nil {
			return 0, fmt.Errorf("walker: reortho: %w", err)
		}
		detR *= d
	}
	w.Ot /= complex(detR, 0)

	return detR, nil
}

// LocalEnergy evaluates and caches the walker's Hubbard local energy.
func (w *Walker) LocalEnergy(h *lattice.Hubbard) (etot, ke, pe complex128, err error) {
	etot, ke, pe, err = estimator.LocalEnergyHubbard(h, w.G)
	if err == nil {
		w.EL = real(etot)
	}

	return etot, ke, pe, err
}

// Kill zeroes the weight and marks the walker dead.
func (w *Walker) Kill() {
	w.Weight = 0
	w.Alive = false
}

// IsAlive reports whether the walker still participates in the ensemble.
func (w *Walker) IsAlive() bool { return w.Alive }

// CopyHistoric snapshots φ into the back-propagation copy.
func (w *Walker) CopyHistoric() {
	for s := 0; s < 2; s++ {
		_ = w.PhiOld[s].CopyFrom(w.Phi[s])
	}
}

// CopyInit snapshots φ into the correlation-function copy.
func (w *Walker) CopyInit() {
	for s := 0; s < 2; s++ {
		_ = w.PhiInit[s].CopyFrom(w.Phi[s])
	}
}

// Clone returns a deep copy sharing no storage with the receiver.
func (w *Walker) Clone() *Walker {
	c := &Walker{
		Weight: w.Weight,
		Phase:  w.Phase,
		Alive:  w.Alive,
		Ot:     w.Ot,
		EL:     w.EL,
	}
	for s := 0; s < 2; s++ {
		c.Phi[s] = w.Phi[s].Clone()
		c.InvO[s] = w.InvO[s].Clone()
		c.G[s] = w.G[s].Clone()
		c.PhiOld[s] = w.PhiOld[s].Clone()
		c.PhiInit[s] = w.PhiInit[s].Clone()
	}
	if w.Fields != nil {
		c.Fields = w.Fields.Clone()
	}

	return c
}

// CopyFrom overwrites the receiver's state with a deep copy of src.
func (w *Walker) CopyFrom(src *Walker) {
	*w = *src.Clone()
}
