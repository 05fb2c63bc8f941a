// Package trial: ground-state free-electron determinant.
package trial

import (
	"errors"
	"fmt"

	"github.com/qmcgo/afqmc/estimator"
	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
)

// Sentinel errors for trial construction.
var (
	// ErrNoParticles indicates a spin species with zero particles; every
	// determinant block needs at least one column.
	ErrNoParticles = errors.New("trial: each spin species needs at least one particle")
	// ErrInvalidInterval indicates a non-positive inverse temperature or
	// time step.
	ErrInvalidInterval = errors.New("trial: beta and dt must be positive")
	// ErrBisectionFailed indicates the chemical-potential search did not
	// converge.
	ErrBisectionFailed = errors.New("trial: chemical potential bisection did not converge")
)

// FreeElectron is the non-interacting ground-state trial determinant: the
// lowest Nup (Ndown) eigenvectors of H1 per spin, packed column-wise.
type FreeElectron struct {
	// Eigs holds the one-body eigenvalues in ascending order.
	Eigs []float64
	// Psi is the nbasis×(nup+ndown) amplitude block; columns [0,nup) are the
	// spin-up orbitals, columns [nup,nup+ndown) the spin-down orbitals.
	Psi *linalg.Dense
	// Emin is the mixed-estimator energy of the trial with itself.
	Emin float64

	nup, ndown int
}

// NewFreeElectron diagonalizes H1 and fills the lowest orbitals per spin.
// Returns ErrNoParticles when either spin species is empty.
func NewFreeElectron(h *lattice.Hubbard) (*FreeElectron, error) {
	if h.Nup < 1 || h.Ndown < 1 {
		return nil, ErrNoParticles
	}
	vals, vecs, err := h.Eig()
	if err != nil {
		return nil, fmt.Errorf("trial: free electron: %w", err)
	}

	n := h.NBasis()
	psi, err := linalg.NewDense(n, h.Nup+h.Ndown)
	if err != nil {
		return nil, fmt.Errorf("trial: free electron: %w", err)
	}
	pd := psi.Data()
	stride := h.Nup + h.Ndown
	for i := 0; i < n; i++ {
		for k := 0; k < h.Nup; k++ {
			pd[i*stride+k] = complex(vecs.At(i, k), 0)
		}
		for k := 0; k < h.Ndown; k++ {
			pd[i*stride+h.Nup+k] = complex(vecs.At(i, k), 0)
		}
	}

	fe := &FreeElectron{Eigs: vals, Psi: psi, nup: h.Nup, ndown: h.Ndown}

	var g [2]*linalg.Dense
	for s := 0; s < 2; s++ {
		blk := fe.SpinBlock(s)
		if g[s], err = estimator.Gab(blk, blk); err != nil {
			return nil, fmt.Errorf("trial: free electron: %w", err)
		}
	}
	etot, _, _, err := estimator.LocalEnergyHubbard(h, g)
	if err != nil {
		return nil, fmt.Errorf("trial: free electron: %w", err)
	}
	fe.Emin = real(etot)

	return fe, nil
}

// SpinBlock returns a copy of the amplitude block for spin s (0 = up,
// 1 = down).
func (t *FreeElectron) SpinBlock(s int) *linalg.Dense {
	lo, m := 0, t.nup
	if s == 1 {
		lo, m = t.nup, t.ndown
	}
	n := t.Psi.Rows()
	blk, _ := linalg.NewDense(n, m)
	bd, pd := blk.Data(), t.Psi.Data()
	stride := t.nup + t.ndown
	for i := 0; i < n; i++ {
		copy(bd[i*m:(i+1)*m], pd[i*stride+lo:i*stride+lo+m])
	}

	return blk
}
