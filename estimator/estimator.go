// Package estimator implements the observable evaluators: the mixed
// Green's function kernel and the Hubbard energy estimators.
package estimator

import (
	"errors"
	"fmt"

	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
)

// Sentinel errors for estimator operations.
var (
	// ErrShapeMismatch indicates a Green's function whose dimensions do not
	// match the model basis.
	ErrShapeMismatch = errors.New("estimator: green's function shape does not match basis size")
	// ErrNilInput indicates a nil matrix argument.
	ErrNilInput = errors.New("estimator: nil matrix input")
)

// Gab computes the mixed Green's function between determinant blocks A and B:
//
//	G = [B·(AᴴB)⁻¹·Aᴴ]ᵀ
//
// so that G[i][j] = ⟨c†_i c_j⟩ in the mixed estimator. A and B are tall
// N×M amplitude blocks for one spin species.
// Returns linalg.ErrSingular when the A/B overlap is singular.
func Gab(a, b *linalg.Dense) (*linalg.Dense, error) {
	if a == nil || b == nil {
		return nil, ErrNilInput
	}
	ovlp, err := linalg.MulAdj(a, b)
	if err != nil {
		return nil, fmt.Errorf("estimator: overlap: %w", err)
	}
	inv, err := linalg.Inverse(ovlp)
	if err != nil {
		return nil, fmt.Errorf("estimator: overlap inverse: %w", err)
	}
	bi, err := linalg.Mul(b, inv)
	if err != nil {
		return nil, fmt.Errorf("estimator: gab: %w", err)
	}
	g, err := linalg.MulAdjRight(bi, a)
	if err != nil {
		return nil, fmt.Errorf("estimator: gab: %w", err)
	}

	return linalg.Transpose(g)
}

// LocalEnergyHubbard evaluates the Hubbard local energy from per-spin
// Green's functions in the ⟨c†_i c_j⟩ convention:
//
//	ke = Σ_ij T_ij·(G↑_ij + G↓_ij)
//	pe = U·Σ_i G↑_ii·G↓_ii
//
// Returns total, one-body and two-body parts.
func LocalEnergyHubbard(h *lattice.Hubbard, g [2]*linalg.Dense) (etot, ke, pe complex128, err error) {
	n := h.NBasis()
	for s := 0; s < 2; s++ {
		if g[s] == nil {
			return 0, 0, 0, ErrNilInput
		}
		if g[s].Rows() != n || g[s].Cols() != n {
			return 0, 0, 0, ErrShapeMismatch
		}
	}

	t := h.H1()
	g0, g1 := g[0].Data(), g[1].Data()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if tij := t.At(i, j); tij != 0 {
				ke += complex(tij, 0) * (g0[i*n+j] + g1[i*n+j])
			}
		}
	}
	for i := 0; i < n; i++ {
		pe += g0[i*n+i] * g1[i*n+i]
	}
	pe *= complex(h.U, 0)

	return ke + pe, ke, pe, nil
}

// OneRDMFromG converts a thermal Green's function to the one-body reduced
// density matrix, P = I − Gᵀ per spin.
func OneRDMFromG(g [2]*linalg.Dense) ([2]*linalg.Dense, error) {
	var p [2]*linalg.Dense
	for s := 0; s < 2; s++ {
		if g[s] == nil {
			return p, ErrNilInput
		}
		gt, err := linalg.Transpose(g[s])
		if err != nil {
			return p, fmt.Errorf("estimator: one-rdm: %w", err)
		}
		n := gt.Rows()
		if gt.Cols() != n {
			return p, ErrShapeMismatch
		}
		d := gt.Data()
		for i := range d {
			d[i] = -d[i]
		}
		for i := 0; i < n; i++ {
			d[i*n+i] += 1
		}
		p[s] = gt
	}

	return p, nil
}

// ParticleNumber returns tr(P↑) + tr(P↓) of a one-RDM.
func ParticleNumber(p [2]*linalg.Dense) (complex128, error) {
	var tr complex128
	for s := 0; s < 2; s++ {
		if p[s] == nil {
			return 0, ErrNilInput
		}
		n := p[s].Rows()
		if p[s].Cols() != n {
			return 0, ErrShapeMismatch
		}
		d := p[s].Data()
		for i := 0; i < n; i++ {
			tr += d[i*n+i]
		}
	}

	return tr, nil
}

// ThermalLocalEnergyHubbard evaluates the Hubbard local energy of a thermal
// walker: the one-RDM is formed from G first, then fed to the mixed-estimator
// energy expression.
func ThermalLocalEnergyHubbard(h *lattice.Hubbard, g [2]*linalg.Dense) (etot, ke, pe complex128, err error) {
	p, err := OneRDMFromG(g)
	if err != nil {
		return 0, 0, 0, err
	}

	return LocalEnergyHubbard(h, p)
}
