package estimator_test

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qmcgo/afqmc/estimator"
	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
)

const tol = 1e-12

// orbitalBlock packs the lowest m eigenvectors of H1 into an n×m block.
func orbitalBlock(t *testing.T, h *lattice.Hubbard, m int) *linalg.Dense {
	t.Helper()
	_, vecs, err := h.Eig()
	require.NoError(t, err)
	b, err := linalg.NewDense(h.NBasis(), m)
	require.NoError(t, err)
	for i := 0; i < h.NBasis(); i++ {
		for j := 0; j < m; j++ {
			require.NoError(t, b.Set(i, j, complex(vecs.At(i, j), 0)))
		}
	}

	return b
}

// ------------------------------------------------------------------------
// 1. Gab structure.
// ------------------------------------------------------------------------

func TestGab_CanonicalColumns(t *testing.T) {
	// A = B = first two columns of the identity: occupation lives entirely
	// on the first two sites.
	a, err := linalg.NewDense(4, 2)
	require.NoError(t, err)
	require.NoError(t, a.Set(0, 0, 1))
	require.NoError(t, a.Set(1, 1, 1))

	g, err := estimator.Gab(a, a)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := complex128(0)
			if i == j && i < 2 {
				want = 1
			}
			v, aerr := g.At(i, j)
			require.NoError(t, aerr)
			require.Less(t, cmplx.Abs(v-want), tol)
		}
	}
}

func TestGab_TraceEqualsParticleCount(t *testing.T) {
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 3, Ny: 3, Nup: 4, Ndown: 4})
	require.NoError(t, err)
	psi := orbitalBlock(t, h, 4)
	g, err := estimator.Gab(psi, psi)
	require.NoError(t, err)

	var tr complex128
	for i := 0; i < h.NBasis(); i++ {
		v, aerr := g.At(i, i)
		require.NoError(t, aerr)
		tr += v
	}
	require.Less(t, cmplx.Abs(tr-4), 1e-10)
}

func TestGab_Idempotent(t *testing.T) {
	// The mixed Green's function of a determinant with itself is a
	// projector: G² = G.
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 4, Ny: 2})
	require.NoError(t, err)
	psi := orbitalBlock(t, h, 3)
	g, err := estimator.Gab(psi, psi)
	require.NoError(t, err)
	gg, err := linalg.Mul(g, g)
	require.NoError(t, err)

	dg, dgg := g.Data(), gg.Data()
	for i := range dg {
		require.Less(t, cmplx.Abs(dg[i]-dgg[i]), 1e-10)
	}
}

// ------------------------------------------------------------------------
// 2. Hubbard local energy.
// ------------------------------------------------------------------------

func TestLocalEnergyHubbard_FreeElectronReference(t *testing.T) {
	// At U=0 with the free-electron determinant the mixed estimator must
	// reproduce the band-structure sum of occupied eigenvalues.
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 4, Ny: 4, Nup: 5, Ndown: 5})
	require.NoError(t, err)
	vals, _, err := h.Eig()
	require.NoError(t, err)
	psi := orbitalBlock(t, h, 5)
	g, err := estimator.Gab(psi, psi)
	require.NoError(t, err)

	etot, ke, pe, err := estimator.LocalEnergyHubbard(h, [2]*linalg.Dense{g, g})
	require.NoError(t, err)

	var want float64
	for k := 0; k < 5; k++ {
		want += 2 * vals[k]
	}
	require.InDelta(t, want, real(ke), 1e-10)
	require.InDelta(t, 0, imag(ke), 1e-10)
	require.Zero(t, pe)
	require.InDelta(t, want, real(etot), 1e-10)
}

func TestLocalEnergyHubbard_DoubleOccupancy(t *testing.T) {
	// Diagonal Green's functions with known occupations isolate the U term.
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 2, Ny: 2, U: 4})
	require.NoError(t, err)
	g0, err := linalg.Identity(4)
	require.NoError(t, err)
	g1, err := linalg.NewDense(4, 4)
	require.NoError(t, err)
	require.NoError(t, g1.Set(0, 0, 0.5))

	_, _, pe, err := estimator.LocalEnergyHubbard(h, [2]*linalg.Dense{g0, g1})
	require.NoError(t, err)
	require.Less(t, cmplx.Abs(pe-2), tol) // U · 1 · 0.5
}

func TestLocalEnergyHubbard_ShapeMismatch(t *testing.T) {
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 2, Ny: 2})
	require.NoError(t, err)
	g, err := linalg.Identity(3)
	require.NoError(t, err)
	_, _, _, err = estimator.LocalEnergyHubbard(h, [2]*linalg.Dense{g, g})
	require.ErrorIs(t, err, estimator.ErrShapeMismatch)
}

// ------------------------------------------------------------------------
// 3. Thermal conversions.
// ------------------------------------------------------------------------

func TestOneRDMFromG_ComplementAndTrace(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 5
	var g [2]*linalg.Dense
	for s := 0; s < 2; s++ {
		m, err := linalg.NewDense(n, n)
		require.NoError(t, err)
		d := m.Data()
		for i := range d {
			d[i] = complex(rng.Float64(), rng.Float64())
		}
		g[s] = m
	}

	p, err := estimator.OneRDMFromG(g)
	require.NoError(t, err)
	for s := 0; s < 2; s++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				gji, aerr := g[s].At(j, i)
				require.NoError(t, aerr)
				pij, aerr := p[s].At(i, j)
				require.NoError(t, aerr)
				want := -gji
				if i == j {
					want += 1
				}
				require.Less(t, cmplx.Abs(pij-want), tol)
			}
		}
	}

	// Inputs untouched.
	for s := 0; s < 2; s++ {
		require.Equal(t, n, g[s].Rows())
	}
}

func TestParticleNumber_IdentityGreensFunctionIsEmpty(t *testing.T) {
	// G = I gives P = I - Iᵀ = 0: no particles.
	eye, err := linalg.Identity(6)
	require.NoError(t, err)
	p, err := estimator.OneRDMFromG([2]*linalg.Dense{eye, eye.Clone()})
	require.NoError(t, err)
	nelec, err := estimator.ParticleNumber(p)
	require.NoError(t, err)
	require.Less(t, cmplx.Abs(nelec), tol)
}
