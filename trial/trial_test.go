package trial_test

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qmcgo/afqmc/estimator"
	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
	"github.com/qmcgo/afqmc/trial"
)

func hubbard44(t *testing.T) *lattice.Hubbard {
	t.Helper()
	h, err := lattice.NewHubbard(lattice.HubbardOptions{
		Nx: 4, Ny: 4, U: 4, Mu: 1, Nup: 7, Ndown: 7,
	})
	require.NoError(t, err)

	return h
}

// ------------------------------------------------------------------------
// 1. Free-electron determinant.
// ------------------------------------------------------------------------

func TestFreeElectron_OrthonormalBlocks(t *testing.T) {
	fe, err := trial.NewFreeElectron(hubbard44(t))
	require.NoError(t, err)
	for s := 0; s < 2; s++ {
		blk := fe.SpinBlock(s)
		require.Equal(t, 16, blk.Rows())
		require.Equal(t, 7, blk.Cols())
		gram, gerr := linalg.MulAdj(blk, blk)
		require.NoError(t, gerr)
		eye, gerr := linalg.Identity(7)
		require.NoError(t, gerr)
		for i, v := range gram.Data() {
			require.Less(t, cmplx.Abs(v-eye.Data()[i]), 1e-10)
		}
	}
}

func TestFreeElectron_ReferenceEnergyIsBandSum(t *testing.T) {
	h := hubbard44(t)
	fe, err := trial.NewFreeElectron(h)
	require.NoError(t, err)
	var want float64
	for k := 0; k < 7; k++ {
		want += 2 * fe.Eigs[k]
	}
	// U contributes through the diagonal double occupancy of the free G.
	up := fe.SpinBlock(0)
	g, err := estimator.Gab(up, up)
	require.NoError(t, err)
	var docc complex128
	for i := 0; i < 16; i++ {
		v, aerr := g.At(i, i)
		require.NoError(t, aerr)
		docc += v * v
	}
	want += h.U * real(docc)
	require.InDelta(t, want, fe.Emin, 1e-10)
}

func TestFreeElectron_NoParticles(t *testing.T) {
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 2, Ny: 2, Nup: 1, Ndown: 0})
	require.NoError(t, err)
	_, err = trial.NewFreeElectron(h)
	require.ErrorIs(t, err, trial.ErrNoParticles)
}

// ------------------------------------------------------------------------
// 2. One-body thermal trial.
// ------------------------------------------------------------------------

func TestOneBody_HitsTargetOccupancy(t *testing.T) {
	h := hubbard44(t)
	ob, err := trial.NewOneBody(h, 2.0, 0.05)
	require.NoError(t, err)
	require.Equal(t, 40, ob.NSlice)

	nelec, err := estimator.ParticleNumber(ob.P)
	require.NoError(t, err)
	require.InDelta(t, 14, real(nelec), 1e-10)
	require.InDelta(t, 0, imag(nelec), 1e-12)
}

func TestOneBody_DmatInverseRoundTrip(t *testing.T) {
	h := hubbard44(t)
	ob, err := trial.NewOneBody(h, 2.0, 0.05)
	require.NoError(t, err)
	prod, err := linalg.Mul(ob.Dmat[0], ob.DmatInv[0])
	require.NoError(t, err)
	eye, err := linalg.Identity(16)
	require.NoError(t, err)
	for i, v := range prod.Data() {
		require.Less(t, cmplx.Abs(v-eye.Data()[i]), 1e-10)
	}
}

func TestOneBody_StackDensityMatchesFermiOccupancy(t *testing.T) {
	// The stabilized inverse of I + B_T^nslice must reproduce the analytic
	// equilibrium density the bisection targeted.
	h := hubbard44(t)
	ob, err := trial.NewOneBody(h, 2.0, 0.05)
	require.NoError(t, err)

	bins := make([]*linalg.Dense, ob.NSlice)
	for i := range bins {
		bins[i] = ob.Dmat[0]
	}
	g, err := linalg.StabilizedInverseProduct(bins)
	require.NoError(t, err)
	p, err := estimator.OneRDMFromG([2]*linalg.Dense{g, g})
	require.NoError(t, err)
	for i, v := range p[0].Data() {
		require.Less(t, cmplx.Abs(v-ob.P[0].Data()[i]), 1e-8)
	}
}

func TestOneBody_InvalidInterval(t *testing.T) {
	_, err := trial.NewOneBody(hubbard44(t), 0, 0.05)
	require.ErrorIs(t, err, trial.ErrInvalidInterval)
}
