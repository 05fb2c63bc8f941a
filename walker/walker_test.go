package walker_test

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
	"github.com/qmcgo/afqmc/trial"
	"github.com/qmcgo/afqmc/walker"
)

func setupWalker(t *testing.T) (*lattice.Hubbard, *trial.FreeElectron, *walker.Walker) {
	t.Helper()
	h, err := lattice.NewHubbard(lattice.HubbardOptions{
		Nx: 4, Ny: 4, U: 4, Nup: 5, Ndown: 5,
	})
	require.NoError(t, err)
	tr, err := trial.NewFreeElectron(h)
	require.NoError(t, err)
	w, err := walker.New(h, tr)
	require.NoError(t, err)

	return h, tr, w
}

func trialBlocks(tr *trial.FreeElectron) [2]*linalg.Dense {
	return [2]*linalg.Dense{tr.SpinBlock(0), tr.SpinBlock(1)}
}

// ------------------------------------------------------------------------
// 1. Initialization.
// ------------------------------------------------------------------------

func TestNew_StartsAtTrial(t *testing.T) {
	_, _, w := setupWalker(t)
	require.True(t, w.IsAlive())
	require.Equal(t, 1.0, w.Weight)

	// Trial overlaps with itself: ⟨ψ_T|φ⟩ = 1 for orthonormal orbitals.
	ot, err := w.CalcOverlap()
	require.NoError(t, err)
	require.Less(t, cmplx.Abs(ot-1), 1e-10)

	// Green's function trace counts the particles per spin.
	for s := 0; s < 2; s++ {
		var tr complex128
		for i := 0; i < 16; i++ {
			v, aerr := w.G[s].At(i, i)
			require.NoError(t, aerr)
			tr += v
		}
		require.Less(t, cmplx.Abs(tr-5), 1e-10)
	}
}

// ------------------------------------------------------------------------
// 2. Rank-1 update against full recomputation.
// ------------------------------------------------------------------------

func TestUpdateInverseOverlap_MatchesFullRecompute(t *testing.T) {
	_, tr, w := setupWalker(t)
	psi := trialBlocks(tr)

	// Scale row `site` of both amplitude blocks by (1+δ), exactly what a
	// discrete on-site field application does.
	site := 3
	delta := complex128(0.35)
	var vt [2][]complex128
	for s := 0; s < 2; s++ {
		m := w.Phi[s].Cols()
		vt[s] = make([]complex128, m)
		for k := 0; k < m; k++ {
			v, err := w.Phi[s].At(site, k)
			require.NoError(t, err)
			vt[s][k] = delta * v
			require.NoError(t, w.Phi[s].Set(site, k, (1+delta)*v))
		}
	}
	require.NoError(t, w.UpdateInverseOverlap(psi, vt[0], vt[1], site))
	require.True(t, w.IsAlive())
	fast := [2]*linalg.Dense{w.InvO[0].Clone(), w.InvO[1].Clone()}

	require.NoError(t, w.InverseOverlap(psi))
	for s := 0; s < 2; s++ {
		df, ds := fast[s].Data(), w.InvO[s].Data()
		for i := range df {
			require.Less(t, cmplx.Abs(df[i]-ds[i]), 1e-8)
		}
	}

	// The Green's functions built from either inverse agree too.
	require.NoError(t, w.GreensFunction(psi))
	slow := [2]*linalg.Dense{w.G[0].Clone(), w.G[1].Clone()}
	w.InvO = fast
	require.NoError(t, w.GreensFunction(psi))
	for s := 0; s < 2; s++ {
		for i, v := range w.G[s].Data() {
			require.Less(t, cmplx.Abs(v-slow[s].Data()[i]), 1e-8)
		}
	}
}

// ------------------------------------------------------------------------
// 3. Reorthogonalization contract.
// ------------------------------------------------------------------------

func TestReortho_FoldsDetRIntoOverlap(t *testing.T) {
	_, tr, w := setupWalker(t)
	psi := trialBlocks(tr)

	// Drift the amplitudes away from orthonormality.
	rng := rand.New(rand.NewSource(5))
	for s := 0; s < 2; s++ {
		d := w.Phi[s].Data()
		for i := range d {
			d[i] *= complex(1+0.2*rng.Float64(), 0.1*rng.Float64())
		}
	}
	require.NoError(t, w.InverseOverlap(psi))
	otBefore, err := w.CalcOverlap()
	require.NoError(t, err)
	w.Ot = otBefore

	detR, err := w.Reortho()
	require.NoError(t, err)
	require.Greater(t, detR, 0.0)

	// Blocks are orthonormal again.
	for s := 0; s < 2; s++ {
		gram, gerr := linalg.MulAdj(w.Phi[s], w.Phi[s])
		require.NoError(t, gerr)
		eye, gerr := linalg.Identity(w.Phi[s].Cols())
		require.NoError(t, gerr)
		for i, v := range gram.Data() {
			require.Less(t, cmplx.Abs(v-eye.Data()[i]), 1e-10)
		}
	}

	// The stored overlap absorbed exactly the removed scale, so the freshly
	// recomputed overlap of the orthonormalized block matches it.
	require.NoError(t, w.InverseOverlap(psi))
	otAfter, err := w.CalcOverlap()
	require.NoError(t, err)
	require.Less(t, cmplx.Abs(w.Ot-otAfter), 1e-8*cmplx.Abs(otAfter))
}

// ------------------------------------------------------------------------
// 4. Lifecycle and deep copies.
// ------------------------------------------------------------------------

func TestKill_ZeroesWeight(t *testing.T) {
	_, _, w := setupWalker(t)
	w.Weight = 3.7
	w.Kill()
	require.False(t, w.IsAlive())
	require.Zero(t, w.Weight)
}

func TestClone_SharesNoStorage(t *testing.T) {
	_, _, w := setupWalker(t)
	c := w.Clone()
	require.NoError(t, w.Phi[0].Set(0, 0, 42))
	v, err := c.Phi[0].At(0, 0)
	require.NoError(t, err)
	require.NotEqual(t, complex128(42), v)
}

// ------------------------------------------------------------------------
// 5. Migration buffer round trip.
// ------------------------------------------------------------------------

func TestMarshalState_RoundTrip(t *testing.T) {
	h, tr, w := setupWalker(t)
	fc, err := walker.NewFieldConfig(h.NFields(), 10, 5)
	require.NoError(t, err)
	w.Fields = fc
	w.Weight = 2.25
	w.Phase = complex(0.6, 0.8)
	w.Ot = complex(1.5, -0.25)

	blob, err := w.MarshalState()
	require.NoError(t, err)

	fresh, err := walker.New(h, tr)
	require.NoError(t, err)
	require.NoError(t, fresh.UnmarshalState(blob))

	require.Equal(t, w.Weight, fresh.Weight)
	require.Equal(t, w.Phase, fresh.Phase)
	require.Equal(t, w.Ot, fresh.Ot)
	require.NotNil(t, fresh.Fields)
	for s := 0; s < 2; s++ {
		for i, v := range w.Phi[s].Data() {
			require.Equal(t, v, fresh.Phi[s].Data()[i])
		}
		for i, v := range w.InvO[s].Data() {
			require.Equal(t, v, fresh.InvO[s].Data()[i])
		}
	}
}
