package propagator_test

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/propagator"
	"github.com/qmcgo/afqmc/trial"
	"github.com/qmcgo/afqmc/walker"
)

// ------------------------------------------------------------------------
// helpers
// ------------------------------------------------------------------------

func hubbard16(t *testing.T, u, mu float64, nup, ndown int) *lattice.Hubbard {
	t.Helper()
	h, err := lattice.NewHubbard(lattice.HubbardOptions{
		Nx: 4, Ny: 4, T: 1, U: u, Mu: mu, Nup: nup, Ndown: ndown,
	})
	require.NoError(t, err)

	return h
}

// ------------------------------------------------------------------------
// 1. Constructor validation.
// ------------------------------------------------------------------------

func TestConstructors_Validation(t *testing.T) {
	h := hubbard16(t, 4, 1, 7, 7)
	tw, err := trial.NewOneBody(h, 2.0, 0.05)
	require.NoError(t, err)
	fe, err := trial.NewFreeElectron(h)
	require.NoError(t, err)

	_, err = propagator.NewThermalDiscrete(h, tw, 0, 10, propagator.ThermalDiscreteOptions{})
	require.ErrorIs(t, err, propagator.ErrInvalidTimeStep)

	_, err = propagator.NewThermalDiscrete(h, tw, 0.05, 0, propagator.ThermalDiscreteOptions{})
	require.ErrorIs(t, err, propagator.ErrInvalidStabilization)

	// Charge decomposition has no constrained site sweep.
	_, err = propagator.NewThermalDiscrete(h, tw, 0.05, 10,
		propagator.ThermalDiscreteOptions{ChargeDecomposition: true})
	require.ErrorIs(t, err, propagator.ErrModeConflict)

	_, err = propagator.NewContinuous(h, fe, -1, propagator.ContinuousOptions{})
	require.ErrorIs(t, err, propagator.ErrInvalidTimeStep)

	_, err = propagator.NewDiscreteCPMC(h, fe, 0, propagator.DiscreteCPMCOptions{})
	require.ErrorIs(t, err, propagator.ErrInvalidTimeStep)
}

func TestPropagate_DeadWalkerIsAnError(t *testing.T) {
	h := hubbard16(t, 4, 1, 7, 7)
	tw, err := trial.NewOneBody(h, 2.0, 0.05)
	require.NoError(t, err)
	fe, err := trial.NewFreeElectron(h)
	require.NoError(t, err)

	td, err := propagator.NewThermalDiscrete(h, tw, 0.05, 10, propagator.ThermalDiscreteOptions{})
	require.NoError(t, err)
	wt, err := walker.NewThermal(tw, 10)
	require.NoError(t, err)
	wt.Kill()
	require.ErrorIs(t, td.Propagate(rand.New(rand.NewSource(1)), wt, 0, 0), propagator.ErrDeadWalker)

	cont, err := propagator.NewContinuous(h, fe, 0.05, propagator.ContinuousOptions{})
	require.NoError(t, err)
	wg, err := walker.New(h, fe)
	require.NoError(t, err)
	wg.Kill()
	require.ErrorIs(t, cont.Propagate(rand.New(rand.NewSource(1)), wg), propagator.ErrDeadWalker)

	cpmc, err := propagator.NewDiscreteCPMC(h, fe, 0.05, propagator.DiscreteCPMCOptions{})
	require.NoError(t, err)
	wc, err := walker.New(h, fe)
	require.NoError(t, err)
	wc.Kill()
	require.ErrorIs(t, cpmc.Propagate(rand.New(rand.NewSource(1)), wc), propagator.ErrDeadWalker)
}

// ------------------------------------------------------------------------
// 2. Stack-size invariance of the constrained finite-temperature sweep.
// ------------------------------------------------------------------------

func TestThermalDiscrete_StackSizeInvariance(t *testing.T) {
	// A full sweep down to β with stack size 1 and with stack size 10 must
	// produce the same weight, the same Green's function and the same local
	// energy when driven by identical field draws.
	h := hubbard16(t, 4, 1, 7, 7)
	beta, dt := 2.0, 0.05
	nslice := int(math.Round(beta / dt))
	tw, err := trial.NewOneBody(h, beta, dt)
	require.NoError(t, err)
	prop, err := propagator.NewThermalDiscrete(h, tw, dt, 10, propagator.ThermalDiscreteOptions{})
	require.NoError(t, err)

	w1, err := walker.NewThermal(tw, 1)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(7))
	for ts := 0; ts < nslice; ts++ {
		require.NoError(t, prop.Propagate(rng, w1, ts, 0))
		w1.Weight /= 1.0e6
	}
	require.True(t, w1.IsAlive())

	w2, err := walker.NewThermal(tw, 10)
	require.NoError(t, err)
	rng = rand.New(rand.NewSource(7))
	for ts := 0; ts < nslice; ts++ {
		require.NoError(t, prop.Propagate(rng, w2, ts, 0))
		w2.Weight /= 1.0e6
	}
	require.True(t, w2.IsAlive())

	require.InEpsilon(t, w1.Weight, w2.Weight, 1e-8)
	for s := 0; s < 2; s++ {
		d1, d2 := w1.G[s].Data(), w2.G[s].Data()
		for i := range d1 {
			require.Less(t, cmplx.Abs(d1[i]-d2[i]), 1e-8)
		}
	}
	e1, _, _, err := w1.LocalEnergy(h)
	require.NoError(t, err)
	e2, _, _, err := w2.LocalEnergy(h)
	require.NoError(t, err)
	require.Less(t, cmplx.Abs(e1-e2), 1e-8)
}

// ------------------------------------------------------------------------
// 3. Non-interacting limits of the ground-state propagators.
// ------------------------------------------------------------------------

func TestContinuous_NoninteractingWeightGrowth(t *testing.T) {
	// At U = 0 the auxiliary fields decouple: each phaseless step multiplies
	// the weight by exactly exp(−dt·E₀) with E₀ the trial band energy.
	h := hubbard16(t, 0, 0, 5, 5)
	fe, err := trial.NewFreeElectron(h)
	require.NoError(t, err)
	dt := 0.01
	prop, err := propagator.NewContinuous(h, fe, dt, propagator.ContinuousOptions{})
	require.NoError(t, err)
	w, err := walker.New(h, fe)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	nstep := 5
	for i := 0; i < nstep; i++ {
		require.NoError(t, prop.Propagate(rng, w))
	}
	require.True(t, w.IsAlive())
	require.InEpsilon(t, math.Exp(-float64(nstep)*dt*fe.Emin), w.Weight, 1e-8)
	require.Less(t, cmplx.Abs(w.Phase-1), 1e-12)
}

func TestDiscreteCPMC_NoninteractingWeightGrowth(t *testing.T) {
	// At U = 0 every field table entry is 1, so the site sweep is a no-op
	// and the weight evolves purely through the kinetic overlap ratios.
	h := hubbard16(t, 0, 0, 5, 5)
	fe, err := trial.NewFreeElectron(h)
	require.NoError(t, err)
	dt := 0.01
	prop, err := propagator.NewDiscreteCPMC(h, fe, dt, propagator.DiscreteCPMCOptions{})
	require.NoError(t, err)
	w, err := walker.New(h, fe)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	nstep := 5
	for i := 0; i < nstep; i++ {
		require.NoError(t, prop.Propagate(rng, w))
	}
	require.True(t, w.IsAlive())
	require.InEpsilon(t, math.Exp(-float64(nstep)*dt*fe.Emin), w.Weight, 1e-8)
}

// ------------------------------------------------------------------------
// 4. Force-bias sampling: free projection and the constraint coincide when
//    the overlap ratios stay real and positive.
// ------------------------------------------------------------------------

func TestThermalForceBias_FreeAndConstrainedAgree(t *testing.T) {
	// On a single site the spin-decomposed determinant ratios are positive
	// reals, so the constrained branch takes real(oratio) and the free
	// branch takes |oratio| with unit phase: identical weights.
	h, err := lattice.NewHubbard(lattice.HubbardOptions{
		Nx: 1, Ny: 1, U: 4, Mu: 2, Nup: 1, Ndown: 0,
	})
	require.NoError(t, err)
	beta, dt := 1.0, 0.05
	nslice := int(math.Round(beta / dt))
	tw, err := trial.NewOneBody(h, beta, dt)
	require.NoError(t, err)

	con, err := propagator.NewThermalDiscrete(h, tw, dt, 5,
		propagator.ThermalDiscreteOptions{ForceBias: true})
	require.NoError(t, err)
	fp, err := propagator.NewThermalDiscrete(h, tw, dt, 5,
		propagator.ThermalDiscreteOptions{ForceBias: true, FreeProjection: true})
	require.NoError(t, err)

	wc, err := walker.NewThermal(tw, 5)
	require.NoError(t, err)
	wf, err := walker.NewThermal(tw, 5)
	require.NoError(t, err)

	rc := rand.New(rand.NewSource(11))
	rf := rand.New(rand.NewSource(11))
	for ts := 0; ts < nslice; ts++ {
		require.NoError(t, con.Propagate(rc, wc, ts, 0))
		require.NoError(t, fp.Propagate(rf, wf, ts, 0))
	}
	require.True(t, wc.IsAlive())
	require.True(t, wf.IsAlive())
	require.InEpsilon(t, wf.Weight, wc.Weight, 1e-10)
	require.Less(t, cmplx.Abs(wf.Phase-1), 1e-10)
}
