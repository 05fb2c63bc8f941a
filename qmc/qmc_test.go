package qmc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/qmcgo/afqmc/comm"
	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/qmc"
)

func hubbard(t *testing.T, u, mu float64, nup, ndown int) *lattice.Hubbard {
	t.Helper()
	h, err := lattice.NewHubbard(lattice.HubbardOptions{
		Nx: 4, Ny: 4, T: 1, U: u, Mu: mu, Nup: nup, Ndown: ndown,
	})
	require.NoError(t, err)

	return h
}

// ------------------------------------------------------------------------
// 1. Option validation.
// ------------------------------------------------------------------------

func TestOptions_NonsensicalValuesPanic(t *testing.T) {
	require.Panics(t, func() { qmc.WithTimeStep(0) })
	require.Panics(t, func() { qmc.WithBeta(-1) })
	require.Panics(t, func() { qmc.WithStabilization(0) })
	require.Panics(t, func() { qmc.WithWalkers(0) })
	require.Panics(t, func() { qmc.WithWeightBounds(2, 2) })
	require.Panics(t, func() { qmc.WithExpansionOrder(0) })
	require.Panics(t, func() { qmc.WithFieldKind(qmc.FieldKind(9)) })
	require.Panics(t, func() { qmc.WithPopulationControl(qmc.PopControl(9)) })
}

func TestNew_OptionConflicts(t *testing.T) {
	h := hubbard(t, 4, 1, 7, 7)

	// Thermal runs have no continuous-field strategy.
	_, err := qmc.New(h, comm.NewLoopback(), qmc.WithBeta(2), qmc.WithSeed(1))
	require.ErrorIs(t, err, qmc.ErrOptionConflict)

	// Charge decomposition only exists for the thermal discrete fields.
	_, err = qmc.New(h, comm.NewLoopback(), qmc.WithChargeDecomposition(), qmc.WithSeed(1))
	require.ErrorIs(t, err, qmc.ErrOptionConflict)

	// Ground-state discrete fields have no force-bias sweep.
	_, err = qmc.New(h, comm.NewLoopback(),
		qmc.WithFieldKind(qmc.FieldDiscrete), qmc.WithForceBias(), qmc.WithSeed(1))
	require.ErrorIs(t, err, qmc.ErrOptionConflict)

	_, err = qmc.New(nil, comm.NewLoopback())
	require.ErrorIs(t, err, qmc.ErrNilSystem)
	_, err = qmc.New(h, nil)
	require.ErrorIs(t, err, qmc.ErrNilCommunicator)
}

// ------------------------------------------------------------------------
// 2. Determinism and observables.
// ------------------------------------------------------------------------

func TestRun_FixedSeedIsReproducible(t *testing.T) {
	h := hubbard(t, 4, 0, 5, 5)
	run := func() []qmc.StepStats {
		r, err := qmc.New(h, comm.NewLoopback(),
			qmc.WithSeed(13),
			qmc.WithWalkers(4),
			qmc.WithTimeStep(0.01),
			qmc.WithForceBias(),
			qmc.WithPopInterval(5))
		require.NoError(t, err)
		stats, err := r.Run(context.Background(), 12)
		require.NoError(t, err)
		require.Len(t, stats, 12)
		return stats
	}
	require.Equal(t, run(), run())
}

func TestRun_NoninteractingEnergyStaysAtTrial(t *testing.T) {
	// At U = 0 the trial is an eigenstate: the sampled local energy never
	// moves off the band energy, whatever the fields do.
	h := hubbard(t, 0, 0, 5, 5)
	r, err := qmc.New(h, comm.NewLoopback(),
		qmc.WithSeed(5),
		qmc.WithWalkers(3),
		qmc.WithTimeStep(0.01))
	require.NoError(t, err)

	stats, err := r.Run(context.Background(), 8)
	require.NoError(t, err)
	for _, st := range stats {
		require.Equal(t, 3, st.Alive)
		require.InDelta(t, stats[0].Energy, st.Energy, 1e-8)
	}
}

func TestRun_ThermalDiscreteShard(t *testing.T) {
	h := hubbard(t, 4, 1, 7, 7)
	r, err := qmc.New(h, comm.NewLoopback(),
		qmc.WithSeed(7),
		qmc.WithBeta(2.0),
		qmc.WithTimeStep(0.05),
		qmc.WithFieldKind(qmc.FieldDiscrete),
		qmc.WithWalkers(2),
		qmc.WithStackSize(10),
		qmc.WithPopInterval(5))
	require.NoError(t, err)

	stats, err := r.Run(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stats, 10)
	for _, st := range stats {
		require.Equal(t, 2, st.Alive)
		require.Greater(t, st.Weight, 0.0)
		require.False(t, st.Energy != st.Energy) // NaN guard
	}
}

func TestRun_BranchingControl(t *testing.T) {
	h := hubbard(t, 4, 0, 5, 5)
	r, err := qmc.New(h, comm.NewLoopback(),
		qmc.WithSeed(21),
		qmc.WithWalkers(4),
		qmc.WithTimeStep(0.01),
		qmc.WithForceBias(),
		qmc.WithPopulationControl(qmc.PopBranching),
		qmc.WithPopInterval(4))
	require.NoError(t, err)

	stats, err := r.Run(context.Background(), 12)
	require.NoError(t, err)
	require.Greater(t, stats[len(stats)-1].Alive, 0)
}

// ------------------------------------------------------------------------
// 3. Multi-rank run over the in-process communicator.
// ------------------------------------------------------------------------

func TestRun_TwoRanksWithCombControl(t *testing.T) {
	h := hubbard(t, 4, 0, 5, 5)
	ends, err := comm.NewRing(2)
	require.NoError(t, err)

	var g errgroup.Group
	for rank := 0; rank < 2; rank++ {
		rank := rank
		g.Go(func() error {
			r, nerr := qmc.New(h, ends[rank],
				qmc.WithSeed(9),
				qmc.WithWalkers(2),
				qmc.WithTimeStep(0.01),
				qmc.WithForceBias(),
				qmc.WithPopInterval(5))
			if nerr != nil {
				return nerr
			}
			stats, rerr := r.Run(context.Background(), 10)
			if rerr != nil {
				return rerr
			}
			require.Len(t, stats, 10)
			require.Greater(t, stats[len(stats)-1].Weight, 0.0)
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
