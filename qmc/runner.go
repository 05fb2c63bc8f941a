package qmc

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/qmcgo/afqmc/comm"
	"github.com/qmcgo/afqmc/ensemble"
	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/propagator"
	"github.com/qmcgo/afqmc/trial"
	"github.com/qmcgo/afqmc/walker"
)

// StepStats is the per-step observable record emitted for an external
// persistence consumer.
type StepStats struct {
	// Step is the zero-based imaginary-time step index.
	Step int
	// Weight is the local shard's total walker weight after the step.
	Weight float64
	// Alive is the local count of walkers still carrying weight.
	Alive int
	// Energy is the weight-averaged real local energy of the live shard.
	Energy float64
}

// Runner executes one worker's share of an AFQMC run.
type Runner struct {
	h    *lattice.Hubbard
	o    options
	comm comm.Communicator
	ens  *ensemble.Ensemble

	rngs []*rand.Rand // one stream per walker
	ctl  *rand.Rand   // population-control stream

	thermal   bool
	propagate func(rng *rand.Rand, m walker.Member, ts int) error
	energy    func(m walker.Member) (float64, error)
	log       *zap.Logger
}

// New wires trial state, propagator, walkers and the ensemble for the
// selected options. The propagation strategy is fixed here; Run never
// branches on it again.
func New(h *lattice.Hubbard, c comm.Communicator, opts ...Option) (*Runner, error) {
	if h == nil {
		return nil, ErrNilSystem
	}
	if c == nil {
		return nil, ErrNilCommunicator
	}
	o := gatherOptions(opts)
	if o.beta > 0 && o.field == FieldContinuous {
		return nil, ErrOptionConflict
	}
	if o.beta == 0 && o.chargeDec {
		return nil, ErrOptionConflict
	}
	if o.beta == 0 && o.field == FieldDiscrete && o.forceBias {
		return nil, ErrOptionConflict
	}

	seed, err := establishSeed(c, o.seed)
	if err != nil {
		return nil, err
	}
	r := &Runner{h: h, o: o, comm: c, ctl: rand.New(rand.NewSource(seed)), log: o.log}
	r.rngs = make([]*rand.Rand, o.nwalkers)
	for i := range r.rngs {
		// Per-walker streams interleave across ranks without collision:
		// rank r walker i draws from seed0 + r + (i+1)·size.
		r.rngs[i] = rand.New(rand.NewSource(seed + int64(i+1)*int64(c.Size())))
	}

	members := make([]walker.Member, o.nwalkers)
	if o.beta > 0 {
		r.thermal = true
		nslice := int(math.Round(o.beta / o.dt))
		tr, terr := trial.NewOneBody(h, o.beta, o.dt)
		if terr != nil {
			return nil, terr
		}
		p, perr := propagator.NewThermalDiscrete(h, tr, o.dt, o.nstblz, propagator.ThermalDiscreteOptions{
			FreeProjection:      o.freeProj,
			ChargeDecomposition: o.chargeDec,
			ForceBias:           o.forceBias,
		})
		if perr != nil {
			return nil, perr
		}
		for i := range members {
			w, werr := walker.NewThermal(tr, o.stackSize)
			if werr != nil {
				return nil, werr
			}
			members[i] = w
		}
		r.propagate = func(rng *rand.Rand, m walker.Member, ts int) error {
			w := m.(*walker.ThermalWalker)
			if !w.IsAlive() {
				return nil
			}
			return p.Propagate(rng, w, ts%nslice, o.eshift)
		}
		r.energy = func(m walker.Member) (float64, error) {
			etot, _, _, eerr := m.(*walker.ThermalWalker).LocalEnergy(h)
			return real(etot), eerr
		}
	} else {
		fe, terr := trial.NewFreeElectron(h)
		if terr != nil {
			return nil, terr
		}
		var step func(rng *rand.Rand, w *walker.Walker) error
		if o.field == FieldContinuous {
			p, perr := propagator.NewContinuous(h, fe, o.dt, propagator.ContinuousOptions{
				FreeProjection: o.freeProj,
				ForceBias:      o.forceBias,
				ExpansionOrder: o.expOrder,
			})
			if perr != nil {
				return nil, perr
			}
			step = p.Propagate
		} else {
			p, perr := propagator.NewDiscreteCPMC(h, fe, o.dt, propagator.DiscreteCPMCOptions{
				FreeProjection: o.freeProj,
			})
			if perr != nil {
				return nil, perr
			}
			step = p.Propagate
		}
		for i := range members {
			w, werr := walker.New(h, fe)
			if werr != nil {
				return nil, werr
			}
			members[i] = w
		}
		r.propagate = func(rng *rand.Rand, m walker.Member, _ int) error {
			w := m.(*walker.Walker)
			if !w.IsAlive() {
				return nil
			}
			return step(rng, w)
		}
		r.energy = func(m walker.Member) (float64, error) {
			etot, _, _, eerr := m.(*walker.Walker).LocalEnergy(h)
			return real(etot), eerr
		}
	}

	r.ens, err = ensemble.New(c, members, ensemble.Options{
		Wmin:   o.wmin,
		Wmax:   o.wmax,
		Logger: o.log,
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("runner ready",
		zap.Int("rank", c.Rank()),
		zap.Int("walkers", o.nwalkers),
		zap.Bool("thermal", r.thermal),
		zap.Int64("seed", seed))

	return r, nil
}

// Ensemble exposes the local walker shard, e.g. for estimator consumers.
func (r *Runner) Ensemble() *ensemble.Ensemble { return r.ens }

// Run executes nsteps imaginary-time steps and returns one StepStats per
// step. On error the stats collected so far accompany it.
func (r *Runner) Run(ctx context.Context, nsteps int) ([]StepStats, error) {
	stats := make([]StepStats, 0, nsteps)
	for ts := 0; ts < nsteps; ts++ {
		if err := r.ens.Step(ctx, func(i int, m walker.Member) error {
			return r.propagate(r.rngs[i], m, ts)
		}); err != nil {
			return stats, err
		}
		if !r.thermal && (ts+1)%r.o.nstblz == 0 {
			if err := r.ens.Orthogonalise(r.o.freeProj); err != nil {
				return stats, err
			}
		}
		if (ts+1)%r.o.popEvery == 0 {
			var err error
			if r.o.control == PopComb {
				err = r.ens.Comb(r.ctl)
			} else {
				err = r.ens.Branching(r.ctl)
			}
			if err != nil {
				return stats, err
			}
		}
		st, err := r.sample(ts)
		if err != nil {
			return stats, err
		}
		stats = append(stats, st)
		r.log.Debug("step complete",
			zap.Int("step", ts),
			zap.Float64("weight", st.Weight),
			zap.Int("alive", st.Alive),
			zap.Float64("energy", st.Energy))
	}

	return stats, nil
}

// sample builds the per-step observable record from the live shard.
func (r *Runner) sample(ts int) (StepStats, error) {
	st := StepStats{Step: ts}
	num, den := 0.0, 0.0
	for _, m := range r.ens.Members() {
		if !m.IsAlive() {
			continue
		}
		e, err := r.energy(m)
		if err != nil {
			return st, err
		}
		w := math.Abs(m.CurrentWeight())
		num += w * e
		den += w
		st.Alive++
	}
	st.Weight = den
	if den > 0 {
		st.Energy = num / den
	}

	return st, nil
}

// establishSeed implements the broadcast-then-offset seeding protocol:
// rank 0 fixes the root seed (drawing one when the caller left it zero),
// every rank receives it, and each rank decorrelates by adding its rank.
func establishSeed(c comm.Communicator, seed int64) (int64, error) {
	if c.Rank() == 0 && seed == 0 {
		seed = time.Now().UnixNano()
	}
	if err := c.BroadcastInt(&seed); err != nil {
		return 0, err
	}

	return seed + int64(c.Rank()), nil
}
