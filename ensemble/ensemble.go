package ensemble

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qmcgo/afqmc/comm"
	"github.com/qmcgo/afqmc/walker"
)

// Default population-control thresholds and growth headroom.
const (
	// DefaultWmin is the weight below which a walker risks death.
	DefaultWmin = 0.05
	// DefaultWmax is the weight above which a walker is cloned.
	DefaultWmax = 4.0
	// DefaultGrowthFactor bounds how far branching may grow the shard
	// beyond its nominal size.
	DefaultGrowthFactor = 1.1
)

// Options tunes population control. The zero value selects every default.
type Options struct {
	// Wmin, Wmax override DefaultWmin/DefaultWmax when positive.
	Wmin, Wmax float64
	// GrowthFactor overrides DefaultGrowthFactor when positive; branching
	// rescales the total weight to GrowthFactor times the shard size.
	GrowthFactor float64
	// Logger receives control-step diagnostics; nil selects zap.NewNop().
	Logger *zap.Logger
}

// Ensemble is one worker's shard of the global walker population.
type Ensemble struct {
	comm    comm.Communicator
	members []walker.Member

	nlocal int // shard size at construction; comb indexing depends on it
	ntotal int // global target population
	wmin   float64
	wmax   float64
	growCap float64 // branching rescale target

	total float64 // global total weight as of the last control step
	log   *zap.Logger
}

// New wraps a non-empty walker shard. The global target population is the
// shard size times the communicator size.
func New(c comm.Communicator, members []walker.Member, opts Options) (*Ensemble, error) {
	if c == nil {
		return nil, ErrNilCommunicator
	}
	if len(members) == 0 {
		return nil, ErrEmptyShard
	}
	e := &Ensemble{
		comm:    c,
		members: members,
		nlocal:  len(members),
		ntotal:  len(members) * c.Size(),
		wmin:    DefaultWmin,
		wmax:    DefaultWmax,
		growCap: DefaultGrowthFactor * float64(len(members)),
		log:     zap.NewNop(),
	}
	if opts.Wmin > 0 {
		e.wmin = opts.Wmin
	}
	if opts.Wmax > 0 {
		e.wmax = opts.Wmax
	}
	if e.wmin >= e.wmax {
		return nil, ErrInvalidThresholds
	}
	if opts.GrowthFactor > 0 {
		e.growCap = opts.GrowthFactor * float64(len(members))
	}
	if opts.Logger != nil {
		e.log = opts.Logger
	}
	e.total = float64(e.ntotal)

	return e, nil
}

// Members exposes the shard. The slice is owned by the ensemble; branching
// may reorder and extend it.
func (e *Ensemble) Members() []walker.Member { return e.members }

// Len returns the current shard size, including dead slots.
func (e *Ensemble) Len() int { return len(e.members) }

// AliveCount returns the number of walkers still carrying weight.
func (e *Ensemble) AliveCount() int {
	n := 0
	for _, m := range e.members {
		if m.IsAlive() {
			n++
		}
	}

	return n
}

// LocalWeight sums |weight| over the live shard.
func (e *Ensemble) LocalWeight() float64 {
	t := 0.0
	for _, m := range e.members {
		if m.IsAlive() {
			t += math.Abs(m.CurrentWeight())
		}
	}

	return t
}

// TotalWeight returns the global total established at the last control
// step.
func (e *Ensemble) TotalWeight() float64 { return e.total }

// Step runs one unit of work per walker on an errgroup pool. Walkers are
// independent within a step, so tasks share nothing; the first failing task
// cancels the rest through ctx and aborts the run.
func (e *Ensemble) Step(ctx context.Context, step func(i int, m walker.Member) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, m := range e.members {
		i, m := i, m
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return step(i, m)
		})
	}

	return g.Wait()
}

// reorthoer is satisfied by ground-state walkers; thermal walkers restore
// orthogonality through their stack instead and are skipped.
type reorthoer interface {
	Reortho() (float64, error)
}

// Orthogonalise re-orthonormalizes every walker that supports it. Under
// free projection the determinant correction is folded into the weight so
// averages stay invariant; under the constraint it is already absorbed by
// the stored overlap.
func (e *Ensemble) Orthogonalise(freeProjection bool) error {
	for _, m := range e.members {
		r, ok := m.(reorthoer)
		if !ok || !m.IsAlive() {
			continue
		}
		detR, err := r.Reortho()
		if err != nil {
			return err
		}
		if freeProjection {
			m.SetWeight(m.CurrentWeight() * detR)
		}
	}

	return nil
}
