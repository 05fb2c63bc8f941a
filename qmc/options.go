package qmc

import (
	"go.uber.org/zap"

	"github.com/qmcgo/afqmc/ensemble"
	"github.com/qmcgo/afqmc/propagator"
)

// FieldKind selects the auxiliary-field decomposition.
type FieldKind int

const (
	// FieldContinuous samples Gaussian fields (ground state only).
	FieldContinuous FieldKind = iota
	// FieldDiscrete samples Ising fields (ground state or thermal).
	FieldDiscrete
)

// PopControl selects the population-control algorithm.
type PopControl int

const (
	// PopComb applies global systematic resampling.
	PopComb PopControl = iota
	// PopBranching applies local birth/death control.
	PopBranching
)

// Defaults, the single source of truth for zero-option behavior.
const (
	// DefaultTimeStep is the imaginary-time step Δτ.
	DefaultTimeStep = 0.05
	// DefaultBeta selects a ground-state run; a positive β selects the
	// finite-temperature engine with nslice = round(β/Δτ).
	DefaultBeta = 0.0
	// DefaultStabilization is the interval, in steps, between
	// reorthogonalization (ground state) or stack rebuilds (thermal).
	DefaultStabilization = 10
	// DefaultWalkers is the local walker count per worker.
	DefaultWalkers = 10
	// DefaultStackSize is the thermal propagator-stack bin size.
	DefaultStackSize = 10
	// DefaultPopInterval is the interval, in steps, between population
	// control applications.
	DefaultPopInterval = 10
)

// Panic messages for nonsensical option values (programmer error).
const (
	panicTimeStep      = "qmc: WithTimeStep: dt must be positive"
	panicBeta          = "qmc: WithBeta: beta must be non-negative"
	panicStabilization = "qmc: WithStabilization: interval must be at least 1"
	panicWalkers       = "qmc: WithWalkers: count must be at least 1"
	panicStackSize     = "qmc: WithStackSize: size must be at least 1"
	panicPopInterval   = "qmc: WithPopInterval: interval must be at least 1"
	panicWeightBounds  = "qmc: WithWeightBounds: need 0 < wmin < wmax"
	panicExpansion     = "qmc: WithExpansionOrder: order must be at least 1"
	panicFieldKind     = "qmc: WithFieldKind: unknown kind"
	panicPopControl    = "qmc: WithPopulationControl: unknown algorithm"
)

// Option mutates the run configuration. Safe to apply repeatedly.
type Option func(*options)

type options struct {
	dt         float64
	beta       float64
	nstblz     int
	nwalkers   int
	stackSize  int
	popEvery   int
	wmin, wmax float64

	field      FieldKind
	control    PopControl
	freeProj   bool
	forceBias  bool
	chargeDec  bool
	expOrder   int
	seed       int64
	eshift     float64
	log        *zap.Logger
}

func defaultOptions() options {
	return options{
		dt:        DefaultTimeStep,
		beta:      DefaultBeta,
		nstblz:    DefaultStabilization,
		nwalkers:  DefaultWalkers,
		stackSize: DefaultStackSize,
		popEvery:  DefaultPopInterval,
		wmin:      ensemble.DefaultWmin,
		wmax:      ensemble.DefaultWmax,
		field:     FieldContinuous,
		control:   PopComb,
		expOrder:  propagator.DefaultExpansionOrder,
		log:       zap.NewNop(),
	}
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithTimeStep sets the imaginary-time step Δτ.
func WithTimeStep(dt float64) Option {
	if dt <= 0 {
		panic(panicTimeStep)
	}

	return func(o *options) { o.dt = dt }
}

// WithBeta selects a finite-temperature run down to inverse temperature β.
// Zero keeps the ground-state engine.
func WithBeta(beta float64) Option {
	if beta < 0 {
		panic(panicBeta)
	}

	return func(o *options) { o.beta = beta }
}

// WithStabilization sets the stabilization interval in steps.
func WithStabilization(n int) Option {
	if n < 1 {
		panic(panicStabilization)
	}

	return func(o *options) { o.nstblz = n }
}

// WithWalkers sets the local walker count per worker.
func WithWalkers(n int) Option {
	if n < 1 {
		panic(panicWalkers)
	}

	return func(o *options) { o.nwalkers = n }
}

// WithStackSize sets the thermal propagator-stack bin size. It must divide
// the slice count round(β/Δτ); the walker constructor enforces that.
func WithStackSize(n int) Option {
	if n < 1 {
		panic(panicStackSize)
	}

	return func(o *options) { o.stackSize = n }
}

// WithPopInterval sets how many steps pass between population-control
// applications.
func WithPopInterval(n int) Option {
	if n < 1 {
		panic(panicPopInterval)
	}

	return func(o *options) { o.popEvery = n }
}

// WithWeightBounds sets the branching thresholds.
func WithWeightBounds(wmin, wmax float64) Option {
	if wmin <= 0 || wmin >= wmax {
		panic(panicWeightBounds)
	}

	return func(o *options) { o.wmin, o.wmax = wmin, wmax }
}

// WithFieldKind selects the auxiliary-field decomposition.
func WithFieldKind(k FieldKind) Option {
	if k != FieldContinuous && k != FieldDiscrete {
		panic(panicFieldKind)
	}

	return func(o *options) { o.field = k }
}

// WithPopulationControl selects the population-control algorithm.
func WithPopulationControl(c PopControl) Option {
	if c != PopComb && c != PopBranching {
		panic(panicPopControl)
	}

	return func(o *options) { o.control = c }
}

// WithFreeProjection disables the phaseless/sign constraint; weights carry
// magnitudes and phases accumulate separately.
func WithFreeProjection() Option {
	return func(o *options) { o.freeProj = true }
}

// WithForceBias biases field sampling toward the walker's local density.
func WithForceBias() Option {
	return func(o *options) { o.forceBias = true }
}

// WithChargeDecomposition couples discrete fields to the total density
// instead of the spin density (thermal runs only).
func WithChargeDecomposition() Option {
	return func(o *options) { o.chargeDec = true }
}

// WithExpansionOrder sets the Taylor order of the continuous-field
// exponential.
func WithExpansionOrder(n int) Option {
	if n < 1 {
		panic(panicExpansion)
	}

	return func(o *options) { o.expOrder = n }
}

// WithSeed fixes the root seed for reproducible runs. Zero lets rank 0 draw
// a seed at construction.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithEnergyShift applies a constant exp(eshift) weight factor per thermal
// step, countering systematic weight growth.
func WithEnergyShift(e float64) Option {
	return func(o *options) { o.eshift = e }
}

// WithLogger wires a structured logger into the run; nil keeps the nop
// logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
