// Package propagator: continuous (Gaussian) auxiliary fields for
// ground-state walkers.
package propagator

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/qmcgo/afqmc/estimator"
	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
	"github.com/qmcgo/afqmc/trial"
	"github.com/qmcgo/afqmc/walker"
)

// DefaultExpansionOrder truncates the Taylor application of exp(V_HS).
const DefaultExpansionOrder = 4

// ContinuousOptions selects the weight-handling branch of the continuous
// Hubbard-Stratonovich propagator.
type ContinuousOptions struct {
	// FreeProjection keeps magnitude in the weight and phase in the phase
	// accumulator instead of applying the phaseless constraint.
	FreeProjection bool
	// ForceBias shifts the Gaussian sampling toward the walker's local
	// density. Ignored under free projection, matching the exact sampling
	// the unconstrained estimator needs.
	ForceBias bool
	// ExpansionOrder overrides DefaultExpansionOrder when positive.
	ExpansionOrder int
}

// Continuous implements the Gaussian-field Hubbard propagator: the on-site
// interaction is decoupled through v_i = i√U·(n_i↑+n_i↓) with the one-body
// part −U/2 and the mean-field shift folded into the half kinetic
// propagator.
type Continuous struct {
	h    *lattice.Hubbard
	dt   float64
	opts ContinuousOptions

	sqrtDt  float64
	iuFac   complex128
	order   int
	mfShift []complex128
	bh1     *linalg.Dense // exp(-dt/2·(H1 - U/2·I - i√U·diag(mfShift)))
	psi     [2]*linalg.Dense
}

// NewContinuous precomputes the mean-field shift from the trial density and
// the shifted half kinetic propagator.
func NewContinuous(h *lattice.Hubbard, tr *trial.FreeElectron, dt float64, opts ContinuousOptions) (*Continuous, error) {
	if dt <= 0 {
		return nil, ErrInvalidTimeStep
	}
	p := &Continuous{
		h:      h,
		dt:     dt,
		opts:   opts,
		sqrtDt: math.Sqrt(dt),
		iuFac:  complex(0, math.Sqrt(h.U)),
		order:  DefaultExpansionOrder,
		psi:    [2]*linalg.Dense{tr.SpinBlock(0), tr.SpinBlock(1)},
	}
	if opts.ExpansionOrder > 0 {
		p.order = opts.ExpansionOrder
	}

	// Mean-field shift from the trial density: ⟨v_i⟩ = i√U·(n_i↑+n_i↓).
	n := h.NBasis()
	p.mfShift = make([]complex128, n)
	density, err := trialDensity(p.psi)
	if err != nil {
		return nil, fmt.Errorf("propagator: continuous: %w", err)
	}
	for i := 0; i < n; i++ {
		p.mfShift[i] = p.iuFac * density[i]
	}

	// Effective one-body matrix: H1 − U/2·I − i√U·diag(mfShift), scaled by
	// −dt/2 and exponentiated once.
	arg, err := linalg.FromReal(h.H1())
	if err != nil {
		return nil, fmt.Errorf("propagator: continuous: %w", err)
	}
	ad := arg.Data()
	for i := 0; i < n; i++ {
		ad[i*n+i] -= complex(0.5*h.U, 0) + p.iuFac*p.mfShift[i]
	}
	half := complex(-0.5*dt, 0)
	for i := range ad {
		ad[i] *= half
	}
	if p.bh1, err = linalg.Expm(arg); err != nil {
		return nil, fmt.Errorf("propagator: continuous: %w", err)
	}

	return p, nil
}

// trialDensity returns n_i = G↑_ii + G↓_ii of the trial with itself.
func trialDensity(psi [2]*linalg.Dense) ([]complex128, error) {
	n := psi[0].Rows()
	density := make([]complex128, n)
	for s := 0; s < 2; s++ {
		g, err := estimator.Gab(psi[s], psi[s])
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			density[i] += g.Data()[i*n+i]
		}
	}

	return density, nil
}

// Propagate advances the walker by one full time step: half kinetic, one
// stochastic interaction step, half kinetic, then the weight update of the
// selected branch.
func (p *Continuous) Propagate(rng *rand.Rand, w *walker.Walker) error {
	if !w.IsAlive() {
		return ErrDeadWalker
	}
	if err := p.halfKinetic(w); err != nil {
		return err
	}
	cmf, cfb, xshifted, err := p.twoBody(rng, w)
	if err != nil {
		return err
	}
	if err = p.halfKinetic(w); err != nil {
		return err
	}

	// Refresh overlap machinery; a singular overlap mid-run is a death, not
	// an error.
	if err = w.InverseOverlap(p.psi); err != nil {
		w.Kill()
		p.recordDeadStep(w, xshifted)
		return nil
	}
	if err = w.GreensFunction(p.psi); err != nil {
		return err
	}
	otNew, err := w.CalcOverlap()
	if err != nil {
		return err
	}

	if p.opts.FreeProjection {
		magn, theta := cmplx.Polar(cmplx.Exp(cmf))
		w.Weight *= magn
		w.Phase *= cmplx.Exp(complex(0, theta))
		w.Ot = otNew
		p.recordStep(w, xshifted, 1, 1)
		return nil
	}

	// Hybrid phaseless update.
	hybrid := cmplx.Log(otNew) - cmplx.Log(w.Ot) + cfb + cmf
	importance := cmplx.Exp(hybrid)
	magn := cmplx.Abs(importance)
	w.Ot = otNew
	if math.IsInf(magn, 0) || math.IsNaN(magn) {
		w.Weight = 0
		w.Alive = false
		p.recordDeadStep(w, xshifted)
		return nil
	}
	theta := cmplx.Phase(cmplx.Exp(hybrid - cfb))
	cosFac := math.Max(0, math.Cos(theta))
	w.Weight *= magn * cosFac
	p.recordStep(w, xshifted, cosFac, importance/complex(magn, 0))

	return nil
}

// halfKinetic applies exp(−dt/2·H1eff) to both amplitude blocks.
func (p *Continuous) halfKinetic(w *walker.Walker) error {
	for s := 0; s < 2; s++ {
		phi, err := linalg.Mul(p.bh1, w.Phi[s])
		if err != nil {
			return fmt.Errorf("propagator: half kinetic: %w", err)
		}
		w.Phi[s] = phi
	}

	return nil
}

// twoBody samples the Gaussian fields, applies exp(V_HS) by truncated
// Taylor expansion, and returns the mean-field and force-bias constants.
func (p *Continuous) twoBody(rng *rand.Rand, w *walker.Walker) (cmf, cfb complex128, xshifted []complex128, err error) {
	n := p.h.NFields()
	xi := make([]float64, n)
	for i := range xi {
		xi[i] = rng.NormFloat64()
	}

	xbar := make([]complex128, n)
	if p.opts.ForceBias && !p.opts.FreeProjection {
		for i := 0; i < n; i++ {
			vbias := p.iuFac * (w.G[0].Data()[i*n+i] + w.G[1].Data()[i*n+i])
			xbar[i] = -complex(p.sqrtDt, 0) * (vbias - p.mfShift[i])
			if a := cmplx.Abs(xbar[i]); a > 1 {
				xbar[i] /= complex(a, 0)
			}
		}
	}

	xshifted = make([]complex128, n)
	diag := make([]complex128, n)
	for i := 0; i < n; i++ {
		xshifted[i] = complex(xi[i], 0) - xbar[i]
		cmf -= complex(p.sqrtDt, 0) * xshifted[i] * p.mfShift[i]
		cfb += complex(xi[i], 0)*xbar[i] - 0.5*xbar[i]*xbar[i]
		diag[i] = complex(p.sqrtDt, 0) * p.iuFac * xshifted[i]
	}

	for s := 0; s < 2; s++ {
		if err = linalg.ApplyExpDiagTaylor(w.Phi[s], diag, p.order); err != nil {
			return 0, 0, nil, fmt.Errorf("propagator: two body: %w", err)
		}
	}

	return cmf, cfb, xshifted, nil
}

func (p *Continuous) recordStep(w *walker.Walker, xshifted []complex128, cosFac float64, wfac complex128) {
	if w.Fields == nil {
		return
	}
	re := make([]float64, len(xshifted))
	for i, v := range xshifted {
		re[i] = real(v)
	}
	_ = w.Fields.PushFull(re, cosFac, wfac)
}

func (p *Continuous) recordDeadStep(w *walker.Walker, xshifted []complex128) {
	if w.Fields == nil {
		return
	}
	_ = w.Fields.PushFull(make([]float64, len(xshifted)), 0, 0)
}
