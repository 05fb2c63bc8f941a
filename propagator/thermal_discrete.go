// Package propagator: discrete (Ising) auxiliary fields at finite
// temperature.
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

// muShiftTol decides whether the system and trial chemical potentials are
// treated as distinct.
const muShiftTol = 1e-16

// ThermalDiscreteOptions selects the decomposition and sampling mode.
type ThermalDiscreteOptions struct {
	// FreeProjection disables the constraint: weights carry magnitudes and
	// phases accumulate separately.
	FreeProjection bool
	// ChargeDecomposition couples the field to the total density instead of
	// the spin density. The coupling constant becomes complex.
	ChargeDecomposition bool
	// ForceBias biases per-site sampling toward the local density and folds
	// the compensation in logarithmically at the end of each sweep.
	ForceBias bool
}

// ThermalDiscrete propagates finite-temperature walkers one full lattice
// sweep (= one time slice) per call.
type ThermalDiscrete struct {
	h      *lattice.Hubbard
	dt     float64
	nstblz int
	opts   ThermalDiscreteOptions

	gamma   complex128
	auxf    [2][2]complex128 // [field][spin]
	auxWfac [2]complex128
	delta   [2][2]complex128
	mu      float64

	bh1      [2]*linalg.Dense // exp(-dt·(H1-μI)) per spin
	bt, btIn [2]*linalg.Dense // trial slice propagator and inverse

	step func(rng *rand.Rand, w *walker.ThermalWalker, timeSlice int, eshift float64) error
}

// NewThermalDiscrete builds the propagator. The mode is fixed here:
// constrained by default, free projection site-resolved under spin
// decomposition, free projection slice-resolved under charge decomposition,
// and force-bias when requested.
func NewThermalDiscrete(h *lattice.Hubbard, tr *trial.OneBody, dt float64, nstblz int, opts ThermalDiscreteOptions) (*ThermalDiscrete, error) {
	if dt <= 0 {
		return nil, ErrInvalidTimeStep
	}
	if nstblz < 1 {
		return nil, ErrInvalidStabilization
	}
	// The complex charge coupling has no real constrained site sweep; it is
	// only usable with free projection or force-bias sampling.
	if opts.ChargeDecomposition && !opts.FreeProjection && !opts.ForceBias {
		return nil, ErrModeConflict
	}

	p := &ThermalDiscrete{h: h, dt: dt, nstblz: nstblz, opts: opts}
	if opts.ChargeDecomposition {
		p.gamma = cmplx.Acosh(cmplx.Exp(complex(-0.5*dt*h.U, 0)))
		eg, emg := cmplx.Exp(p.gamma), cmplx.Exp(-p.gamma)
		p.auxf = [2][2]complex128{{eg, eg}, {emg, emg}}
		wshift := complex(math.Exp(0.5*dt*h.U), 0)
		p.auxWfac = [2]complex128{wshift * emg, wshift * eg}
	} else {
		p.gamma = complex(math.Acosh(math.Exp(0.5*dt*h.U)), 0)
		eg, emg := cmplx.Exp(p.gamma), cmplx.Exp(-p.gamma)
		p.auxf = [2][2]complex128{{eg, emg}, {emg, eg}}
		p.auxWfac = [2]complex128{1, 1}
	}
	for f := 0; f < 2; f++ {
		for s := 0; s < 2; s++ {
			p.auxf[f][s] *= complex(math.Exp(-0.5*dt*h.U), 0)
		}
	}

	// Chemical-potential mismatch between system and trial folds into the
	// field factors; the one-body propagator then uses the trial μ.
	dmu := -(h.Mu - tr.Mu)
	p.mu = h.Mu
	if math.Abs(dmu) > muShiftTol {
		p.mu = tr.Mu
		shift := complex(math.Exp(-dt*dmu), 0)
		for f := 0; f < 2; f++ {
			for s := 0; s < 2; s++ {
				p.auxf[f][s] *= shift
			}
		}
	}
	for f := 0; f < 2; f++ {
		for s := 0; s < 2; s++ {
			p.delta[f][s] = p.auxf[f][s] - 1
		}
	}

	shifted := h.H1()
	for i := 0; i < h.NBasis(); i++ {
		shifted.SetSym(i, i, shifted.At(i, i)-p.mu)
	}
	bh1, err := linalg.ExpmSym(shifted, -dt)
	if err != nil {
		return nil, fmt.Errorf("propagator: thermal discrete: %w", err)
	}
	for s := 0; s < 2; s++ {
		p.bh1[s] = bh1.Clone()
		p.bt[s] = tr.Dmat[s]
		p.btIn[s] = tr.DmatInv[s]
	}

	switch {
	case opts.ForceBias:
		p.step = p.propagateForceBias
	case opts.FreeProjection && opts.ChargeDecomposition:
		p.step = p.propagateFreeSlice
	case opts.FreeProjection:
		p.step = p.propagateFreeSite
	default:
		p.step = p.propagateConstrained
	}

	return p, nil
}

// Propagate advances the walker through one time slice.
func (p *ThermalDiscrete) Propagate(rng *rand.Rand, w *walker.ThermalWalker, timeSlice int, eshift float64) error {
	if !w.IsAlive() {
		return ErrDeadWalker
	}

	return p.step(rng, w, timeSlice, eshift)
}

// OverlapRatio returns the two candidate weight multipliers for site i,
// 0.5·Π_spins(1 + (1−G_ii)·δ), one per field value.
func (p *ThermalDiscrete) OverlapRatio(w *walker.ThermalWalker, i int) [2]complex128 {
	n := p.h.NBasis()
	var r [2]complex128
	for f := 0; f < 2; f++ {
		prod := complex128(0.5)
		for s := 0; s < 2; s++ {
			gii := w.G[s].Data()[i*n+i]
			prod *= 1 + (1-gii)*p.delta[f][s]
		}
		r[f] = prod
	}

	return r
}

// updateGreens applies the closed-form rank-1 Green's function update after
// fixing site i to field xi.
func (p *ThermalDiscrete) updateGreens(w *walker.ThermalWalker, i, xi int) {
	n := p.h.NBasis()
	for s := 0; s < 2; s++ {
		d := w.G[s].Data()
		g := make([]complex128, n)
		gbar := make([]complex128, n)
		for k := 0; k < n; k++ {
			g[k] = d[k*n+i]
			gbar[k] = -d[i*n+k]
		}
		gbar[i] += 1
		delta := p.delta[xi][s]
		factor := delta / (1 + (1-g[i])*delta)
		for k := 0; k < n; k++ {
			gk := factor * g[k]
			if gk == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				d[k*n+j] -= gk * gbar[j]
			}
		}
	}
}

// advanceGreens moves G to the next slice, G ← B_T·G·B_T⁻¹, except right
// after a full β wrap where the next call rebuilds from the stack anyway.
func (p *ThermalDiscrete) advanceGreens(w *walker.ThermalWalker) error {
	if w.Stack.TimeSlice() == 0 {
		return nil
	}
	for s := 0; s < 2; s++ {
		t1, err := linalg.Mul(p.bt[s], w.G[s])
		if err != nil {
			return fmt.Errorf("propagator: advance greens: %w", err)
		}
		if w.G[s], err = linalg.Mul(t1, p.btIn[s]); err != nil {
			return fmt.Errorf("propagator: advance greens: %w", err)
		}
	}

	return nil
}

// sliceMatrices forms the whole-slice propagators diag(BV_s)·BH1_s.
func (p *ThermalDiscrete) sliceMatrices(bv [2][]complex128) ([2]*linalg.Dense, error) {
	var b [2]*linalg.Dense
	for s := 0; s < 2; s++ {
		m, err := linalg.ScaleRows(bv[s], p.bh1[s])
		if err != nil {
			return b, fmt.Errorf("propagator: slice matrix: %w", err)
		}
		b[s] = m
	}

	return b, nil
}

func (p *ThermalDiscrete) newFieldVectors() [2][]complex128 {
	n := p.h.NBasis()

	return [2][]complex128{make([]complex128, n), make([]complex128, n)}
}

func (p *ThermalDiscrete) propagateConstrained(rng *rand.Rand, w *walker.ThermalWalker, timeSlice int, eshift float64) error {
	bv := p.newFieldVectors()
	for i := 0; i < p.h.NBasis(); i++ {
		probs := p.OverlapRatio(w, i)
		r0 := math.Max(real(probs[0]), 0)
		r1 := math.Max(real(probs[1]), 0)
		norm := r0 + r1
		if norm <= 0 {
			// No acceptable outcome at this site: the walker dies and the
			// sweep stops immediately.
			w.Kill()
			return nil
		}
		w.Weight *= norm * math.Exp(eshift)
		xi := 1
		if rng.Float64() < r0/norm {
			xi = 0
		}
		p.updateGreens(w, i, xi)
		bv[0][i] = p.auxf[xi][0]
		bv[1][i] = p.auxf[xi][1]
	}

	return p.finishSweep(w, bv, timeSlice, false)
}

func (p *ThermalDiscrete) propagateFreeSite(rng *rand.Rand, w *walker.ThermalWalker, timeSlice int, eshift float64) error {
	bv := p.newFieldVectors()
	for i := 0; i < p.h.NBasis(); i++ {
		probs := p.OverlapRatio(w, i)
		xi := rng.Intn(2)
		magn, theta := cmplx.Polar(probs[xi])
		w.Weight *= 2 * magn * math.Exp(eshift)
		w.Phase *= cmplx.Exp(complex(0, theta))
		p.updateGreens(w, i, xi)
		bv[0][i] = p.auxf[xi][0]
		bv[1][i] = p.auxf[xi][1]
	}

	return p.finishSweep(w, bv, timeSlice, timeSlice == 0)
}

// finishSweep pushes the assembled slice into the stack, rebuilds G at the
// stabilization cadence, and advances to the next slice.
func (p *ThermalDiscrete) finishSweep(w *walker.ThermalWalker, bv [2][]complex128, timeSlice int, skipRebuild bool) error {
	b, err := p.sliceMatrices(bv)
	if err != nil {
		return err
	}
	if err = w.Stack.Update(b); err != nil {
		return err
	}
	if (timeSlice+1)%p.nstblz == 0 && !skipRebuild {
		if err = w.GreensFunction(timeSlice); err != nil {
			return err
		}
	}

	return p.advanceGreens(w)
}

func (p *ThermalDiscrete) propagateFreeSlice(rng *rand.Rand, w *walker.ThermalWalker, timeSlice int, _ float64) error {
	bv := p.newFieldVectors()
	wfac := complex128(1)
	for i := 0; i < p.h.NBasis(); i++ {
		xi := rng.Intn(2)
		bv[0][i] = p.auxf[xi][0]
		bv[1][i] = p.auxf[xi][1]
		wfac *= p.auxWfac[xi]
	}

	gOld, err := w.GreensFunctionAt(timeSlice)
	if err != nil {
		return err
	}
	b, err := p.sliceMatrices(bv)
	if err != nil {
		return err
	}
	if err = w.Stack.Update(b); err != nil {
		return err
	}
	if err = w.GreensFunction(timeSlice); err != nil {
		return err
	}

	oratio, ok, err := determinantRatio(gOld, w.G)
	if err != nil {
		return err
	}
	if !ok {
		w.Kill()
		return nil
	}
	magn, theta := cmplx.Polar(wfac * oratio)
	w.Weight *= magn
	w.Phase *= cmplx.Exp(complex(0, theta))

	return nil
}

func (p *ThermalDiscrete) propagateForceBias(rng *rand.Rand, w *walker.ThermalWalker, timeSlice int, _ float64) error {
	gOld, err := w.GreensFunctionAt(timeSlice)
	if err != nil {
		return err
	}
	rdm, err := estimator.OneRDMFromG(gOld)
	if err != nil {
		return err
	}

	n := p.h.NBasis()
	fbTerm := make([]complex128, n)
	for i := 0; i < n; i++ {
		nia := rdm[0].Data()[i*n+i]
		nib := rdm[1].Data()[i*n+i]
		if p.opts.ChargeDecomposition {
			fbTerm[i] = nia + nib - 1
		} else {
			fbTerm[i] = nia - nib
		}
	}

	bv := p.newFieldVectors()
	fields := make([]int, n)
	var fbFac, wfacLog complex128
	for i := 0; i < n; i++ {
		pp := real(0.5 * cmplx.Exp(p.gamma*fbTerm[i]))
		pm := real(0.5 * cmplx.Exp(-p.gamma*fbTerm[i]))
		norm := pp + pm
		xi := 1
		if rng.Float64() < pp/norm {
			xi = 0
		}
		fields[i] = xi
		bv[0][i] = p.auxf[xi][0]
		bv[1][i] = p.auxf[xi][1]
		if xi == 0 {
			fbFac += cmplx.Log(complex(0.5*norm, 0)) - p.gamma*fbTerm[i]
		} else {
			fbFac += cmplx.Log(complex(0.5*norm, 0)) + p.gamma*fbTerm[i]
		}
		wfacLog += cmplx.Log(p.auxWfac[xi])
	}

	b, err := p.sliceMatrices(bv)
	if err != nil {
		return err
	}
	if err = w.Stack.Update(b); err != nil {
		return err
	}
	if err = w.GreensFunction(timeSlice); err != nil {
		return err
	}

	sign, logO, ok, err := determinantRatioLog(gOld, w.G)
	if err != nil {
		return err
	}
	if !ok {
		w.Kill()
		return nil
	}
	oratio := sign * cmplx.Exp(complex(logO, 0)+wfacLog+fbFac)
	if p.opts.FreeProjection {
		magn, theta := cmplx.Polar(oratio)
		w.Weight *= magn
		w.Phase *= cmplx.Exp(complex(0, theta))
		return nil
	}
	theta := cmplx.Phase(oratio / cmplx.Exp(fbFac))
	if math.Abs(theta) < 0.5*math.Pi {
		w.Weight *= real(oratio)
		return nil
	}
	w.Kill()

	return nil
}

// determinantRatio returns det(G_old)/det(G_new) over both spins.
// ok is false when the new Green's function is singular.
func determinantRatio(gOld, gNew [2]*linalg.Dense) (complex128, bool, error) {
	sign, logO, ok, err := determinantRatioLog(gOld, gNew)
	if err != nil || !ok {
		return 0, ok, err
	}

	return sign * cmplx.Exp(complex(logO, 0)), true, nil
}

// determinantRatioLog returns the sign and log magnitude of
// det(G_old)/det(G_new) in slogdet form.
func determinantRatioLog(gOld, gNew [2]*linalg.Dense) (sign complex128, logO float64, ok bool, err error) {
	sign = 1
	for s := 0; s < 2; s++ {
		s0, l0, derr := linalg.SLogDet(gOld[s])
		if derr != nil {
			return 0, 0, false, fmt.Errorf("propagator: determinant ratio: %w", derr)
		}
		s1, l1, derr := linalg.SLogDet(gNew[s])
		if derr != nil {
			return 0, 0, false, fmt.Errorf("propagator: determinant ratio: %w", derr)
		}
		if s1 == 0 {
			return 0, 0, false, nil
		}
		sign *= s0 / s1
		logO += l0 - l1
	}

	return sign, logO, true, nil
}
