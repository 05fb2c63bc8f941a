// Package trial: finite-temperature one-body trial density matrix.
package trial

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/qmcgo/afqmc/lattice"
	"github.com/qmcgo/afqmc/linalg"
)

const (
	// bisectionTol is the convergence threshold on the occupancy residual.
	bisectionTol = 1e-12
	// bisectionMaxIter bounds the chemical-potential search.
	bisectionMaxIter = 200
)

// OneBody is the finite-temperature trial: per-slice propagators
// B_T = exp(−Δτ·(H1 − μ_T·I)) for each spin, with μ_T tuned so the
// equilibrium density at inverse temperature β holds Nup+Ndown particles.
type OneBody struct {
	// Beta is the inverse temperature, Dt the imaginary-time step.
	Beta, Dt float64
	// NSlice is round(Beta/Dt).
	NSlice int
	// Mu is the trial chemical potential found by bisection.
	Mu float64
	// Nav is the target particle number (both spins).
	Nav float64
	// Dmat and DmatInv are exp(∓Δτ·(H1 − μ·I)) per spin. The band carries no
	// spin dependence, so both spin entries are independent equal copies.
	Dmat, DmatInv [2]*linalg.Dense
	// P is the exact equilibrium one-RDM per spin at (β, μ).
	P [2]*linalg.Dense
}

// NewOneBody builds the thermal trial for the given model.
// Returns ErrInvalidInterval on non-positive beta/dt and ErrBisectionFailed
// when the occupancy search cannot bracket or converge.
func NewOneBody(h *lattice.Hubbard, beta, dt float64) (*OneBody, error) {
	if beta <= 0 || dt <= 0 {
		return nil, ErrInvalidInterval
	}
	vals, vecs, err := h.Eig()
	if err != nil {
		return nil, fmt.Errorf("trial: one-body: %w", err)
	}

	nav := float64(h.NElec())
	mu, err := findMu(vals, beta, nav)
	if err != nil {
		return nil, err
	}

	ob := &OneBody{
		Beta:   beta,
		Dt:     dt,
		NSlice: int(math.Round(beta / dt)),
		Mu:     mu,
		Nav:    nav,
	}

	n := h.NBasis()
	shifted := h.H1()
	for i := 0; i < n; i++ {
		shifted.SetSym(i, i, shifted.At(i, i)-mu)
	}
	dmat, err := linalg.ExpmSym(shifted, -dt)
	if err != nil {
		return nil, fmt.Errorf("trial: one-body: %w", err)
	}
	dmatInv, err := linalg.ExpmSym(shifted, dt)
	if err != nil {
		return nil, fmt.Errorf("trial: one-body: %w", err)
	}
	rdm := equilibriumRDM(vals, vecs, beta, mu)
	for s := 0; s < 2; s++ {
		ob.Dmat[s] = dmat.Clone()
		ob.DmatInv[s] = dmatInv.Clone()
		ob.P[s] = rdm.Clone()
	}

	return ob, nil
}

// occupancy returns Σ_spins Σ_k 1/(1+exp(β(λ_k−μ))).
func occupancy(vals []float64, beta, mu float64) float64 {
	var n float64
	for _, l := range vals {
		n += 2 * fermi(beta*(l-mu))
	}

	return n
}

// fermi evaluates 1/(1+e^x) without overflow for large |x|.
func fermi(x float64) float64 {
	if x > 0 {
		e := math.Exp(-x)
		return e / (1 + e)
	}

	return 1 / (1 + math.Exp(x))
}

// findMu brackets and bisects the occupancy equation n(μ) = nav. The
// occupancy is strictly increasing in μ, so a bracket guarantees convergence.
func findMu(vals []float64, beta, nav float64) (float64, error) {
	lo, hi := vals[0]-1, vals[len(vals)-1]+1
	for i := 0; occupancy(vals, beta, lo) > nav; i++ {
		if i == bisectionMaxIter {
			return 0, ErrBisectionFailed
		}
		lo -= 10
	}
	for i := 0; occupancy(vals, beta, hi) < nav; i++ {
		if i == bisectionMaxIter {
			return 0, ErrBisectionFailed
		}
		hi += 10
	}
	for i := 0; i < bisectionMaxIter; i++ {
		mid := 0.5 * (lo + hi)
		r := occupancy(vals, beta, mid) - nav
		if math.Abs(r) < bisectionTol {
			return mid, nil
		}
		if r < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 0, ErrBisectionFailed
}

// equilibriumRDM forms P = V·diag(f(β(λ−μ)))·Vᵀ for one spin species.
func equilibriumRDM(vals []float64, vecs *mat.Dense, beta, mu float64) *linalg.Dense {
	n := len(vals)
	p, _ := linalg.NewDense(n, n)
	pd := p.Data()
	for k := 0; k < n; k++ {
		f := fermi(beta * (vals[k] - mu))
		if f == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			vik := vecs.At(i, k) * f
			for j := 0; j < n; j++ {
				pd[i*n+j] += complex(vik*vecs.At(j, k), 0)
			}
		}
	}

	return p
}
