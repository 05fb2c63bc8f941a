// Package lattice defines the Hubbard model type, its tunable parameters,
// and sentinel errors.
package lattice

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/qmcgo/afqmc/linalg"
)

// Sentinel errors for lattice construction.
var (
	// ErrInvalidExtent indicates a lattice axis with fewer than one site.
	ErrInvalidExtent = errors.New("lattice: extents must be at least 1x1")
	// ErrInvalidFilling indicates a per-spin particle count outside [0, NBasis].
	ErrInvalidFilling = errors.New("lattice: particle count per spin must lie in [0, number of sites]")
)

// DefaultHopping is the nearest-neighbor hopping amplitude used when
// HubbardOptions.T is zero.
const DefaultHopping = 1.0

// HubbardOptions contains the tunable parameters of the model.
type HubbardOptions struct {
	// Nx, Ny are the lattice extents. The basis size is Nx*Ny.
	Nx, Ny int
	// T is the nearest-neighbor hopping amplitude; zero selects DefaultHopping.
	T float64
	// U is the on-site interaction strength (positive = repulsive).
	U float64
	// Mu is the chemical potential.
	Mu float64
	// Nup, Ndown are the per-spin particle counts.
	Nup, Ndown int
}

// Hubbard is a single-band Hubbard model on a periodic Nx×Ny grid.
// It is immutable once built; H1 and Eig return copies.
type Hubbard struct {
	Nx, Ny     int
	T, U, Mu   float64
	Nup, Ndown int

	nbasis int
	h1     *mat.SymDense
}

// NewHubbard constructs the model and assembles the one-body hopping matrix.
// Bonds are assigned, not accumulated, so an axis of extent 2 (where the
// forward and wrapped neighbor coincide) contributes a single bond.
// Returns ErrInvalidExtent or ErrInvalidFilling on bad parameters.
// Complexity: O(N²) time and memory, N = Nx×Ny.
func NewHubbard(opts HubbardOptions) (*Hubbard, error) {
	if opts.Nx < 1 || opts.Ny < 1 {
		return nil, ErrInvalidExtent
	}
	n := opts.Nx * opts.Ny
	if opts.Nup < 0 || opts.Nup > n || opts.Ndown < 0 || opts.Ndown > n {
		return nil, ErrInvalidFilling
	}
	t := opts.T
	if t == 0 {
		t = DefaultHopping
	}

	h := &Hubbard{
		Nx:     opts.Nx,
		Ny:     opts.Ny,
		T:      t,
		U:      opts.U,
		Mu:     opts.Mu,
		Nup:    opts.Nup,
		Ndown:  opts.Ndown,
		nbasis: n,
		h1:     mat.NewSymDense(n, nil),
	}

	// Forward neighbor per axis with periodic wrap; extent-1 axes are skipped
	// (the wrapped neighbor is the site itself).
	for y := 0; y < opts.Ny; y++ {
		for x := 0; x < opts.Nx; x++ {
			i := h.Index(x, y)
			if opts.Nx > 1 {
				h.h1.SetSym(i, h.Index((x+1)%opts.Nx, y), -t)
			}
			if opts.Ny > 1 {
				h.h1.SetSym(i, h.Index(x, (y+1)%opts.Ny), -t)
			}
		}
	}

	return h, nil
}

// NBasis returns the number of lattice sites (single-particle basis size).
func (h *Hubbard) NBasis() int { return h.nbasis }

// NFields returns the number of auxiliary fields per time slice: one per site.
func (h *Hubbard) NFields() int { return h.nbasis }

// NElec returns the total particle count across both spins.
func (h *Hubbard) NElec() int { return h.Nup + h.Ndown }

// Index maps (x,y) to a row-major site index: y*Nx + x.
func (h *Hubbard) Index(x, y int) int { return y*h.Nx + x }

// Coordinate converts a row-major site index back to (x,y).
func (h *Hubbard) Coordinate(idx int) (x, y int) { return idx % h.Nx, idx / h.Nx }

// H1 returns a copy of the one-body hopping matrix. Both spin species share
// the same hopping stencil in this band.
// Complexity: O(N²).
func (h *Hubbard) H1() *mat.SymDense {
	c := mat.NewSymDense(h.nbasis, nil)
	c.CopySym(h.h1)

	return c
}

// Eig returns the eigenvalues (ascending) and eigenvectors of H1.
// Used for trial-state construction.
// Complexity: O(N³).
func (h *Hubbard) Eig() (vals []float64, vecs *mat.Dense, err error) {
	return linalg.EigSym(h.h1)
}
