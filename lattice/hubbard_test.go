package lattice_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qmcgo/afqmc/lattice"
)

// ------------------------------------------------------------------------
// 1. Validation.
// ------------------------------------------------------------------------

func TestNewHubbard_InvalidExtent(t *testing.T) {
	_, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 0, Ny: 4})
	require.ErrorIs(t, err, lattice.ErrInvalidExtent)
}

func TestNewHubbard_InvalidFilling(t *testing.T) {
	_, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 2, Ny: 2, Nup: 5})
	require.ErrorIs(t, err, lattice.ErrInvalidFilling)
}

// ------------------------------------------------------------------------
// 2. Hopping matrix structure.
// ------------------------------------------------------------------------

func TestH1_CoordinationNumber(t *testing.T) {
	h, err := lattice.NewHubbard(lattice.HubbardOptions{
		Nx: 4, Ny: 4, U: 4, Mu: 1, Nup: 7, Ndown: 7,
	})
	require.NoError(t, err)
	require.Equal(t, 16, h.NBasis())
	require.Equal(t, 16, h.NFields())

	// Every site on a 4x4 torus has exactly four neighbors at -t.
	h1 := h.H1()
	for i := 0; i < 16; i++ {
		var row float64
		for j := 0; j < 16; j++ {
			row += h1.At(i, j)
		}
		require.InDelta(t, -4*h.T, row, 1e-14)
		require.Zero(t, h1.At(i, i))
	}
}

func TestH1_ExtentTwoAxisSingleBond(t *testing.T) {
	// On a 2-site axis the forward and wrapped neighbor coincide; the bond
	// must appear once, not twice.
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 2, Ny: 1})
	require.NoError(t, err)
	require.InDelta(t, -lattice.DefaultHopping, h.H1().At(0, 1), 1e-14)
}

func TestH1_FullDimensionCopy(t *testing.T) {
	// The copy must be allocated at full basis size; a zero-value SymDense
	// receiver would silently copy nothing.
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 4, Ny: 4})
	require.NoError(t, err)
	h1 := h.H1()
	require.Equal(t, h.NBasis(), h1.SymmetricDim())
	require.InDelta(t, -h.T, h1.At(0, 1), 1e-14)
}

func TestH1_CopyIsDetached(t *testing.T) {
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 3, Ny: 3})
	require.NoError(t, err)
	a := h.H1()
	a.SetSym(0, 0, 99)
	require.Zero(t, h.H1().At(0, 0))
}

// ------------------------------------------------------------------------
// 3. Indexing round trip.
// ------------------------------------------------------------------------

func TestIndexCoordinate_RoundTrip(t *testing.T) {
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 5, Ny: 3})
	require.NoError(t, err)
	for idx := 0; idx < h.NBasis(); idx++ {
		x, y := h.Coordinate(idx)
		require.Equal(t, idx, h.Index(x, y))
	}
}

// ------------------------------------------------------------------------
// 4. Spectrum sanity.
// ------------------------------------------------------------------------

func TestEig_TightBindingBand(t *testing.T) {
	h, err := lattice.NewHubbard(lattice.HubbardOptions{Nx: 4, Ny: 4})
	require.NoError(t, err)
	vals, vecs, err := h.Eig()
	require.NoError(t, err)
	require.Len(t, vals, 16)
	r, c := vecs.Dims()
	require.Equal(t, 16, r)
	require.Equal(t, 16, c)

	// Tight-binding band edges on the 4x4 torus: ±4t.
	require.InDelta(t, -4*h.T, vals[0], 1e-12)
	require.InDelta(t, 4*h.T, vals[15], 1e-12)
	for i := 1; i < 16; i++ {
		require.LessOrEqual(t, vals[i-1], vals[i])
	}
}
