// Package linalg: real symmetric eigen-decomposition and matrix exponential,
// delegated to gonum. One-body Hamiltonians are real symmetric, so their
// propagator exponentials exp(s·H) are built through the spectral form
// V·exp(s·Λ)·Vᵀ rather than a Taylor/Padé approximation.

package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// EigSym computes the eigen-decomposition of a real symmetric matrix,
// returning ascending eigenvalues and the matching orthonormal eigenvector
// columns. Returns ErrEigenFailed when gonum's factorization fails.
func EigSym(a *mat.SymDense) (vals []float64, vecs *mat.Dense, err error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(a, true); !ok {
		return nil, nil, ErrEigenFailed
	}
	vals = eig.Values(nil)
	vecs = mat.NewDense(a.SymmetricDim(), a.SymmetricDim(), nil)
	eig.VectorsTo(vecs)

	return vals, vecs, nil
}

// ExpmSym computes exp(scale·a) for real symmetric a through its spectral
// decomposition, returned as a complex Dense so it can flow into the complex
// walker algebra. Complexity: O(n³).
func ExpmSym(a *mat.SymDense, scale float64) (*Dense, error) {
	vals, vecs, err := EigSym(a)
	if err != nil {
		return nil, err
	}
	n := len(vals)
	out, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s float64
			for k := 0; k < n; k++ {
				s += vecs.At(i, k) * math.Exp(scale*vals[k]) * vecs.At(j, k)
			}
			out.data[i*n+j] = complex(s, 0)
		}
	}

	return out, nil
}

// FromReal converts a gonum real matrix into a complex Dense.
func FromReal(a mat.Matrix) (*Dense, error) {
	r, c := a.Dims()
	out, err := NewDense(r, c)
	if err != nil {
		return nil, err
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.data[i*c+j] = complex(a.At(i, j), 0)
		}
	}

	return out, nil
}
