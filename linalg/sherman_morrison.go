// Package linalg: Sherman–Morrison rank-1 inverse update.
//
// (A + u⊗v)⁻¹ = A⁻¹ − (A⁻¹u)(vᵀA⁻¹) / (1 + vᵀA⁻¹u)
//
// This is the hot path exercised at every discrete auxiliary-field site
// update: O(n²) instead of the O(n³) full inverse, and it must agree with
// the full recomputation to numerical tolerance.

package linalg

import "math/cmplx"

// ShermanMorrison returns the rank-1 updated inverse (A + u⊗v)⁻¹ given
// ainv = A⁻¹. Vectors are taken as given: no implicit conjugation, matching
// the overlap-update convention where u carries the conjugated trial row.
// Returns ErrDimensionMismatch on length mismatch and ErrSingular when the
// update denominator vanishes (the perturbed matrix is not invertible).
// The input is not mutated. Complexity: O(n²).
func ShermanMorrison(ainv *Dense, u, v []complex128) (*Dense, error) {
	if ainv == nil {
		return nil, ErrNilMatrix
	}
	n := ainv.r
	if ainv.c != n {
		return nil, ErrNonSquare
	}
	if len(u) != n || len(v) != n {
		return nil, ErrDimensionMismatch
	}

	// au = A⁻¹u, va = vᵀA⁻¹, denom = 1 + vᵀA⁻¹u.
	au := make([]complex128, n)
	va := make([]complex128, n)
	for i := 0; i < n; i++ {
		var s complex128
		row := ainv.data[i*n : i*n+n]
		for j := 0; j < n; j++ {
			s += row[j] * u[j]
		}
		au[i] = s
	}
	var denom complex128 = 1
	for j := 0; j < n; j++ {
		var s complex128
		for i := 0; i < n; i++ {
			s += v[i] * ainv.data[i*n+j]
		}
		va[j] = s
		denom += v[j] * au[j]
	}
	if cmplx.Abs(denom) == 0 {
		return nil, ErrSingular
	}

	out := ainv.Clone()
	inv := 1 / denom
	for i := 0; i < n; i++ {
		ai := au[i] * inv
		row := out.data[i*n : i*n+n]
		for j := 0; j < n; j++ {
			row[j] -= ai * va[j]
		}
	}

	return out, nil
}
