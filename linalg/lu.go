// Package linalg: LU factorization with partial pivoting and its consumers
// (Inverse, Det, SLogDet). Partial pivoting keeps the factorization stable
// for the well-conditioned overlap matrices walkers carry; a vanishing pivot
// maps to ErrSingular, which walker code converts into a dead walker.

package linalg

import (
	"math"
	"math/cmplx"
)

// luFactor computes an in-place LU factorization of a (square, destroyed),
// returning the pivot permutation and the number of row swaps.
// Returns ErrSingular when a pivot vanishes.
func luFactor(a *Dense) (piv []int, swaps int, err error) {
	n := a.r
	piv = make([]int, n)
	for i := range piv {
		piv[i] = i
	}
	for k := 0; k < n; k++ {
		// Select the largest-magnitude pivot in column k.
		p, pmax := k, cmplx.Abs(a.data[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := cmplx.Abs(a.data[i*n+k]); v > pmax {
				p, pmax = i, v
			}
		}
		if pmax == 0 {
			return nil, 0, ErrSingular
		}
		if p != k {
			for j := 0; j < n; j++ {
				a.data[k*n+j], a.data[p*n+j] = a.data[p*n+j], a.data[k*n+j]
			}
			piv[k], piv[p] = piv[p], piv[k]
			swaps++
		}
		inv := 1 / a.data[k*n+k]
		for i := k + 1; i < n; i++ {
			l := a.data[i*n+k] * inv
			a.data[i*n+k] = l
			for j := k + 1; j < n; j++ {
				a.data[i*n+j] -= l * a.data[k*n+j]
			}
		}
	}

	return piv, swaps, nil
}

// Inverse computes a⁻¹ into a fresh Dense via LU with partial pivoting.
// Returns ErrNonSquare for rectangular input and ErrSingular when a has no
// inverse. Complexity: O(n³).
func Inverse(a *Dense) (*Dense, error) {
	if a == nil {
		return nil, ErrNilMatrix
	}
	if a.r != a.c {
		return nil, ErrNonSquare
	}
	n := a.r
	lu := a.Clone()
	piv, _, err := luFactor(lu)
	if err != nil {
		return nil, err
	}
	out, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	// Solve LU·x = e_piv for each unit column.
	col := make([]complex128, n)
	for c := 0; c < n; c++ {
		for i := 0; i < n; i++ {
			if piv[i] == c {
				col[i] = 1
			} else {
				col[i] = 0
			}
		}
		// Forward substitution (unit lower triangle).
		for i := 1; i < n; i++ {
			s := col[i]
			for j := 0; j < i; j++ {
				s -= lu.data[i*n+j] * col[j]
			}
			col[i] = s
		}
		// Back substitution (upper triangle).
		for i := n - 1; i >= 0; i-- {
			s := col[i]
			for j := i + 1; j < n; j++ {
				s -= lu.data[i*n+j] * col[j]
			}
			col[i] = s / lu.data[i*n+i]
		}
		for i := 0; i < n; i++ {
			out.data[i*n+c] = col[i]
		}
	}

	return out, nil
}

// Det computes the determinant of a square matrix via LU.
// A singular matrix yields determinant 0 (not an error).
// Complexity: O(n³).
func Det(a *Dense) (complex128, error) {
	if a == nil {
		return 0, ErrNilMatrix
	}
	if a.r != a.c {
		return 0, ErrNonSquare
	}
	lu := a.Clone()
	piv, swaps, err := luFactor(lu)
	if err != nil {
		return 0, nil //nolint:nilerr // zero pivot means det == 0 by definition
	}
	_ = piv
	det := complex128(1)
	if swaps%2 == 1 {
		det = -1
	}
	n := a.r
	for i := 0; i < n; i++ {
		det *= lu.data[i*n+i]
	}

	return det, nil
}

// SLogDet computes the determinant of a square matrix in sign/log form:
// det(a) = sign·exp(logMag) with |sign| == 1. This is the overflow-safe form
// used when folding long products of determinant ratios into walker weights.
// A singular matrix yields sign 0 and logMag == -Inf.
func SLogDet(a *Dense) (sign complex128, logMag float64, err error) {
	if a == nil {
		return 0, 0, ErrNilMatrix
	}
	if a.r != a.c {
		return 0, 0, ErrNonSquare
	}
	lu := a.Clone()
	piv, swaps, ferr := luFactor(lu)
	if ferr != nil {
		return 0, math.Inf(-1), nil
	}
	_ = piv
	sign = 1
	if swaps%2 == 1 {
		sign = -1
	}
	n := a.r
	for i := 0; i < n; i++ {
		d := lu.data[i*n+i]
		mag := cmplx.Abs(d)
		if mag == 0 {
			return 0, math.Inf(-1), nil
		}
		sign *= d / complex(mag, 0)
		logMag += math.Log(mag)
	}

	return sign, logMag, nil
}
