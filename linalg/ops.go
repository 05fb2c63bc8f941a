// Package linalg: elementary dense kernels (products, transposes, scaling).
// All kernels validate first, then run fixed-order flat loops on the
// row-major buffers. Operands are never mutated unless the name says so.

package linalg

import (
	"fmt"
	"math/cmplx"
)

// operation tags for uniform error wrapping
const (
	opMul         = "Mul"
	opMulAdj      = "MulAdj"
	opMulAdjRight = "MulAdjRight"
	opTranspose   = "Transpose"
	opScaleRows   = "ScaleRows"
	opAddScaled   = "AddScaled"
)

// opErrorf wraps err with an operation tag, preserving the sentinel via %w.
// Call only with err != nil.
func opErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// validateBinary checks both operands are non-nil.
func validateBinary(a, b *Dense) error {
	if a == nil || b == nil {
		return ErrNilMatrix
	}

	return nil
}

// Mul computes a·b into a fresh Dense.
// Returns ErrDimensionMismatch when a.Cols != b.Rows.
// Complexity: O(m·k·n), ikj loop order for cache locality.
func Mul(a, b *Dense) (*Dense, error) {
	if err := validateBinary(a, b); err != nil {
		return nil, opErrorf(opMul, err)
	}
	if a.c != b.r {
		return nil, opErrorf(opMul, ErrDimensionMismatch)
	}
	out, err := NewDense(a.r, b.c)
	if err != nil {
		return nil, opErrorf(opMul, err)
	}
	mulInto(out, a, b)

	return out, nil
}

// mulInto computes out = a·b assuming shapes already agree.
func mulInto(out, a, b *Dense) {
	n := b.c
	out.Zero()
	for i := 0; i < a.r; i++ {
		for k := 0; k < a.c; k++ {
			aik := a.data[i*a.c+k]
			if aik == 0 {
				continue
			}
			brow := b.data[k*n : k*n+n]
			orow := out.data[i*n : i*n+n]
			for j := 0; j < n; j++ {
				orow[j] += aik * brow[j]
			}
		}
	}
}

// MulAdj computes aᴴ·b (conjugate transpose of a times b) into a fresh Dense.
// This is the overlap kernel Ψ_T† Φ.
// Returns ErrDimensionMismatch when a.Rows != b.Rows.
func MulAdj(a, b *Dense) (*Dense, error) {
	if err := validateBinary(a, b); err != nil {
		return nil, opErrorf(opMulAdj, err)
	}
	if a.r != b.r {
		return nil, opErrorf(opMulAdj, ErrDimensionMismatch)
	}
	out, err := NewDense(a.c, b.c)
	if err != nil {
		return nil, opErrorf(opMulAdj, err)
	}
	for i := 0; i < a.c; i++ {
		for j := 0; j < b.c; j++ {
			var s complex128
			for k := 0; k < a.r; k++ {
				s += cmplx.Conj(a.data[k*a.c+i]) * b.data[k*b.c+j]
			}
			out.data[i*b.c+j] = s
		}
	}

	return out, nil
}

// MulAdjRight computes a·bᴴ into a fresh Dense.
// Returns ErrDimensionMismatch when a.Cols != b.Cols.
func MulAdjRight(a, b *Dense) (*Dense, error) {
	if err := validateBinary(a, b); err != nil {
		return nil, opErrorf(opMulAdjRight, err)
	}
	if a.c != b.c {
		return nil, opErrorf(opMulAdjRight, ErrDimensionMismatch)
	}
	out, err := NewDense(a.r, b.r)
	if err != nil {
		return nil, opErrorf(opMulAdjRight, err)
	}
	for i := 0; i < a.r; i++ {
		for j := 0; j < b.r; j++ {
			var s complex128
			for k := 0; k < a.c; k++ {
				s += a.data[i*a.c+k] * cmplx.Conj(b.data[j*b.c+k])
			}
			out.data[i*b.r+j] = s
		}
	}

	return out, nil
}

// Transpose returns aᵀ (no conjugation) as a fresh Dense.
func Transpose(a *Dense) (*Dense, error) {
	if a == nil {
		return nil, opErrorf(opTranspose, ErrNilMatrix)
	}
	out, err := NewDense(a.c, a.r)
	if err != nil {
		return nil, opErrorf(opTranspose, err)
	}
	for i := 0; i < a.r; i++ {
		for j := 0; j < a.c; j++ {
			out.data[j*a.r+i] = a.data[i*a.c+j]
		}
	}

	return out, nil
}

// ScaleRows computes diag(d)·a into a fresh Dense: row i scaled by d[i].
// This is the diagonal-propagator kernel B_V·B_1body for discrete HS sweeps.
// Returns ErrDimensionMismatch when len(d) != a.Rows.
func ScaleRows(d []complex128, a *Dense) (*Dense, error) {
	if a == nil {
		return nil, opErrorf(opScaleRows, ErrNilMatrix)
	}
	if len(d) != a.r {
		return nil, opErrorf(opScaleRows, ErrDimensionMismatch)
	}
	out := a.Clone()
	for i := 0; i < a.r; i++ {
		di := d[i]
		row := out.data[i*a.c : i*a.c+a.c]
		for j := range row {
			row[j] *= di
		}
	}

	return out, nil
}

// AddScaled computes a += s·b in place.
// Returns ErrDimensionMismatch when shapes differ.
func AddScaled(a *Dense, s complex128, b *Dense) error {
	if err := validateBinary(a, b); err != nil {
		return opErrorf(opAddScaled, err)
	}
	if a.r != b.r || a.c != b.c {
		return opErrorf(opAddScaled, ErrDimensionMismatch)
	}
	for i := range a.data {
		a.data[i] += s * b.data[i]
	}

	return nil
}

// Diag extracts the main diagonal of a square matrix.
func Diag(a *Dense) ([]complex128, error) {
	if a == nil {
		return nil, ErrNilMatrix
	}
	if a.r != a.c {
		return nil, ErrNonSquare
	}
	d := make([]complex128, a.r)
	for i := 0; i < a.r; i++ {
		d[i] = a.data[i*a.c+i]
	}

	return d, nil
}
