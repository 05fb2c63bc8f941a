package linalg

import (
	"math"
	"math/cmplx"
)

// expmTaylorOrder is the series order used after scaling the argument below
// unit norm; at that norm the order-16 truncation sits below machine epsilon.
const expmTaylorOrder = 16

// Expm returns exp(A) for a square complex matrix via scaling and squaring
// around a truncated Taylor series. Intended for one-time propagator
// construction, not hot loops.
// Complexity: O((order + log‖A‖)·n³).
func Expm(a *Dense) (*Dense, error) {
	if a == nil {
		return nil, opErrorf("expm", ErrNilMatrix)
	}
	n := a.r
	if a.c != n {
		return nil, opErrorf("expm", ErrNonSquare)
	}

	// Infinity norm picks the scaling exponent.
	var norm float64
	for i := 0; i < n; i++ {
		var row float64
		for j := 0; j < n; j++ {
			row += cmplx.Abs(a.data[i*n+j])
		}
		if row > norm {
			norm = row
		}
	}
	s := 0
	if norm > 1 {
		s = int(math.Ceil(math.Log2(norm)))
	}
	scale := complex(math.Ldexp(1, -s), 0)

	b := a.Clone()
	for i := range b.data {
		b.data[i] *= scale
	}

	e, err := Identity(n)
	if err != nil {
		return nil, err
	}
	term := e.Clone()
	for k := 1; k <= expmTaylorOrder; k++ {
		next, merr := Mul(b, term)
		if merr != nil {
			return nil, merr
		}
		inv := complex(1/float64(k), 0)
		for i := range next.data {
			next.data[i] *= inv
		}
		term = next
		for i := range e.data {
			e.data[i] += term.data[i]
		}
	}
	for k := 0; k < s; k++ {
		if e, err = Mul(e, e); err != nil {
			return nil, err
		}
	}

	return e, nil
}
