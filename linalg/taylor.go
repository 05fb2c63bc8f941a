// Package linalg: truncated-Taylor exponential application.
//
// The continuous-HS two-body propagator exp(V_HS) is never formed as a
// matrix; it is applied directly to the tall amplitude block via a fixed
// number of Taylor terms. This mirrors the originating algorithm and keeps
// the step O(order·n²·k) instead of O(n³) plus a product.

package linalg

// DefaultExpOrder is the default number of Taylor terms retained when the
// caller does not configure an expansion order.
const DefaultExpOrder = 4

// ApplyExpTaylor applies exp(v) to phi in place using a truncated Taylor
// series: phi ← Σ_{n=0..order} vⁿ·phi / n!.
// Returns ErrDimensionMismatch when v is not square of side phi.Rows, and
// ErrInvalidDimensions when order < 1.
func ApplyExpTaylor(phi, v *Dense, order int) error {
	if phi == nil || v == nil {
		return ErrNilMatrix
	}
	if order < 1 {
		return ErrInvalidDimensions
	}
	if v.r != v.c || v.r != phi.r {
		return ErrDimensionMismatch
	}

	term := phi.Clone()
	next, err := NewDense(phi.r, phi.c)
	if err != nil {
		return err
	}
	for n := 1; n <= order; n++ {
		mulInto(next, v, term)
		invN := complex(1/float64(n), 0)
		for i := range next.data {
			next.data[i] *= invN
		}
		term, next = next, term
		for i := range phi.data {
			phi.data[i] += term.data[i]
		}
	}

	return nil
}

// ApplyExpDiagTaylor is the diagonal-V_HS fast path: v is given as the main
// diagonal of the HS potential. Same contract as ApplyExpTaylor.
func ApplyExpDiagTaylor(phi *Dense, diag []complex128, order int) error {
	if phi == nil {
		return ErrNilMatrix
	}
	if order < 1 {
		return ErrInvalidDimensions
	}
	if len(diag) != phi.r {
		return ErrDimensionMismatch
	}

	term := phi.Clone()
	for n := 1; n <= order; n++ {
		invN := complex(1/float64(n), 0)
		for i := 0; i < phi.r; i++ {
			f := diag[i] * invN
			row := term.data[i*phi.c : i*phi.c+phi.c]
			dst := phi.data[i*phi.c : i*phi.c+phi.c]
			for j := range row {
				row[j] *= f
				dst[j] += row[j]
			}
		}
	}

	return nil
}
