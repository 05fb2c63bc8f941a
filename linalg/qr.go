// Package linalg: Householder QR (economy) and walker reorthogonalization.
//
// Reortho is the numerical maintenance step applied periodically to walker
// amplitudes: Φ = QR, fold the unit phases of diag(R) into Q so the retained
// factor has a positive real diagonal, and return detR = Π|R_ii| so the
// caller can fold the determinant correction into the walker's overlap.
// Observable averages are invariant under this purely numerical operation.

package linalg

import (
	"math"
	"math/cmplx"
)

// qrFactor performs an in-place Householder factorization of work (m×n,
// m >= n, destroyed), returning the economy factors Q (m×n, orthonormal
// columns) and R (n×n upper triangular).
func qrFactor(work *Dense) (q, r *Dense) {
	m, n := work.r, work.c
	vs := make([][]complex128, n)  // Householder vectors
	vnorms := make([]float64, n)   // vᴴv per reflector
	for k := 0; k < n; k++ {
		// Column norm at and below the diagonal.
		var norm float64
		for i := k; i < m; i++ {
			z := work.data[i*n+k]
			norm += real(z)*real(z) + imag(z)*imag(z)
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		x0 := work.data[k*n+k]
		var phase complex128 = 1
		if x0 != 0 {
			phase = x0 / complex(cmplx.Abs(x0), 0)
		}
		alpha := -phase * complex(norm, 0)
		v := make([]complex128, m-k)
		v[0] = x0 - alpha
		for i := k + 1; i < m; i++ {
			v[i-k] = work.data[i*n+k]
		}
		var vv float64
		for _, z := range v {
			vv += real(z)*real(z) + imag(z)*imag(z)
		}
		if vv == 0 {
			continue
		}
		// Apply H = I - 2vvᴴ/(vᴴv) to the trailing block.
		for j := k; j < n; j++ {
			var s complex128
			for i := k; i < m; i++ {
				s += cmplx.Conj(v[i-k]) * work.data[i*n+j]
			}
			s *= complex(2/vv, 0)
			for i := k; i < m; i++ {
				work.data[i*n+j] -= s * v[i-k]
			}
		}
		vs[k] = v
		vnorms[k] = vv
	}

	r, _ = NewDense(n, n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r.data[i*n+j] = work.data[i*n+j]
		}
	}

	// Accumulate Q = H_1···H_n · I[:, :n] by applying reflectors in reverse.
	q, _ = NewDense(m, n)
	for j := 0; j < n; j++ {
		q.data[j*n+j] = 1
	}
	for k := n - 1; k >= 0; k-- {
		v := vs[k]
		if v == nil {
			continue
		}
		for j := 0; j < n; j++ {
			var s complex128
			for i := k; i < m; i++ {
				s += cmplx.Conj(v[i-k]) * q.data[i*n+j]
			}
			s *= complex(2/vnorms[k], 0)
			for i := k; i < m; i++ {
				q.data[i*n+j] -= s * v[i-k]
			}
		}
	}

	return q, r
}

// QR computes the economy factorization a = Q·R with Q m×n (orthonormal
// columns) and R n×n upper triangular. The input is not mutated.
// Returns ErrNotTall when a has fewer rows than columns.
// Complexity: O(m·n²).
func QR(a *Dense) (q, r *Dense, err error) {
	if a == nil {
		return nil, nil, ErrNilMatrix
	}
	if a.r < a.c {
		return nil, nil, ErrNotTall
	}
	q, r = qrFactor(a.Clone())

	return q, r, nil
}

// Reortho restores near-orthonormal columns of a in place via QR,
// folding the unit phases of diag(R) into the retained factor so the
// implicit upper-triangular remainder has positive real diagonal.
// Returns detR = Π|R_ii|, the determinant correction the caller must divide
// the walker's running overlap by (a = Q·S, det(S⁻¹R) = detR).
// Complexity: O(m·n²).
func Reortho(a *Dense) (detR float64, err error) {
	if a == nil {
		return 0, ErrNilMatrix
	}
	if a.r < a.c {
		return 0, ErrNotTall
	}
	q, r := qrFactor(a.Clone())
	m, n := a.r, a.c
	detR = 1
	for j := 0; j < n; j++ {
		d := r.data[j*n+j]
		mag := cmplx.Abs(d)
		var s complex128 = 1
		if mag != 0 {
			s = d / complex(mag, 0)
		}
		detR *= mag
		for i := 0; i < m; i++ {
			a.data[i*n+j] = q.data[i*n+j] * s
		}
	}

	return detR, nil
}
