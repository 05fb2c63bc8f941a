// Package linalg: stabilized reconstruction of long propagator products.
//
// Repeated non-unitary matrix multiplication loses all significant digits
// after roughly 10–100 applications at typical imaginary-time steps: the
// singular-value spread of the product grows exponentially. The standard
// remedy is to carry the product in factored Q·D·T form, re-factorizing with
// QR after every bin, and to invert (I + A) through the Db/Ds scale
// separation so that large and small scales never mix in one inverse.

package linalg

import "math/cmplx"

// StabilizedProduct accumulates A = bins[k-1]·…·bins[1]·bins[0] in Q·D·T
// form with an interleaved QR factorization per bin. All bins must be square
// of equal side. Returns ErrSingular when a diagonal of R vanishes (a bin
// was singular). Complexity: O(k·n³).
func StabilizedProduct(bins []*Dense) (q *Dense, d []complex128, t *Dense, err error) {
	if len(bins) == 0 {
		return nil, nil, nil, ErrNilMatrix
	}
	n := bins[0].r
	for _, b := range bins {
		if b == nil {
			return nil, nil, nil, ErrNilMatrix
		}
		if b.r != n || b.c != n {
			return nil, nil, nil, ErrDimensionMismatch
		}
	}

	// Seed: bins[0] = Q·R, D = diag(R), T = D⁻¹·R.
	var r *Dense
	q, r = qrFactor(bins[0].Clone())
	d, t, err = splitDiag(r)
	if err != nil {
		return nil, nil, nil, err
	}

	for k := 1; k < len(bins); k++ {
		// C = B·Q·D — multiplying the compact factors keeps conditioning
		// inside a single bin.
		c, merr := Mul(bins[k], q)
		if merr != nil {
			return nil, nil, nil, merr
		}
		for i := 0; i < n; i++ {
			row := c.data[i*n : i*n+n]
			for j := 0; j < n; j++ {
				row[j] *= d[j]
			}
		}
		q, r = qrFactor(c)
		var tk *Dense
		d, tk, err = splitDiag(r)
		if err != nil {
			return nil, nil, nil, err
		}
		t, err = Mul(tk, t)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return q, d, t, nil
}

// splitDiag factors upper-triangular r as diag(d)·t with unit-diagonal t.
func splitDiag(r *Dense) ([]complex128, *Dense, error) {
	n := r.r
	d := make([]complex128, n)
	t, err := NewDense(n, n)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < n; i++ {
		di := r.data[i*n+i]
		if di == 0 {
			return nil, nil, ErrSingular
		}
		d[i] = di
		inv := 1 / di
		for j := 0; j < n; j++ {
			t.data[i*n+j] = r.data[i*n+j] * inv
		}
	}

	return d, t, nil
}

// StabilizedInverseProduct computes G = (I + bins[k-1]·…·bins[0])⁻¹
// without ever forming the raw product. With the factored product A = QDT
// and the split D = Db⁻¹·Ds (Db clips scales above 1, Ds below):
//
//	I + QDT = Q·Db⁻¹·(Db·Qᴴ + Ds·T)
//	G       = T⁻¹·(Db·Qᴴ·T⁻¹ + Ds)⁻¹·Db·Qᴴ
//
// so no intermediate carries both the exponentially large and the
// exponentially small scales. This is the finite-temperature Green's
// function kernel. Complexity: O(k·n³).
func StabilizedInverseProduct(bins []*Dense) (*Dense, error) {
	q, d, t, err := StabilizedProduct(bins)
	if err != nil {
		return nil, err
	}
	n := q.r

	// Db[i] = 1/|d_i| when |d_i| > 1 (else 1); Ds[i] = phase(d_i) when
	// |d_i| > 1 (else d_i). Then D = Db⁻¹·Ds exactly.
	db := make([]complex128, n)
	ds := make([]complex128, n)
	for i := 0; i < n; i++ {
		mag := cmplx.Abs(d[i])
		if mag > 1 {
			db[i] = complex(1/mag, 0)
			ds[i] = d[i] / complex(mag, 0)
		} else {
			db[i] = 1
			ds[i] = d[i]
		}
	}

	tinv, err := Inverse(t)
	if err != nil {
		return nil, err
	}

	// C = Db·Qᴴ·T⁻¹ + Ds.
	c, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s complex128
			for k := 0; k < n; k++ {
				s += cmplx.Conj(q.data[k*n+i]) * tinv.data[k*n+j]
			}
			c.data[i*n+j] = db[i] * s
		}
		c.data[i*n+i] += ds[i]
	}
	cinv, err := Inverse(c)
	if err != nil {
		return nil, err
	}

	// G = T⁻¹·C⁻¹·Db·Qᴴ.
	tc, err := Mul(tinv, cinv)
	if err != nil {
		return nil, err
	}
	g, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s complex128
			for k := 0; k < n; k++ {
				s += tc.data[i*n+k] * db[k] * cmplx.Conj(q.data[j*n+k])
			}
			g.data[i*n+j] = s
		}
	}

	return g, nil
}
