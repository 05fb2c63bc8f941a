// Package linalg: Dense storage (row-major) and safe accessors.
//
// Dense is a cache-friendly flat complex128 buffer with the explicit index
// formula i*cols + j. The public surface (At/Set) validates and returns
// sentinel errors; trusted hot loops inside the module use Data directly.

package linalg

import (
	"fmt"
	"strings"
)

// Dense is a concrete row-major complex matrix.
type Dense struct {
	r, c int          // row and column counts (> 0)
	data []complex128 // contiguous row-major storage (len == r*c)
}

var _ fmt.Stringer = (*Dense)(nil)

// NewDense creates an r×c zero matrix using row-major storage.
// Returns ErrInvalidDimensions when rows <= 0 or cols <= 0.
// Complexity: O(r*c) zero-init.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &Dense{r: rows, c: cols, data: make([]complex128, rows*cols)}, nil
}

// Identity creates the n×n identity matrix.
// Returns ErrInvalidDimensions when n <= 0.
func Identity(n int) (*Dense, error) {
	m, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}

	return m, nil
}

// Rows reports the number of rows. Complexity: O(1).
func (m *Dense) Rows() int { return m.r }

// Cols reports the number of columns. Complexity: O(1).
func (m *Dense) Cols() int { return m.c }

// Data returns the backing row-major slice. Mutations are visible in m.
// This is the hot-path surface for in-module kernels; external callers
// should prefer At/Set.
func (m *Dense) Data() []complex128 { return m.data }

// At returns the element at (i, j), or ErrOutOfRange.
func (m *Dense) At(i, j int) (complex128, error) {
	if m == nil {
		return 0, ErrNilMatrix
	}
	if i < 0 || i >= m.r || j < 0 || j >= m.c {
		return 0, fmt.Errorf("Dense.At(%d,%d): %w", i, j, ErrOutOfRange)
	}

	return m.data[i*m.c+j], nil
}

// Set assigns the element at (i, j), or returns ErrOutOfRange.
func (m *Dense) Set(i, j int, v complex128) error {
	if m == nil {
		return ErrNilMatrix
	}
	if i < 0 || i >= m.r || j < 0 || j >= m.c {
		return fmt.Errorf("Dense.Set(%d,%d): %w", i, j, ErrOutOfRange)
	}
	m.data[i*m.c+j] = v

	return nil
}

// Clone returns a deep copy of m. The clone never aliases m's buffer.
// Complexity: O(r*c).
func (m *Dense) Clone() *Dense {
	if m == nil {
		return nil
	}
	buf := make([]complex128, len(m.data))
	copy(buf, m.data)

	return &Dense{r: m.r, c: m.c, data: buf}
}

// CopyFrom overwrites m's buffer with src's contents.
// Returns ErrDimensionMismatch when shapes differ.
// Complexity: O(r*c), no allocation.
func (m *Dense) CopyFrom(src *Dense) error {
	if m == nil || src == nil {
		return ErrNilMatrix
	}
	if m.r != src.r || m.c != src.c {
		return fmt.Errorf("Dense.CopyFrom: %w", ErrDimensionMismatch)
	}
	copy(m.data, src.data)

	return nil
}

// Zero resets every element of m to 0. Complexity: O(r*c).
func (m *Dense) Zero() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// String renders the matrix row by row; intended for tests and diagnostics.
func (m *Dense) String() string {
	if m == nil {
		return "<nil>"
	}
	var sb strings.Builder
	for i := 0; i < m.r; i++ {
		sb.WriteString("[")
		for j := 0; j < m.c; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%v", m.data[i*m.c+j])
		}
		sb.WriteString("]\n")
	}

	return sb.String()
}
