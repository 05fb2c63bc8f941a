// Package linalg: sentinel error set.
// All kernels return these sentinels and tests check them via errors.Is.
// If context is essential, wrap with fmt.Errorf("ctx: %w", ErrX) at the outer
// boundary — callers still match with errors.Is.

package linalg

import "errors"

var (
	// ErrInvalidDimensions indicates that requested matrix dimensions are
	// non-positive. Constructors must validate before allocation.
	ErrInvalidDimensions = errors.New("linalg: dimensions must be > 0")

	// ErrOutOfRange indicates that an index (row or column) is outside valid
	// bounds. Public indexers (At/Set) return this, they never panic.
	ErrOutOfRange = errors.New("linalg: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. Mul where a.Cols != b.Rows, or a vector of the wrong length.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required but the input
	// was rectangular.
	ErrNonSquare = errors.New("linalg: matrix is not square")

	// ErrNotTall signals that an m×n matrix with m >= n was required
	// (economy QR of a wide matrix is not defined here).
	ErrNotTall = errors.New("linalg: matrix has fewer rows than columns")

	// ErrNilMatrix indicates that a nil *Dense (receiver or argument) was used.
	ErrNilMatrix = errors.New("linalg: nil matrix")

	// ErrSingular is returned when a zero pivot is encountered during LU or
	// when a rank-1 update denominator vanishes. Walker code treats this as a
	// soft failure (dead walker), never as a panic.
	ErrSingular = errors.New("linalg: singular matrix")

	// ErrEigenFailed indicates that the delegated symmetric eigen-decomposition
	// did not converge.
	ErrEigenFailed = errors.New("linalg: eigen decomposition failed")
)
