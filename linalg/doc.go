// Package linalg provides the complex dense linear-algebra kernels the AFQMC
// engine is built on: row-major complex128 matrices with strict fail-fast
// validation, Householder QR with a unit-phase diagonal fix, LU factorization
// with partial pivoting (inverse, determinant, slogdet), Sherman–Morrison
// rank-1 inverse updates, truncated-Taylor exponential application, and the
// QDT-stabilized inverse product used by finite-temperature propagator stacks.
//
// Design rules, shared with the rest of the module:
//
//   - Deterministic behavior: fixed loop orders, no map iteration, no global
//     state or implicit randomness.
//   - Public constructors and indexers return sentinel errors instead of
//     panicking; panics are reserved for programmer errors in private helpers.
//   - Hot paths operate on the flat row-major buffer (offset = i*cols + j);
//     Data exposes it for trusted in-module callers.
//
// Real symmetric eigen-decomposition (trial construction, one-body propagator
// exponentials) is delegated to gonum; see ExpmSym and EigSym. The complex
// kernels live here because the walker algebra is complex end to end.
//
// Complexity quicksheet:
//
//   - Mul/MulAdj: O(m·k·n). QR: O(m·n²). LU/Inverse/Det: O(n³).
//   - ShermanMorrison: O(n²). ApplyExpTaylor: O(order·n²·k).
//   - StabilizedInverseProduct: O(bins·n³).
package linalg
