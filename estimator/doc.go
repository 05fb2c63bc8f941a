// Package estimator provides pure observable evaluators over Green's
// functions. It supports:
//
//   - Mixed-estimator Green's function between two determinant blocks (Gab)
//   - Hubbard local energy (total, one-body, two-body) for both the
//     ground-state mixed Green's function and the thermal one-RDM
//   - One-RDM extraction from a thermal Green's function and particle-number
//     traces
//
// Every function is side-effect free: inputs are never mutated and results
// are freshly allocated. Green's functions follow the ⟨c†_i c_j⟩ convention
// throughout (row = creation index).
//
// Complexity quicksheet (N = basis size, M = particles per spin):
//
//	Gab                  O(N²·M + M³)
//	LocalEnergyHubbard   O(N²)
//	OneRDMFromG          O(N²)
//	ParticleNumber       O(N)
package estimator
