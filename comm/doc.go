// Package comm provides the communication primitives population control
// needs to act on a globally distributed walker ensemble: weight gathers,
// decision broadcasts, point-to-point walker-state messages and barriers.
//
// What you get:
//
//   - Communicator — the abstract contract; rank 0 is always the
//     coordinating rank for collectives.
//   - Loopback — the single-rank implementation; every operation is local
//     and walker sends are queued for an in-order matching receive.
//   - Ring — an in-process multi-rank implementation backed by channels,
//     one goroutine per rank; NewRing hands out one endpoint per rank.
//
// Walker state travels as an opaque serialized buffer, so the transport
// never depends on a walker representation. Protocol violations (mismatched
// gather lengths, unknown ranks, a receive with no matching message) are
// reported as wrapped sentinel errors; they are fatal to the run.
//
// Complexity quicksheet:
//
//	GatherWeights     O(size·nlocal) copy at the root
//	BroadcastInts     O(size·len) copies
//	SendWalker/Recv   O(len(buffer)) copy per message
//	Barrier           O(size) signalling
package comm
