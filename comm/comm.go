package comm

// Communicator is the transport contract population control runs over.
// Rank 0 coordinates every collective. All methods must be called by every
// rank of the communicator (collectives) or by the named endpoints
// (point-to-point), in the same order on each rank.
type Communicator interface {
	// Rank returns this endpoint's index in [0, Size).
	Rank() int
	// Size returns the number of ranks.
	Size() int

	// GatherWeights collects equally sized per-rank weight shards at rank 0,
	// ordered by rank. Rank 0 receives the concatenated global slice; every
	// other rank receives nil.
	GatherWeights(local []float64) ([]float64, error)
	// BroadcastInts distributes rank 0's buffer to all ranks. The buffer
	// length must match on every rank.
	BroadcastInts(buf []int) error
	// BroadcastFloat distributes rank 0's value to all ranks.
	BroadcastFloat(v *float64) error
	// BroadcastInt distributes rank 0's value to all ranks; used for the
	// shared root seed.
	BroadcastInt(v *int64) error

	// SendWalker delivers a serialized walker state to dest. tag pairs the
	// message with the matching RecvWalker call.
	SendWalker(dest, tag int, buf []byte) error
	// RecvWalker returns the serialized walker state sent by src with tag.
	RecvWalker(src, tag int) ([]byte, error)

	// Barrier blocks until every rank has entered it.
	Barrier() error
}
