package comm

import "github.com/pkg/errors"

// Loopback is the single-rank Communicator: collectives are identities and
// walker sends are queued locally for an in-order matching receive. It is
// the default transport of a non-distributed run.
type Loopback struct {
	pending map[int][][]byte // tag -> queued payloads
}

var _ Communicator = (*Loopback)(nil)

// NewLoopback returns a ready single-rank communicator.
func NewLoopback() *Loopback {
	return &Loopback{pending: make(map[int][][]byte)}
}

// Rank returns 0.
func (l *Loopback) Rank() int { return 0 }

// Size returns 1.
func (l *Loopback) Size() int { return 1 }

// GatherWeights returns a detached copy of the local shard.
func (l *Loopback) GatherWeights(local []float64) ([]float64, error) {
	out := make([]float64, len(local))
	copy(out, local)

	return out, nil
}

// BroadcastInts is the identity on a single rank.
func (l *Loopback) BroadcastInts([]int) error { return nil }

// BroadcastFloat is the identity on a single rank.
func (l *Loopback) BroadcastFloat(*float64) error { return nil }

// BroadcastInt is the identity on a single rank.
func (l *Loopback) BroadcastInt(*int64) error { return nil }

// SendWalker queues a detached copy of the buffer under tag.
func (l *Loopback) SendWalker(dest, tag int, buf []byte) error {
	if dest != 0 {
		return errors.Wrapf(ErrRank, "loopback send to rank %d", dest)
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	l.pending[tag] = append(l.pending[tag], cp)

	return nil
}

// RecvWalker pops the oldest queued buffer for tag.
func (l *Loopback) RecvWalker(src, tag int) ([]byte, error) {
	if src != 0 {
		return nil, errors.Wrapf(ErrRank, "loopback recv from rank %d", src)
	}
	q := l.pending[tag]
	if len(q) == 0 {
		return nil, errors.Wrapf(ErrNoMessage, "loopback recv tag %d", tag)
	}
	buf := q[0]
	if len(q) == 1 {
		delete(l.pending, tag)
	} else {
		l.pending[tag] = q[1:]
	}

	return buf, nil
}

// Barrier is a no-op on a single rank.
func (l *Loopback) Barrier() error { return nil }
