package comm

import (
	"sync"

	"github.com/pkg/errors"
)

// inboxCap bounds how many walker messages can be in flight per rank before
// senders block.
const inboxCap = 1024

type ctrlKind int

const (
	ctrlInts ctrlKind = iota
	ctrlFloat
	ctrlInt64
)

type ctrlMsg struct {
	kind ctrlKind
	ints []int
	f    float64
	i    int64
}

type packet struct {
	src, tag int
	buf      []byte
}

type gatherMsg struct {
	rank int
	vals []float64
}

// hub is the shared state behind one Ring communicator: per-rank mailboxes
// for point-to-point traffic, per-rank control channels for broadcasts, a
// gather funnel and a reusable generation barrier.
type hub struct {
	size   int
	gather chan gatherMsg
	ctrl   []chan ctrlMsg
	inbox  []chan packet

	mu         sync.Mutex
	cond       *sync.Cond
	arrived    int
	generation int
}

// Ring is one endpoint of an in-process multi-rank communicator. Each rank
// runs on its own goroutine; endpoints must not be shared between
// goroutines.
type Ring struct {
	rank    int
	hub     *hub
	pending []packet
}

var _ Communicator = (*Ring)(nil)

// NewRing builds a communicator of the given size and returns one endpoint
// per rank.
func NewRing(size int) ([]*Ring, error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}
	h := &hub{
		size:   size,
		gather: make(chan gatherMsg, size),
		ctrl:   make([]chan ctrlMsg, size),
		inbox:  make([]chan packet, size),
	}
	h.cond = sync.NewCond(&h.mu)
	for r := 0; r < size; r++ {
		h.ctrl[r] = make(chan ctrlMsg, size)
		h.inbox[r] = make(chan packet, inboxCap)
	}
	ends := make([]*Ring, size)
	for r := 0; r < size; r++ {
		ends[r] = &Ring{rank: r, hub: h}
	}

	return ends, nil
}

// Rank returns this endpoint's index.
func (r *Ring) Rank() int { return r.rank }

// Size returns the number of ranks.
func (r *Ring) Size() int { return r.hub.size }

// GatherWeights funnels equally sized shards to rank 0, ordered by rank.
func (r *Ring) GatherWeights(local []float64) ([]float64, error) {
	h := r.hub
	if r.rank != 0 {
		vals := make([]float64, len(local))
		copy(vals, local)
		h.gather <- gatherMsg{rank: r.rank, vals: vals}
		return nil, nil
	}

	n := len(local)
	global := make([]float64, n*h.size)
	copy(global, local)
	for i := 1; i < h.size; i++ {
		msg := <-h.gather
		if len(msg.vals) != n {
			return nil, errors.Wrapf(ErrCountMismatch,
				"gather: rank %d sent %d weights, rank 0 holds %d", msg.rank, len(msg.vals), n)
		}
		copy(global[msg.rank*n:], msg.vals)
	}

	return global, nil
}

// BroadcastInts distributes rank 0's buffer to all ranks.
func (r *Ring) BroadcastInts(buf []int) error {
	if r.rank == 0 {
		for dst := 1; dst < r.hub.size; dst++ {
			cp := make([]int, len(buf))
			copy(cp, buf)
			r.hub.ctrl[dst] <- ctrlMsg{kind: ctrlInts, ints: cp}
		}
		return nil
	}
	msg := <-r.hub.ctrl[r.rank]
	if msg.kind != ctrlInts {
		return errors.Wrap(ErrNoMessage, "broadcast: expected int slice")
	}
	if len(msg.ints) != len(buf) {
		return errors.Wrapf(ErrCountMismatch,
			"broadcast: rank 0 sent %d ints, rank %d expects %d", len(msg.ints), r.rank, len(buf))
	}
	copy(buf, msg.ints)

	return nil
}

// BroadcastFloat distributes rank 0's value to all ranks.
func (r *Ring) BroadcastFloat(v *float64) error {
	if r.rank == 0 {
		for dst := 1; dst < r.hub.size; dst++ {
			r.hub.ctrl[dst] <- ctrlMsg{kind: ctrlFloat, f: *v}
		}
		return nil
	}
	msg := <-r.hub.ctrl[r.rank]
	if msg.kind != ctrlFloat {
		return errors.Wrap(ErrNoMessage, "broadcast: expected float")
	}
	*v = msg.f

	return nil
}

// BroadcastInt distributes rank 0's value to all ranks.
func (r *Ring) BroadcastInt(v *int64) error {
	if r.rank == 0 {
		for dst := 1; dst < r.hub.size; dst++ {
			r.hub.ctrl[dst] <- ctrlMsg{kind: ctrlInt64, i: *v}
		}
		return nil
	}
	msg := <-r.hub.ctrl[r.rank]
	if msg.kind != ctrlInt64 {
		return errors.Wrap(ErrNoMessage, "broadcast: expected int")
	}
	*v = msg.i

	return nil
}

// SendWalker posts a detached copy of the buffer to dest's mailbox. Blocks
// only when dest's mailbox is full.
func (r *Ring) SendWalker(dest, tag int, buf []byte) error {
	if dest < 0 || dest >= r.hub.size {
		return errors.Wrapf(ErrRank, "send to rank %d of %d", dest, r.hub.size)
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	r.hub.inbox[dest] <- packet{src: r.rank, tag: tag, buf: cp}

	return nil
}

// RecvWalker blocks until the message sent by src with tag arrives. Other
// messages received in the meantime are buffered for later calls.
func (r *Ring) RecvWalker(src, tag int) ([]byte, error) {
	if src < 0 || src >= r.hub.size {
		return nil, errors.Wrapf(ErrRank, "recv from rank %d of %d", src, r.hub.size)
	}
	for i, p := range r.pending {
		if p.src == src && p.tag == tag {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return p.buf, nil
		}
	}
	for {
		p := <-r.hub.inbox[r.rank]
		if p.src == src && p.tag == tag {
			return p.buf, nil
		}
		r.pending = append(r.pending, p)
	}
}

// Barrier blocks until every rank has entered the same barrier generation.
func (r *Ring) Barrier() error {
	h := r.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	gen := h.generation
	h.arrived++
	if h.arrived == h.size {
		h.arrived = 0
		h.generation++
		h.cond.Broadcast()
		return nil
	}
	for gen == h.generation {
		h.cond.Wait()
	}

	return nil
}
