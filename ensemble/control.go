package ensemble

import (
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"
)

// Comb applies systematic resampling across the whole distributed
// population. Rank 0 gathers every walker's weight, draws exactly one
// uniform offset, lays N evenly spaced teeth over the cumulative weight
// distribution and assigns each tooth to the first bucket whose cumulative
// sum exceeds it. Walkers hit zero times are overwritten by the surplus
// copies of walkers hit more than once, migrating across ranks where
// needed; afterwards every weight is reset to one.
func (e *Ensemble) Comb(rng *rand.Rand) error {
	if e.ntotal == 1 {
		e.members[0].SetWeight(1)
		return nil
	}
	if len(e.members) != e.nlocal {
		return ErrPopulationMismatch
	}
	weights := make([]float64, e.nlocal)
	for i, m := range e.members {
		weights[i] = math.Abs(m.CurrentWeight())
	}
	global, err := e.comm.GatherWeights(weights)
	if err != nil {
		return err
	}

	parent := make([]int, e.ntotal)
	total := 0.0
	if e.comm.Rank() == 0 {
		if len(global) != e.ntotal {
			return ErrPopulationMismatch
		}
		cum := make([]float64, e.ntotal)
		for i, w := range global {
			total += w
			cum[i] = total
		}
		if total <= 0 {
			return ErrCollapsed
		}

		// The single stochastic decision of the whole resampling.
		r := rng.Float64()
		spacing := total / float64(e.ntotal)
		iw := 0
		for ic := 0; ic < e.ntotal; ic++ {
			tooth := (float64(ic) + r) * spacing
			for iw < e.ntotal-1 && tooth >= cum[iw] {
				iw++
			}
			parent[iw]++
		}
	}
	if err = e.comm.BroadcastInts(parent); err != nil {
		return err
	}
	if err = e.comm.BroadcastFloat(&total); err != nil {
		return err
	}
	e.total = total

	// Surplus copies overwrite the zero-hit slots, pairing them in index
	// order. Σparent = ntotal, so the two lists always have equal length.
	var send, recv [][2]int // {rank, local index}
	for i, p := range parent {
		at := [2]int{i / e.nlocal, i % e.nlocal}
		if p == 0 {
			recv = append(recv, at)
		}
		for c := 0; c < p-1; c++ {
			send = append(send, at)
		}
	}
	rank := e.comm.Rank()
	for i := range send {
		if rank != send[i][0] {
			continue
		}
		buf, merr := e.members[send[i][1]].MarshalState()
		if merr != nil {
			return merr
		}
		if err = e.comm.SendWalker(recv[i][0], i, buf); err != nil {
			return err
		}
	}
	for i := range send {
		if rank != recv[i][0] {
			continue
		}
		buf, rerr := e.comm.RecvWalker(send[i][0], i)
		if rerr != nil {
			return rerr
		}
		if err = e.members[recv[i][1]].UnmarshalState(buf); err != nil {
			return err
		}
	}
	if err = e.comm.Barrier(); err != nil {
		return err
	}

	for _, m := range e.members {
		m.SetWeight(1)
	}
	e.log.Debug("comb resampling applied",
		zap.Float64("total_weight", total),
		zap.Int("moved", len(send)))

	return nil
}

// Branching applies local birth/death control: rescale the shard so its
// total weight sits at the growth cap, clone every walker strictly above
// wmax (floor−1 guaranteed extras plus one stochastic extra on the
// fractional remainder), kill every walker strictly below wmin with
// probability 1 − w/wmin equivalent to surviving a uniform draw, then let
// clones fill the dead slots before the shard grows. Dead slots end up
// sorted to the back. No communication is involved.
func (e *Ensemble) Branching(rng *rand.Rand) error {
	total := e.LocalWeight()
	if total <= 0 {
		return ErrCollapsed
	}
	factor := total / e.growCap
	for _, m := range e.members {
		m.SetWeight(m.CurrentWeight() / factor)
	}

	var cloneIx, cloneN, killIx []int
	for i, m := range e.members {
		if !m.IsAlive() {
			killIx = append(killIx, i)
			continue
		}
		r := rng.Float64()
		w := m.CurrentWeight()
		switch {
		case w > e.wmax:
			extra := int(math.Floor(w)) - 1
			if w-math.Floor(w) > r {
				extra++
			}
			cloneIx = append(cloneIx, i)
			cloneN = append(cloneN, extra)
			m.SetWeight(1)
		case w < e.wmin:
			// Survive with probability w/wmin, not w: the kill pressure
			// depends on how far below the window the walker sits.
			if w/e.wmin < r {
				m.Kill()
				killIx = append(killIx, i)
			}
		}
	}

	reused := 0
	grown := 0
	for k, ic := range cloneIx {
		for c := 0; c < cloneN[k]; c++ {
			if reused < len(killIx) {
				if err := e.members[killIx[reused]].CopyMember(e.members[ic]); err != nil {
					return err
				}
				reused++
			} else {
				e.members = append(e.members, e.members[ic].CloneMember())
				grown++
			}
		}
	}
	sort.SliceStable(e.members, func(i, j int) bool {
		return e.members[i].IsAlive() && !e.members[j].IsAlive()
	})
	e.total = e.LocalWeight()
	e.log.Debug("branching applied",
		zap.Int("cloned", len(cloneIx)),
		zap.Int("killed", len(killIx)),
		zap.Int("reused_slots", reused),
		zap.Int("appended", grown),
		zap.Float64("total_weight", e.total))

	return nil
}
