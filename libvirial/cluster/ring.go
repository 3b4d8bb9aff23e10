package cluster

// ring is a two-slot value cache keyed by Box ID.
//
// A new ID only ever overwrites the slot that is not current, so the value of the state
// before a trial survives until the trial is accepted and followed by another new ID.
type ring struct {
	ids   [2]uint64
	vals  [2]float64
	valid [2]bool
	cur   int
}

// lookup returns the cached value for id.  A hit on the previous slot makes it current.
func (r *ring) lookup(id uint64) (float64, bool) {
	if r.valid[r.cur] && r.ids[r.cur] == id {
		return r.vals[r.cur], true
	}
	prev := 1 - r.cur
	if r.valid[prev] && r.ids[prev] == id {
		r.cur = prev
		return r.vals[prev], true
	}
	return 0, false
}

// store places the value for id in the non-current slot and makes it current.
func (r *ring) store(id uint64, val float64) {
	slot := 1 - r.cur
	r.ids[slot] = id
	r.vals[slot] = val
	r.valid[slot] = true
	r.cur = slot
}

func (r *ring) invalidate() {
	r.valid = [2]bool{}
}
