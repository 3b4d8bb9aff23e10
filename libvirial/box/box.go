package box

import (
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"
)

// lastID is shared by every Box, so an ID names one configuration of one box.
var lastID atomic.Uint64

// Box holds the positions of a cluster's points and their squared separations.
//
// Every Recompute issues a new ID, unique across all boxes in the process.  Positions may only be
// read through R2 and ID after Recompute has followed the last mutation.
type Box struct {
	n     int
	pos   []r3.Vec
	r2    []float64
	id    uint64
	dirty bool

	inTrial  bool
	trialPos []r3.Vec
	trialR2  []float64
	trialID  uint64

	flipPos []r3.Vec
	flipR2  []float64
}

// New returns a box of n points, all at the origin.
func New(n int) *Box {
	b := &Box{
		n:        n,
		pos:      make([]r3.Vec, n),
		r2:       make([]float64, n*n),
		trialPos: make([]r3.Vec, n),
		trialR2:  make([]float64, n*n),
		flipPos:  make([]r3.Vec, n),
		flipR2:   make([]float64, n*n),
	}
	b.Recompute()
	return b
}

func (b *Box) NumPoints() int {
	return b.n
}

func (b *Box) ID() uint64 {
	if b.dirty {
		panic("box: ID read before Recompute (configuration check failed)")
	}
	return b.id
}

func (b *Box) R2(i, j int) float64 {
	if i >= j {
		panic("box: R2 requires i < j (pair index check failed)")
	}
	if b.dirty {
		panic("box: R2 read before Recompute (configuration check failed)")
	}
	return b.r2[i*b.n+j]
}

func (b *Box) Position(i int) r3.Vec {
	return b.pos[i]
}

// SetPosition moves point i to p.  Call Recompute before the next read.
func (b *Box) SetPosition(i int, p r3.Vec) {
	b.pos[i] = p
	b.dirty = true
}

// Displace moves point i by d.  Call Recompute before the next read.
func (b *Box) Displace(i int, d r3.Vec) {
	b.pos[i] = r3.Add(b.pos[i], d)
	b.dirty = true
}

// Recompute refreshes all squared separations and issues a new ID.
func (b *Box) Recompute() {
	n := b.n
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			b.r2[i*n+j] = r3.Norm2(r3.Sub(b.pos[j], b.pos[i]))
		}
	}
	b.id = lastID.Add(1)
	b.dirty = false
}

// Trial saves the current state so that a following Reject can restore it.
func (b *Box) Trial() {
	if b.dirty {
		panic("box: Trial started before Recompute (configuration check failed)")
	}
	copy(b.trialPos, b.pos)
	copy(b.trialR2, b.r2)
	b.trialID = b.id
	b.inTrial = true
}

// Accept keeps the trial state.
func (b *Box) Accept() {
	if !b.inTrial {
		panic("box: Accept without Trial (trial check failed)")
	}
	if b.dirty {
		panic("box: Accept before Recompute (configuration check failed)")
	}
	b.inTrial = false
}

// Reject restores the positions, separations and ID saved by Trial; no new ID is issued.
func (b *Box) Reject() {
	if !b.inTrial {
		panic("box: Reject without Trial (trial check failed)")
	}
	copy(b.pos, b.trialPos)
	copy(b.r2, b.trialR2)
	b.id = b.trialID
	b.dirty = false
	b.inTrial = false
}

// Centroid returns the mean position of all points.
func (b *Box) Centroid() r3.Vec {
	var c r3.Vec
	for _, p := range b.pos {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(b.n), c)
}
