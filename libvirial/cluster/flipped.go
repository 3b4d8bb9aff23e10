package cluster

import (
	"github.com/fine-structures/virial/virial"
)

// Flipper is a Box that can average a value over point reflections (see box.Box.FlipAverage).
type Flipper interface {
	virial.Box
	FlipAverage(eval func() float64) float64
}

// generational is a cluster whose cached values depend on a shared table generation.
type generational interface {
	Generation() uint64
}

// Flipped averages a cluster over all reflections of points 1..n-1 through the centroid.
type Flipped struct {
	inner virial.Cluster
	cache ring
	gen   uint64
}

func NewFlipped(inner virial.Cluster) *Flipped {
	f := &Flipped{
		inner: inner,
	}
	if g, ok := inner.(generational); ok {
		f.gen = g.Generation()
	}
	return f
}

func (f *Flipped) NumPoints() int {
	return f.inner.NumPoints()
}

func (f *Flipped) Value(box virial.Box) float64 {
	if g, ok := f.inner.(generational); ok {
		if gen := g.Generation(); gen != f.gen {
			f.cache.invalidate()
			f.gen = gen
		}
	}
	id := box.ID()
	if val, hit := f.cache.lookup(id); hit {
		return val
	}
	fb, ok := box.(Flipper)
	if !ok {
		panic("cluster: Flipped requires a Box that supports FlipAverage")
	}
	val := fb.FlipAverage(func() float64 {
		return f.inner.Value(box)
	})
	f.cache.store(id, val)
	return val
}

func (f *Flipped) SetTemperature(T float64) {
	f.inner.SetTemperature(T)
	f.cache.invalidate()
}
