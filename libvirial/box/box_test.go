package box

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRecompute(t *testing.T) {
	b := New(3)
	id0 := b.ID()

	b.SetPosition(1, r3.Vec{X: 1})
	b.SetPosition(2, r3.Vec{Y: 2})
	require.Panics(t, func() { b.R2(0, 1) })
	b.Recompute()

	assert.Equal(t, 1.0, b.R2(0, 1))
	assert.Equal(t, 4.0, b.R2(0, 2))
	assert.Equal(t, 5.0, b.R2(1, 2))
	assert.Greater(t, b.ID(), id0)

	require.Panics(t, func() { b.R2(1, 1) })
	require.Panics(t, func() { b.R2(2, 1) })

	assert.InDelta(t, 1.0/3, b.Centroid().X, 1e-15)
	assert.InDelta(t, 2.0/3, b.Centroid().Y, 1e-15)
}

func TestIDsDistinctAcrossBoxes(t *testing.T) {
	b1, b2 := New(3), New(3)
	assert.NotEqual(t, b1.ID(), b2.ID())

	seen := map[uint64]bool{b1.ID(): true, b2.ID(): true}
	for i := 0; i < 10; i++ {
		for _, b := range []*Box{b1, b2} {
			b.Displace(1, r3.Vec{X: 0.1})
			b.Recompute()
			require.False(t, seen[b.ID()], "id %d issued twice", b.ID())
			seen[b.ID()] = true
		}
	}
}

func TestTrialReject(t *testing.T) {
	b := New(2)
	b.SetPosition(1, r3.Vec{X: 0.5})
	b.Recompute()
	id := b.ID()

	b.Trial()
	b.Displace(1, r3.Vec{X: 1})
	b.Recompute()
	assert.NotEqual(t, id, b.ID())
	assert.Equal(t, 2.25, b.R2(0, 1))
	b.Reject()

	assert.Equal(t, id, b.ID())
	assert.Equal(t, 0.25, b.R2(0, 1))
	assert.Equal(t, r3.Vec{X: 0.5}, b.Position(1))

	// a rejected id is never issued again
	b.Trial()
	b.Displace(1, r3.Vec{Z: 1})
	b.Recompute()
	assert.Greater(t, b.ID(), id+1)
	b.Accept()
	assert.Equal(t, 1.25, b.R2(0, 1))

	require.Panics(t, func() { b.Accept() })
	require.Panics(t, func() { b.Reject() })
}

func TestFlipAverage(t *testing.T) {
	b := New(2)
	b.SetPosition(1, r3.Vec{X: 1})
	b.Recompute()
	id := b.ID()

	// point 1 reflected through the centroid lands on point 0
	avg := b.FlipAverage(func() float64 { return b.R2(0, 1) })
	assert.Equal(t, 0.5, avg)
	assert.Equal(t, id, b.ID())
	assert.Equal(t, 1.0, b.R2(0, 1))

	b4 := New(4)
	for i := 1; i < 4; i++ {
		b4.SetPosition(i, r3.Vec{X: float64(i), Y: float64(i * i)})
	}
	b4.Recompute()
	id = b4.ID()
	before := b4.R2(1, 3)

	calls := 0
	seen := map[uint64]bool{}
	b4.FlipAverage(func() float64 {
		calls++
		seen[b4.ID()] = true
		return 0
	})
	assert.Equal(t, 8, calls)
	assert.Len(t, seen, 8)
	assert.Equal(t, id, b4.ID())
	assert.Equal(t, before, b4.R2(1, 3))
	assert.Equal(t, r3.Vec{X: 2, Y: 4}, b4.Position(2))
}
