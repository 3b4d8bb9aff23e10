package mc

import (
	"math"
	"math/rand"

	"github.com/fine-structures/virial/libvirial/box"
	"github.com/fine-structures/virial/virial"
)

const (
	// TargetAcceptance is the acceptance ratio step size tuning aims for.
	TargetAcceptance = 0.5

	tuneInterval = 100
	tuneFactor   = 1.05
)

// Chain is a Metropolis walk over the configurations of one Box with weight |Sampled|.
type Chain struct {
	Box     *box.Box
	Sampled virial.Cluster
	Move    Move
	MaxStep float64
	Tune    bool

	rng     *rand.Rand
	weight  float64
	tries   int64
	accepts int64

	tuneTries   int
	tuneAccepts int
}

// NewChain starts a chain at the current state of b, which must have a non-zero sampled value.
func NewChain(b *box.Box, sampled virial.Cluster, move Move, rng *rand.Rand) *Chain {
	return &Chain{
		Box:     b,
		Sampled: sampled,
		Move:    move,
		MaxStep: math.Inf(1),
		rng:     rng,
		weight:  math.Abs(sampled.Value(b)),
	}
}

// Weight returns |Sampled| at the current state.
func (c *Chain) Weight() float64 {
	return c.weight
}

// Step performs one trial move and returns true if it was accepted.
// A hard-core overlap (zero weight) is an ordinary rejection.
func (c *Chain) Step() bool {
	c.Box.Trial()
	c.Move.Propose(c.Box, c.rng)
	c.Box.Recompute()

	w := math.Abs(c.Sampled.Value(c.Box))
	accept := w > 0 && (w >= c.weight || c.rng.Float64()*c.weight < w)
	if accept {
		c.Box.Accept()
		c.weight = w
	} else {
		c.Box.Reject()
	}

	c.tries++
	if accept {
		c.accepts++
	}
	if c.Tune {
		c.tune(accept)
	}
	return accept
}

func (c *Chain) tune(accepted bool) {
	c.tuneTries++
	if accepted {
		c.tuneAccepts++
	}
	if c.tuneTries < tuneInterval {
		return
	}
	step := c.Move.StepSize()
	if float64(c.tuneAccepts)/float64(c.tuneTries) > TargetAcceptance {
		step *= tuneFactor
		if step > c.MaxStep {
			step = c.MaxStep
		}
	} else {
		step /= tuneFactor
	}
	c.Move.SetStepSize(step)
	c.tuneTries, c.tuneAccepts = 0, 0
}

// Acceptance returns the fraction of accepted trials since the last ResetStats.
func (c *Chain) Acceptance() float64 {
	if c.tries == 0 {
		return math.NaN()
	}
	return float64(c.accepts) / float64(c.tries)
}

func (c *Chain) ResetStats() {
	c.tries, c.accepts = 0, 0
	c.tuneTries, c.tuneAccepts = 0, 0
}

// Refresh re-reads the sampled weight, e.g. after a temperature change.
func (c *Chain) Refresh() {
	c.weight = math.Abs(c.Sampled.Value(c.Box))
}
