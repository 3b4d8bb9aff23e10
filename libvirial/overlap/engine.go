package overlap

import (
	"math"
	"math/rand"
	"os"

	"github.com/fine-structures/virial/libvirial/box"
	"github.com/fine-structures/virial/libvirial/mc"
	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// startRadius places all points of a fresh chain well inside any hard core.
const startRadius = 0.1

// Systems builds the cluster instances of an overlap run.
// Each engine chain owns one reference and one target instance, so every builder call must
// return a fresh Cluster.
type Systems struct {
	N                    int
	Reference            func() (virial.Cluster, error)
	Target               func() (virial.Cluster, error)
	ReferenceCoefficient float64
}

// ChainResult summarizes the production statistics of one chain.
type ChainResult struct {
	ValueAverage     float64 // mean sign of the sampled cluster
	ValueError       float64
	BlockCorrelation float64 // lag-1 correlation of the overlap block averages
	OverlapAverage   float64
	OverlapError     float64
	Ratio            float64 // ValueAverage / OverlapAverage
	RatioError       float64
	Acceptance       float64
	StepSize         float64
}

// Result is the outcome of an overlap sampling run.
type Result struct {
	Alpha                float64
	Blocks               int
	RatioAverage         float64 // target integral over reference integral
	RatioError           float64
	Chains               [2]ChainResult
	ReferenceCoefficient float64
	Coefficient          float64
	CoefficientError     float64
}

// Engine runs two Metropolis chains, chain 0 sampling |reference| and chain 1 sampling
// |target|, and estimates the ratio of the two cluster integrals by overlap sampling.
type Engine struct {
	sys      Systems
	sampling virial.SamplingConfig
	bias     virial.BiasConfig

	phase     virial.Phase
	biasReady bool
	alpha     float64
	alphas    []float64

	chains [2]*mc.Chain
	others [2]virial.Cluster
	acc    [2]*Accumulator
	vals   []float64
}

// NewEngine builds both chains from sys, starting each from a compact ring configuration.
func NewEngine(sys Systems, sampling virial.SamplingConfig, bias virial.BiasConfig) (*Engine, error) {
	if sys.N < 2 {
		return nil, errors.Wrapf(virial.ErrBadPointCount, "N = %d", sys.N)
	}
	if sampling.SubSteps < 1 || sampling.BlockSize < 1 || !(sampling.StepSize > 0) {
		return nil, errors.Wrap(virial.ErrBadConfig, "sampling schedule")
	}

	e := &Engine{
		sys:      sys,
		sampling: sampling,
		bias:     bias,
	}
	rng := rand.New(rand.NewSource(sampling.Seed))

	for i := range e.chains {
		sampled, err := e.build(i == 1)
		if err != nil {
			return nil, err
		}
		other, err := e.build(i == 0)
		if err != nil {
			return nil, err
		}
		if sampled.NumPoints() != sys.N || other.NumPoints() != sys.N {
			return nil, errors.Wrapf(virial.ErrMismatchedOrder, "cluster order differs from N = %d", sys.N)
		}
		b := box.New(sys.N)
		mc.Initialize(b, startRadius)
		chain := mc.NewChain(b, sampled, &mc.TranslateAll{Step: sampling.StepSize}, rand.New(rand.NewSource(rng.Int63())))
		if chain.Weight() == 0 {
			return nil, errors.Wrapf(virial.ErrBadConfig, "chain %d starts at a configuration of zero weight", i)
		}
		e.chains[i] = chain
		e.others[i] = other
	}
	return e, nil
}

func (e *Engine) build(target bool) (virial.Cluster, error) {
	if target {
		return e.sys.Target()
	}
	return e.sys.Reference()
}

func (e *Engine) Phase() virial.Phase {
	return e.phase
}

// Alpha returns the current bias.
func (e *Engine) Alpha() float64 {
	return e.alpha
}

// Chain returns chain 0 (reference) or chain 1 (target).
func (e *Engine) Chain(i int) *mc.Chain {
	return e.chains[i]
}

// Accumulator returns the production accumulator of chain i, holding the sign as quantity 0
// and the overlap ratio as quantity 1.
func (e *Engine) Accumulator(i int) *Accumulator {
	return e.acc[i]
}

func (e *Engine) setPhase(p virial.Phase) {
	if p != virial.PhaseAborted && p < e.phase {
		panic("overlap: phase moved backwards (phase check failed)")
	}
	if p != e.phase {
		klog.V(1).Infof("overlap: %v -> %v", e.phase, p)
	}
	e.phase = p
}

func (e *Engine) abort(err error) error {
	e.setPhase(virial.PhaseAborted)
	return err
}

// SetBias fixes α without searching.
func (e *Engine) SetBias(alpha float64) error {
	if e.phase != virial.PhaseIdle {
		return errors.Wrapf(virial.ErrBadPhase, "SetBias during %v", e.phase)
	}
	if !validBias(alpha) {
		return e.abort(errors.Wrapf(virial.ErrBadBias, "alpha = %v", alpha))
	}
	e.alpha = alpha
	e.biasReady = true
	return nil
}

// SearchBias determines α, either from the bias file or by iteratively narrowing a set of
// windows around the configured center.  The bias file is rewritten when the search completes.
func (e *Engine) SearchBias() error {
	if e.phase != virial.PhaseIdle {
		return errors.Wrapf(virial.ErrBadPhase, "SearchBias during %v", e.phase)
	}
	e.setPhase(virial.PhaseSearchingBias)

	if e.bias.File != "" {
		alpha, err := ReadBias(e.bias.File)
		if err == nil {
			klog.Infof("overlap: using alpha = %g from %q", alpha, e.bias.File)
			e.alpha = alpha
			e.biasReady = true
			return nil
		}
		if !os.IsNotExist(errors.Cause(err)) {
			klog.Warningf("overlap: ignoring bias file: %v", err)
		}
	}

	center, span := e.bias.Center, e.bias.Span
	if !validBias(center) {
		return e.abort(errors.Wrapf(virial.ErrBadBias, "initial alpha = %v", center))
	}
	perBlock := int(e.bias.BlockSteps) * e.sampling.SubSteps / 10

	for iter := 0; iter < e.bias.Iterations; iter++ {
		e.alphas = Windows(center, span, e.bias.Windows)
		e.resetAccumulators(perBlock)
		for t := int64(0); t < e.bias.BlockSteps; t++ {
			e.tick(true)
		}
		k := MinDiffLocation(e.acc[0], e.acc[1], e.alphas)
		next := e.acc[1].Mean(k+1) / e.acc[0].Mean(k+1)
		if !validBias(next) {
			return e.abort(errors.Wrapf(virial.ErrBadBias, "search iteration %d: alpha = %v", iter, next))
		}
		klog.V(2).Infof("overlap: search %d: window %d of %d (alpha %g), new alpha %g, span %g", iter, k, len(e.alphas), e.alphas[k], next, span)
		center = next
		span /= 2
	}

	e.alpha = center
	e.biasReady = true
	klog.Infof("overlap: alpha = %g", e.alpha)

	if e.bias.File != "" {
		if err := WriteBias(e.bias.File, e.alpha); err != nil {
			return err
		}
	}
	return nil
}

// Equilibrate tunes both chains' step sizes toward mc.TargetAcceptance and discards everything sampled.
func (e *Engine) Equilibrate() error {
	if !e.biasReady || e.phase > virial.PhaseSearchingBias {
		return errors.Wrapf(virial.ErrBadPhase, "Equilibrate during %v", e.phase)
	}
	e.setPhase(virial.PhaseEquilibrating)
	e.alphas = []float64{e.alpha}
	for _, ch := range e.chains {
		ch.Tune = true
		ch.ResetStats()
	}
	for t := int64(0); t < e.sampling.EquilibrationSteps; t++ {
		e.tick(false)
	}
	for _, ch := range e.chains {
		ch.Tune = false
		ch.ResetStats()
		klog.V(2).Infof("overlap: step size %g", ch.Move.StepSize())
	}
	return nil
}

// Produce runs the production phase with frozen step sizes.
func (e *Engine) Produce() error {
	if e.phase != virial.PhaseEquilibrating {
		return errors.Wrapf(virial.ErrBadPhase, "Produce during %v", e.phase)
	}
	e.setPhase(virial.PhaseProduction)
	e.alphas = []float64{e.alpha}
	e.resetAccumulators(e.sampling.BlockSize)
	for t := int64(0); t < e.sampling.ProductionSteps; t++ {
		e.tick(true)
	}
	e.setPhase(virial.PhaseDone)
	return nil
}

// Run searches for α (unless SetBias was called), equilibrates, and produces.
func (e *Engine) Run() (Result, error) {
	if !e.biasReady {
		if err := e.SearchBias(); err != nil {
			return Result{}, err
		}
	}
	if err := e.Equilibrate(); err != nil {
		return Result{}, err
	}
	if err := e.Produce(); err != nil {
		return Result{}, err
	}
	res := e.Result()
	klog.Infof("overlap: ratio %g ± %g, coefficient %g ± %g", res.RatioAverage, res.RatioError, res.Coefficient, res.CoefficientError)
	return res, nil
}

// Result reports the production statistics gathered so far.
func (e *Engine) Result() Result {
	res := Combine(e.alpha, e.sys.ReferenceCoefficient, e.acc[0], e.acc[1])
	for i, ch := range e.chains {
		res.Chains[i].Acceptance = ch.Acceptance()
		res.Chains[i].StepSize = ch.Move.StepSize()
	}
	return res
}

// Combine computes the overlap estimate from the production accumulators of both chains.
func Combine(alpha, refCoeff float64, acc0, acc1 *Accumulator) Result {
	res := Result{
		Alpha:                alpha,
		ReferenceCoefficient: refCoeff,
	}
	if acc0 == nil || acc1 == nil {
		res.RatioAverage, res.RatioError = math.NaN(), math.NaN()
		res.Coefficient, res.CoefficientError = math.NaN(), math.NaN()
		return res
	}
	res.Blocks = acc0.NumBlocks()
	for i, acc := range [2]*Accumulator{acc0, acc1} {
		ratio, ratioErr := acc.Ratio(0, 1)
		res.Chains[i] = ChainResult{
			ValueAverage:     acc.Mean(0),
			ValueError:       acc.Error(0),
			BlockCorrelation: acc.Correlation(1),
			OverlapAverage:   acc.Mean(1),
			OverlapError:     acc.Error(1),
			Ratio:            ratio,
			RatioError:       ratioErr,
		}
	}
	r0, r1 := res.Chains[0], res.Chains[1]
	res.RatioAverage = r1.Ratio / r0.Ratio
	rel0, rel1 := r0.RatioError/r0.Ratio, r1.RatioError/r1.Ratio
	res.RatioError = math.Abs(res.RatioAverage) * math.Sqrt(rel0*rel0+rel1*rel1)
	res.Coefficient = res.RatioAverage * refCoeff
	res.CoefficientError = math.Abs(refCoeff) * res.RatioError
	return res
}

func (e *Engine) resetAccumulators(blockSize int) {
	nvals := 1 + len(e.alphas)
	for i := range e.acc {
		e.acc[i] = NewAccumulator(nvals, blockSize)
	}
	e.vals = make([]float64, nvals)
}

// tick advances chain 0 and then chain 1 by SubSteps trials each.
func (e *Engine) tick(collect bool) {
	for i, ch := range e.chains {
		for s := 0; s < e.sampling.SubSteps; s++ {
			ch.Step()
			if collect {
				e.sample(i)
			}
		}
	}
}

// sample records, for chain i, the sign of its own cluster and the overlap ratio
// γOS/π_i at every window, where γOS = |γ0||γ1|/(|γ0| + α|γ1|).
func (e *Engine) sample(i int) {
	ch := e.chains[i]
	own := ch.Sampled.Value(ch.Box)
	other := math.Abs(e.others[i].Value(ch.Box))

	var g0, g1, num float64
	if i == 0 {
		g0, g1 = math.Abs(own), other
		num = g1
	} else {
		g0, g1 = other, math.Abs(own)
		num = g0
	}

	e.vals[0] = 1
	if own < 0 {
		e.vals[0] = -1
	}
	for k, alpha := range e.alphas {
		e.vals[k+1] = num / (g0 + alpha*g1)
	}
	e.acc[i].Add(e.vals)
}
