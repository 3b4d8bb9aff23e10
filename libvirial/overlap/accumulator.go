package overlap

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinBlocks is the fewest completed blocks for which errors and correlations are reported.
const MinBlocks = 4

// Accumulator collects block averages of a fixed set of quantities sampled together.
type Accumulator struct {
	blockSize int
	count     int
	sums      []float64
	blocks    [][]float64
}

func NewAccumulator(numValues, blockSize int) *Accumulator {
	if blockSize < 1 {
		blockSize = 1
	}
	return &Accumulator{
		blockSize: blockSize,
		sums:      make([]float64, numValues),
		blocks:    make([][]float64, numValues),
	}
}

func (acc *Accumulator) NumValues() int {
	return len(acc.sums)
}

func (acc *Accumulator) BlockSize() int {
	return acc.blockSize
}

// Add adds one sample of every quantity.
func (acc *Accumulator) Add(vals []float64) {
	if len(vals) != len(acc.sums) {
		panic("overlap: sample length does not match accumulator (sample check failed)")
	}
	floats.Add(acc.sums, vals)
	acc.count++
	if acc.count == acc.blockSize {
		for k, sum := range acc.sums {
			acc.blocks[k] = append(acc.blocks[k], sum/float64(acc.blockSize))
		}
		for k := range acc.sums {
			acc.sums[k] = 0
		}
		acc.count = 0
	}
}

// NumBlocks returns the number of completed blocks.
func (acc *Accumulator) NumBlocks() int {
	if len(acc.blocks) == 0 {
		return 0
	}
	return len(acc.blocks[0])
}

// Blocks returns the block averages of quantity k.
func (acc *Accumulator) Blocks(k int) []float64 {
	return acc.blocks[k]
}

// Mean returns the mean of the block averages of quantity k, or NaN with no completed block.
func (acc *Accumulator) Mean(k int) float64 {
	if acc.NumBlocks() == 0 {
		return math.NaN()
	}
	return stat.Mean(acc.blocks[k], nil)
}

// Error returns the standard error of Mean(k) from the spread of block averages.
func (acc *Accumulator) Error(k int) float64 {
	nb := acc.NumBlocks()
	if nb < MinBlocks {
		return math.NaN()
	}
	return math.Sqrt(stat.Variance(acc.blocks[k], nil) / float64(nb))
}

// Covariance returns the covariance of Mean(k) and Mean(l).
func (acc *Accumulator) Covariance(k, l int) float64 {
	nb := acc.NumBlocks()
	if nb < MinBlocks {
		return math.NaN()
	}
	return stat.Covariance(acc.blocks[k], acc.blocks[l], nil) / float64(nb)
}

// Correlation returns the lag-1 correlation of successive block averages of quantity k.
func (acc *Accumulator) Correlation(k int) float64 {
	nb := acc.NumBlocks()
	if nb < MinBlocks {
		return math.NaN()
	}
	x := acc.blocks[k]
	return stat.Correlation(x[:nb-1], x[1:], nil)
}

// Ratio returns Mean(k)/Mean(l) and its error, including the covariance of the two means.
func (acc *Accumulator) Ratio(k, l int) (ratio, err float64) {
	a, b := acc.Mean(k), acc.Mean(l)
	ratio = a / b
	ea, eb := acc.Error(k), acc.Error(l)
	rel2 := ea*ea/(a*a) + eb*eb/(b*b) - 2*acc.Covariance(k, l)/(a*b)
	if rel2 < 0 {
		rel2 = 0
	}
	return ratio, math.Abs(ratio) * math.Sqrt(rel2)
}

// Reset discards all samples and blocks.
func (acc *Accumulator) Reset() {
	for k := range acc.sums {
		acc.sums[k] = 0
		acc.blocks[k] = acc.blocks[k][:0]
	}
	acc.count = 0
}

// Merge appends the completed blocks of other, which must hold the same quantities and block size.
func (acc *Accumulator) Merge(other *Accumulator) {
	if other.NumValues() != acc.NumValues() || other.blockSize != acc.blockSize {
		panic("overlap: merging mismatched accumulators (accumulator check failed)")
	}
	for k := range acc.blocks {
		acc.blocks[k] = append(acc.blocks[k], other.blocks[k]...)
	}
}
