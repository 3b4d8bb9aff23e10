package overlap

import (
	"math"
)

// Windows returns count bias values spaced geometrically over center·exp(±span).
func Windows(center, span float64, count int) []float64 {
	if count <= 1 {
		return []float64{center}
	}
	alphas := make([]float64, count)
	for k := range alphas {
		alphas[k] = center * math.Exp(span*(2*float64(k)/float64(count-1)-1))
	}
	return alphas
}

// Discrepancy returns ln(A1/A0) - ln(α) for the overlap averages of both chains at bias α.
// It vanishes where α is self-consistent.
func Discrepancy(alpha, a0, a1 float64) float64 {
	return math.Log(a1/a0) - math.Log(alpha)
}

// MinDiffLocation returns the window whose two chain estimates agree best, minimizing
// δ² + σ², where δ is the Discrepancy at that window and σ² the variance of ln A0 plus ln A1.
//
// acc0 and acc1 hold the overlap averages of window k as quantity k+1.
func MinDiffLocation(acc0, acc1 *Accumulator, alphas []float64) int {
	best, bestK := math.Inf(1), 0
	for k, alpha := range alphas {
		a0, a1 := acc0.Mean(k+1), acc1.Mean(k+1)
		d := Discrepancy(alpha, a0, a1)
		metric := d*d + logVariance(acc0, k+1) + logVariance(acc1, k+1)
		if metric < best {
			best, bestK = metric, k
		}
	}
	return bestK
}

func logVariance(acc *Accumulator, k int) float64 {
	rel := acc.Error(k) / acc.Mean(k)
	if math.IsNaN(rel) || math.IsInf(rel, 0) {
		return 0
	}
	return rel * rel
}

func validBias(alpha float64) bool {
	return alpha > 0 && !math.IsInf(alpha, 0) && !math.IsNaN(alpha)
}
