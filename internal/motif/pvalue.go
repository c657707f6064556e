package motif

import "github.com/quartzbio/motifscan/internal/alphabet"

// pvalueTable builds the cumulative p-value table for m by convolving
// the per-column discrete score distributions under bg. Returned slice
// has length m.SMax+1; pvalueTable[k] = P(score >= k) under the
// background model.
func pvalueTable(m *ScoreMatrix, bg [4]float64) []float64 {
	pmf := []float64{1.0} // P = [1.0]: score 0 with probability 1.
	for c := 0; c < m.Width(); c++ {
		rowMax := 0
		for b := 0; b < alphabet.Size; b++ {
			if v := m.Values[c][b]; v > rowMax {
				rowMax = v
			}
		}
		next := make([]float64, len(pmf)+rowMax)
		for s, p := range pmf {
			if p == 0 {
				continue
			}
			for b := 0; b < alphabet.Size; b++ {
				next[s+m.Values[c][b]] += p * bg[b]
			}
		}
		pmf = next
	}

	pvalues := make([]float64, len(pmf))
	tail := 0.0
	for k := len(pmf) - 1; k >= 0; k-- {
		tail += pmf[k]
		pvalues[k] = tail
	}
	return pvalues
}
