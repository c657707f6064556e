// Package motif builds integer-scaled log-odds position weight matrices
// from parsed MEME motifs, and the per-matrix p-value tables used to
// judge scan hits.
package motif

import (
	"math"

	"github.com/pkg/errors"
	"github.com/quartzbio/motifscan/internal/alphabet"
	"github.com/quartzbio/motifscan/internal/meme"
	"github.com/quartzbio/motifscan/internal/merr"
)

// BINS is MEME's integer scaling resolution.
const BINS = 100

// DefaultPseudoSites is the default smoothing term added to raw counts
// before taking log-odds.
const DefaultPseudoSites = 0.1

// ScoreMatrix is an integer-scaled log-odds PWM together with the
// p-value table needed to judge a raw integer score, and the affine
// constants needed to recover the real log-odds score from it.
//
// The strand a ScoreMatrix scores is a property of the matrix, not of
// the transient Score it produces.
type ScoreMatrix struct {
	Name                string
	Values              [][4]int // w x alphabet.Size, row-major by motif position
	Scale               float64
	MinBeforeScaling    float64
	IsReverseComplement bool
	SMax                int
	Pvalues             []float64 // len SMax+1, Pvalues[k] = P(score >= k)
}

// Width returns the motif width.
func (m *ScoreMatrix) Width() int { return len(m.Values) }

// Value returns the scaled integer score for motif position pos and
// alphabet base b (one of alphabet.A..alphabet.T). It is the only entry
// point where base values outside ACGT panic with merr.InvalidBase,
// since this is a programmatic API misuse, not a runtime condition the
// scanner can hit (the scanner never calls it with an unscorable index).
func (m *ScoreMatrix) Value(pos, b int) int {
	if b < 0 || b >= alphabet.Size {
		panic(errors.Wrapf(merr.InvalidBase, "base index %d", b))
	}
	return m.Values[pos][b]
}

// RealScore recovers the real (non-integer) log-odds score corresponding
// to integer score k.
func (m *ScoreMatrix) RealScore(k int) float64 {
	return float64(k)/m.Scale + float64(m.Width())*m.MinBeforeScaling
}

// Build constructs the forward ScoreMatrix for rm, and (if
// includeReverseComplement) its reverse-complement sibling. Both carry
// independently computed p-value tables: the scaling bounds only
// coincide when backgrounds are symmetric, so each matrix recomputes
// its own table rather than sharing one.
func Build(rm meme.RawMotif, bg meme.Background, pseudoSites float64, includeReverseComplement bool) ([]*ScoreMatrix, error) {
	if pseudoSites <= 0 {
		pseudoSites = DefaultPseudoSites
	}
	fwdFreq := adjustedFrequencies(rm, bg, pseudoSites)
	fwd, err := buildFromFrequencies(rm.Name, fwdFreq, bg, false)
	if err != nil {
		return nil, err
	}
	matrices := []*ScoreMatrix{fwd}
	if includeReverseComplement {
		rcFreq := reverseComplementFrequencies(fwdFreq)
		rc, err := buildFromFrequencies(rm.Name, rcFreq, bg, true)
		if err != nil {
			return nil, err
		}
		matrices = append(matrices, rc)
	}
	return matrices, nil
}

// adjustedFrequencies blends the motif's observed frequencies with the
// background, weighted by pseudoSites.
func adjustedFrequencies(rm meme.RawMotif, bg meme.Background, pseudoSites float64) [][4]float64 {
	freq := make([][4]float64, rm.Width())
	denom := rm.NSites + pseudoSites
	for c, row := range rm.Rows {
		for b := 0; b < alphabet.Size; b++ {
			freq[c][b] = (row[b]*rm.NSites + pseudoSites*bg[b]) / denom
		}
	}
	return freq
}

// reverseComplementFrequencies reverses row order and swaps columns
// A<->T, C<->G.
func reverseComplementFrequencies(freq [][4]float64) [][4]float64 {
	w := len(freq)
	out := make([][4]float64, w)
	for c := 0; c < w; c++ {
		src := freq[w-1-c]
		for b := 0; b < alphabet.Size; b++ {
			out[c][b] = src[alphabet.Complement(b)]
		}
	}
	return out
}

func buildFromFrequencies(name string, freq [][4]float64, bg meme.Background, isRC bool) (*ScoreMatrix, error) {
	w := len(freq)
	logOdds := make([][4]float64, w)
	minL, maxL := math.Inf(1), math.Inf(-1)
	for c := 0; c < w; c++ {
		for b := 0; b < alphabet.Size; b++ {
			l := math.Log2(freq[c][b] / bg[b])
			logOdds[c][b] = l
			if l < minL {
				minL = l
			}
			if l > maxL {
				maxL = l
			}
		}
	}
	if maxL == minL {
		// Degenerate matrix (every log-odds entry equal): any positive scale
		// works since every entry scales to 0; pick 1 to avoid a divide
		// by zero.
		maxL = minL + 1
	}
	scale := float64(BINS) / (maxL - minL)

	values := make([][4]int, w)
	sMax := 0
	for c := 0; c < w; c++ {
		rowMax := 0
		for b := 0; b < alphabet.Size; b++ {
			v := int(math.Round((logOdds[c][b] - minL) * scale))
			values[c][b] = v
			if v > rowMax {
				rowMax = v
			}
		}
		sMax += rowMax
	}

	m := &ScoreMatrix{
		Name:                name,
		Values:              values,
		Scale:               scale,
		MinBeforeScaling:    minL,
		IsReverseComplement: isRC,
		SMax:                sMax,
	}
	m.Pvalues = pvalueTable(m, bg)
	return m, nil
}
