// Package scan slides a motif.ScoreMatrix across a sequence and delivers
// one Score per window to a Consumer.
package scan

import (
	"math"

	"github.com/quartzbio/motifscan/internal/alphabet"
	"github.com/quartzbio/motifscan/internal/motif"
)

// Score is the transient result of scoring one window. It is valid only
// for the duration of the Consumer.Accept call that receives it; a
// consumer that needs to retain the matched slice must copy it
// immediately.
//
// Strand is a property of the motif.ScoreMatrix that produced a Score,
// not of the Score itself.
type Score struct {
	Pvalue float64 // NaN if the window contains an unscorable base.
	Value  float64 // real (non-integer) log-odds score; 0 if unscorable.
}

// Consumer is the capability a scan delivers Scores to: the template
// callback from the original design re-expressed as a single-method
// interface. reverseComplement is read off the matrix that produced the
// score, not off Score itself.
type Consumer interface {
	// Accept is called once per window, including unscorable ones.
	// start/stop are 1-based inclusive positions within seq.
	Accept(matrixName, sequenceName string, start, stop int, score Score, reverseComplement bool)
}

// ConsumerFunc adapts a plain function to Consumer.
type ConsumerFunc func(matrixName, sequenceName string, start, stop int, score Score, reverseComplement bool)

// Accept implements Consumer.
func (f ConsumerFunc) Accept(matrixName, sequenceName string, start, stop int, score Score, reverseComplement bool) {
	f(matrixName, sequenceName, start, stop, score, reverseComplement)
}

// Scan slides m across seq and calls consumer.Accept once for every
// length-w window, for w = m.Width(). If w > len(seq), no windows are
// produced.
func Scan(m *motif.ScoreMatrix, sequenceName, seq string, consumer Consumer) {
	w := m.Width()
	n := len(seq)
	for i := 0; i+w <= n; i++ {
		score := scoreWindow(m, seq, i, w)
		consumer.Accept(m.Name, sequenceName, i+1, i+w, score, m.IsReverseComplement)
	}
}

func scoreWindow(m *motif.ScoreMatrix, seq string, i, w int) Score {
	sum := 0
	for c := 0; c < w; c++ {
		idx := alphabet.Index(seq[i+c])
		if idx == alphabet.Unscorable {
			return Score{Pvalue: math.NaN(), Value: 0}
		}
		sum += m.Values[c][idx]
	}
	if sum > m.SMax {
		sum = m.SMax
	}
	return Score{
		Pvalue: m.Pvalues[sum],
		Value:  m.RealScore(sum),
	}
}
