package scan_test

import (
	"math"
	"testing"

	"github.com/quartzbio/motifscan/internal/meme"
	"github.com/quartzbio/motifscan/internal/motif"
	"github.com/quartzbio/motifscan/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recording struct {
	scores []scan.Score
	starts []int
	stops  []int
}

func (r *recording) Accept(matrixName, sequenceName string, start, stop int, score scan.Score, reverseComplement bool) {
	r.scores = append(r.scores, score)
	r.starts = append(r.starts, start)
	r.stops = append(r.stops, stop)
}

func buildMatrix(t *testing.T, rows [][4]float64, nsites float64) *motif.ScoreMatrix {
	t.Helper()
	rm := meme.RawMotif{Name: "M", NSites: nsites, Rows: rows}
	matrices, err := motif.Build(rm, meme.Uniform, motif.DefaultPseudoSites, false)
	require.NoError(t, err)
	return matrices[0]
}

// TestScanWindowCount checks the universal property that scanning
// produces exactly max(0, |X|-w+1) Scores per matrix.
func TestScanWindowCount(t *testing.T) {
	m := buildMatrix(t, [][4]float64{{1, 0, 0, 0}}, 1)
	r := &recording{}
	scan.Scan(m, "seq", "ACGTA", r)
	assert.Len(t, r.scores, 5)
}

func TestScanNoWindowsWhenMotifLongerThanSequence(t *testing.T) {
	m := buildMatrix(t, [][4]float64{{1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}}, 1)
	r := &recording{}
	scan.Scan(m, "seq", "AC", r)
	assert.Empty(t, r.scores)
}

// TestScanHighLowPattern checks that scanning ACGTA with motif "A"
// yields (high, low, low, low, high) scores.
func TestScanHighLowPattern(t *testing.T) {
	m := buildMatrix(t, [][4]float64{{1, 0, 0, 0}}, 1)
	r := &recording{}
	scan.Scan(m, "seq", "ACGTA", r)
	require.Len(t, r.scores, 5)
	assert.Greater(t, r.scores[0].Value, r.scores[1].Value)
	assert.Greater(t, r.scores[4].Value, r.scores[1].Value)
	assert.Equal(t, r.scores[1].Value, r.scores[2].Value)
	assert.Equal(t, r.scores[2].Value, r.scores[3].Value)
}

// TestScanUnscorableWindow checks that a run of Ns yields Scores with
// NaN pvalue and zero score.
func TestScanUnscorableWindow(t *testing.T) {
	m := buildMatrix(t, [][4]float64{{1, 0, 0, 0}, {1, 0, 0, 0}}, 1)
	r := &recording{}
	scan.Scan(m, "seq", "NNNN", r)
	require.Len(t, r.scores, 3)
	for _, s := range r.scores {
		assert.True(t, math.IsNaN(s.Pvalue))
		assert.Equal(t, 0.0, s.Value)
	}
}

func TestScanReportsOneBasedInclusiveCoordinates(t *testing.T) {
	m := buildMatrix(t, [][4]float64{{1, 0, 0, 0}, {1, 0, 0, 0}}, 1)
	r := &recording{}
	scan.Scan(m, "seq", "ACGT", r)
	require.Equal(t, []int{1, 2, 3}, r.starts)
	require.Equal(t, []int{2, 3, 4}, r.stops)
}

func TestReverseComplementSymmetry(t *testing.T) {
	// Scoring X with M at window i equals scoring
	// reverse_complement(X) with M' at window |X|-w-i.
	rows := [][4]float64{{0, 0, 1, 0}, {0, 0, 0, 1}, {0.25, 0.25, 0.25, 0.25}}
	rm := meme.RawMotif{Name: "M", NSites: 20, Rows: rows}
	matrices, err := motif.Build(rm, meme.Uniform, motif.DefaultPseudoSites, true)
	require.NoError(t, err)
	fwd, rc := matrices[0], matrices[1]

	seq := "GTACGTAC"
	rcSeq := reverseComplement(seq)
	w := fwd.Width()

	rFwd := &recording{}
	scan.Scan(fwd, "seq", seq, rFwd)
	rRC := &recording{}
	scan.Scan(rc, "seq", rcSeq, rRC)

	n := len(seq)
	for i := 0; i+w <= n; i++ {
		j := n - w - i
		assert.InDelta(t, rFwd.scores[i].Value, rRC.scores[j].Value, 1e-9)
	}
}

func reverseComplement(s string) string {
	comp := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = comp[s[len(s)-1-i]]
	}
	return string(out)
}
