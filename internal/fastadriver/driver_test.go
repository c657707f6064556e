package fastadriver_test

import (
	"math"
	"strings"
	"testing"

	"github.com/quartzbio/motifscan/internal/fastadriver"
	"github.com/quartzbio/motifscan/internal/meme"
	"github.com/quartzbio/motifscan/internal/motif"
	"github.com/quartzbio/motifscan/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	names []string
	seqs  []string
	n     int
}

func (c *collector) Accept(matrixName, sequenceName string, start, stop int, score scan.Score, reverseComplement bool) {
	c.names = append(c.names, sequenceName)
	c.n++
	if !math.IsNaN(score.Pvalue) {
		c.seqs = append(c.seqs, sequenceName)
	}
}

// TestRunScansEveryRecord checks that a record made entirely of Ns
// still produces one Score per window, all unscorable.
func TestRunScansEveryRecord(t *testing.T) {
	const fastaData = ">r1\nNNNN\n>r2\nACGTACGT\n"
	rm := meme.RawMotif{Name: "M", NSites: 10, Rows: [][4]float64{{1, 0, 0, 0}, {1, 0, 0, 0}}}
	matrices, err := motif.Build(rm, meme.Uniform, motif.DefaultPseudoSites, false)
	require.NoError(t, err)

	c := &collector{}
	require.NoError(t, fastadriver.Run(strings.NewReader(fastaData), matrices, c))

	// r1 (len 4, w=2) contributes 3 windows, all unscorable.
	// r2 (len 8, w=2) contributes 7 windows, all scorable.
	assert.Equal(t, 10, c.n)
	assert.Len(t, c.seqs, 7)
}
