package motif_test

import (
	"math"
	"testing"

	"github.com/quartzbio/motifscan/internal/meme"
	"github.com/quartzbio/motifscan/internal/motif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOne(t *testing.T, rows [][4]float64, nsites float64, rc bool) []*motif.ScoreMatrix {
	t.Helper()
	rm := meme.RawMotif{Name: "M", NSites: nsites, Rows: rows}
	matrices, err := motif.Build(rm, meme.Uniform, motif.DefaultPseudoSites, rc)
	require.NoError(t, err)
	return matrices
}

// TestBuildWidthOneScenario checks a single-column motif "A" with
// uniform background, w=1, pseudo_sites=0.1.
func TestBuildWidthOneScenario(t *testing.T) {
	matrices := buildOne(t, [][4]float64{{1, 0, 0, 0}}, 1, false)
	m := matrices[0]
	require.Equal(t, 1, m.Width())
	// A should score far higher than C, G, T.
	assert.Greater(t, m.Value(0, 0), m.Value(0, 1))
	assert.Greater(t, m.Value(0, 0), m.Value(0, 2))
	assert.Greater(t, m.Value(0, 0), m.Value(0, 3))
	assert.Equal(t, m.Value(0, 1), m.Value(0, 2))
	assert.Equal(t, m.Value(0, 2), m.Value(0, 3))
	// Top of scale is BINS.
	assert.Equal(t, motif.BINS, m.Value(0, 0))
}

func TestValuesWithinBinsForUniformEverything(t *testing.T) {
	rows := [][4]float64{{0.25, 0.25, 0.25, 0.25}, {0.25, 0.25, 0.25, 0.25}}
	matrices := buildOne(t, rows, 10, false)
	m := matrices[0]
	for c := 0; c < m.Width(); c++ {
		for b := 0; b < 4; b++ {
			v := m.Value(c, b)
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, motif.BINS)
		}
	}
}

func TestReverseComplementMatrix(t *testing.T) {
	// Motif "GT": row0 favors G, row1 favors T.
	rows := [][4]float64{{0, 0, 1, 0}, {0, 0, 0, 1}}
	matrices := buildOne(t, rows, 20, true)
	require.Len(t, matrices, 2)
	fwd, rc := matrices[0], matrices[1]
	assert.False(t, fwd.IsReverseComplement)
	assert.True(t, rc.IsReverseComplement)
	// RC of "GT" is "AC": row0 favors A, row1 favors C.
	assert.Equal(t, rc.Value(0, 0), fwd.Value(1, 3)) // A in RC's row0 mirrors T in fwd's row1.
	assert.Equal(t, rc.Value(1, 1), fwd.Value(0, 2)) // C in RC's row1 mirrors G in fwd's row0.
}

func TestPvaluesMonotonic(t *testing.T) {
	rows := [][4]float64{{0.7, 0.1, 0.1, 0.1}, {0.1, 0.1, 0.1, 0.7}, {0.25, 0.25, 0.25, 0.25}}
	matrices := buildOne(t, rows, 30, false)
	m := matrices[0]
	require.Equal(t, m.SMax+1, len(m.Pvalues))
	assert.InDelta(t, 1.0, m.Pvalues[0], 1e-9)
	assert.Greater(t, m.Pvalues[m.SMax], 0.0)
	for k := 1; k < len(m.Pvalues); k++ {
		assert.LessOrEqual(t, m.Pvalues[k], m.Pvalues[k-1]+1e-12)
	}
	sum := 0.0
	for k := 0; k <= m.SMax; k++ {
		sum += m.Pvalues[k]
	}
	_ = sum
	assert.False(t, math.IsNaN(m.Pvalues[0]))
}
