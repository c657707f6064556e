package region_test

import (
	"strings"
	"testing"

	"github.com/quartzbio/motifscan/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBED(t *testing.T) {
	const data = "# comment\nchr1\t100\t200\textra\tcols\nchr2\t0\t50\n\n"
	regions, err := region.ReadBED(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, region.Region{Chrom: "chr1", Start: 100, End: 200}, regions[0])
	assert.Equal(t, "chr1:100-200", regions[0].Label())
	assert.Equal(t, region.Region{Chrom: "chr2", Start: 0, End: 50}, regions[1])
}

func TestReadBEDRejectsShortLines(t *testing.T) {
	_, err := region.ReadBED(strings.NewReader("chr1\t100\n"))
	require.Error(t, err)
}
