// Package summary formats the end-of-run read/hit ratio report the BAM
// driver prints at shutdown.
package summary

import (
	"fmt"
	"io"
)

// Counters holds the accumulated BAM-driver statistics.
type Counters struct {
	ReadCount        int
	UnmappedCount    int
	ReadHitCount     int
	UnmappedHitCount int
	TotalHitCount    int
	UnmappedOnly     bool
}

// Write prints the hit/read ratio lines, each prefixed with '#',
// matching cmd/bio-pileup/main.go's plain fmt.Printf stdout reporting
// idiom.
func (c Counters) Write(w io.Writer) {
	mappedReads := c.ReadCount - c.UnmappedCount
	mappedHits := c.ReadHitCount - c.UnmappedHitCount

	fmt.Fprintf(w, "# (total hits)/(total reads) = %d/%d = %s\n",
		c.ReadHitCount, c.ReadCount, percent(c.ReadHitCount, c.ReadCount))

	if !c.UnmappedOnly {
		fmt.Fprintf(w, "# (mapped hits)/(mapped reads) = %d/%d = %s\n",
			mappedHits, mappedReads, percent(mappedHits, mappedReads))
	}

	fmt.Fprintf(w, "# (unmapped hits)/(unmapped reads) = %d/%d = %s\n",
		c.UnmappedHitCount, c.UnmappedCount, percent(c.UnmappedHitCount, c.UnmappedCount))

	if !c.UnmappedOnly {
		fmt.Fprintf(w, "# (unmapped hits)/(total hits) = %d/%d = %s\n",
			c.UnmappedHitCount, c.ReadHitCount, percent(c.UnmappedHitCount, c.ReadHitCount))
	}

	fmt.Fprintf(w, "# (unmapped reads)/(total reads) = %d/%d = %s\n",
		c.UnmappedCount, c.ReadCount, percent(c.UnmappedCount, c.ReadCount))

	avg := 0.0
	if c.ReadHitCount > 0 {
		avg = float64(c.TotalHitCount) / float64(c.ReadHitCount)
	}
	fmt.Fprintf(w, "# total hits: %d (average hits per hit read = %.3f)\n", c.TotalHitCount, avg)
}

func percent(num, denom int) string {
	if denom == 0 {
		return "NaN%"
	}
	return fmt.Sprintf("%.3f%%", 100*float64(num)/float64(denom))
}
