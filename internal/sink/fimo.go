// Package sink implements the FIMO-style tabular hit printer, the
// tabular half of the driver's output fan-out via a small capability
// consumer interface.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/quartzbio/motifscan/internal/scan"
)

// SignificanceThreshold is the p-value below which a Score counts as a
// hit worth printing.
const SignificanceThreshold = 1e-4

const header = "#pattern_name\tsequence_name\tstart\tstop\tstrand\tscore\tpvalue\tq-value\tmatched_sequence\n"

// Tabular writes FIMO-style tab-separated lines to an underlying
// io.Writer. It satisfies scan.Consumer directly, for callers (the
// FASTA driver) that want to hand it straight to scan.Scan; SetSequence
// must be called with the sequence currently being scanned before each
// scan.Scan call, since scan.Score carries no sequence text to slice
// matched_sequence from.
//
// Callers with their own filtering/coordinate-adjustment needs (the BAM
// driver, which offsets coordinates by read.Pos and counts hits before
// deciding whether to print) call WriteHit directly instead of using
// Tabular as a scan.Consumer.
type Tabular struct {
	w             *bufio.Writer
	headerWritten bool
	sequence      string
}

// NewTabular wraps w. The header comment line is written lazily, once,
// on the first WriteHit call, so a run with zero hits produces an empty
// file rather than a lone header.
func NewTabular(w io.Writer) *Tabular {
	return &Tabular{w: bufio.NewWriter(w)}
}

// SetSequence records the sequence that subsequent Accept calls should
// slice matched_sequence out of.
func (t *Tabular) SetSequence(seq string) {
	t.sequence = seq
}

// Accept implements scan.Consumer, filtering to significant hits and
// slicing the matched subsequence out of the sequence set via
// SetSequence.
func (t *Tabular) Accept(matrixName, sequenceName string, start, stop int, score scan.Score, reverseComplement bool) {
	if math.IsNaN(score.Pvalue) || score.Pvalue >= SignificanceThreshold {
		return
	}
	t.WriteHit(matrixName, sequenceName, start, stop, score, reverseComplement, t.sequence[start-1:stop])
}

// WriteHit formats one significant hit. start/stop are 1-based inclusive
// coordinates; matchedSeq is the already-sliced matched subsequence
// (callers with their own coordinate system, like the BAM driver, slice
// it themselves rather than going through SetSequence).
func (t *Tabular) WriteHit(matrixName, sequenceName string, start, stop int, score scan.Score, reverseComplement bool, matchedSeq string) {
	if !t.headerWritten {
		t.w.WriteString(header)
		t.headerWritten = true
	}
	strand := '+'
	if reverseComplement {
		strand = '-'
	}
	fmt.Fprintf(t.w, "%s\t%s\t%d\t%d\t%c\t%s\t%s\t\t%s\n",
		matrixName, sequenceName, start, stop, strand,
		formatSigFigs(score.Value, 6), formatSigFigs(score.Pvalue, 3), strings.ToUpper(matchedSeq))
}

// Flush flushes any buffered output. It must be called before the
// underlying writer is closed.
func (t *Tabular) Flush() error {
	return t.w.Flush()
}

func formatSigFigs(v float64, sig int) string {
	return fmt.Sprintf("%.*g", sig, v)
}
