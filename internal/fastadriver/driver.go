// Package fastadriver reads FASTA records and scans every configured
// motif matrix against each one, forwarding every emitted score to a
// sink.
//
// The FASTA tokenizer itself is an external collaborator; this package
// binds github.com/biogo/biogo's streaming reader rather than
// reimplementing one.
package fastadriver

import (
	"io"

	bioalphabet "github.com/biogo/biogo/alphabet"
	bioseqio "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
	"github.com/quartzbio/motifscan/internal/merr"
	"github.com/quartzbio/motifscan/internal/motif"
	"github.com/quartzbio/motifscan/internal/scan"
)

// sequenceSetter is implemented by consumers (like *sink.Tabular) that
// need the full sequence text to slice a matched subsequence out of,
// since scan.Score only carries a pvalue/score pair, borrowing the
// caller's sequence rather than copying it.
type sequenceSetter interface {
	SetSequence(string)
}

// Run iterates every FASTA record in r, scanning each of matrices
// against it and forwarding every produced scan.Score to consumer. It
// does not retain records.
func Run(r io.Reader, matrices []*motif.ScoreMatrix, consumer scan.Consumer) error {
	reader := bioseqio.NewReader(r, linear.NewSeq("", nil, bioalphabet.DNA))
	for {
		s, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(merr.IoError, err.Error())
		}
		record, ok := s.(*linear.Seq)
		if !ok {
			return errors.Wrap(merr.IoError, "unexpected FASTA record type")
		}
		sequence := lettersToString(record.Seq)
		name := s.Name()
		if setter, ok := consumer.(sequenceSetter); ok {
			setter.SetSequence(sequence)
		}
		for _, m := range matrices {
			scan.Scan(m, name, sequence, consumer)
		}
	}
}

// lettersToString converts a biogo alphabet.Letters slice to a plain
// ASCII string without going through fmt, matching the byte-budget
// sensibility of biosimd's string<->byte conversions elsewhere in the
// pack.
func lettersToString(letters bioalphabet.Letters) string {
	buf := make([]byte, len(letters))
	for i, l := range letters {
		buf[i] = byte(l)
	}
	return string(buf)
}
