// Package region parses BED interval files into Region values, used by
// the BAM driver's region-filtered scan mode.
package region

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/quartzbio/motifscan/internal/merr"
)

// Region is a half-open, 0-based genomic interval, parsed from BED
// columns 1-3 (chromosome, start, end). Extra columns are ignored.
type Region struct {
	Chrom string
	Start int
	End   int
}

// ReadBED parses whitespace-separated BED lines from r. Blank lines are
// skipped; "track"/"browser" header lines and '#' comments are ignored,
// matching the leniency of the other hand-rolled tokenizers in this
// repo (see internal/meme and interval/bedunion.go's getTokens).
func ReadBED(r io.Reader) ([]Region, error) {
	var regions []Region
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, errors.Wrapf(merr.FormatError, "BED line %d: expected at least 3 columns, got %q", lineNo, line)
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrapf(merr.FormatError, "BED line %d: bad start %q", lineNo, fields[1])
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, errors.Wrapf(merr.FormatError, "BED line %d: bad end %q", lineNo, fields[2])
		}
		regions = append(regions, Region{Chrom: fields[0], Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read BED data")
	}
	return regions, nil
}

// Label returns the sequence-name label used for tabular output when
// scoring reads fetched for this region.
func (r Region) Label() string {
	return r.Chrom + ":" + strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}
