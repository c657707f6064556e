// Package meme parses the MEME "minimal" motif format: a background
// frequency line, and one or more MOTIF blocks each carrying a
// letter-probability matrix.
package meme

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/quartzbio/motifscan/internal/merr"
)

// Background is a length-4 array of non-negative frequencies for A, C, G,
// T summing to 1.0.
type Background [4]float64

// Uniform is the default background used when no -b/--background file is
// given.
var Uniform = Background{0.25, 0.25, 0.25, 0.25}

// RawMotif is a motif as parsed from the file, before pseudocount
// adjustment or scaling.
type RawMotif struct {
	Name   string
	NSites float64
	// Rows holds one [4]float64 of raw probabilities/counts per motif
	// position, in A, C, G, T column order.
	Rows [][4]float64
}

// Width returns the motif width (number of rows).
func (m RawMotif) Width() int { return len(m.Rows) }

const bgDirective = "Background letter frequencies"
const motifDirective = "MOTIF"
const matrixDirective = "letter-probability matrix:"

// Parse reads a MEME minimal-format stream and returns every motif it
// declares, along with the background frequencies if the file declares
// one (otherwise Uniform).
func Parse(r io.Reader) ([]RawMotif, Background, error) {
	bg := Uniform
	bgSeen := false
	var motifs []RawMotif

	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1024*1024)
	var cur *RawMotif
	rowsWanted := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, bgDirective):
			b, err := scanBackgroundLine(scanner)
			if err != nil {
				return nil, bg, err
			}
			bg = b
			bgSeen = true
		case strings.HasPrefix(line, motifDirective):
			if cur != nil {
				if len(cur.Rows) != rowsWanted {
					return nil, bg, errors.Wrapf(merr.FormatError, "motif %s: declared width %d but got %d rows", cur.Name, rowsWanted, len(cur.Rows))
				}
				motifs = append(motifs, *cur)
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, bg, errors.Wrap(merr.FormatError, "MOTIF line missing a name")
			}
			cur = &RawMotif{Name: fields[1]}
			rowsWanted = 0
		case strings.HasPrefix(line, matrixDirective):
			w, nsites, err := parseMatrixHeader(line)
			if err != nil {
				return nil, bg, err
			}
			if cur == nil {
				return nil, bg, errors.Wrap(merr.FormatError, "letter-probability matrix with no preceding MOTIF")
			}
			cur.NSites = nsites
			rowsWanted = w
			cur.Rows = make([][4]float64, 0, w)
		case rowsWanted > 0 && len(cur.Rows) < rowsWanted:
			row, err := parseRow(line)
			if err != nil {
				return nil, bg, err
			}
			cur.Rows = append(cur.Rows, row)
		default:
			// MEME version header, URL, comments: ignored.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, bg, errors.Wrap(err, "couldn't read MEME data")
	}
	if cur != nil {
		if len(cur.Rows) != rowsWanted {
			return nil, bg, errors.Wrapf(merr.FormatError, "motif %s: declared width %d but got %d rows", cur.Name, rowsWanted, len(cur.Rows))
		}
		motifs = append(motifs, *cur)
	}
	_ = bgSeen
	return motifs, bg, nil
}

// ReadBackground parses a background-only file: the same
// "Background letter frequencies" directive and pairs line, with no
// motifs.
func ReadBackground(r io.Reader) (Background, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, bgDirective) {
			return scanBackgroundLine(scanner)
		}
	}
	if err := scanner.Err(); err != nil {
		return Uniform, errors.Wrap(err, "couldn't read background file")
	}
	return Uniform, errors.Wrap(merr.FormatError, "no background letter frequencies found")
}

// scanBackgroundLine consumes scanner lines until it finds the
// non-blank pairs line following the directive, and parses it.
func scanBackgroundLine(scanner *bufio.Scanner) (Background, error) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return parseBackgroundPairs(line)
	}
	if err := scanner.Err(); err != nil {
		return Uniform, errors.Wrap(err, "couldn't read background line")
	}
	return Uniform, errors.Wrap(merr.FormatError, "missing background letter frequencies pairs line")
}

func parseBackgroundPairs(line string) (Background, error) {
	fields := strings.Fields(line)
	if len(fields) != 8 {
		return Uniform, errors.Wrapf(merr.FormatError, "expected 4 letter/value pairs, got %q", line)
	}
	var bg Background
	sum := 0.0
	for i := 0; i < 8; i += 2 {
		letter := strings.ToUpper(fields[i])
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Uniform, errors.Wrapf(merr.FormatError, "bad background value %q", fields[i+1])
		}
		if v <= 0 {
			return Uniform, errors.Wrapf(merr.FormatError, "background frequency for %s must be positive, got %v", letter, v)
		}
		idx, ok := baseOrder[letter]
		if !ok {
			return Uniform, errors.Wrapf(merr.FormatError, "unknown background letter %q", letter)
		}
		bg[idx] = v
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-3 {
		return Uniform, errors.Wrapf(merr.FormatError, "background frequencies sum to %v, want 1.0", sum)
	}
	return bg, nil
}

var baseOrder = map[string]int{"A": 0, "C": 1, "G": 2, "T": 3}

func parseMatrixHeader(line string) (w int, nsites float64, err error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, matrixDirective))
	fields := strings.Fields(rest)
	w, nsites = -1, -1
	for _, f := range fields {
		kv := strings.SplitN(f, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "alength":
			n, perr := strconv.Atoi(kv[1])
			if perr != nil || n != 4 {
				return 0, 0, errors.Wrapf(merr.UnsupportedAlphabet, "alength=%s", kv[1])
			}
		case "w":
			n, perr := strconv.Atoi(kv[1])
			if perr != nil || n <= 0 {
				return 0, 0, errors.Wrapf(merr.FormatError, "bad width %q", kv[1])
			}
			w = n
		case "nsites":
			n, perr := strconv.ParseFloat(kv[1], 64)
			if perr != nil || n < 1 {
				return 0, 0, errors.Wrapf(merr.FormatError, "bad nsites %q", kv[1])
			}
			nsites = n
		}
	}
	if w < 0 {
		return 0, 0, errors.Wrap(merr.FormatError, "letter-probability matrix missing w=")
	}
	if nsites < 0 {
		nsites = 20 // MEME default when nsites is omitted.
	}
	return w, nsites, nil
}

func parseRow(line string) ([4]float64, error) {
	var row [4]float64
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return row, errors.Wrapf(merr.FormatError, "expected 4 values in PWM row, got %q", line)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return row, errors.Wrapf(merr.FormatError, "bad PWM value %q", f)
		}
		row[i] = v
	}
	return row, nil
}
