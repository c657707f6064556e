// Package bamdriver scans BAM reads (all of them, or only those
// overlapping a set of BED regions) against a set of motif matrices,
// accumulating hit/read counters and optionally passing through reads
// with at least one significant hit to an output archive.
//
// The BAM reader/writer/index library itself is an external
// collaborator kept out of this package's own abstractions; it binds
// the real github.com/grailbio/hts fork of github.com/biogo/hts rather
// than an unimplemented interface, grounded on
// encoding/bamprovider/bamprovider.go's Seek-to-index-offset idiom and
// the other_examples flagstat.go's plain Reader.Read loop.
package bamdriver

import (
	"context"
	"io"
	"math"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	htsbam "github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
	"github.com/quartzbio/motifscan/internal/merr"
	"github.com/quartzbio/motifscan/internal/motif"
	"github.com/quartzbio/motifscan/internal/region"
	"github.com/quartzbio/motifscan/internal/scan"
	"github.com/quartzbio/motifscan/internal/sink"
	"github.com/quartzbio/motifscan/internal/summary"
)

// Opts configures a Run call.
type Opts struct {
	// IndexPath overrides the default inPath+".bai". Only consulted when
	// Regions is non-empty.
	IndexPath string
	// Regions restricts the scan to reads overlapping these BED regions.
	// Empty means "iterate every read".
	Regions []region.Region
	// UnmappedOnly scores only unmapped reads.
	UnmappedOnly bool
	// Verbose prints significant hits to stdout in FIMO-style as they're
	// found.
	Verbose bool
	// OutputPath, if non-empty, receives a byte-identical copy of every
	// read that produced at least one significant hit.
	OutputPath string
}

// driver implements scan.Consumer; it is invoked synchronously by
// scan.Scan once per window while processRead holds curRead/curLabel/
// curSequence for the read currently being scored: single-threaded,
// sequential, no concurrent mutation of this state.
type driver struct {
	matrices []*motif.ScoreMatrix
	opts     Opts
	tab      *sink.Tabular
	out      *htsbam.Writer

	counters summary.Counters
	scratch  []byte

	curRead     *sam.Record
	curLabel    string
	curSequence string
}

// Run opens inPath, scans it against matrices per opts, and returns the
// accumulated Counters. All handles (input, index, output) are released
// on every exit path, and the output writer is flushed before the input
// is closed.
func Run(ctx context.Context, inPath string, matrices []*motif.ScoreMatrix, opts Opts) (summary.Counters, error) {
	d := &driver{matrices: matrices, opts: opts, counters: summary.Counters{UnmappedOnly: opts.UnmappedOnly}}

	in, err := file.Open(ctx, inPath)
	if err != nil {
		return d.counters, errors.Wrapf(merr.IoError, "open %s: %v", inPath, err)
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil {
			log.Error.Printf("closing %s: %v", inPath, cerr)
		}
	}()

	reader, err := htsbam.NewReader(in.Reader(ctx), 0)
	if err != nil {
		return d.counters, errors.Wrapf(merr.IoError, "read BAM header from %s: %v", inPath, err)
	}
	defer reader.Close()

	if opts.Verbose {
		d.tab = sink.NewTabular(os.Stdout)
	}

	var outHandle file.File
	if opts.OutputPath != "" {
		outHandle, err = file.Create(ctx, opts.OutputPath)
		if err != nil {
			return d.counters, errors.Wrapf(merr.IoError, "create %s: %v", opts.OutputPath, err)
		}
		d.out, err = htsbam.NewWriter(outHandle.Writer(ctx), reader.Header(), 0)
		if err != nil {
			if cerr := outHandle.Close(ctx); cerr != nil {
				log.Error.Printf("closing %s: %v", opts.OutputPath, cerr)
			}
			return d.counters, errors.Wrapf(merr.IoError, "write BAM header to %s: %v", opts.OutputPath, err)
		}
	}

	if len(opts.Regions) == 0 {
		err = d.scanAll(reader)
	} else {
		err = d.scanRegions(ctx, inPath, reader)
	}

	if d.tab != nil {
		if ferr := d.tab.Flush(); ferr != nil && err == nil {
			err = errors.Wrap(merr.IoError, ferr.Error())
		}
	}
	if d.out != nil {
		// Flush the passthrough writer before the input reader/handle is
		// closed by the deferred calls above.
		if cerr := d.out.Close(); cerr != nil && err == nil {
			err = errors.Wrap(merr.IoError, cerr.Error())
		}
		if cerr := outHandle.Close(ctx); cerr != nil && err == nil {
			err = errors.Wrap(merr.IoError, cerr.Error())
		}
	}
	return d.counters, err
}

func (d *driver) scanAll(reader *htsbam.Reader) error {
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(merr.IoError, err.Error())
		}
		d.processRead(rec, "")
	}
}

func (d *driver) scanRegions(ctx context.Context, inPath string, reader *htsbam.Reader) error {
	idxPath := d.opts.IndexPath
	if idxPath == "" {
		idxPath = inPath + ".bai"
	}
	idxHandle, err := file.Open(ctx, idxPath)
	if err != nil {
		return errors.Wrapf(merr.IoError, "open index %s: %v", idxPath, err)
	}
	defer func() {
		if cerr := idxHandle.Close(ctx); cerr != nil {
			log.Error.Printf("closing %s: %v", idxPath, cerr)
		}
	}()
	idx, err := htsbam.ReadIndex(idxHandle.Reader(ctx))
	if err != nil {
		return errors.Wrapf(merr.IndexError, "read index %s: %v", idxPath, err)
	}

	header := reader.Header()
	for _, rg := range d.opts.Regions {
		ref := findReference(header, rg.Chrom)
		if ref == nil {
			// Chromosome absent from the BAM: skip silently, no error,
			// counters unchanged.
			continue
		}
		chunks, err := idx.Chunks(ref, rg.Start, rg.End)
		if err == index.ErrInvalid || len(chunks) == 0 {
			continue
		}
		if err != nil {
			return errors.Wrapf(merr.IndexError, "region %s: %v", rg.Label(), err)
		}
		if err := reader.Seek(chunks[0].Begin); err != nil {
			return errors.Wrapf(merr.IndexError, "seek to region %s: %v", rg.Label(), err)
		}
		for {
			rec, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return errors.Wrap(merr.IoError, err.Error())
			}
			if rec.Ref == nil || rec.Ref.ID() != ref.ID() || rec.Pos >= rg.End {
				break
			}
			if rec.Pos+rec.Seq.Length <= rg.Start {
				continue
			}
			d.processRead(rec, rg.Label())
		}
	}
	return nil
}

func findReference(h *sam.Header, name string) *sam.Reference {
	for _, r := range h.Refs() {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// processRead scores a single read against every matrix, updating
// counters and optionally writing it through to the output archive.
func (d *driver) processRead(rec *sam.Record, regionLabel string) {
	d.counters.ReadCount++
	unmapped := rec.Flags&sam.Unmapped != 0
	if unmapped {
		d.counters.UnmappedCount++
	}
	if d.opts.UnmappedOnly && !unmapped {
		return
	}

	d.scratch = unpackSeq(rec.Seq, d.scratch)
	d.curSequence = string(d.scratch)
	d.curRead = rec
	if regionLabel != "" {
		d.curLabel = regionLabel
	} else {
		d.curLabel = rec.Name
	}

	pre := d.counters.TotalHitCount
	for _, m := range d.matrices {
		scan.Scan(m, d.curLabel, d.curSequence, d)
	}
	if d.counters.TotalHitCount > pre {
		d.counters.ReadHitCount++
		if unmapped {
			d.counters.UnmappedHitCount++
		}
		if d.out != nil {
			if err := d.out.Write(rec); err != nil {
				log.Error.Printf("writing passthrough read %s: %v", rec.Name, err)
			}
		}
	}
}

// Accept implements scan.Consumer. Only scores with pvalue below
// sink.SignificanceThreshold count as hits.
func (d *driver) Accept(matrixName, sequenceName string, start, stop int, score scan.Score, reverseComplement bool) {
	if math.IsNaN(score.Pvalue) || score.Pvalue >= sink.SignificanceThreshold {
		return
	}
	d.counters.TotalHitCount++
	if !d.opts.Verbose {
		return
	}
	// read.pos is meaningless for an unmapped read; substitute 0.
	pos := 0
	if d.curRead.Flags&sam.Unmapped == 0 {
		pos = d.curRead.Pos
	}
	d.tab.WriteHit(matrixName, sequenceName, pos+start, pos+stop, score, reverseComplement, d.curSequence[start-1:stop])
}

// unpackSeq decodes seq's packed 4-bit bases via sam.Seq.Expand, copying
// into buf's backing array when it's already large enough, since read
// lengths are typically constant within a BAM file.
func unpackSeq(seq sam.Seq, buf []byte) []byte {
	expanded := seq.Expand()
	if cap(buf) < len(expanded) {
		buf = make([]byte, len(expanded))
	} else {
		buf = buf[:len(expanded)]
	}
	copy(buf, expanded)
	return buf
}
