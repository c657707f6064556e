// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
motifscan scans a FASTA or BAM sequence source for occurrences of a
MEME-format DNA motif, reporting matches whose p-value beats a fixed
significance threshold.
*/

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/pkg/errors"
	"github.com/quartzbio/motifscan/internal/bamdriver"
	"github.com/quartzbio/motifscan/internal/fastadriver"
	"github.com/quartzbio/motifscan/internal/meme"
	"github.com/quartzbio/motifscan/internal/merr"
	"github.com/quartzbio/motifscan/internal/motif"
	"github.com/quartzbio/motifscan/internal/region"
	"github.com/quartzbio/motifscan/internal/sink"
)

var (
	backgroundPath = flag.String("b", "", "MEME-style background file; default uniform")
	outputPath     = flag.String("o", "", "Output path; tabular for FASTA input, binary aligned archive for BAM input")
	regionPath     = flag.String("r", "", "BED regions; valid only with BAM input")
	unmappedOnly   = flag.Bool("u", false, "Score only unmapped reads (BAM only)")
	verbose        = flag.Bool("v", false, "Emit per-hit tabular lines to standard output")
	help           = flag.Bool("h", false, "Usage")
)

func init() {
	flag.StringVar(backgroundPath, "background", "", "alias of -b")
	flag.StringVar(outputPath, "output", "", "alias of -o")
	flag.StringVar(regionPath, "region", "", "alias of -r")
	flag.BoolVar(unmappedOnly, "unmapped-only", false, "alias of -u")
	flag.BoolVar(verbose, "verbose", false, "alias of -v")
	flag.BoolVar(help, "help", false, "alias of -h")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] <motif_file> <sequence_file>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	if *help {
		flag.Usage()
		return errors.Wrap(merr.UsageError, "usage requested")
	}
	if flag.NArg() != 2 {
		flag.Usage()
		return errors.Wrapf(merr.UsageError, "expected exactly 2 positional arguments (motif_file, sequence_file), got %d", flag.NArg())
	}
	motifPath := flag.Arg(0)
	seqPath := flag.Arg(1)

	isBAM, err := inputKind(seqPath)
	if err != nil {
		return err
	}
	if *regionPath != "" && !isBAM {
		return errors.Wrap(merr.UsageError, "-r/--region is only valid with a .bam sequence file")
	}

	bg := meme.Uniform
	if *backgroundPath != "" {
		bg, err = readBackground(*backgroundPath)
		if err != nil {
			return err
		}
	}

	matrices, err := loadMatrices(motifPath, bg)
	if err != nil {
		return err
	}

	if isBAM {
		return runBAM(seqPath, matrices)
	}
	return runFASTA(seqPath, matrices)
}

// inputKind infers the sequence-source kind from seqPath's extension;
// any extension other than .bam or .fasta is a usage error.
func inputKind(seqPath string) (isBAM bool, err error) {
	switch strings.ToLower(filepath.Ext(seqPath)) {
	case ".bam":
		return true, nil
	case ".fasta":
		return false, nil
	default:
		return false, errors.Wrapf(merr.UsageError, "unrecognized sequence file extension %q (want .bam or .fasta)", seqPath)
	}
}

func readBackground(path string) (meme.Background, error) {
	f, err := os.Open(path)
	if err != nil {
		return meme.Uniform, errors.Wrapf(merr.IoError, "open background %s: %v", path, err)
	}
	defer f.Close()
	return meme.ReadBackground(f)
}

// loadMatrices parses motifPath and builds a forward+reverse-complement
// ScoreMatrix pair for every motif it declares.
func loadMatrices(motifPath string, bg meme.Background) ([]*motif.ScoreMatrix, error) {
	f, err := os.Open(motifPath)
	if err != nil {
		return nil, errors.Wrapf(merr.IoError, "open motif file %s: %v", motifPath, err)
	}
	defer f.Close()

	rawMotifs, fileBg, err := meme.Parse(f)
	if err != nil {
		return nil, err
	}
	if len(rawMotifs) == 0 {
		return nil, errors.Wrapf(merr.FormatError, "%s: no MOTIF declarations found", motifPath)
	}
	if *backgroundPath == "" {
		bg = fileBg
	}

	var matrices []*motif.ScoreMatrix
	for _, rm := range rawMotifs {
		built, err := motif.Build(rm, bg, motif.DefaultPseudoSites, true)
		if err != nil {
			return nil, err
		}
		matrices = append(matrices, built...)
	}
	return matrices, nil
}

func runFASTA(seqPath string, matrices []*motif.ScoreMatrix) error {
	f, err := os.Open(seqPath)
	if err != nil {
		return errors.Wrapf(merr.IoError, "open %s: %v", seqPath, err)
	}
	defer f.Close()

	ctx := vcontext.Background()
	out := io.Writer(os.Stdout)
	if *outputPath != "" {
		created, err := file.Create(ctx, *outputPath)
		if err != nil {
			return errors.Wrapf(merr.IoError, "create %s: %v", *outputPath, err)
		}
		defer func() {
			if cerr := created.Close(ctx); cerr != nil {
				log.Error.Printf("closing %s: %v", *outputPath, cerr)
			}
		}()
		out = created.Writer(ctx)
	}
	tab := sink.NewTabular(out)
	defer func() {
		if ferr := tab.Flush(); ferr != nil {
			log.Error.Printf("flushing output: %v", ferr)
		}
	}()

	return fastadriver.Run(f, matrices, tab)
}

func runBAM(seqPath string, matrices []*motif.ScoreMatrix) error {
	var regions []region.Region
	if *regionPath != "" {
		rf, err := os.Open(*regionPath)
		if err != nil {
			return errors.Wrapf(merr.IoError, "open region file %s: %v", *regionPath, err)
		}
		regions, err = region.ReadBED(rf)
		rf.Close()
		if err != nil {
			return err
		}
	}

	ctx := vcontext.Background()
	counters, err := bamdriver.Run(ctx, seqPath, matrices, bamdriver.Opts{
		Regions:      regions,
		UnmappedOnly: *unmappedOnly,
		Verbose:      *verbose,
		OutputPath:   *outputPath,
	})
	counters.Write(os.Stdout)
	return err
}
