package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/evomics/promex/internal/annotation"
	"github.com/evomics/promex/internal/genome"
	"github.com/evomics/promex/internal/locus"
)

// PromoterWriter is the interface for writing extracted promoters.
type PromoterWriter interface {
	Write(p Promoter) error
	Flush() error
}

// Options configures a pipeline run.
type Options struct {
	Width         int64
	DefaultStrand annotation.Strand
	Filter        locus.Filter
	Workers       int // 0 means runtime.NumCPU()
}

// Report summarizes a pipeline run. Per-gene failures are collected
// here rather than aborting the run, so one malformed annotation
// entry never blocks extraction for the rest of the genome.
type Report struct {
	// Loci is the number of consolidated gene loci.
	Loci int
	// Extracted is the number of promoters written.
	Extracted int
	// DefaultedStrands counts records whose strand fell back to the default.
	DefaultedStrands int
	// Dropped lists genes rejected during consolidation.
	Dropped []locus.Dropped
	// Skipped lists genes rejected during extraction.
	Skipped []locus.Dropped
	// ComplementWarnings counts non-nucleotide symbols complemented as themselves.
	ComplementWarnings int64
}

// Pipeline wires strand resolution, locus consolidation and parallel
// extraction into one batch operation.
type Pipeline struct {
	opts   Options
	logger *zap.Logger
}

// NewPipeline creates a pipeline with the given options.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{opts: opts, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress and warning messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// skippable reports whether a per-gene extraction error should skip
// the gene rather than abort the run. Index corruption always aborts.
func skippable(err error) bool {
	if errors.Is(err, genome.ErrIndexCorrupt) {
		return false
	}
	return errors.Is(err, genome.ErrUnknownSequence) ||
		errors.Is(err, genome.ErrRangeOutOfBounds) ||
		errors.Is(err, genome.ErrInvalidRange)
}

// Run executes the batch: resolve strands, consolidate loci, fan the
// loci out over a worker pool against the shared genome reader, and
// stream the promoters to the writer in gene-id order. Cancellation is
// checked cooperatively between genes; on cancellation the context
// error is returned and the caller discards any partial output.
func (p *Pipeline) Run(ctx context.Context, records []*annotation.FeatureRecord, reader *genome.Reader, w PromoterWriter) (*Report, error) {
	if p.opts.Width < 0 {
		return nil, fmt.Errorf("%w: negative promoter width %d", locus.ErrInvalidConfiguration, p.opts.Width)
	}

	report := &Report{}

	defaulted, err := locus.ResolveStrands(records, p.opts.DefaultStrand)
	if err != nil {
		return nil, err
	}
	report.DefaultedStrands = defaulted
	if defaulted > 0 {
		p.logger.Info("defaulted undetermined strands",
			zap.Int("records", defaulted),
			zap.String("strand", p.opts.DefaultStrand.String()))
	}

	loci, dropped, err := locus.Consolidate(records, p.opts.Filter)
	if err != nil {
		return nil, err
	}
	report.Loci = len(loci)
	report.Dropped = dropped
	for _, d := range dropped {
		p.logger.Warn("dropped gene", zap.String("gene_id", d.GeneID), zap.Error(d.Reason))
	}

	extractor := NewExtractor(reader, p.opts.Width)
	extractor.SetLogger(p.logger)

	items := make(chan WorkItem, 2*max(p.opts.Workers, 1))
	go func() {
		defer close(items)
		for i, l := range loci {
			select {
			case items <- WorkItem{Seq: i, Locus: l}:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := extractor.ParallelExtract(items, p.opts.Workers)

	err = OrderedCollect(results, func(r WorkResult) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Err != nil {
			if !skippable(r.Err) {
				return r.Err
			}
			report.Skipped = append(report.Skipped, locus.Dropped{GeneID: r.Locus.GeneID, Reason: r.Err})
			p.logger.Warn("skipped gene", zap.String("gene_id", r.Locus.GeneID), zap.Error(r.Err))
			return nil
		}
		if err := w.Write(r.Promoter); err != nil {
			return fmt.Errorf("write promoter %s: %w", r.Promoter.GeneID, err)
		}
		report.Extracted++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.ComplementWarnings = extractor.Warnings()

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}

	p.logger.Info("extraction complete",
		zap.Int("loci", report.Loci),
		zap.Int("extracted", report.Extracted),
		zap.Int("dropped", len(report.Dropped)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int64("complement_warnings", report.ComplementWarnings))

	return report, nil
}
