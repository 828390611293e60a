package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/evomics/promex/internal/annotation"
	"github.com/evomics/promex/internal/extract"
	"github.com/evomics/promex/internal/genome"
	"github.com/evomics/promex/internal/locus"
	"github.com/evomics/promex/internal/output"
)

func newExtractCmd() *cobra.Command {
	var (
		genomePath       string
		annotationPath   string
		annotationFormat string
		width            int64
		defaultStrand    string
		organism         string
		sources          []string
		outputPath       string
		workers          int
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract promoter sequences for all protein-coding genes",
		Example: `  promex extract --genome genome.fa --annotation genes.gtf --organism "house mouse"
  promex extract --genome genome.fa --annotation genes.gff3 --annotation-format gff3 \
      --width 500 -o promoters.fa
  promex extract --genome genome.fa --annotation genes.gtf --sources ensembl,havana \
      --organism "baker's yeast"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			logger := newLogger(verbose)
			defer logger.Sync()

			if !cmd.Flags().Changed("width") {
				width = viper.GetInt64("defaults.width")
			}
			if !cmd.Flags().Changed("workers") {
				workers = viper.GetInt("defaults.workers")
			}

			return runExtract(cmd.Context(), extractConfig{
				genomePath:       genomePath,
				annotationPath:   annotationPath,
				annotationFormat: annotationFormat,
				width:            width,
				defaultStrand:    defaultStrand,
				organism:         organism,
				sources:          sources,
				outputPath:       outputPath,
				workers:          workers,
			}, logger)
		},
	}

	cmd.Flags().StringVarP(&genomePath, "genome", "g", "", "Genome FASTA file (required)")
	cmd.Flags().StringVarP(&annotationPath, "annotation", "a", "", "Annotation file (required)")
	cmd.Flags().StringVar(&annotationFormat, "annotation-format", "gtf", "Annotation format: gtf, gff or gff3")
	cmd.Flags().Int64VarP(&width, "width", "w", 1000, "Promoter width in bases upstream of the TSS")
	cmd.Flags().StringVar(&defaultStrand, "default-strand", "+", "Strand to assume for features without one: + or -")
	cmd.Flags().StringVar(&organism, "organism", "", "Organism label, used for the default output name")
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "Annotation sources to keep (default: all)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output FASTA file (default: derived from organism and width)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Extraction worker count (default: number of CPUs)")

	cmd.MarkFlagRequired("genome")
	cmd.MarkFlagRequired("annotation")

	return cmd
}

// extractConfig carries the validated run inputs.
type extractConfig struct {
	genomePath       string
	annotationPath   string
	annotationFormat string
	width            int64
	defaultStrand    string
	organism         string
	sources          []string
	outputPath       string
	workers          int
}

// defaultOutputName derives the output path from the organism label
// and promoter width.
func defaultOutputName(organism string, width int64) string {
	label := strings.Join(strings.Fields(organism), "_")
	return fmt.Sprintf("%s_all_genes_promotor_seqs_%d.fa", label, width)
}

func runExtract(ctx context.Context, cfg extractConfig, logger *zap.Logger) error {
	// Configuration errors are reported before any work begins.
	format, err := annotation.ParseFormat(cfg.annotationFormat)
	if err != nil {
		return err
	}
	if cfg.width <= 0 {
		return fmt.Errorf("%w: promoter width must be positive, got %d", locus.ErrInvalidConfiguration, cfg.width)
	}
	strand := annotation.ParseStrand(cfg.defaultStrand)
	if !strand.Determined() {
		return fmt.Errorf("%w: default strand must be + or -, got %q", locus.ErrInvalidConfiguration, cfg.defaultStrand)
	}
	if cfg.outputPath == "" && cfg.organism == "" {
		return fmt.Errorf("%w: either --organism or --output is required", locus.ErrInvalidConfiguration)
	}
	for _, path := range []string{cfg.genomePath, cfg.annotationPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", locus.ErrInvalidConfiguration, err)
		}
	}

	outPath := cfg.outputPath
	if outPath == "" {
		outPath = defaultOutputName(cfg.organism, cfg.width)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := readAnnotation(cfg.annotationPath, format)
	if err != nil {
		return err
	}
	logger.Info("parsed annotation",
		zap.String("path", cfg.annotationPath),
		zap.Int("records", len(records)))

	reader, built, err := genome.Open(cfg.genomePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	if built {
		faiPath := genome.IndexPath(cfg.genomePath)
		if err := reader.Index().Save(faiPath); err != nil {
			// The run can finish with the in-memory index.
			logger.Warn("could not save genome index", zap.String("path", faiPath), zap.Error(err))
		} else {
			logger.Info("built genome index", zap.String("path", faiPath))
		}
	}
	logger.Info("genome indexed",
		zap.String("path", cfg.genomePath),
		zap.Int("sequences", reader.Index().Len()))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file %s: %w", outPath, err)
	}

	pipeline := extract.NewPipeline(extract.Options{
		Width:         cfg.width,
		DefaultStrand: strand,
		Filter:        locus.Filter{Sources: cfg.sources},
		Workers:       cfg.workers,
	})
	pipeline.SetLogger(logger)

	report, err := pipeline.Run(ctx, records, reader, output.NewFASTAWriter(out))
	if err != nil {
		out.Close()
		// Partial output is discarded, never left behind.
		os.Remove(outPath)
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("extraction aborted, removed partial output %s", outPath)
		}
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output file %s: %w", outPath, err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %d promoter sequences to %s\n", report.Extracted, outPath)
	if n := len(report.Dropped) + len(report.Skipped); n > 0 {
		fmt.Fprintf(os.Stderr, "Dropped %d genes:\n", n)
		for _, d := range append(report.Dropped, report.Skipped...) {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", d.GeneID, d.Reason)
		}
	}

	return nil
}

// readAnnotation parses the whole annotation file into memory.
func readAnnotation(path string, format annotation.Format) ([]*annotation.FeatureRecord, error) {
	parser, err := annotation.NewParser(path, format)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	var records []*annotation.FeatureRecord
	for {
		rec, err := parser.Next()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if rec == nil {
			return records, nil
		}
		records = append(records, rec)
	}
}
