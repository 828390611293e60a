package extract

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/evomics/promex/internal/annotation"
	"github.com/evomics/promex/internal/genome"
	"github.com/evomics/promex/internal/locus"
)

// Promoter is one extracted upstream sequence. GeneID is used verbatim
// as the output record label; Seq reads 5' to 3' relative to the
// gene's strand and may be empty.
type Promoter struct {
	GeneID string
	Seq    string
}

// Extractor fetches and orients the upstream sequence of gene loci.
// It is safe for concurrent use: the genome reader is read-only and
// the warning counter is atomic.
type Extractor struct {
	reader   *genome.Reader
	width    int64
	logger   *zap.Logger
	warnings atomic.Int64
}

// NewExtractor creates an extractor for the given promoter width.
func NewExtractor(r *genome.Reader, width int64) *Extractor {
	return &Extractor{
		reader: r,
		width:  width,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning messages.
func (e *Extractor) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Warnings returns the number of non-nucleotide symbols encountered
// while complementing minus-strand windows.
func (e *Extractor) Warnings() int64 {
	return e.warnings.Load()
}

// Extract computes the locus's upstream window, fetches it from the
// genome and orients it. An empty window yields a Promoter with an
// empty Seq, not an error, so every requested gene produces a record.
func (e *Extractor) Extract(l locus.GeneLocus) (Promoter, error) {
	entry, ok := e.reader.Index().Entry(l.SeqName)
	if !ok {
		return Promoter{}, fmt.Errorf("%w: %q (gene %s)", genome.ErrUnknownSequence, l.SeqName, l.GeneID)
	}

	w, err := UpstreamWindow(l, e.width, entry.Length)
	if err != nil {
		return Promoter{}, err
	}

	seq, err := e.reader.Fetch(w.SeqName, w.Start, w.End)
	if err != nil {
		return Promoter{}, fmt.Errorf("fetch %s:%d-%d for gene %s: %w", w.SeqName, w.Start, w.End, l.GeneID, err)
	}

	if w.Strand == annotation.StrandMinus {
		rc, unknown := ReverseComplement(seq)
		if unknown > 0 {
			e.warnings.Add(int64(unknown))
			e.logger.Warn("non-nucleotide symbols in promoter window",
				zap.String("gene_id", l.GeneID),
				zap.Int("count", unknown))
		}
		seq = rc
	}

	return Promoter{GeneID: l.GeneID, Seq: seq}, nil
}
