// Package output provides promoter sequence output formatters.
package output

import (
	"bufio"
	"io"

	"github.com/evomics/promex/internal/extract"
)

// LineWidth is the column at which sequence lines wrap.
const LineWidth = 60

// FASTAWriter writes extracted promoters as FASTA records, one per
// gene, with the gene id as the record label. Zero-length sequences
// emit the header line only, so downstream consumers still see one
// record per requested gene.
type FASTAWriter struct {
	w *bufio.Writer
}

// NewFASTAWriter creates a FASTA writer.
func NewFASTAWriter(w io.Writer) *FASTAWriter {
	return &FASTAWriter{w: bufio.NewWriter(w)}
}

// Write writes a single promoter record.
func (fw *FASTAWriter) Write(p extract.Promoter) error {
	if err := fw.w.WriteByte('>'); err != nil {
		return err
	}
	if _, err := fw.w.WriteString(p.GeneID); err != nil {
		return err
	}
	if err := fw.w.WriteByte('\n'); err != nil {
		return err
	}

	for start := 0; start < len(p.Seq); start += LineWidth {
		end := start + LineWidth
		if end > len(p.Seq) {
			end = len(p.Seq)
		}
		if _, err := fw.w.WriteString(p.Seq[start:end]); err != nil {
			return err
		}
		if err := fw.w.WriteByte('\n'); err != nil {
			return err
		}
	}

	return nil
}

// Flush flushes buffered output.
func (fw *FASTAWriter) Flush() error {
	return fw.w.Flush()
}
