// Package extract computes and retrieves upstream promoter sequences.
package extract

import (
	"fmt"

	"github.com/evomics/promex/internal/annotation"
	"github.com/evomics/promex/internal/locus"
)

// Window is the upstream interval of one gene, 1-based and inclusive.
// The empty window is encoded Start = End+1; it is a valid result for
// genes flush against a chromosome boundary or a width of zero.
type Window struct {
	GeneID  string
	SeqName string
	Start   int64
	End     int64
	Strand  annotation.Strand
}

// Len returns the number of bases in the window.
func (w Window) Len() int64 {
	return w.End - w.Start + 1
}

// UpstreamWindow computes the promoter window of a locus: the width
// bases immediately 5' of the transcription start site. The window is
// clipped at the sequence boundary, never extended past it or wrapped,
// so it may be shorter than width or empty.
func UpstreamWindow(l locus.GeneLocus, width, seqLen int64) (Window, error) {
	if width < 0 {
		return Window{}, fmt.Errorf("%w: negative promoter width %d", locus.ErrInvalidConfiguration, width)
	}
	if seqLen == 0 {
		return Window{}, fmt.Errorf("%w: zero-length sequence %s", locus.ErrInvalidConfiguration, l.SeqName)
	}

	w := Window{
		GeneID:  l.GeneID,
		SeqName: l.SeqName,
		Strand:  l.Strand,
	}

	switch l.Strand {
	case annotation.StrandPlus:
		w.End = l.Start - 1
		w.Start = l.Start - width
		if w.Start < 1 {
			w.Start = 1
		}
		if w.Start > w.End {
			w.Start = w.End + 1 // empty
		}
	case annotation.StrandMinus:
		w.Start = l.End + 1
		w.End = l.End + width
		if w.End > seqLen {
			w.End = seqLen
		}
		if w.End < w.Start {
			w.End = w.Start - 1 // empty
		}
	default:
		return Window{}, fmt.Errorf("%w: locus %s has no resolved strand", locus.ErrInvalidConfiguration, l.GeneID)
	}

	return w, nil
}
