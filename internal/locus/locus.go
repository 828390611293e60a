// Package locus consolidates annotation features into per-gene loci.
package locus

import (
	"errors"

	"github.com/evomics/promex/internal/annotation"
)

// Sentinel errors for locus construction.
var (
	// ErrInvalidConfiguration indicates a bad resolver or filter argument.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrMissingGeneID indicates a retained feature without a gene_id.
	ErrMissingGeneID = errors.New("feature record missing gene_id")
	// ErrInconsistentLocus indicates a gene whose features disagree on
	// chromosome or strand.
	ErrInconsistentLocus = errors.New("inconsistent gene locus")
)

// GeneLocus is the consolidated genomic span of one gene. Coordinates
// are 1-based and inclusive. Strand is always Plus or Minus; strand
// resolution happens before consolidation.
type GeneLocus struct {
	GeneID  string
	SeqName string
	Start   int64
	End     int64
	Strand  annotation.Strand
}

// Dropped records a gene rejected during consolidation, with the
// reason it was rejected. Dropped genes do not abort the run.
type Dropped struct {
	GeneID string
	Reason error
}
