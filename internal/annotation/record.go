// Package annotation provides genome annotation parsing functionality.
package annotation

// Strand is the orientation of a feature on its sequence.
type Strand int8

// Strand values. Unknown covers the "." and "?" annotation columns.
const (
	StrandUnknown Strand = 0
	StrandPlus    Strand = 1
	StrandMinus   Strand = -1
)

// String returns the annotation-column form of the strand.
func (s Strand) String() string {
	switch s {
	case StrandPlus:
		return "+"
	case StrandMinus:
		return "-"
	default:
		return "."
	}
}

// Determined returns true if the strand is Plus or Minus.
func (s Strand) Determined() bool {
	return s == StrandPlus || s == StrandMinus
}

// ParseStrand converts an annotation strand column to a Strand.
func ParseStrand(col string) Strand {
	switch col {
	case "+":
		return StrandPlus
	case "-":
		return StrandMinus
	default:
		return StrandUnknown
	}
}

// FeatureRecord is one normalized annotation entry. Coordinates are
// 1-based and inclusive with Start <= End. Records are value types and
// are never mutated after parsing, except for strand defaulting which
// happens before consolidation.
type FeatureRecord struct {
	SeqName     string // chromosome or contig id
	Source      string // annotation source program/database
	FeatureType string // e.g. "gene", "transcript", "exon"
	Start       int64
	End         int64
	Strand      Strand
	GeneID      string // empty when the attribute column carries none
	GeneBiotype string // e.g. "protein_coding"
}
