package locus

import (
	"fmt"

	"github.com/evomics/promex/internal/annotation"
)

// ResolveStrands replaces every Unknown strand in records with the
// given default. The default must itself be a determined strand.
// Resolution is a uniform fallback: it never infers strand from other
// records for the same gene, even when those carry determined values.
// Returns the number of records that were defaulted.
func ResolveStrands(records []*annotation.FeatureRecord, def annotation.Strand) (int, error) {
	if !def.Determined() {
		return 0, fmt.Errorf("%w: default strand must be + or -, got %q", ErrInvalidConfiguration, def)
	}

	defaulted := 0
	for _, r := range records {
		if r.Strand == annotation.StrandUnknown {
			r.Strand = def
			defaulted++
		}
	}
	return defaulted, nil
}
