package locus

import (
	"fmt"
	"sort"

	"github.com/evomics/promex/internal/annotation"
)

// Default filter values for promoter extraction.
const (
	DefaultFeatureType = "gene"
	DefaultGeneBiotype = "protein_coding"
)

// Filter selects which feature records qualify for consolidation.
// Zero-valued fields fall back to the defaults above; an empty Sources
// slice admits every annotation source.
type Filter struct {
	FeatureType string
	GeneBiotype string
	Sources     []string
}

func (f Filter) featureType() string {
	if f.FeatureType == "" {
		return DefaultFeatureType
	}
	return f.FeatureType
}

func (f Filter) geneBiotype() string {
	if f.GeneBiotype == "" {
		return DefaultGeneBiotype
	}
	return f.GeneBiotype
}

func (f Filter) matches(r *annotation.FeatureRecord) bool {
	if r.FeatureType != f.featureType() {
		return false
	}
	if r.GeneBiotype != f.geneBiotype() {
		return false
	}
	if len(f.Sources) == 0 {
		return true
	}
	for _, s := range f.Sources {
		if r.Source == s {
			return true
		}
	}
	return false
}

// Consolidate filters records and collapses them into one GeneLocus per
// gene_id. The locus span is the minimum start and maximum end over the
// gene's records. Records for one gene must agree on chromosome and on
// resolved strand; a gene that does not is dropped and reported, never
// fatal to the run. A retained record without a gene_id is fatal.
//
// The returned loci are sorted by gene_id so consolidation output is
// stable within a run regardless of input order.
func Consolidate(records []*annotation.FeatureRecord, filter Filter) ([]GeneLocus, []Dropped, error) {
	groups := make(map[string][]*annotation.FeatureRecord)
	for _, r := range records {
		if !filter.matches(r) {
			continue
		}
		if r.GeneID == "" {
			return nil, nil, fmt.Errorf("%w: %s feature at %s:%d-%d",
				ErrMissingGeneID, r.FeatureType, r.SeqName, r.Start, r.End)
		}
		groups[r.GeneID] = append(groups[r.GeneID], r)
	}

	loci := make([]GeneLocus, 0, len(groups))
	var dropped []Dropped

	for id, group := range groups {
		l, err := consolidateGroup(id, group)
		if err != nil {
			dropped = append(dropped, Dropped{GeneID: id, Reason: err})
			continue
		}
		loci = append(loci, l)
	}

	sort.Slice(loci, func(i, j int) bool { return loci[i].GeneID < loci[j].GeneID })
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].GeneID < dropped[j].GeneID })

	return loci, dropped, nil
}

// consolidateGroup collapses one gene's records into a locus, verifying
// they agree on chromosome and strand.
func consolidateGroup(id string, group []*annotation.FeatureRecord) (GeneLocus, error) {
	first := group[0]
	l := GeneLocus{
		GeneID:  id,
		SeqName: first.SeqName,
		Start:   first.Start,
		End:     first.End,
		Strand:  first.Strand,
	}

	for _, r := range group {
		if r.SeqName != l.SeqName {
			return GeneLocus{}, fmt.Errorf("%w: gene %s spans sequences %s and %s",
				ErrInconsistentLocus, id, l.SeqName, r.SeqName)
		}
		if r.Strand != l.Strand {
			return GeneLocus{}, fmt.Errorf("%w: gene %s has features on both strands",
				ErrInconsistentLocus, id)
		}
		if !r.Strand.Determined() {
			return GeneLocus{}, fmt.Errorf("%w: gene %s has an unresolved strand",
				ErrInconsistentLocus, id)
		}
		if r.Start < l.Start {
			l.Start = r.Start
		}
		if r.End > l.End {
			l.End = r.End
		}
	}

	return l, nil
}
