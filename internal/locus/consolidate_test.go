package locus

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evomics/promex/internal/annotation"
)

func gene(id, seqName string, start, end int64, strand annotation.Strand) *annotation.FeatureRecord {
	return &annotation.FeatureRecord{
		SeqName:     seqName,
		Source:      "ensembl",
		FeatureType: "gene",
		Start:       start,
		End:         end,
		Strand:      strand,
		GeneID:      id,
		GeneBiotype: "protein_coding",
	}
}

func TestConsolidateBasic(t *testing.T) {
	records := []*annotation.FeatureRecord{
		gene("G2", "chr1", 500, 900, annotation.StrandMinus),
		gene("G1", "chr1", 100, 200, annotation.StrandPlus),
		gene("G1", "chr1", 150, 300, annotation.StrandPlus),
	}

	loci, dropped, err := Consolidate(records, Filter{})
	require.NoError(t, err)
	assert.Empty(t, dropped)
	require.Len(t, loci, 2)

	// Sorted by gene id, spans merged by min start and max end.
	assert.Equal(t, GeneLocus{GeneID: "G1", SeqName: "chr1", Start: 100, End: 300, Strand: annotation.StrandPlus}, loci[0])
	assert.Equal(t, GeneLocus{GeneID: "G2", SeqName: "chr1", Start: 500, End: 900, Strand: annotation.StrandMinus}, loci[1])
}

func TestConsolidateFilters(t *testing.T) {
	records := []*annotation.FeatureRecord{
		gene("G1", "chr1", 100, 200, annotation.StrandPlus),
		{SeqName: "chr1", Source: "ensembl", FeatureType: "exon", Start: 100, End: 150, Strand: annotation.StrandPlus, GeneID: "G1", GeneBiotype: "protein_coding"},
		{SeqName: "chr1", Source: "ensembl", FeatureType: "gene", Start: 300, End: 400, Strand: annotation.StrandPlus, GeneID: "G2", GeneBiotype: "lncRNA"},
		{SeqName: "chr1", Source: "havana", FeatureType: "gene", Start: 500, End: 600, Strand: annotation.StrandPlus, GeneID: "G3", GeneBiotype: "protein_coding"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"defaults admit every source", Filter{}, []string{"G1", "G3"}},
		{"source allow-set", Filter{Sources: []string{"ensembl"}}, []string{"G1"}},
		{"other biotype", Filter{GeneBiotype: "lncRNA"}, []string{"G2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loci, dropped, err := Consolidate(records, tt.filter)
			require.NoError(t, err)
			assert.Empty(t, dropped)

			got := make([]string, len(loci))
			for i, l := range loci {
				got[i] = l.GeneID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsolidateMissingGeneID(t *testing.T) {
	records := []*annotation.FeatureRecord{
		gene("G1", "chr1", 100, 200, annotation.StrandPlus),
		{SeqName: "chr1", Source: "ensembl", FeatureType: "gene", Start: 300, End: 400, Strand: annotation.StrandPlus, GeneBiotype: "protein_coding"},
	}

	_, _, err := Consolidate(records, Filter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingGeneID)
}

func TestConsolidateInconsistentLocus(t *testing.T) {
	tests := []struct {
		name    string
		records []*annotation.FeatureRecord
	}{
		{
			"sequence mismatch",
			[]*annotation.FeatureRecord{
				gene("G3", "chr1", 100, 200, annotation.StrandPlus),
				gene("G3", "chr2", 100, 200, annotation.StrandPlus),
			},
		},
		{
			"strand mismatch",
			[]*annotation.FeatureRecord{
				gene("G3", "chr1", 100, 200, annotation.StrandPlus),
				gene("G3", "chr1", 150, 250, annotation.StrandMinus),
			},
		},
		{
			"unresolved strand",
			[]*annotation.FeatureRecord{
				gene("G3", "chr1", 100, 200, annotation.StrandUnknown),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := append(tt.records, gene("OK", "chr1", 500, 600, annotation.StrandPlus))

			loci, dropped, err := Consolidate(records, Filter{})
			require.NoError(t, err, "inconsistent loci must not abort the run")

			require.Len(t, dropped, 1)
			assert.Equal(t, "G3", dropped[0].GeneID)
			assert.ErrorIs(t, dropped[0].Reason, ErrInconsistentLocus)

			// The valid gene survives.
			require.Len(t, loci, 1)
			assert.Equal(t, "OK", loci[0].GeneID)
		})
	}
}

func TestConsolidateOrderIndependent(t *testing.T) {
	base := []*annotation.FeatureRecord{
		gene("G1", "chr1", 100, 200, annotation.StrandPlus),
		gene("G1", "chr1", 150, 300, annotation.StrandPlus),
		gene("G2", "chr2", 50, 80, annotation.StrandMinus),
		gene("G3", "chr1", 400, 900, annotation.StrandPlus),
		gene("G3", "chr1", 350, 600, annotation.StrandPlus),
	}

	want, dropped, err := Consolidate(base, Filter{})
	require.NoError(t, err)
	require.Empty(t, dropped)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]*annotation.FeatureRecord, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got, dropped, err := Consolidate(shuffled, Filter{})
		require.NoError(t, err)
		require.Empty(t, dropped)
		assert.Equal(t, want, got, "trial %d", trial)
	}
}
