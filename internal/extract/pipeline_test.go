package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evomics/promex/internal/annotation"
	"github.com/evomics/promex/internal/locus"
)

// captureWriter records written promoters in order.
type captureWriter struct {
	promoters []Promoter
	flushed   bool
}

func (w *captureWriter) Write(p Promoter) error {
	w.promoters = append(w.promoters, p)
	return nil
}

func (w *captureWriter) Flush() error {
	w.flushed = true
	return nil
}

func geneRecord(id string, start, end int64, strand annotation.Strand) *annotation.FeatureRecord {
	return &annotation.FeatureRecord{
		SeqName:     "chr1",
		Source:      "ensembl",
		FeatureType: "gene",
		Start:       start,
		End:         end,
		Strand:      strand,
		GeneID:      id,
		GeneBiotype: "protein_coding",
	}
}

func TestPipelineRun(t *testing.T) {
	r := writeTestGenome(t)

	records := []*annotation.FeatureRecord{
		geneRecord("GB", 1500, 1600, annotation.StrandMinus),
		geneRecord("GA", 501, 900, annotation.StrandPlus),
	}

	p := NewPipeline(Options{Width: 100, DefaultStrand: annotation.StrandPlus, Workers: 4})
	w := &captureWriter{}

	report, err := p.Run(context.Background(), records, r, w)
	require.NoError(t, err)

	require.Len(t, w.promoters, 2)
	assert.True(t, w.flushed)

	// Output order follows gene id, not input order.
	assert.Equal(t, "GA", w.promoters[0].GeneID)
	assert.Equal(t, chr1Seq[400:500], w.promoters[0].Seq)

	wantGB, _ := ReverseComplement(chr1Seq[1600:1700])
	assert.Equal(t, "GB", w.promoters[1].GeneID)
	assert.Equal(t, wantGB, w.promoters[1].Seq)

	assert.Equal(t, 2, report.Loci)
	assert.Equal(t, 2, report.Extracted)
	assert.Empty(t, report.Dropped)
	assert.Empty(t, report.Skipped)
}

func TestPipelineDropsInconsistentGene(t *testing.T) {
	r := writeTestGenome(t)

	// G3's records disagree on the chromosome: it is dropped, the
	// other genes are still extracted and written.
	records := []*annotation.FeatureRecord{
		geneRecord("G1", 501, 900, annotation.StrandPlus),
		geneRecord("G3", 100, 200, annotation.StrandPlus),
		{SeqName: "chr2", Source: "ensembl", FeatureType: "gene", Start: 100, End: 200,
			Strand: annotation.StrandPlus, GeneID: "G3", GeneBiotype: "protein_coding"},
		geneRecord("G2", 1400, 1500, annotation.StrandPlus),
	}

	p := NewPipeline(Options{Width: 50, DefaultStrand: annotation.StrandPlus})
	w := &captureWriter{}

	report, err := p.Run(context.Background(), records, r, w)
	require.NoError(t, err)

	require.Len(t, report.Dropped, 1)
	assert.Equal(t, "G3", report.Dropped[0].GeneID)
	assert.ErrorIs(t, report.Dropped[0].Reason, locus.ErrInconsistentLocus)

	require.Len(t, w.promoters, 2)
	assert.Equal(t, "G1", w.promoters[0].GeneID)
	assert.Equal(t, "G2", w.promoters[1].GeneID)
	assert.Equal(t, 2, report.Extracted)
}

func TestPipelineSkipsUnknownSequence(t *testing.T) {
	r := writeTestGenome(t)

	records := []*annotation.FeatureRecord{
		geneRecord("G1", 501, 900, annotation.StrandPlus),
		{SeqName: "chrX", Source: "ensembl", FeatureType: "gene", Start: 100, End: 200,
			Strand: annotation.StrandPlus, GeneID: "GX", GeneBiotype: "protein_coding"},
	}

	p := NewPipeline(Options{Width: 50, DefaultStrand: annotation.StrandPlus})
	w := &captureWriter{}

	report, err := p.Run(context.Background(), records, r, w)
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "GX", report.Skipped[0].GeneID)
	require.Len(t, w.promoters, 1)
	assert.Equal(t, "G1", w.promoters[0].GeneID)
}

func TestPipelineDefaultStrand(t *testing.T) {
	r := writeTestGenome(t)

	// No record carries a determined strand; with a minus default every
	// locus ends up on the minus strand.
	records := []*annotation.FeatureRecord{
		geneRecord("G1", 501, 900, annotation.StrandUnknown),
		geneRecord("G2", 1000, 1400, annotation.StrandUnknown),
	}

	p := NewPipeline(Options{Width: 100, DefaultStrand: annotation.StrandMinus})
	w := &captureWriter{}

	report, err := p.Run(context.Background(), records, r, w)
	require.NoError(t, err)
	assert.Equal(t, 2, report.DefaultedStrands)

	require.Len(t, w.promoters, 2)
	want1, _ := ReverseComplement(chr1Seq[900:1000])
	assert.Equal(t, want1, w.promoters[0].Seq)
	want2, _ := ReverseComplement(chr1Seq[1400:1500])
	assert.Equal(t, want2, w.promoters[1].Seq)
}

func TestPipelineEmptyWindowStillWritten(t *testing.T) {
	r := writeTestGenome(t)

	records := []*annotation.FeatureRecord{
		geneRecord("G1", 1000, 2000, annotation.StrandMinus), // flush against chr1 end
		geneRecord("G2", 501, 900, annotation.StrandPlus),
	}

	p := NewPipeline(Options{Width: 300, DefaultStrand: annotation.StrandPlus})
	w := &captureWriter{}

	report, err := p.Run(context.Background(), records, r, w)
	require.NoError(t, err)

	require.Len(t, w.promoters, 2, "empty windows produce records, not omissions")
	assert.Equal(t, "G1", w.promoters[0].GeneID)
	assert.Empty(t, w.promoters[0].Seq)
	assert.NotEmpty(t, w.promoters[1].Seq)
	assert.Equal(t, 2, report.Extracted)
}

func TestPipelineInvalidConfiguration(t *testing.T) {
	r := writeTestGenome(t)

	tests := []struct {
		name string
		opts Options
	}{
		{"negative width", Options{Width: -5, DefaultStrand: annotation.StrandPlus}},
		{"undetermined default strand", Options{Width: 100, DefaultStrand: annotation.StrandUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(tt.opts)
			_, err := p.Run(context.Background(), []*annotation.FeatureRecord{geneRecord("G1", 501, 900, annotation.StrandPlus)}, r, &captureWriter{})
			require.Error(t, err)
			assert.ErrorIs(t, err, locus.ErrInvalidConfiguration)
		})
	}
}

func TestPipelineCancellation(t *testing.T) {
	r := writeTestGenome(t)

	var records []*annotation.FeatureRecord
	for i := 0; i < 100; i++ {
		records = append(records, geneRecord(geneName(i), int64(500+i), int64(600+i), annotation.StrandPlus))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(Options{Width: 50, DefaultStrand: annotation.StrandPlus})
	_, err := p.Run(ctx, records, r, &captureWriter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func geneName(i int) string {
	return string([]byte{'G', byte('A' + i/26), byte('A' + i%26)})
}
