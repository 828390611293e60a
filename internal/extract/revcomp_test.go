package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantUnknown int
	}{
		{"empty", "", "", 0},
		{"single base", "A", "T", 0},
		{"upper", "ACGT", "ACGT", 0},
		{"plain", "AACGTT", "AACGTT", 0},
		{"asymmetric", "AAACCC", "GGGTTT", 0},
		{"case preserved", "AcGt", "aCgT", 0},
		{"N passes through", "ANNA", "TNNT", 0},
		{"soft-masked n", "acgtn", "nacgt", 0},
		{"unknown symbols kept", "AXGA", "TCXT", 1},
		{"iupac codes counted", "ARYG", "CYRT", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unknown := ReverseComplement(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantUnknown, unknown)
		})
	}
}

func TestReverseComplementInvolution(t *testing.T) {
	seqs := []string{
		"",
		"A",
		"ACGTACGTNN",
		"acgtACGTnN",
		"GATTACA",
		"TTTTTTTTTTGGGGGGGGGG",
	}

	for _, s := range seqs {
		rc, _ := ReverseComplement(s)
		back, _ := ReverseComplement(rc)
		assert.Equal(t, s, back, "revcomp(revcomp(%q))", s)
	}
}
