package extract

// complement returns the complement of a single base, preserving case.
// N/n complement to themselves. The second return value is false for
// symbols outside the nucleotide alphabet; those pass through
// unchanged and the caller records a warning.
func complement(base byte) (byte, bool) {
	switch base {
	case 'A':
		return 'T', true
	case 'T':
		return 'A', true
	case 'G':
		return 'C', true
	case 'C':
		return 'G', true
	case 'a':
		return 't', true
	case 't':
		return 'a', true
	case 'g':
		return 'c', true
	case 'c':
		return 'g', true
	case 'N', 'n':
		return base, true
	default:
		return base, false
	}
}

// ReverseComplement returns the reverse complement of a DNA sequence,
// preserving case. Minus-strand promoter windows are reverse
// complemented so the output reads 5' to 3' in the direction of
// transcription. The second return value counts symbols outside the
// nucleotide alphabet, which are passed through as themselves.
func ReverseComplement(seq string) (string, int) {
	n := len(seq)
	result := make([]byte, n)
	unknown := 0
	for i := 0; i < n; i++ {
		b, ok := complement(seq[n-1-i])
		if !ok {
			unknown++
		}
		result[i] = b
	}
	return string(result), unknown
}
