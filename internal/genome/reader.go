package genome

import (
	"fmt"
	"io"
	"os"
)

// Reader provides random access to sequence slices of a genome file.
// Each Fetch costs one index lookup plus a read proportional to the
// window length, independent of genome size. A Reader is safe for
// concurrent Fetch calls: the index is immutable after Open and reads
// use ReadAt.
type Reader struct {
	file *os.File
	idx  *Index
}

// NewReader wraps an already-built index over the genome file.
func NewReader(genomePath string, idx *Index) (*Reader, error) {
	f, err := os.Open(genomePath)
	if err != nil {
		return nil, fmt.Errorf("open genome file: %w", err)
	}
	return &Reader{file: f, idx: idx}, nil
}

// Open returns a reader over the genome, loading the on-disk .fai
// index when one exists and building it from the genome otherwise.
// The second return value reports whether the index was freshly built;
// callers may then Save it next to the genome.
func Open(genomePath string) (*Reader, bool, error) {
	var (
		idx   *Index
		built bool
		err   error
	)

	if _, statErr := os.Stat(IndexPath(genomePath)); statErr == nil {
		idx, err = LoadIndex(IndexPath(genomePath))
	} else {
		idx, err = BuildIndex(genomePath)
		built = true
	}
	if err != nil {
		return nil, false, err
	}

	r, err := NewReader(genomePath, idx)
	if err != nil {
		return nil, false, err
	}
	return r, built, nil
}

// Index returns the reader's sequence index.
func (r *Reader) Index() *Index {
	return r.idx
}

// Close closes the underlying genome file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Fetch returns the bases in [start, end] (1-based, inclusive) of the
// named sequence. The empty window, encoded start = end+1, returns a
// zero-length sequence. Newlines inside the window are stripped by the
// index line geometry, so the result length is exactly end-start+1.
func (r *Reader) Fetch(name string, start, end int64) (string, error) {
	e, ok := r.idx.Entry(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSequence, name)
	}

	if start == end+1 {
		return "", nil
	}
	if start < 1 || end > e.Length {
		return "", fmt.Errorf("%w: %s:%d-%d (sequence length %d)", ErrRangeOutOfBounds, name, start, end, e.Length)
	}
	if start > end {
		return "", fmt.Errorf("%w: %s:%d-%d", ErrInvalidRange, name, start, end)
	}

	if e.BasesPerLine <= 0 || e.BytesPerLine <= 0 {
		return "", fmt.Errorf("%w: entry %q has no line geometry", ErrIndexCorrupt, name)
	}

	bases := int64(e.BasesPerLine)
	bytesPer := int64(e.BytesPerLine)

	// Byte positions of the first and last requested base.
	from := e.Offset + (start-1)/bases*bytesPer + (start-1)%bases
	to := e.Offset + (end-1)/bases*bytesPer + (end-1)%bases

	buf := make([]byte, to-from+1)
	if _, err := r.file.ReadAt(buf, from); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return "", fmt.Errorf("%w: %s:%d-%d reads past end of genome file", ErrIndexCorrupt, name, start, end)
		}
		return "", fmt.Errorf("read genome file: %w", err)
	}

	// Strip line terminators in place.
	out := buf[:0]
	for _, b := range buf {
		if b == '\n' || b == '\r' {
			continue
		}
		out = append(out, b)
	}

	if int64(len(out)) != end-start+1 {
		return "", fmt.Errorf("%w: %s:%d-%d yielded %d bases, want %d", ErrIndexCorrupt, name, start, end, len(out), end-start+1)
	}

	return string(out), nil
}
