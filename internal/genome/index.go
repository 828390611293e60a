// Package genome provides indexed random access to FASTA genome files.
package genome

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Sentinel errors for index construction and sequence retrieval.
var (
	// ErrIndexBuild indicates the genome file could not be indexed.
	ErrIndexBuild = errors.New("genome index build error")
	// ErrIndexCorrupt indicates the index disagrees with the genome file.
	ErrIndexCorrupt = errors.New("genome index corrupt")
	// ErrUnknownSequence indicates a sequence name absent from the index.
	ErrUnknownSequence = errors.New("unknown sequence name")
	// ErrRangeOutOfBounds indicates coordinates outside the sequence.
	ErrRangeOutOfBounds = errors.New("range out of bounds")
	// ErrInvalidRange indicates start > end.
	ErrInvalidRange = errors.New("invalid range")
)

// Entry locates one sequence inside the genome file. Offset is the
// byte position of the first sequence byte after the header line.
// The layout matches samtools faidx .fai records.
type Entry struct {
	Name         string
	Length       int64
	Offset       int64
	BasesPerLine int
	BytesPerLine int
}

// Index maps sequence names to their location in a genome file.
// Built or loaded once per run, then shared read-only across workers.
type Index struct {
	entries map[string]Entry
	names   []string // original file order, for deterministic Save output
}

// Names returns the sequence names in genome file order.
func (i *Index) Names() []string {
	return i.names
}

// Entry returns the index entry for a sequence name.
func (i *Index) Entry(name string) (Entry, bool) {
	e, ok := i.entries[name]
	return e, ok
}

// Len returns the number of indexed sequences.
func (i *Index) Len() int {
	return len(i.entries)
}

func (i *Index) add(e Entry) {
	i.entries[e.Name] = e
	i.names = append(i.names, e.Name)
}

// IndexPath returns the conventional on-disk index path for a genome.
func IndexPath(genomePath string) string {
	return genomePath + ".fai"
}

// BuildIndex scans a FASTA file once and records, per sequence, its
// length, the byte offset of its first base and its line geometry.
// Gzipped genomes are rejected: random access needs an uncompressed
// file.
func BuildIndex(genomePath string) (*Index, error) {
	f, err := os.Open(genomePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}
	defer f.Close()

	magic := make([]byte, 2)
	if n, _ := f.Read(magic); n == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return nil, fmt.Errorf("%w: %s is gzip-compressed; decompress it before indexing", ErrIndexBuild, genomePath)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}

	idx := &Index{entries: make(map[string]Entry)}
	reader := bufio.NewReaderSize(f, 1<<20)

	var (
		current    Entry
		inSequence bool
		lastShort  bool // a short line must be the final line of its record
		offset     int64
	)

	flush := func() {
		if inSequence {
			idx.add(current)
		}
	}

	for {
		line, err := reader.ReadString('\n')
		if line == "" && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: %v", ErrIndexBuild, err)
		}

		lineBytes := int64(len(line))
		base := strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(base, ">") {
			flush()
			name := strings.TrimPrefix(base, ">")
			if i := strings.IndexAny(name, " \t"); i != -1 {
				name = name[:i]
			}
			if name == "" {
				return nil, fmt.Errorf("%w: unnamed sequence at byte %d", ErrIndexBuild, offset)
			}
			if _, dup := idx.entries[name]; dup {
				return nil, fmt.Errorf("%w: duplicate sequence name %q", ErrIndexBuild, name)
			}
			current = Entry{Name: name, Offset: offset + lineBytes}
			inSequence = true
			lastShort = false
		} else if inSequence && base != "" {
			if lastShort {
				return nil, fmt.Errorf("%w: sequence %q has ragged line lengths", ErrIndexBuild, current.Name)
			}
			if current.BasesPerLine == 0 {
				current.BasesPerLine = len(base)
				current.BytesPerLine = int(lineBytes)
			}
			if len(base) > current.BasesPerLine {
				return nil, fmt.Errorf("%w: sequence %q has ragged line lengths", ErrIndexBuild, current.Name)
			}
			if len(base) < current.BasesPerLine {
				lastShort = true
			}
			current.Length += int64(len(base))
		} else if inSequence && base == "" {
			// A blank line ends the record body; further bases would
			// make offset arithmetic wrong.
			lastShort = true
		}

		offset += lineBytes
		if err == io.EOF {
			break
		}
	}
	flush()

	if idx.Len() == 0 {
		return nil, fmt.Errorf("%w: no sequences found in %s", ErrIndexBuild, genomePath)
	}

	return idx, nil
}

// LoadIndex reads a .fai file written by Save (or by samtools faidx).
func LoadIndex(faiPath string) (*Index, error) {
	f, err := os.Open(faiPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}
	defer f.Close()

	idx := &Index{entries: make(map[string]Entry)}
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("%w: %s line %d: expected 5 fields, got %d", ErrIndexBuild, faiPath, lineNum, len(fields))
		}

		length, err1 := strconv.ParseInt(fields[1], 10, 64)
		off, err2 := strconv.ParseInt(fields[2], 10, 64)
		bases, err3 := strconv.Atoi(fields[3])
		bytesPer, err4 := strconv.Atoi(fields[4])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("%w: %s line %d: malformed entry", ErrIndexBuild, faiPath, lineNum)
		}

		idx.add(Entry{
			Name:         fields[0],
			Length:       length,
			Offset:       off,
			BasesPerLine: bases,
			BytesPerLine: bytesPer,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}

	return idx, nil
}

// Save writes the index in .fai format, one tab-separated line per
// sequence in genome file order.
func (i *Index) Save(faiPath string) error {
	f, err := os.Create(faiPath)
	if err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, name := range i.names {
		e := i.entries[name]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", e.Name, e.Length, e.Offset, e.BasesPerLine, e.BytesPerLine)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("save index: %w", err)
	}
	return f.Close()
}
