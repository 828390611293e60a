// Package annotation provides genome annotation parsing functionality.
package annotation

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Sentinel errors for annotation parsing.
var (
	// ErrParse indicates a malformed annotation line.
	ErrParse = errors.New("annotation parse error")
	// ErrFormat indicates an unsupported annotation format.
	ErrFormat = errors.New("unsupported annotation format")
)

// Format identifies the annotation dialect being parsed.
type Format string

// Supported annotation formats.
const (
	FormatGTF  Format = "gtf"
	FormatGFF  Format = "gff"
	FormatGFF3 Format = "gff3"
)

// ParseFormat validates a format string from configuration.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatGTF:
		return FormatGTF, nil
	case FormatGFF:
		return FormatGFF, nil
	case FormatGFF3:
		return FormatGFF3, nil
	default:
		return "", fmt.Errorf("%w: %q (expected gtf, gff or gff3)", ErrFormat, s)
	}
}

// FeatureParser is the interface for parsers that read annotation records.
type FeatureParser interface {
	// Next reads the next feature record.
	// Returns nil, nil when there are no more records.
	Next() (*FeatureRecord, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// Parser reads feature records from a GTF or GFF3 file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	format     Format
	lineNumber int
}

// NewParser creates a parser for the given annotation file.
// Supports plain and gzipped files, detected by magic bytes.
func NewParser(path string, format Format) (*Parser, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file: %w", err)
	}

	p := &Parser{file: file, format: format}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read annotation file: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek annotation file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader, format Format) (*Parser, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	return &Parser{reader: bufio.NewReader(r), format: format}, nil
}

// Next reads the next feature record, skipping comments and blank lines.
// Returns nil, nil at end of input.
func (p *Parser) Next() (*FeatureRecord, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err == io.EOF {
			if strings.TrimSpace(line) == "" {
				return nil, nil
			}
			// Final line without trailing newline.
		} else if err != nil {
			return nil, fmt.Errorf("read annotation line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		rec, perr := p.parseLine(line)
		if perr != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, p.lineNumber, perr)
		}
		return rec, nil
	}
}

// parseLine parses one 9-column annotation line.
func (p *Parser) parseLine(line string) (*FeatureRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %v", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %v", err)
	}

	if start < 1 || start > end {
		return nil, fmt.Errorf("invalid coordinates %d-%d", start, end)
	}

	var attrs map[string]string
	if p.format == FormatGTF {
		attrs = parseGTFAttributes(fields[8])
	} else {
		attrs = parseGFF3Attributes(fields[8])
	}

	return &FeatureRecord{
		SeqName:     fields[0],
		Source:      fields[1],
		FeatureType: fields[2],
		Start:       start,
		End:         end,
		Strand:      ParseStrand(fields[6]),
		GeneID:      geneID(attrs),
		GeneBiotype: geneBiotype(attrs),
	}, nil
}

// Close closes the parser and the underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// LineNumber returns the current line number.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// parseGTFAttributes parses a GTF attribute column.
// Format: key "value"; key "value"; ...
func parseGTFAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.TrimSpace(part[idx+1:])
		value = strings.Trim(value, "\"")

		attrs[key] = value
	}

	return attrs
}

// parseGFF3Attributes parses a GFF3 attribute column.
// Format: key=value;key=value;...
func parseGFF3Attributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, "=")
		if idx == -1 {
			continue
		}

		attrs[part[:idx]] = part[idx+1:]
	}

	return attrs
}

// geneID extracts the gene identifier from parsed attributes.
// GTF carries gene_id; Ensembl GFF3 gene features carry ID=gene:<id>
// alongside gene_id.
func geneID(attrs map[string]string) string {
	if id := attrs["gene_id"]; id != "" {
		return id
	}
	id := attrs["ID"]
	id = strings.TrimPrefix(id, "gene:")
	return id
}

// geneBiotype extracts the biotype from parsed attributes.
// Ensembl uses gene_biotype, GENCODE uses gene_type, GFF3 uses biotype.
func geneBiotype(attrs map[string]string) string {
	for _, key := range []string{"gene_biotype", "gene_type", "biotype"} {
		if v := attrs[key]; v != "" {
			return v
		}
	}
	return ""
}
