package reference

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrDataIntegrity is returned when a reference row is internally
// inconsistent, e.g. exonCount disagrees with the exon coordinate lists.
var ErrDataIntegrity = errors.New("reference data integrity error")

// Required column names of a headed reference table.
const (
	colChrom      = "chrom"
	colExonStarts = "exonStarts"
	colExonEnds   = "exonEnds"
	colStrand     = "strand"
	colGene       = "name2"
	colTranscript = "name"
	colExonCount  = "exonCount"
)

// layout holds the column index of each field used by the loader.
type layout struct {
	chrom, exonStarts, exonEnds, strand, gene, transcript, exonCount int
}

func (l layout) maxIndex() int {
	m := 0
	for _, i := range []int{l.chrom, l.exonStarts, l.exonEnds, l.strand, l.gene, l.transcript, l.exonCount} {
		if i > m {
			m = i
		}
	}
	return m
}

// Headerless UCSC layouts, keyed by column count.
var ucscLayouts = map[int]layout{
	// refFlat: geneName name chrom strand txStart txEnd cdsStart cdsEnd exonCount exonStarts exonEnds
	11: {chrom: 2, strand: 3, exonCount: 8, exonStarts: 9, exonEnds: 10, gene: 0, transcript: 1},
	// genePredExt: name chrom strand ... exonCount exonStarts exonEnds score name2 ...
	15: {transcript: 0, chrom: 1, strand: 2, exonCount: 7, exonStarts: 8, exonEnds: 9, gene: 11},
	// ncbiRefSeq/refGene table dump: genePredExt with a leading bin column
	16: {transcript: 1, chrom: 2, strand: 3, exonCount: 8, exonStarts: 9, exonEnds: 10, gene: 12},
}

// LoadFile reads a reference table from disk. Gzip-compressed files are
// detected by their magic bytes.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var reader io.Reader = br

	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return Load(reader)
}

// Load parses a tab-delimited reference table. A table whose first line names
// the columns (chrom, exonStarts, exonEnds, strand, name2, name, exonCount) is
// read by column name; otherwise a headerless UCSC refFlat or genePred dump is
// assumed based on the column count.
func Load(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	// Exon lists of large genes make for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	t := New()
	var cols *layout
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		if cols == nil {
			l, isHeader, err := detectLayout(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			cols = &l
			if isHeader {
				continue
			}
		}

		row, err := parseRow(fields, *cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		t.Add(row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan reference: %w", err)
	}

	return t, nil
}

// detectLayout determines the column layout from the first line.
func detectLayout(fields []string) (layout, bool, error) {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[strings.TrimPrefix(strings.TrimSpace(f), "#")] = i
	}

	if _, ok := index[colExonStarts]; ok {
		var l layout
		var missing []string
		for _, c := range []struct {
			name string
			dst  *int
		}{
			{colChrom, &l.chrom},
			{colExonStarts, &l.exonStarts},
			{colExonEnds, &l.exonEnds},
			{colStrand, &l.strand},
			{colGene, &l.gene},
			{colTranscript, &l.transcript},
			{colExonCount, &l.exonCount},
		} {
			i, ok := index[c.name]
			if !ok {
				missing = append(missing, c.name)
				continue
			}
			*c.dst = i
		}
		if len(missing) > 0 {
			return layout{}, false, fmt.Errorf("reference header missing columns: %s", strings.Join(missing, ", "))
		}
		return l, true, nil
	}

	l, ok := ucscLayouts[len(fields)]
	if !ok {
		return layout{}, false, fmt.Errorf("unrecognized reference layout: no header and %d columns", len(fields))
	}
	return l, false, nil
}

// parseRow builds a validated Row from a split line.
func parseRow(fields []string, l layout) (*Row, error) {
	if len(fields) <= l.maxIndex() {
		return nil, fmt.Errorf("%w: expected at least %d columns, got %d", ErrDataIntegrity, l.maxIndex()+1, len(fields))
	}

	starts, err := parseCoordList(fields[l.exonStarts])
	if err != nil {
		return nil, fmt.Errorf("%w: exonStarts: %v", ErrDataIntegrity, err)
	}
	ends, err := parseCoordList(fields[l.exonEnds])
	if err != nil {
		return nil, fmt.Errorf("%w: exonEnds: %v", ErrDataIntegrity, err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(fields[l.exonCount]))
	if err != nil {
		return nil, fmt.Errorf("%w: exonCount %q is not an integer", ErrDataIntegrity, fields[l.exonCount])
	}

	row := &Row{
		Chrom:      fields[l.chrom],
		ExonStarts: starts,
		ExonEnds:   ends,
		Strand:     fields[l.strand],
		Gene:       fields[l.gene],
		Transcript: stripVersion(fields[l.transcript]),
		ExonCount:  count,
	}

	if err := validateRow(row); err != nil {
		return nil, err
	}
	return row, nil
}

// validateRow rejects rows whose exon lists disagree with exonCount or whose
// strand is not + or -.
func validateRow(r *Row) error {
	if len(r.ExonStarts) != len(r.ExonEnds) || len(r.ExonStarts) != r.ExonCount {
		return fmt.Errorf("%w: transcript %s: exonCount %d but %d starts and %d ends",
			ErrDataIntegrity, r.Transcript, r.ExonCount, len(r.ExonStarts), len(r.ExonEnds))
	}
	if !r.IsForwardStrand() && !r.IsReverseStrand() {
		return fmt.Errorf("%w: transcript %s: invalid strand %q", ErrDataIntegrity, r.Transcript, r.Strand)
	}
	return nil
}

// parseCoordList parses a comma-terminated integer list such as "100,250,".
func parseCoordList(s string) ([]int64, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	values := make([]int64, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", p)
		}
		values = append(values, v)
	}
	return values, nil
}

// stripVersion removes everything from the first "." of a transcript ID.
func stripVersion(id string) string {
	if idx := strings.IndexByte(id, '.'); idx >= 0 {
		return id[:idx]
	}
	return id
}
