// Package bed sorts, pads and merges genomic intervals and writes them as BED
// records.
package bed

import (
	"fmt"
	"strings"
)

// Interval is a 0-based half-open genomic interval with the annotation values
// that may be collapsed when intervals are merged.
type Interval struct {
	Chrom      string
	Start      int64
	End        int64
	Strand     string
	Gene       string
	Transcript string
	Label      string // e.g. exon_num_3, total_exon_3
}

// Column names an annotation field of an Interval.
type Column int

// Collapsible annotation columns.
const (
	ColumnStrand Column = iota
	ColumnGene
	ColumnTranscript
	ColumnLabel
)

var columnNames = [...]string{"strand", "gene", "transcript", "label"}

// String returns the configuration name of the column.
func (c Column) String() string {
	if c < 0 || int(c) >= len(columnNames) {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return columnNames[c]
}

// Value returns the interval's value for column c.
func (iv *Interval) Value(c Column) string {
	switch c {
	case ColumnStrand:
		return iv.Strand
	case ColumnGene:
		return iv.Gene
	case ColumnTranscript:
		return iv.Transcript
	case ColumnLabel:
		return iv.Label
	}
	return ""
}

// Default collapse columns per query path.
var (
	ExonColumns       = []Column{ColumnStrand, ColumnGene, ColumnTranscript, ColumnLabel}
	CoordinateColumns = []Column{ColumnStrand, ColumnGene, ColumnTranscript}
)

// ParseColumns converts column names ("strand", "gene", "transcript",
// "label"; "exon" is accepted for "label") into Columns.
func ParseColumns(names []string) ([]Column, error) {
	cols := make([]Column, 0, len(names))
	for _, n := range splitNames(names) {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "":
			continue
		case "strand":
			cols = append(cols, ColumnStrand)
		case "gene", "name2", "genename":
			cols = append(cols, ColumnGene)
		case "transcript", "name":
			cols = append(cols, ColumnTranscript)
		case "label", "exon":
			cols = append(cols, ColumnLabel)
		default:
			return nil, fmt.Errorf("unknown collapse column %q (want strand, gene, transcript or label)", n)
		}
	}
	return cols, nil
}

// splitNames flattens comma separated entries, as read from config files.
func splitNames(names []string) []string {
	var out []string
	for _, n := range names {
		out = append(out, strings.Split(n, ",")...)
	}
	return out
}

// Region is a merged output record. Annotations holds one collapsed value per
// configured column.
type Region struct {
	Chrom       string
	Start       int64
	End         int64
	Annotations []string
}

// String formats the region as chrom:start-end.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// Len returns the region length in base pairs.
func (r Region) Len() int64 {
	return r.End - r.Start
}
