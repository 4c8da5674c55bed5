// Package reference provides the in-memory transcript annotation table used to
// resolve gene panel queries.
package reference

// Row is one transcript record of the reference annotation.
type Row struct {
	Chrom      string  // Chromosome (e.g., chr17)
	ExonStarts []int64 // 0-based exon starts, genomic order as listed in the source
	ExonEnds   []int64 // exon ends, parallel to ExonStarts
	Strand     string  // "+" or "-"
	Gene       string  // Gene symbol (name2)
	Transcript string  // Transcript ID (name) with any version suffix removed
	ExonCount  int     // Number of exons, equal to len(ExonStarts)
}

// IsForwardStrand returns true if the transcript is on the forward strand.
func (r *Row) IsForwardStrand() bool {
	return r.Strand == "+"
}

// IsReverseStrand returns true if the transcript is on the reverse strand.
func (r *Row) IsReverseStrand() bool {
	return r.Strand == "-"
}
