// Package exon expands reference transcripts into individually numbered exon
// intervals.
package exon

import (
	"fmt"
	"sort"

	"github.com/hassanfa/GenePanelDesigner/internal/bed"
	"github.com/hassanfa/GenePanelDesigner/internal/rangeset"
	"github.com/hassanfa/GenePanelDesigner/internal/reference"
)

// Label prefixes for filtered and unfiltered expansions.
const (
	LabelSelected = "exon_num_"
	LabelTotal    = "total_exon_"
)

// Interval is a single exon of a transcript.
type Interval struct {
	Chrom      string
	Start      int64
	End        int64
	Strand     string
	Gene       string
	Transcript string
	Number     int    // 1-based, 5' to 3' in transcription order
	Label      string // exon_num_<N> or total_exon_<N>
}

// BED converts the exon to a mergeable interval.
func (e Interval) BED() bed.Interval {
	return bed.Interval{
		Chrom:      e.Chrom,
		Start:      e.Start,
		End:        e.End,
		Strand:     e.Strand,
		Gene:       e.Gene,
		Transcript: e.Transcript,
		Label:      e.Label,
	}
}

// Expand splits a row into one interval per exon, in ascending genomic order.
// Exons are numbered 1..N left to right on the + strand and N..1 on the -
// strand, so exon 1 is always the first transcribed exon.
//
// With a nil selection every exon is returned and labelled total_exon_<N>.
// Otherwise only exons whose number is in the selection are returned,
// labelled exon_num_<N>; a selection matching no exon yields an empty slice.
func Expand(row *reference.Row, selection rangeset.Set) []Interval {
	n := len(row.ExonStarts)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := row.ExonStarts[order[a]], row.ExonStarts[order[b]]
		if sa != sb {
			return sa < sb
		}
		return row.ExonEnds[order[a]] < row.ExonEnds[order[b]]
	})

	out := make([]Interval, 0, n)
	for rank, idx := range order {
		number := rank + 1
		if row.IsReverseStrand() {
			number = n - rank
		}

		label := LabelTotal
		if selection != nil {
			if !selection.Contains(number) {
				continue
			}
			label = LabelSelected
		}

		out = append(out, Interval{
			Chrom:      row.Chrom,
			Start:      row.ExonStarts[idx],
			End:        row.ExonEnds[idx],
			Strand:     row.Strand,
			Gene:       row.Gene,
			Transcript: row.Transcript,
			Number:     number,
			Label:      fmt.Sprintf("%s%d", label, number),
		})
	}
	return out
}

// ExpandAll expands every row and converts the exons to BED intervals.
func ExpandAll(rows []*reference.Row, selection rangeset.Set) []bed.Interval {
	var out []bed.Interval
	for _, row := range rows {
		for _, e := range Expand(row, selection) {
			out = append(out, e.BED())
		}
	}
	return out
}
