package exon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassanfa/GenePanelDesigner/internal/rangeset"
	"github.com/hassanfa/GenePanelDesigner/internal/reference"
)

func fiveExonRow(strand string) *reference.Row {
	return &reference.Row{
		Chrom:      "chr7",
		ExonStarts: []int64{100, 300, 500, 700, 900},
		ExonEnds:   []int64{200, 400, 600, 800, 1000},
		Strand:     strand,
		Gene:       "GENE",
		Transcript: "NM_1",
		ExonCount:  5,
	}
}

func numbers(exons []Interval) []int {
	out := make([]int, len(exons))
	for i, e := range exons {
		out[i] = e.Number
	}
	return out
}

func TestExpand_ForwardStrandNumbering(t *testing.T) {
	exons := Expand(fiveExonRow("+"), nil)
	require.Len(t, exons, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, numbers(exons))
	assert.Equal(t, int64(100), exons[0].Start)
}

func TestExpand_ReverseStrandNumbering(t *testing.T) {
	exons := Expand(fiveExonRow("-"), nil)
	require.Len(t, exons, 5)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, numbers(exons))
	for i := 1; i < len(exons); i++ {
		assert.Less(t, exons[i-1].Start, exons[i].Start, "ascending genomic order")
	}
}

func TestExpand_UnsortedSourceLists(t *testing.T) {
	row := fiveExonRow("-")
	row.ExonStarts = []int64{900, 700, 500, 300, 100}
	row.ExonEnds = []int64{1000, 800, 600, 400, 200}

	exons := Expand(row, rangeset.Of(1))
	require.Len(t, exons, 1)
	assert.Equal(t, int64(900), exons[0].Start, "exon 1 of a - strand transcript is rightmost")
}

func TestExpand_WithSelection(t *testing.T) {
	exons := Expand(fiveExonRow("+"), rangeset.Of(1, 2, 3))
	require.Len(t, exons, 3)
	for _, e := range exons {
		assert.Contains(t, []string{"exon_num_1", "exon_num_2", "exon_num_3"}, e.Label)
	}
	assert.Equal(t, "exon_num_1", exons[0].Label)
}

func TestExpand_WithSelectionReverseStrand(t *testing.T) {
	exons := Expand(fiveExonRow("-"), rangeset.Of(1, 2))
	require.Len(t, exons, 2)
	assert.Equal(t, int64(700), exons[0].Start)
	assert.Equal(t, "exon_num_2", exons[0].Label)
	assert.Equal(t, int64(900), exons[1].Start)
	assert.Equal(t, "exon_num_1", exons[1].Label)
}

func TestExpand_WithoutSelectionLabelsTotal(t *testing.T) {
	exons := Expand(fiveExonRow("+"), nil)
	require.Len(t, exons, 5)
	for i, e := range exons {
		assert.Equal(t, LabelTotal+string(rune('1'+i)), e.Label)
		assert.Equal(t, "chr7", e.Chrom)
		assert.Equal(t, "GENE", e.Gene)
		assert.Equal(t, "NM_1", e.Transcript)
		assert.Equal(t, "+", e.Strand)
	}
}

func TestExpand_SelectionOutOfRange(t *testing.T) {
	exons := Expand(fiveExonRow("+"), rangeset.Of(99))
	assert.NotNil(t, exons)
	assert.Empty(t, exons)
}

func TestExpandAll(t *testing.T) {
	other := fiveExonRow("+")
	other.Transcript = "NM_2"

	ivs := ExpandAll([]*reference.Row{fiveExonRow("+"), other}, rangeset.Of(5))
	require.Len(t, ivs, 2)
	assert.Equal(t, "NM_1", ivs[0].Transcript)
	assert.Equal(t, "NM_2", ivs[1].Transcript)
	assert.Equal(t, "exon_num_5", ivs[0].Label)
}
