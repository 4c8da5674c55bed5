package reference

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headedTable = "chrom\texonStarts\texonEnds\tstrand\tname2\tname\texonCount\n" +
	"chr17\t100,300,500,\t200,400,600,\t-\tTP53\tNM_000546.6\t3\n" +
	"chr17\t100,500,\t200,600,\t-\tTP53\tNM_001126112.3\t2\n" +
	"chr12\t1000,2000,\t1100,2100,\t+\tKRAS\tNM_004985\t2\n"

func TestLoad_HeadedTable(t *testing.T) {
	tbl, err := Load(strings.NewReader(headedTable))
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.RowCount())
	assert.Equal(t, 2, tbl.GeneCount())
	assert.Equal(t, []string{"chr12", "chr17"}, tbl.Chromosomes())

	rows := tbl.RowsByGene("TP53")
	require.Len(t, rows, 2)
	assert.Equal(t, "NM_000546", rows[0].Transcript, "version suffix stripped")
	assert.Equal(t, []int64{100, 300, 500}, rows[0].ExonStarts)
	assert.Equal(t, []int64{200, 400, 600}, rows[0].ExonEnds)
	assert.True(t, rows[0].IsReverseStrand())
	assert.Equal(t, 3, rows[0].ExonCount)
}

func TestLoad_ColumnOrderByName(t *testing.T) {
	data := "#name\tname2\tstrand\texonCount\tchrom\texonEnds\texonStarts\textra\n" +
		"NM_1.1\tGENE\t+\t1\tchr1\t20,\t10,\tx\n"
	tbl, err := Load(strings.NewReader(data))
	require.NoError(t, err)

	rows := tbl.RowsByGene("GENE")
	require.Len(t, rows, 1)
	assert.Equal(t, "chr1", rows[0].Chrom)
	assert.Equal(t, "NM_1", rows[0].Transcript)
	assert.Equal(t, []int64{10}, rows[0].ExonStarts)
	assert.Equal(t, []int64{20}, rows[0].ExonEnds)
}

func TestLoad_RowsByGeneIsExact(t *testing.T) {
	tbl, err := Load(strings.NewReader(headedTable))
	require.NoError(t, err)

	assert.Empty(t, tbl.RowsByGene("tp53"), "case-sensitive")
	assert.Empty(t, tbl.RowsByGene("TP5"))
	assert.Empty(t, tbl.RowsByGene("BRCA1"))
}

func TestLoad_UCSCLayouts(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"refFlat", "BRCA1\tNM_007294.4\tchr17\t-\t0\t0\t0\t0\t2\t10,30,\t20,40,"},
		{"genePredExt", "NM_007294.4\tchr17\t-\t0\t0\t0\t0\t2\t10,30,\t20,40,\t0\tBRCA1\tcmpl\tcmpl\t0,0,"},
		{"ncbiRefSeq", "585\tNM_007294.4\tchr17\t-\t0\t0\t0\t0\t2\t10,30,\t20,40,\t0\tBRCA1\tcmpl\tcmpl\t0,0,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Load(strings.NewReader(tt.line + "\n"))
			require.NoError(t, err)
			rows := tbl.RowsByGene("BRCA1")
			require.Len(t, rows, 1)
			assert.Equal(t, "NM_007294", rows[0].Transcript)
			assert.Equal(t, "chr17", rows[0].Chrom)
			assert.Equal(t, []int64{10, 30}, rows[0].ExonStarts)
		})
	}
}

func TestLoad_ExonCountMismatch(t *testing.T) {
	data := "chrom\texonStarts\texonEnds\tstrand\tname2\tname\texonCount\n" +
		"chr1\t10,30,\t20,40,\t+\tGENE\tNM_1\t3\n"
	_, err := Load(strings.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataIntegrity)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoad_UnequalExonLists(t *testing.T) {
	data := "chrom\texonStarts\texonEnds\tstrand\tname2\tname\texonCount\n" +
		"chr1\t10,30,\t20,\t+\tGENE\tNM_1\t2\n"
	_, err := Load(strings.NewReader(data))
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestLoad_InvalidStrand(t *testing.T) {
	data := "chrom\texonStarts\texonEnds\tstrand\tname2\tname\texonCount\n" +
		"chr1\t10,\t20,\t.\tGENE\tNM_1\t1\n"
	_, err := Load(strings.NewReader(data))
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestLoad_MissingHeaderColumn(t *testing.T) {
	data := "chrom\texonStarts\texonEnds\tstrand\tname\texonCount\n"
	_, err := Load(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name2")
}

func TestLoad_UnknownLayout(t *testing.T) {
	_, err := Load(strings.NewReader("a\tb\tc\n"))
	assert.Error(t, err)
}

func TestLoadFile_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(headedTable))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "ref.txt.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	tbl, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.RowCount())
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
