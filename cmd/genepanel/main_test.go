package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/hassanfa/GenePanelDesigner/internal/bed"
	"github.com/hassanfa/GenePanelDesigner/internal/query"
)

const testReference = "chrom\texonStarts\texonEnds\tstrand\tname2\tname\texonCount\n" +
	"chr17\t100,300,500,\t200,400,600,\t-\tTP53\tNM_000546.6\t3\n" +
	"chr17\t100,500,\t200,600,\t-\tTP53\tNM_001126112.3\t2\n" +
	"chr16\t1000,1215,\t1200,1300,\t+\tPALB2\tNM_024675.4\t2\n"

// execute runs the root command with a fresh viper and an empty config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(viper.Reset)

	cfg := filepath.Join(t.TempDir(), "genepanel.yaml")
	require.NoError(t, os.WriteFile(cfg, nil, 0644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfg, "--log-level", "ERROR"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeReference(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ncbiRefSeq.txt")
	require.NoError(t, os.WriteFile(path, []byte(testReference), 0644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"WARNING", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"CRITICAL", zapcore.DPanicLevel},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseLevel("LOUD")
	assert.Error(t, err)
}

func TestNormalizeAssembly(t *testing.T) {
	asm, err := normalizeAssembly("GRCh37")
	require.NoError(t, err)
	assert.Equal(t, "hg19", asm)

	asm, err = normalizeAssembly("hg38")
	require.NoError(t, err)
	assert.Equal(t, "hg38", asm)

	_, err = normalizeAssembly("mm10")
	assert.Error(t, err)

	ref, sizes := ucscURLs("hg38")
	assert.Equal(t, "https://hgdownload.soe.ucsc.edu/goldenPath/hg38/database/ncbiRefSeq.txt.gz", ref)
	assert.Equal(t, "https://hgdownload.soe.ucsc.edu/goldenPath/hg38/bigZips/hg38.chrom.sizes", sizes)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}

func TestConfigValue(t *testing.T) {
	v, err := configValue(keyPadding, "20")
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	v, err = configValue(keyNoCache, "yes")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = configValue(keyPadding, "-1")
	assert.Error(t, err)
	_, err = configValue(keyLogLevel, "LOUD")
	assert.Error(t, err)
}

func TestExtract_WholeGene(t *testing.T) {
	ref := writeReference(t)
	out := filepath.Join(t.TempDir(), "tp53.bed")

	_, err := execute(t, "extract", "--no-cache", "-r", ref, "-o", out, "-i", `{"genename":"TP53"}`)
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 3)
	assert.Equal(t, "chr17\t100\t200\t-\tTP53\tNM_000546,NM_001126112\ttotal_exon_3,total_exon_2", lines[0])
	assert.Equal(t, "chr17\t300\t400\t-\tTP53\tNM_000546\ttotal_exon_2", lines[1])
}

func TestExtract_CollapseAndStore(t *testing.T) {
	ref := writeReference(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "palb2.bed")
	storePath := filepath.Join(dir, "panel.duckdb")

	_, err := execute(t, "extract", "--no-cache", "-r", ref, "-o", out,
		"--collapse", "gene", "--store", storePath,
		"-i", `{"genename":"PALB2","exons":"2"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"chr16\t1215\t1300\tPALB2"}, readLines(t, out))

	listing, err := execute(t, "panel", "list", "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, listing, "PALB2")

	exported := filepath.Join(dir, "export.bed")
	_, err = execute(t, "panel", "export", "--store", storePath, "-o", exported)
	require.NoError(t, err)
	assert.Equal(t, []string{"chr16\t1215\t1300\tPALB2"}, readLines(t, exported))
}

func TestExtract_LabelOnlyCollapse(t *testing.T) {
	ref := writeReference(t)
	out := filepath.Join(t.TempDir(), "tp53.bed")

	_, err := execute(t, "extract", "--no-cache", "-r", ref, "-o", out,
		"--collapse", "label", "-i", `{"genename":"TP53","transcript":"NM_000546","exons":"1"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"chr17\t500\t600\texon_num_1"}, readLines(t, out))
}

func TestExtract_Errors(t *testing.T) {
	ref := writeReference(t)

	_, err := execute(t, "extract", "--no-cache", "-r", ref, "-o", "-", "-i", `{"genename":"BRCA1"}`)
	assert.Error(t, err)

	_, err = execute(t, "extract", "--no-cache", "-r", ref, "-i", `{"transcript":"NM_000546"}`)
	var ue usageError
	assert.ErrorAs(t, err, &ue, "missing gene is a usage error")

	_, err = execute(t, "extract", "--no-cache", "-r", ref, "-p", "10", "-i", `{"genename":"TP53"}`,
		"--chrom-sizes", filepath.Join(t.TempDir(), "missing.sizes"))
	assert.Error(t, err)
}

// assertNoOutput checks that neither path nor a leftover temporary file of it
// exists.
func assertNoOutput(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "%s should not exist", path)

	tmps, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmps)
}

func TestExtract_FailureWritesNoOutput(t *testing.T) {
	ref := writeReference(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown gene", []string{"-i", `{"genename":"BRCA1"}`}},
		{"padding without chromosome sizes", []string{"-p", "10", "-i", `{"genename":"TP53"}`}},
		{"bad exon range", []string{"-i", `{"genename":"TP53","transcript":"NM_000546","exons":"1-x"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "x.bed")
			args := append([]string{"extract", "--no-cache", "-r", ref, "-o", out}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assertNoOutput(t, out)
		})
	}
}

func TestExtract_PaddingWithoutSizesFails(t *testing.T) {
	ref := writeReference(t)
	out := filepath.Join(t.TempDir(), "x.bed")

	_, err := execute(t, "extract", "--no-cache", "-r", ref, "-o", out, "-p", "10", "-i", `{"genename":"TP53"}`)
	assert.ErrorIs(t, err, bed.ErrMissingChromSizes)
}

func TestBatch_FailureWritesNoOutput(t *testing.T) {
	ref := writeReference(t)
	dir := t.TempDir()
	queries := filepath.Join(dir, "queries.txt")
	require.NoError(t, os.WriteFile(queries, []byte("PALB2\nBRCA1\nTP53\n"), 0644))
	out := filepath.Join(dir, "out", "panel.bed")

	_, err := execute(t, "batch", "--no-cache", "-r", ref, "-o", out, queries)
	require.Error(t, err)
	assert.ErrorIs(t, err, query.ErrGeneNotFound)
	assertNoOutput(t, out)
}

func TestPanelSize(t *testing.T) {
	assert.Equal(t, int64(0), panelSize(nil))
	assert.Equal(t, int64(185), panelSize([]bed.Region{
		{Chrom: "chr16", Start: 1000, End: 1100},
		{Chrom: "chr16", Start: 1215, End: 1300},
	}))
}

func TestBatch(t *testing.T) {
	ref := writeReference(t)
	dir := t.TempDir()
	queries := filepath.Join(dir, "queries.txt")
	require.NoError(t, os.WriteFile(queries, []byte("# panel\nPALB2\n{\"genename\":\"TP53\",\"transcript\":\"NM_001126112\"}\n"), 0644))
	out := filepath.Join(dir, "panel.bed")

	_, err := execute(t, "batch", "--no-cache", "-r", ref, "-o", out, "--workers", "2", queries)
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "chr16\t1000\t1200\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "chr17\t100\t200\t"), lines[2])
}

func TestPanelClear_RequiresConfirmation(t *testing.T) {
	_, err := execute(t, "panel", "clear", "--store", filepath.Join(t.TempDir(), "panel.duckdb"))
	var ue usageError
	assert.ErrorAs(t, err, &ue)
}
