package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hassanfa/GenePanelDesigner/internal/rangeset"
)

func TestDecode(t *testing.T) {
	q, err := Decode(`{"genename":"TP53","transcript":"NM_000546","exons":"<3,5","coordinate":""}`, nil)
	require.NoError(t, err)
	assert.Equal(t, &Query{Gene: "TP53", Transcript: "NM_000546", Exons: "<3,5"}, q)
	assert.False(t, q.HasCoordinate())

	q, err = Decode("{\"genename\":\"KRAS\"}\n  ", nil)
	require.NoError(t, err, "trailing whitespace is fine")
	assert.Equal(t, "KRAS", q.Gene)
}

func TestDecode_DropsEmptyKeysWithWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	q, err := Decode(`{"genename":"BRCA1","transcript":null,"exons":0,"coordinate":""}`, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, &Query{Gene: "BRCA1"}, q)
	assert.Equal(t, 3, logs.FilterMessage("removed query key with empty value").Len())
}

func TestDecode_NumericExons(t *testing.T) {
	q, err := Decode(`{"genename":"BRCA1","exons":4}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "4", q.Exons)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `genename=TP53`},
		{"missing gene", `{"transcript":"NM_1"}`},
		{"empty gene", `{"genename":""}`},
		{"array", `["TP53"]`},
		{"second object", `{"genename":"TP53"} {"genename":"BRCA1"}`},
		{"trailing brace", `{"genename":"TP53"}}`},
		{"trailing text", `{"genename":"TP53"} x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input, nil)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestQuery_ExonRangeCanonicalizes(t *testing.T) {
	q := &Query{Gene: "TP53", Exons: "<3,5,2"}
	set, err := q.ExonRange()
	require.NoError(t, err)
	assert.Equal(t, rangeset.Of(1, 2, 3, 5), set)
	assert.Equal(t, "1,2,3,5", q.Exons)
}

func TestQuery_ExonRangeAbsent(t *testing.T) {
	q := &Query{Gene: "TP53"}
	set, err := q.ExonRange()
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestQuery_ExonRangeInvalid(t *testing.T) {
	q := &Query{Gene: "TP53", Exons: "1,x"}
	_, err := q.ExonRange()
	assert.ErrorIs(t, err, rangeset.ErrInvalidRange)
	assert.Equal(t, "1,x", q.Exons, "left untouched on failure")
}

func TestQuery_Values(t *testing.T) {
	q := &Query{Gene: "TP53", Exons: "1,2", Coordinate: "17:1-2"}
	assert.Equal(t, []string{"TP53", "1,2", "17:1-2"}, q.Values())
	assert.JSONEq(t, `{"genename":"TP53","exons":"1,2","coordinate":"17:1-2"}`, q.String())
}

func TestDecodeLines(t *testing.T) {
	input := `# panel
BRCA1

{"genename":"TP53","exons":"<2"}
{"genename":"PALB2","coordinate":"16:1-2"}
`
	queries, err := DecodeLines(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, queries, 3)
	assert.Equal(t, &Query{Gene: "BRCA1"}, queries[0])
	assert.Equal(t, "<2", queries[1].Exons)
	assert.True(t, queries[2].HasCoordinate())
}

func TestDecodeLines_BadJSON(t *testing.T) {
	_, err := DecodeLines(strings.NewReader("BRCA1\n{\"transcript\":\"NM_1\"}\n"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.Contains(t, err.Error(), "line 2")
}
