// Package query decodes gene panel queries and resolves them against a
// reference table.
package query

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hassanfa/GenePanelDesigner/internal/rangeset"
)

// ErrInvalidQuery is returned for undecodable query input or a missing gene.
var ErrInvalidQuery = errors.New("invalid query")

// Query keys accepted in JSON input.
const (
	KeyGene       = "genename"
	KeyTranscript = "transcript"
	KeyExons      = "exons"
	KeyCoordinate = "coordinate"
)

// Query is a normalized gene panel request. A non-empty Coordinate always
// takes precedence over Transcript and Exons.
type Query struct {
	Gene       string `json:"genename"`
	Transcript string `json:"transcript,omitempty"`
	Exons      string `json:"exons,omitempty"`
	Coordinate string `json:"coordinate,omitempty"`
}

// Decode parses a JSON query string. Keys with empty values are dropped with a
// warning and unknown keys are ignored. The genename key is required.
func Decode(input string, logger *zap.Logger) (*Query, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after query object", ErrInvalidQuery)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := &Query{}
	for _, k := range keys {
		v := stringValue(raw[k])
		if v == "" {
			logger.Warn("removed query key with empty value", zap.String("key", k))
			continue
		}
		switch k {
		case KeyGene:
			q.Gene = v
		case KeyTranscript:
			q.Transcript = v
		case KeyExons:
			q.Exons = v
		case KeyCoordinate:
			q.Coordinate = v
		default:
			logger.Warn("ignoring unknown query key", zap.String("key", k))
		}
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// stringValue renders a decoded JSON scalar as a string. Falsy values
// (null, false, 0, "" and empty containers) become "".
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return ""
		}
		return x.String()
	case bool:
		if !x {
			return ""
		}
		return "true"
	case []any:
		if len(x) == 0 {
			return ""
		}
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = stringValue(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		if len(x) == 0 {
			return ""
		}
		return fmt.Sprint(x)
	}
	return fmt.Sprint(v)
}

// Validate checks that the query names a gene.
func (q *Query) Validate() error {
	if strings.TrimSpace(q.Gene) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidQuery, KeyGene)
	}
	return nil
}

// HasCoordinate reports whether the query uses the direct-coordinate path.
func (q *Query) HasCoordinate() bool {
	return q.Coordinate != ""
}

// ExonRange parses Exons and rewrites it in canonical form (ascending,
// comma-joined). Returns a nil set when no exons were requested.
func (q *Query) ExonRange() (rangeset.Set, error) {
	if q.Exons == "" {
		return nil, nil
	}
	set, err := rangeset.Parse(q.Exons)
	if err != nil {
		return nil, fmt.Errorf("exons %q (example: <3,4-7,10-12,24): %w", q.Exons, err)
	}
	q.Exons = set.String()
	return set, nil
}

// Values returns the non-empty query values in key order:
// genename, transcript, exons, coordinate.
func (q *Query) Values() []string {
	var values []string
	for _, v := range []string{q.Gene, q.Transcript, q.Exons, q.Coordinate} {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

// String renders the query as compact JSON.
func (q *Query) String() string {
	b, err := json.Marshal(q)
	if err != nil {
		return q.Gene
	}
	return string(b)
}

// DecodeLines reads one query per line. Lines starting with "{" are decoded as
// JSON; any other non-blank line is taken as a bare gene symbol. Blank lines
// and lines starting with "#" are skipped.
func DecodeLines(r io.Reader, logger *zap.Logger) ([]*Query, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var queries []*Query
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.HasPrefix(line, "{") {
			queries = append(queries, &Query{Gene: line})
			continue
		}

		q, err := Decode(line, logger)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		queries = append(queries, q)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan queries: %w", err)
	}
	return queries, nil
}
