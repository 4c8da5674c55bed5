package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hassanfa/GenePanelDesigner/internal/coord"
	"github.com/hassanfa/GenePanelDesigner/internal/rangeset"
	"github.com/hassanfa/GenePanelDesigner/internal/reference"
)

// Resolution errors.
var (
	ErrGeneNotFound       = errors.New("gene not found")
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrAmbiguousSelection = errors.New("ambiguous exon selection")
	ErrChromosomeMismatch = errors.New("chromosome mismatch")
)

// GeneLookup finds reference rows by gene symbol.
type GeneLookup interface {
	RowsByGene(gene string) []*reference.Row
}

// Selection is the result of resolving a query: either an *ExonSelection or
// a *CoordinateSelection.
type Selection interface {
	selection()
}

// ExonSelection selects exons of one or more transcripts.
// A nil Exons set selects every exon.
type ExonSelection struct {
	Rows  []*reference.Row
	Exons rangeset.Set
}

// CoordinateSelection selects explicit coordinates, each labelled by the
// reference rows of the queried gene on the same chromosome.
type CoordinateSelection struct {
	Targets []CoordinateTarget
}

// CoordinateTarget pairs a coordinate with the rows that label it.
type CoordinateTarget struct {
	Coordinate coord.Coordinate
	Rows       []*reference.Row
}

func (*ExonSelection) selection()       {}
func (*CoordinateSelection) selection() {}

// Resolver resolves queries against a reference table.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	lookup GeneLookup
	logger *zap.Logger
}

// NewResolver creates a resolver over the given lookup.
func NewResolver(lookup GeneLookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for debug and info messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Resolve selects the reference rows or coordinates for q.
// It may rewrite q.Exons into canonical form.
func (r *Resolver) Resolve(q *Query) (Selection, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows := r.lookup.RowsByGene(q.Gene)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGeneNotFound, q.Gene)
	}
	r.logger.Debug("matched gene", zap.String("gene", q.Gene), zap.Int("rows", len(rows)))

	if q.HasCoordinate() {
		if q.Transcript != "" || q.Exons != "" {
			r.logger.Info("coordinate given, ignoring transcript and exons",
				zap.String("transcript", q.Transcript), zap.String("exons", q.Exons))
		}
		return r.resolveCoordinates(q, rows)
	}

	if q.Transcript != "" {
		rows = filterTranscript(rows, q.Transcript)
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: %s for gene %s", ErrTranscriptNotFound, q.Transcript, q.Gene)
		}
		r.logger.Debug("matched transcript", zap.String("transcript", q.Transcript), zap.Int("rows", len(rows)))
	}

	exons, err := q.ExonRange()
	if err != nil {
		return nil, err
	}
	if exons != nil {
		r.logger.Info("exon range expanded", zap.String("exons", q.Exons), zap.Int("count", exons.Len()))
		if len(rows) > 1 {
			return nil, fmt.Errorf("%w: exons requested but %s matches %d transcripts (%s); specify a transcript",
				ErrAmbiguousSelection, q.Gene, len(rows), strings.Join(transcriptIDs(rows), ", "))
		}
	}

	return &ExonSelection{Rows: rows, Exons: exons}, nil
}

func (r *Resolver) resolveCoordinates(q *Query, rows []*reference.Row) (*CoordinateSelection, error) {
	coords, err := coord.Parse(q.Coordinate)
	if err != nil {
		return nil, err
	}

	byChrom := make(map[string][]*reference.Row)
	for _, row := range rows {
		c := coord.NormalizeChrom(row.Chrom)
		byChrom[c] = append(byChrom[c], row)
	}

	sel := &CoordinateSelection{Targets: make([]CoordinateTarget, 0, len(coords))}
	for _, c := range coords {
		matched, ok := byChrom[c.Chrom]
		if !ok {
			return nil, fmt.Errorf("%w: coordinate %s is not on the chromosome of %s (%s)",
				ErrChromosomeMismatch, c, q.Gene, strings.Join(sortedKeys(byChrom), ", "))
		}
		sel.Targets = append(sel.Targets, CoordinateTarget{Coordinate: c, Rows: matched})
	}
	return sel, nil
}

// filterTranscript keeps rows matching transcript, ignoring any version
// suffix on the requested ID.
func filterTranscript(rows []*reference.Row, transcript string) []*reference.Row {
	transcript, _, _ = strings.Cut(transcript, ".")
	var out []*reference.Row
	for _, row := range rows {
		if row.Transcript == transcript {
			out = append(out, row)
		}
	}
	return out
}

func transcriptIDs(rows []*reference.Row) []string {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.Transcript
	}
	return ids
}

func sortedKeys(m map[string][]*reference.Row) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
