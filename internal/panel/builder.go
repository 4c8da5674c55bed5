// Package panel turns gene panel queries into merged BED regions.
package panel

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hassanfa/GenePanelDesigner/internal/bed"
	"github.com/hassanfa/GenePanelDesigner/internal/exon"
	"github.com/hassanfa/GenePanelDesigner/internal/query"
)

// Options controls padding and annotation collapsing.
type Options struct {
	Padding    int64          // bp added to both ends of every interval
	ChromSizes bed.ChromSizes // required when Padding > 0
	Columns    []bed.Column   // nil selects the per-path default
}

// Result is the outcome of building one query.
type Result struct {
	Query     *query.Query
	Intervals []bed.Interval // unpadded, unmerged
	Columns   []bed.Column
	Regions   []bed.Region
}

// Builder resolves queries and merges their intervals.
// It holds no mutable state after construction and is safe for concurrent use.
type Builder struct {
	resolver *query.Resolver
	opts     Options
	logger   *zap.Logger
}

// NewBuilder creates a builder over the given reference lookup.
func NewBuilder(lookup query.GeneLookup, opts Options) *Builder {
	return &Builder{
		resolver: query.NewResolver(lookup),
		opts:     opts,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for the builder and its resolver.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
	b.resolver.SetLogger(l)
}

// Collect resolves q and returns its unmerged intervals with the columns
// that should be collapsed for them.
func (b *Builder) Collect(q *query.Query) ([]bed.Interval, []bed.Column, error) {
	sel, err := b.resolver.Resolve(q)
	if err != nil {
		return nil, nil, err
	}

	var intervals []bed.Interval
	columns := b.opts.Columns

	switch s := sel.(type) {
	case *query.ExonSelection:
		intervals = exon.ExpandAll(s.Rows, s.Exons)
		if columns == nil {
			columns = bed.ExonColumns
		}
		if s.Exons != nil && len(intervals) == 0 {
			b.logger.Warn("exon selection matches no exons",
				zap.String("gene", q.Gene), zap.String("exons", q.Exons))
		}
	case *query.CoordinateSelection:
		intervals = coordinateIntervals(s)
		if columns == nil {
			columns = bed.CoordinateColumns
		}
	}

	b.logger.Debug("collected intervals", zap.String("query", q.String()), zap.Int("intervals", len(intervals)))
	return intervals, columns, nil
}

// Build resolves q and returns its merged regions. A valid exon selection
// that matches no exon yields a Result with no regions.
func (b *Builder) Build(q *query.Query) (*Result, error) {
	intervals, columns, err := b.Collect(q)
	if err != nil {
		return nil, err
	}

	regions, err := bed.Merge(intervals, b.opts.Padding, b.opts.ChromSizes, columns)
	if err != nil {
		return nil, err
	}

	b.logger.Info("merged regions",
		zap.String("gene", q.Gene),
		zap.Int("intervals", len(intervals)),
		zap.Int("regions", len(regions)))

	return &Result{
		Query:     q,
		Intervals: intervals,
		Columns:   columns,
		Regions:   regions,
	}, nil
}

// coordinateIntervals emits one interval per (coordinate, labelling row).
func coordinateIntervals(s *query.CoordinateSelection) []bed.Interval {
	var out []bed.Interval
	for _, t := range s.Targets {
		for _, row := range t.Rows {
			out = append(out, bed.Interval{
				Chrom:      t.Coordinate.Chrom,
				Start:      t.Coordinate.Start,
				End:        t.Coordinate.End,
				Strand:     row.Strand,
				Gene:       row.Gene,
				Transcript: row.Transcript,
				Label:      t.Coordinate.String(),
			})
		}
	}
	return out
}

var nameReplacer = strings.NewReplacer(",", "_", ":", "_", "-", "_", "/", "_", " ", "_")

// OutputName derives a BED file name from the query values, e.g.
// {"genename":"TP53","exons":"1,2"} becomes TP53_1_2.bed.
func OutputName(q *query.Query) string {
	return nameReplacer.Replace(strings.Join(q.Values(), "_")) + ".bed"
}
