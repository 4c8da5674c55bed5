package bed

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingChromSizes is returned when padding is requested without a
// chromosome size for every padded chromosome.
var ErrMissingChromSizes = errors.New("missing chromosome sizes")

// ErrOutsideChromosome is returned when an interval to be padded starts at or
// beyond the end of its chromosome.
var ErrOutsideChromosome = errors.New("interval outside chromosome")

// emptyValue is reported for a column with no values in a merged region.
const emptyValue = "."

// Pad extends every interval by padding base pairs on both ends, clamped to
// [0, chromosome length]. The input is not modified. An interval starting at
// or past the chromosome end is rejected.
func Pad(intervals []Interval, padding int64, sizes ChromSizes) ([]Interval, error) {
	out := make([]Interval, len(intervals))
	copy(out, intervals)
	if padding <= 0 {
		return out, nil
	}
	if sizes == nil {
		return nil, fmt.Errorf("%w: padding of %d bp requires a chromosome size file", ErrMissingChromSizes, padding)
	}

	for i := range out {
		size, ok := sizes[out[i].Chrom]
		if !ok {
			return nil, fmt.Errorf("%w: no size for %s", ErrMissingChromSizes, out[i].Chrom)
		}
		if out[i].Start >= size {
			return nil, fmt.Errorf("%w: %s:%d-%d (length %d)",
				ErrOutsideChromosome, out[i].Chrom, out[i].Start, out[i].End, size)
		}
		p := min(padding, size)
		out[i].Start = max(0, out[i].Start-p)
		out[i].End = min(size, min(out[i].End, size)+p)
	}
	return out, nil
}

// Sort orders intervals by chromosome, start and end in place.
func Sort(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		a, b := &intervals[i], &intervals[j]
		if a.Chrom != b.Chrom {
			return a.Chrom < b.Chrom
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}

// Merge pads, sorts and merges intervals. Intervals on the same chromosome
// merge when they overlap or touch (next.Start <= current.End). Each merged
// region reports, per column, the distinct source values in order of first
// appearance joined by commas.
func Merge(intervals []Interval, padding int64, sizes ChromSizes, columns []Column) ([]Region, error) {
	padded, err := Pad(intervals, padding, sizes)
	if err != nil {
		return nil, err
	}
	Sort(padded)

	var regions []Region
	var acc *collapser
	flush := func() {
		if acc != nil {
			regions = append(regions, acc.region())
		}
	}

	for i := range padded {
		iv := &padded[i]
		if acc != nil && iv.Chrom == acc.chrom && iv.Start <= acc.end {
			acc.add(iv)
			continue
		}
		flush()
		acc = newCollapser(iv, columns)
	}
	flush()

	return regions, nil
}

// collapser accumulates one merged region.
type collapser struct {
	chrom      string
	start, end int64
	columns    []Column
	values     [][]string
	seen       []map[string]bool
}

func newCollapser(iv *Interval, columns []Column) *collapser {
	c := &collapser{
		chrom:   iv.Chrom,
		start:   iv.Start,
		end:     iv.End,
		columns: columns,
		values:  make([][]string, len(columns)),
		seen:    make([]map[string]bool, len(columns)),
	}
	for i := range columns {
		c.seen[i] = make(map[string]bool)
	}
	c.collect(iv)
	return c
}

func (c *collapser) add(iv *Interval) {
	c.end = max(c.end, iv.End)
	c.collect(iv)
}

func (c *collapser) collect(iv *Interval) {
	for i, col := range c.columns {
		v := iv.Value(col)
		if v == "" || c.seen[i][v] {
			continue
		}
		c.seen[i][v] = true
		c.values[i] = append(c.values[i], v)
	}
}

func (c *collapser) region() Region {
	anns := make([]string, len(c.columns))
	for i, vals := range c.values {
		if len(vals) == 0 {
			anns[i] = emptyValue
			continue
		}
		anns[i] = strings.Join(vals, ",")
	}
	return Region{Chrom: c.chrom, Start: c.start, End: c.end, Annotations: anns}
}
