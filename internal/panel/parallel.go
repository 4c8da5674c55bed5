package panel

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/hassanfa/GenePanelDesigner/internal/bed"
	"github.com/hassanfa/GenePanelDesigner/internal/query"
)

// WorkItem holds a query ready for building.
type WorkItem struct {
	Seq   int
	Query *query.Query
}

// WorkResult holds the intervals collected for a single query.
type WorkResult struct {
	Seq       int
	Query     *query.Query
	Intervals []bed.Interval
	Columns   []bed.Column
	Err       error
}

// ParallelCollect collects intervals for work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (b *Builder) ParallelCollect(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				intervals, columns, err := b.Collect(item.Query)
				results <- WorkResult{
					Seq:       item.Seq,
					Query:     item.Query,
					Intervals: intervals,
					Columns:   columns,
					Err:       err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// BatchOptions controls BuildAll.
type BatchOptions struct {
	Workers    int
	SkipErrors bool // log and skip failing queries instead of aborting
}

// BatchResult is the combined panel built from many queries.
type BatchResult struct {
	Regions   []bed.Region
	Built     int
	Succeeded []WorkResult // in input order
	Failed    []WorkResult
}

// BuildAll collects intervals for every query concurrently and merges them
// into a single panel. Unless SkipErrors is set, the first failing query (in
// input order) aborts the batch.
func (b *Builder) BuildAll(queries []*query.Query, opts BatchOptions) (*BatchResult, error) {
	items := make(chan WorkItem, len(queries))
	for i, q := range queries {
		items <- WorkItem{Seq: i, Query: q}
	}
	close(items)

	res := &BatchResult{}
	var all []bed.Interval
	columns := b.opts.Columns

	err := OrderedCollect(b.ParallelCollect(items, opts.Workers), func(r WorkResult) error {
		if r.Err != nil {
			if !opts.SkipErrors {
				return fmt.Errorf("query %d (%s): %w", r.Seq+1, r.Query.Gene, r.Err)
			}
			b.logger.Warn("skipping failed query",
				zap.Int("query", r.Seq+1),
				zap.String("gene", r.Query.Gene),
				zap.Error(r.Err))
			res.Failed = append(res.Failed, r)
			return nil
		}
		res.Built++
		res.Succeeded = append(res.Succeeded, r)
		all = append(all, r.Intervals...)
		if columns == nil || len(r.Columns) > len(columns) {
			columns = r.Columns
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	regions, err := bed.Merge(all, b.opts.Padding, b.opts.ChromSizes, columns)
	if err != nil {
		return nil, err
	}
	res.Regions = regions

	b.logger.Info("built panel",
		zap.Int("queries", len(queries)),
		zap.Int("built", res.Built),
		zap.Int("failed", len(res.Failed)),
		zap.Int("regions", len(regions)))

	return res, nil
}
