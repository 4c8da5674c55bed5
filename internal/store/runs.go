package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/hassanfa/GenePanelDesigner/internal/bed"
	"github.com/hassanfa/GenePanelDesigner/internal/query"
	"github.com/hassanfa/GenePanelDesigner/internal/reference"
)

// annotationSep joins a region's collapsed columns in the annotations column.
const annotationSep = "\t"

// Run describes one recorded panel build.
type Run struct {
	ID               string
	CreatedAt        time.Time
	Query            string // query as JSON
	Gene             string
	Reference        string
	ReferenceSize    int64
	ReferenceModTime time.Time
	Padding          int64
	Columns          []string
	RegionCount      int
}

// NewRun creates a run record for a query built against the given reference.
func NewRun(q *query.Query, ref reference.Fingerprint, padding int64, columns []bed.Column) Run {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.String()
	}
	return Run{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		Query:            q.String(),
		Gene:             q.Gene,
		Reference:        ref.Path,
		ReferenceSize:    ref.Size,
		ReferenceModTime: ref.ModTime.UTC(),
		Padding:          padding,
		Columns:          names,
	}
}

// StoredRegion is a region together with the run that produced it.
type StoredRegion struct {
	RunID  string
	Gene   string
	Region bed.Region
}

// RecordRun stores a run and its regions. Regions are batch-inserted with
// the Appender API; on failure the run row is removed again.
func (s *Store) RecordRun(run Run, regions []bed.Region) (err error) {
	run.RegionCount = len(regions)

	if _, err := s.db.Exec(`INSERT INTO panel_runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Query, run.Gene, run.Reference,
		run.ReferenceSize, run.ReferenceModTime, run.Padding,
		strings.Join(run.Columns, ","), run.RegionCount,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	defer func() {
		if err != nil {
			s.db.Exec(`DELETE FROM panel_regions WHERE run_id=?`, run.ID)
			s.db.Exec(`DELETE FROM panel_runs WHERE run_id=?`, run.ID)
		}
	}()

	if len(regions) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "panel_regions")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range regions {
		if err := appender.AppendRow(
			run.ID, r.Chrom, r.Start, r.End, strings.Join(r.Annotations, annotationSep),
		); err != nil {
			return fmt.Errorf("append region: %w", err)
		}
	}

	return appender.Flush()
}

// Runs returns all recorded runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, created_at, query, gene, reference, reference_size,
		reference_modtime, padding, collapse_columns, region_count
		FROM panel_runs
		ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var columns string
		if err := rows.Scan(
			&run.ID, &run.CreatedAt, &run.Query, &run.Gene, &run.Reference, &run.ReferenceSize,
			&run.ReferenceModTime, &run.Padding, &columns, &run.RegionCount,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if columns != "" {
			run.Columns = strings.Split(columns, ",")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RegionsByGene returns the stored regions of every run for a gene.
func (s *Store) RegionsByGene(gene string) ([]StoredRegion, error) {
	rows, err := s.db.Query(`SELECT
		r.run_id, p.gene, r.chrom, r.start, r.end_, r.annotations
		FROM panel_regions r JOIN panel_runs p ON r.run_id = p.run_id
		WHERE p.gene=?
		ORDER BY r.chrom, r.start, r.end_`, gene)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	return scanRegions(rows)
}

// AllRegions returns every stored region ordered by position.
func (s *Store) AllRegions() ([]StoredRegion, error) {
	rows, err := s.db.Query(`SELECT
		r.run_id, p.gene, r.chrom, r.start, r.end_, r.annotations
		FROM panel_regions r JOIN panel_runs p ON r.run_id = p.run_id
		ORDER BY r.chrom, r.start, r.end_`)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	return scanRegions(rows)
}

// Export merges every stored region into a single panel whose annotation
// column lists the distinct genes of each merged region.
func (s *Store) Export(padding int64, sizes bed.ChromSizes) ([]bed.Region, error) {
	stored, err := s.AllRegions()
	if err != nil {
		return nil, err
	}

	intervals := make([]bed.Interval, len(stored))
	for i, sr := range stored {
		intervals[i] = bed.Interval{
			Chrom: sr.Region.Chrom,
			Start: sr.Region.Start,
			End:   sr.Region.End,
			Gene:  sr.Gene,
		}
	}
	return bed.Merge(intervals, padding, sizes, []bed.Column{bed.ColumnGene})
}

// Clear removes all recorded runs and regions.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM panel_regions"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM panel_runs")
	return err
}

// scanRegions scans rows into StoredRegion slices.
func scanRegions(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]StoredRegion, error) {
	var out []StoredRegion
	for rows.Next() {
		var sr StoredRegion
		var annotations string
		if err := rows.Scan(
			&sr.RunID, &sr.Gene, &sr.Region.Chrom, &sr.Region.Start, &sr.Region.End, &annotations,
		); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		if annotations != "" {
			sr.Region.Annotations = strings.Split(annotations, annotationSep)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return out, nil
}
