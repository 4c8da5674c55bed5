package reference

import "sort"

// Table holds reference rows indexed by gene symbol.
// It is read-only once loaded and safe for concurrent readers.
type Table struct {
	rows   []*Row
	byGene map[string][]*Row
}

// New creates an empty table.
func New() *Table {
	return &Table{
		byGene: make(map[string][]*Row),
	}
}

// Add appends a row to the table. Not safe to call concurrently with lookups.
func (t *Table) Add(r *Row) {
	t.rows = append(t.rows, r)
	t.byGene[r.Gene] = append(t.byGene[r.Gene], r)
}

// RowsByGene returns the rows whose gene symbol matches exactly
// (case-sensitive), in load order. Returns nil when the gene is absent.
// Callers must not modify the returned rows.
func (t *Table) RowsByGene(gene string) []*Row {
	return t.byGene[gene]
}

// Rows returns every row in load order.
func (t *Table) Rows() []*Row {
	return t.rows
}

// RowCount returns the total number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// GeneCount returns the number of distinct gene symbols.
func (t *Table) GeneCount() int {
	return len(t.byGene)
}

// Chromosomes returns a sorted list of chromosomes present in the table.
func (t *Table) Chromosomes() []string {
	seen := make(map[string]bool)
	for _, r := range t.rows {
		seen[r.Chrom] = true
	}
	chroms := make([]string, 0, len(seen))
	for c := range seen {
		chroms = append(chroms, c)
	}
	sort.Strings(chroms)
	return chroms
}
