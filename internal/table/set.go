package table

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Table is a definition together with the rows accumulated for it.
type Table struct {
	Definition *Definition
	Rows       []Row
}

// MergeColumns re-adds columns written by an earlier run so the header never loses a column.
func (t *Table) MergeColumns(previous []string) {
	for _, name := range previous {
		t.Definition.AddColumn(name, DataTypeString)
	}
}

// Record lays a row out in column order, padding absent columns with empty strings.
func (t *Table) Record(row Row) []string {
	record := make([]string, 0, t.Definition.Len())
	for _, c := range t.Definition.columns {
		record = append(record, row[c.Name])
	}

	return record
}

// Set accumulates rows per table across pages of one endpoint or report run.
// It is not safe for concurrent use.
type Set struct {
	tables map[string]*Table
}

// NewSet creates an accumulator seeded with copies of the given definitions.
func NewSet(definitions map[string]*Definition) *Set {
	s := &Set{tables: make(map[string]*Table, len(definitions))}
	for _, def := range definitions {
		s.Define(def)
	}

	return s
}

// Define registers a table definition if the table is not known yet.
func (s *Set) Define(def *Definition) {
	if _, exists := s.tables[def.Name]; exists {
		return
	}

	s.tables[def.Name] = &Table{Definition: def.Clone()}
}

// Append adds a row to the named table. Unknown tables are created and columns unknown to the
// definition are added as STRING, so columns accumulate and never vanish.
func (s *Set) Append(name string, row Row) {
	t, ok := s.tables[name]
	if !ok {
		t = &Table{Definition: NewDefinition(name)}
		s.tables[name] = t
	}

	var unknown []string
	for column := range row {
		if !t.Definition.HasColumn(column) {
			unknown = append(unknown, column)
		}
	}

	slices.SortFunc(unknown, compareColumns)
	for _, column := range unknown {
		t.Definition.AddColumn(column, DataTypeString)
	}

	t.Rows = append(t.Rows, row)
}

func (s *Set) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Tables returns the tables that received at least one row, sorted by name.
func (s *Set) Tables() []*Table {
	tables := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		if len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	}

	slices.SortFunc(tables, func(a, b *Table) int {
		return strings.Compare(a.Definition.Name, b.Definition.Name)
	})

	return tables
}

// RowCount returns the number of rows across all tables.
func (s *Set) RowCount() int {
	count := 0
	for _, t := range s.tables {
		count += len(t.Rows)
	}

	return count
}

// compareColumns orders names with a numeric suffix numerically, so cell_2 sorts before cell_10.
func compareColumns(a, b string) int {
	aPrefix, aNum, aOK := splitNumericSuffix(a)
	bPrefix, bNum, bOK := splitNumericSuffix(b)

	if aOK && bOK && aPrefix == bPrefix {
		return cmp.Compare(aNum, bNum)
	}

	return strings.Compare(a, b)
}

func splitNumericSuffix(s string) (string, int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}

	if i == len(s) {
		return s, 0, false
	}

	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}

	return s[:i], n, true
}
