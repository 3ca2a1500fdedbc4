package report

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/HallyG/xerograb/internal/table"
)

// Context keys every report row is stamped with by the extractor.
const (
	ContextTenantID = "tenant_id"
	ContextDate     = "date"
)

type Variant string

const (
	VariantSections Variant = "sections"
	VariantCells    Variant = "cells"
)

// Flattener turns a report into rows. Context values are merged into every row.
type Flattener interface {
	Variant() Variant
	Flatten(r *Report, context map[string]string) []table.Row
	// Columns returns the leading columns of the variant, in output order.
	Columns() []string
	PrimaryKey() []string
}

var registry = map[Variant]func() Flattener{
	VariantSections: func() Flattener { return SectionFlattener{} },
	VariantCells:    func() Flattener { return CellFlattener{} },
}

func NewFlattener(variant Variant) (Flattener, error) {
	if variant == "" {
		variant = VariantSections
	}

	constructor, exists := registry[variant]
	if !exists {
		return nil, fmt.Errorf("unsupported report variant: %s", variant)
	}

	return constructor(), nil
}

// Variants returns the supported variants sorted by name.
func Variants() []Variant {
	variants := make([]Variant, 0, len(registry))
	for variant := range registry {
		variants = append(variants, variant)
	}

	slices.Sort(variants)

	return variants
}

// Definition builds the table definition of a report table for the given flattener.
func Definition(name string, f Flattener) *table.Definition {
	def := table.NewDefinition(name)
	for _, column := range f.Columns() {
		def.AddColumn(column, table.DataTypeString)
	}

	for _, column := range f.PrimaryKey() {
		def.AddPrimaryKey(column)
	}

	return def
}

func withContext(row table.Row, requestDate string, context map[string]string) table.Row {
	row["request_date"] = requestDate
	for key, value := range context {
		row[key] = value
	}

	return row
}

// SectionFlattener emits one row per Row line inside each Section, excluding summary rows.
// The account name is the first cell, the value the second, and the account id the first
// attribute of the second cell.
type SectionFlattener struct{}

func (SectionFlattener) Variant() Variant {
	return VariantSections
}

func (SectionFlattener) Columns() []string {
	return []string{
		ContextTenantID, ContextDate, "request_date", "report_title", "section_title",
		"account_name", "account_id", "value",
	}
}

func (SectionFlattener) PrimaryKey() []string {
	return []string{ContextTenantID, ContextDate, "report_title", "section_title", "account_name", "account_id"}
}

func (SectionFlattener) Flatten(r *Report, context map[string]string) []table.Row {
	requestDate := r.requestDate()

	var rows []table.Row
	for _, section := range r.sections() {
		for _, line := range section.Rows {
			if line.RowType != RowTypeRow || len(line.Cells) == 0 {
				continue
			}

			row := table.Row{
				"report_title":  r.ReportTitle,
				"section_title": section.Title,
				"account_name":  line.Cells[0].Value,
				"account_id":    "",
				"value":         "",
			}

			if len(line.Cells) > 1 {
				row["value"] = line.Cells[1].Value
				if attr, ok := line.Cells[1].firstAttribute(); ok {
					row["account_id"] = attr.Value
				}
			}

			rows = append(rows, withContext(row, requestDate, context))
		}
	}

	return rows
}

// CellFlattener emits Row and SummaryRow lines inside each Section with their cells laid out
// positionally as cell_0..cell_N, plus attribute_id_N and attribute_value_N for the first
// attribute of cell N.
type CellFlattener struct{}

func (CellFlattener) Variant() Variant {
	return VariantCells
}

func (CellFlattener) Columns() []string {
	return []string{
		ContextTenantID, ContextDate, "request_date", "report_id", "updated_date_utc",
		"section_title", "row_type",
	}
}

func (CellFlattener) PrimaryKey() []string {
	return []string{ContextTenantID, ContextDate, "report_id", "section_title", "row_type", "cell_0"}
}

func (CellFlattener) Flatten(r *Report, context map[string]string) []table.Row {
	requestDate := r.requestDate()
	updated := r.UpdatedDateUTC.Format(time.RFC3339)

	var rows []table.Row
	for _, section := range r.sections() {
		for _, line := range section.Rows {
			if line.RowType != RowTypeRow && line.RowType != RowTypeSummaryRow {
				continue
			}

			row := table.Row{
				"report_id":        r.ReportID,
				"updated_date_utc": updated,
				"section_title":    section.Title,
				"row_type":         string(line.RowType),
				"cell_0":           "",
			}

			for i, cell := range line.Cells {
				n := strconv.Itoa(i)
				row["cell_"+n] = cell.Value

				if attr, ok := cell.firstAttribute(); ok {
					row["attribute_id_"+n] = attr.ID
					row["attribute_value_"+n] = attr.Value
				}
			}

			rows = append(rows, withContext(row, requestDate, context))
		}
	}

	return rows
}
