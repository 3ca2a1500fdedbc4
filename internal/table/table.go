package table

import (
	"fmt"
	"slices"
	"strings"
)

type DataType string

const (
	DataTypeString    DataType = "STRING"
	DataTypeInteger   DataType = "INTEGER"
	DataTypeNumeric   DataType = "NUMERIC"
	DataTypeBoolean   DataType = "BOOLEAN"
	DataTypeDate      DataType = "DATE"
	DataTypeTimestamp DataType = "TIMESTAMP"
)

// NumericLength is the fixed precision of every NUMERIC column.
const NumericLength = "38,8"

// Length returns the declared length of the type, which only NUMERIC carries.
func (d DataType) Length() string {
	if d == DataTypeNumeric {
		return NumericLength
	}

	return ""
}

func (d DataType) String() string {
	if length := d.Length(); length != "" {
		return fmt.Sprintf("%s(%s)", string(d), length)
	}

	return string(d)
}

// Column is a named, typed column.
type Column struct {
	Name string
	Type DataType
}

// Definition describes an output table: ordered typed columns and a primary key.
type Definition struct {
	Name       string
	columns    []Column
	index      map[string]int
	primaryKey []string
}

func NewDefinition(name string) *Definition {
	return &Definition{
		Name:  name,
		index: make(map[string]int),
	}
}

// AddColumn appends a column. Adding a column that already exists keeps its position and type.
func (d *Definition) AddColumn(name string, dataType DataType) {
	if _, exists := d.index[name]; exists {
		return
	}

	d.index[name] = len(d.columns)
	d.columns = append(d.columns, Column{Name: name, Type: dataType})
}

// AddPrimaryKey marks a column as part of the primary key, adding it as STRING if missing.
func (d *Definition) AddPrimaryKey(name string) {
	d.AddColumn(name, DataTypeString)
	if !slices.Contains(d.primaryKey, name) {
		d.primaryKey = append(d.primaryKey, name)
	}
}

func (d *Definition) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

func (d *Definition) ColumnType(name string) (DataType, bool) {
	i, ok := d.index[name]
	if !ok {
		return "", false
	}

	return d.columns[i].Type, true
}

func (d *Definition) Columns() []Column {
	return slices.Clone(d.columns)
}

func (d *Definition) ColumnNames() []string {
	names := make([]string, 0, len(d.columns))
	for _, c := range d.columns {
		names = append(names, c.Name)
	}

	return names
}

func (d *Definition) PrimaryKey() []string {
	return slices.Clone(d.primaryKey)
}

func (d *Definition) Len() int {
	return len(d.columns)
}

// Clone returns a deep copy, so accumulation on the copy leaves the original untouched.
func (d *Definition) Clone() *Definition {
	clone := NewDefinition(d.Name)
	for _, c := range d.columns {
		clone.AddColumn(c.Name, c.Type)
	}
	clone.primaryKey = slices.Clone(d.primaryKey)

	return clone
}

func (d *Definition) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (primary key: %s)\n", d.Name, strings.Join(d.primaryKey, ", "))
	for _, c := range d.columns {
		fmt.Fprintf(&b, "  %s %s\n", c.Name, c.Type)
	}

	return b.String()
}

// Row maps column names to serialized scalar values. A missing column is null.
type Row map[string]string
