package table_test

import (
	"testing"

	"github.com/HallyG/xerograb/internal/table"
	"github.com/stretchr/testify/require"
)

func TestDefinition(t *testing.T) {
	t.Parallel()

	t.Run("keeps first position and type of a column", func(t *testing.T) {
		t.Parallel()

		def := table.NewDefinition("Contact")
		def.AddPrimaryKey("ContactID")
		def.AddColumn("Name", table.DataTypeString)
		def.AddColumn("ContactID", table.DataTypeInteger)

		require.Equal(t, []string{"ContactID", "Name"}, def.ColumnNames())
		require.Equal(t, []string{"ContactID"}, def.PrimaryKey())

		dataType, ok := def.ColumnType("ContactID")
		require.True(t, ok)
		require.Equal(t, table.DataTypeString, dataType)
	})

	t.Run("clone is independent", func(t *testing.T) {
		t.Parallel()

		def := table.NewDefinition("Contact")
		def.AddColumn("Name", table.DataTypeString)

		clone := def.Clone()
		clone.AddColumn("Extra", table.DataTypeString)

		require.Equal(t, 1, def.Len())
		require.Equal(t, 2, clone.Len())
	})
}

func TestDataType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "38,8", table.DataTypeNumeric.Length())
	require.Equal(t, "NUMERIC(38,8)", table.DataTypeNumeric.String())
	require.Empty(t, table.DataTypeString.Length())
	require.Equal(t, "DATE", table.DataTypeDate.String())
}

func TestSet(t *testing.T) {
	t.Parallel()

	t.Run("accumulates rows across appends", func(t *testing.T) {
		t.Parallel()

		def := table.NewDefinition("Contact")
		def.AddPrimaryKey("ContactID")
		def.AddColumn("Name", table.DataTypeString)

		set := table.NewSet(map[string]*table.Definition{def.Name: def})
		set.Append("Contact", table.Row{"ContactID": "1", "Name": "a"})
		set.Append("Contact", table.Row{"ContactID": "2"})

		tbl, ok := set.Table("Contact")
		require.True(t, ok)
		require.Len(t, tbl.Rows, 2)
		require.Equal(t, []string{"2", ""}, tbl.Record(tbl.Rows[1]))
		require.Equal(t, 2, set.RowCount())

		// the seeded definition is not modified
		set.Append("Contact", table.Row{"ContactID": "3", "Extra": "x"})
		require.Equal(t, 2, def.Len())
	})

	t.Run("widens with unknown columns in natural order", func(t *testing.T) {
		t.Parallel()

		set := table.NewSet(nil)
		set.Append("report", table.Row{"cell_10": "k", "cell_2": "b", "cell_1": "a", "account": "x"})
		set.Append("report", table.Row{"cell_0": "z"})

		tbl, ok := set.Table("report")
		require.True(t, ok)
		require.Equal(t, []string{"account", "cell_1", "cell_2", "cell_10", "cell_0"}, tbl.Definition.ColumnNames())
	})

	t.Run("tables without rows are omitted", func(t *testing.T) {
		t.Parallel()

		set := table.NewSet(map[string]*table.Definition{
			"B": table.NewDefinition("B"),
			"A": table.NewDefinition("A"),
			"C": table.NewDefinition("C"),
		})
		set.Append("C", table.Row{"x": "1"})
		set.Append("A", table.Row{"x": "1"})

		tables := set.Tables()
		require.Len(t, tables, 2)
		require.Equal(t, "A", tables[0].Definition.Name)
		require.Equal(t, "C", tables[1].Definition.Name)
	})
}

func TestMergeColumns(t *testing.T) {
	t.Parallel()

	def := table.NewDefinition("Contact")
	def.AddColumn("ContactID", table.DataTypeString)

	tbl := &table.Table{Definition: def}
	tbl.MergeColumns([]string{"Legacy", "ContactID"})

	require.Equal(t, []string{"ContactID", "Legacy"}, def.ColumnNames())
}
