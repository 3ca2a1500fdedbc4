package sink_test

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/HallyG/xerograb/internal/sink"
	"github.com/HallyG/xerograb/internal/table"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func contacts(t *testing.T, rows ...table.Row) *table.Table {
	t.Helper()

	def := table.NewDefinition("Contact")
	def.AddPrimaryKey("ContactID")
	def.AddColumn("Name", table.DataTypeString)
	def.AddColumn("Balance", table.DataTypeNumeric)

	set := table.NewSet(map[string]*table.Definition{def.Name: def})
	for _, row := range rows {
		set.Append(def.Name, row)
	}

	tbl, ok := set.Table(def.Name)
	require.True(t, ok)

	return tbl
}

func TestAll(t *testing.T) {
	t.Parallel()

	require.Equal(t, []sink.Type{sink.TypeCSV, sink.TypeSQLite}, sink.All())
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("returns error for unknown sink", func(t *testing.T) {
		t.Parallel()

		_, err := sink.New("parquet", t.TempDir())
		require.EqualError(t, err, "unsupported sink type: parquet")
	})

	t.Run("opens registered sink", func(t *testing.T) {
		t.Parallel()

		s, err := sink.New(sink.TypeCSV, t.TempDir())
		require.NoError(t, err)
		require.NoError(t, s.Close())
	})
}

func TestCSVSink(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	s, err := sink.NewCSVSink(dir)
	require.NoError(t, err)

	tbl := contacts(t,
		table.Row{"ContactID": "c1", "Name": "Acme", "Balance": "10.5"},
		table.Row{"ContactID": "c2", "Website": "https://example.com"},
	)

	require.NoError(t, s.WriteTable(t.Context(), tbl, true))

	file, err := os.Open(filepath.Join(dir, "Contact.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"ContactID", "Name", "Balance", "Website"},
		{"c1", "Acme", "10.5", ""},
		{"c2", "", "", "https://example.com"},
	}, records)

	data, err := os.ReadFile(filepath.Join(dir, "Contact.csv.manifest"))
	require.NoError(t, err)

	var manifest sink.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	require.Equal(t, sink.Manifest{
		Columns:     []string{"ContactID", "Name", "Balance", "Website"},
		PrimaryKey:  []string{"ContactID"},
		Incremental: true,
		ColumnTypes: map[string]sink.ManifestColumn{
			"ContactID": {Type: table.DataTypeString},
			"Name":      {Type: table.DataTypeString},
			"Balance":   {Type: table.DataTypeNumeric, Length: "38,8"},
			"Website":   {Type: table.DataTypeString},
		},
	}, manifest)
}

func TestSQLiteSink(t *testing.T) {
	t.Parallel()

	type contact struct {
		ContactID string  `db:"ContactID"`
		Name      *string `db:"Name"`
		Balance   *string `db:"Balance"`
		Website   *string `db:"Website"`
	}

	setup := func(t *testing.T) (string, *sink.SQLiteSink) {
		t.Helper()

		path := filepath.Join(t.TempDir(), "xero.db")
		s, err := sink.NewSQLiteSink(path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		return path, s
	}

	query := func(t *testing.T, path string) []contact {
		t.Helper()

		db, err := sqlx.Connect("sqlite", path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		var rows []contact
		require.NoError(t, db.Select(&rows, `SELECT "ContactID", "Name", CAST("Balance" AS TEXT) AS "Balance", "Website" FROM "Contact" ORDER BY "ContactID"`))

		return rows
	}

	t.Run("upserts and widens incrementally", func(t *testing.T) {
		t.Parallel()

		path, s := setup(t)

		first := contacts(t, table.Row{"ContactID": "c1", "Name": "Acme", "Balance": "10.5"})
		require.NoError(t, s.WriteTable(t.Context(), first, true))

		second := contacts(t,
			table.Row{"ContactID": "c1", "Name": "Acme Ltd"},
			table.Row{"ContactID": "c2", "Website": "https://example.com"},
		)
		require.NoError(t, s.WriteTable(t.Context(), second, true))

		rows := query(t, path)
		require.Len(t, rows, 2)
		require.Equal(t, "Acme Ltd", *rows[0].Name)
		require.Nil(t, rows[0].Balance)
		require.Nil(t, rows[0].Website)
		require.Equal(t, "https://example.com", *rows[1].Website)
		require.Nil(t, rows[1].Name)
	})

	t.Run("full load replaces rows", func(t *testing.T) {
		t.Parallel()

		path, s := setup(t)

		require.NoError(t, s.WriteTable(t.Context(), contacts(t,
			table.Row{"ContactID": "c1", "Name": "Acme"},
			table.Row{"ContactID": "c2", "Name": "Globex"},
		), false))
		require.NoError(t, s.WriteTable(t.Context(), contacts(t,
			table.Row{"ContactID": "c3", "Name": "Initech", "Balance": "-2.25", "Website": ""},
		), false))

		rows := query(t, path)
		require.Len(t, rows, 1)
		require.Equal(t, "c3", rows[0].ContactID)
		require.Equal(t, "-2.25", *rows[0].Balance)
		require.Empty(t, *rows[0].Website)
	})
}
