package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HallyG/xerograb/internal/log"
	"github.com/HallyG/xerograb/internal/table"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"
)

const TypeSQLite Type = "sqlite"

func init() {
	register(TypeSQLite, func(path string) (Sink, error) {
		return NewSQLiteSink(path)
	})
}

// SQLiteSink writes every table into one SQLite database file.
type SQLiteSink struct {
	db *sqlx.DB
}

// NewSQLiteSink opens the database at path. An empty path opens an in-memory database.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dsn, err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) WriteTable(ctx context.Context, t *table.Table, incremental bool) error {
	def := t.Definition

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, createTableStatement(def)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", def.Name, err)
	}

	var existing []string
	if err := tx.SelectContext(ctx, &existing, "SELECT name FROM pragma_table_info(?)", def.Name); err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", def.Name, err)
	}

	for _, c := range def.Columns() {
		if lo.Contains(existing, c.Name) {
			continue
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quote(def.Name), quote(c.Name), columnType(c.Type))); err != nil {
			return fmt.Errorf("failed to add column %s to %s: %w", c.Name, def.Name, err)
		}
	}

	if !incremental {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quote(def.Name))); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", def.Name, err)
		}
	}

	stmt, err := tx.PreparexContext(ctx, insertStatement(def))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", def.Name, err)
	}
	defer stmt.Close()

	columns := def.Columns()
	for _, row := range t.Rows {
		args := make([]any, len(columns))
		for i, c := range columns {
			args[i] = columnValue(row, c)
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", def.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", def.Name, err)
	}

	log.FromContext(ctx).Debug().
		Str("table.name", def.Name).
		Int("row.count", len(t.Rows)).
		Bool("incremental", incremental).
		Msg("wrote sqlite table")

	return nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func createTableStatement(def *table.Definition) string {
	columns := lo.Map(def.Columns(), func(c table.Column, _ int) string {
		return quote(c.Name) + " " + columnType(c.Type)
	})

	if pk := def.PrimaryKey(); len(pk) > 0 {
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(lo.Map(pk, quoteName), ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(def.Name), strings.Join(columns, ", "))
}

func insertStatement(def *table.Definition) string {
	names := def.ColumnNames()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		quote(def.Name),
		strings.Join(lo.Map(names, quoteName), ", "),
		placeholders,
	)
}

// columnType maps to SQLite type affinities. Dates, timestamps and booleans are kept as text.
func columnType(dataType table.DataType) string {
	switch dataType {
	case table.DataTypeInteger:
		return "INTEGER"
	case table.DataTypeNumeric:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

// columnValue binds NULL for columns the row never set, and for empty values in non-text columns.
func columnValue(row table.Row, c table.Column) any {
	value, ok := row[c.Name]
	if !ok || (value == "" && columnType(c.Type) != "TEXT") {
		return nil
	}

	return value
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func quoteName(identifier string, _ int) string {
	return quote(identifier)
}
