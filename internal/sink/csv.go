package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HallyG/xerograb/internal/log"
	"github.com/HallyG/xerograb/internal/table"
)

const TypeCSV Type = "csv"

func init() {
	register(TypeCSV, func(path string) (Sink, error) {
		return NewCSVSink(path)
	})
}

// Manifest describes a written CSV file for the loader that picks it up.
type Manifest struct {
	Columns     []string                  `json:"columns"`
	PrimaryKey  []string                  `json:"primary_key"`
	Incremental bool                      `json:"incremental"`
	ColumnTypes map[string]ManifestColumn `json:"column_types"`
}

type ManifestColumn struct {
	Type   table.DataType `json:"type"`
	Length string         `json:"length,omitempty"`
}

// CSVSink writes one <table>.csv file and one <table>.csv.manifest file per table into a directory.
type CSVSink struct {
	dir string
}

func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	return &CSVSink{dir: dir}, nil
}

func (s *CSVSink) WriteTable(ctx context.Context, t *table.Table, incremental bool) error {
	path := filepath.Join(s.dir, t.Definition.Name+".csv")

	if err := s.writeRows(path, t); err != nil {
		return err
	}

	if err := s.writeManifest(path+".manifest", t, incremental); err != nil {
		return err
	}

	log.FromContext(ctx).Debug().
		Str("table.name", t.Definition.Name).
		Int("row.count", len(t.Rows)).
		Str("file", path).
		Msg("wrote csv table")

	return nil
}

func (s *CSVSink) writeRows(path string, t *table.Table) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Definition.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}

	for _, row := range t.Rows {
		if err := writer.Write(t.Record(row)); err != nil {
			return fmt.Errorf("failed to write row of %s: %w", path, err)
		}
	}

	writer.Flush()

	return writer.Error()
}

func (s *CSVSink) writeManifest(path string, t *table.Table, incremental bool) error {
	manifest := Manifest{
		Columns:     t.Definition.ColumnNames(),
		PrimaryKey:  t.Definition.PrimaryKey(),
		Incremental: incremental,
		ColumnTypes: make(map[string]ManifestColumn, t.Definition.Len()),
	}

	for _, c := range t.Definition.Columns() {
		manifest.ColumnTypes[c.Name] = ManifestColumn{Type: c.Type, Length: c.Type.Length()}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (s *CSVSink) Close() error {
	return nil
}
