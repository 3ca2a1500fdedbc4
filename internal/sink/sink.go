package sink

import (
	"context"
	"fmt"
	"slices"

	"github.com/HallyG/xerograb/internal/table"
)

type Type string

// Sink persists accumulated tables. Incremental writes upsert by primary key, full writes replace
// the table contents.
type Sink interface {
	WriteTable(ctx context.Context, t *table.Table, incremental bool) error
	Close() error
}

type constructor func(path string) (Sink, error)

var registry = make(map[Type]constructor)

func register(sinkType Type, constructor constructor) {
	registry[sinkType] = constructor
}

// New opens a sink of the given type rooted at path.
func New(sinkType Type, path string) (Sink, error) {
	constructor, exists := registry[sinkType]
	if !exists {
		return nil, fmt.Errorf("unsupported sink type: %s", sinkType)
	}

	return constructor(path)
}

func All() []Type {
	types := make([]Type, 0, len(registry))
	for sinkType := range registry {
		types = append(types, sinkType)
	}

	slices.Sort(types)

	return types
}
