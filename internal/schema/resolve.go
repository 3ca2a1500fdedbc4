package schema

import (
	"fmt"

	"github.com/HallyG/xerograb/internal/model"
	"github.com/HallyG/xerograb/internal/table"
)

type Kind int

const (
	KindScalar Kind = iota + 1
	KindList
	KindStruct
	KindDownloadable
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	case KindDownloadable:
		return "downloadable"
	default:
		return "unknown"
	}
}

// Resolution is the classification of a declared type name.
type Resolution struct {
	Kind    Kind
	Scalar  table.DataType // set for KindScalar
	Element string         // list element type name, set for KindList
	Model   *model.Model   // set for KindStruct and KindDownloadable
}

var terminalTypes = map[string]table.DataType{
	model.TypeString:   table.DataTypeString,
	model.TypeInt:      table.DataTypeInteger,
	model.TypeFloat:    table.DataTypeNumeric,
	model.TypeBool:     table.DataTypeBoolean,
	model.TypeDate:     table.DataTypeDate,
	model.TypeDateTime: table.DataTypeTimestamp,
}

// Resolver classifies declared type names against a catalog. Results are cached per name.
// It is not safe for concurrent use.
type Resolver struct {
	catalog *model.Catalog
	cache   map[string]Resolution
}

func NewResolver(catalog *model.Catalog) *Resolver {
	return &Resolver{
		catalog: catalog,
		cache:   make(map[string]Resolution),
	}
}

func (r *Resolver) Resolve(typeName string) (Resolution, error) {
	if res, ok := r.cache[typeName]; ok {
		return res, nil
	}

	res, err := r.resolve(typeName)
	if err != nil {
		return Resolution{}, err
	}

	r.cache[typeName] = res

	return res, nil
}

func (r *Resolver) resolve(typeName string) (Resolution, error) {
	if dataType, ok := terminalTypes[typeName]; ok {
		return Resolution{Kind: KindScalar, Scalar: dataType}, nil
	}

	switch {
	case model.IsDateTime(typeName):
		return Resolution{Kind: KindScalar, Scalar: table.DataTypeTimestamp}, nil
	case model.IsDate(typeName):
		return Resolution{Kind: KindScalar, Scalar: table.DataTypeDate}, nil
	case model.IsList(typeName):
		element, ok := model.ElementType(typeName)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %s", ErrUnresolvedType, typeName)
		}
		return Resolution{Kind: KindList, Element: element}, nil
	}

	m, ok := r.catalog.Model(typeName)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrUnresolvedType, typeName)
	}

	if m.IsEnum() {
		return Resolution{Kind: KindScalar, Scalar: table.DataTypeString}, nil
	}

	if m.IsDownloadable() {
		return Resolution{Kind: KindDownloadable, Model: m}, nil
	}

	return Resolution{Kind: KindStruct, Model: m}, nil
}

// IDColumn returns the id column name of a model: its natural id field, or the synthetic "<Type>ID".
func IDColumn(m *model.Model) string {
	if idField := m.IDFieldName(); idField != "" {
		return idField
	}

	return m.Name() + "ID"
}
