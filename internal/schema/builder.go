package schema

import (
	"fmt"
	"slices"

	"github.com/HallyG/xerograb/internal/model"
	"github.com/HallyG/xerograb/internal/table"
)

// Builder derives the output tables of a model from its type metadata alone.
type Builder struct {
	catalog  *model.Catalog
	resolver *Resolver
}

func NewBuilder(catalog *model.Catalog) *Builder {
	return &Builder{
		catalog:  catalog,
		resolver: NewResolver(catalog),
	}
}

// Build derives the table definitions for the named input model. The root table is the model
// contained by the input, so a list wrapper such as Contacts yields a Contact root table.
// Any unresolvable attribute fails the whole derivation.
func (b *Builder) Build(inputModelName string) (map[string]*table.Definition, error) {
	input, ok := b.catalog.Model(inputModelName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedType, inputModelName)
	}

	defs := make(map[string]*table.Definition)
	root := input.ContainedModel()

	if err := b.addTable(defs, root, "", "", []string{root.Name()}); err != nil {
		return nil, fmt.Errorf("build schema for %s: %w", inputModelName, err)
	}

	return defs, nil
}

// BuildEndpoint derives the table definitions for the model returned by an endpoint.
func (b *Builder) BuildEndpoint(endpoint model.Endpoint) (map[string]*table.Definition, error) {
	return b.Build(endpoint.Model)
}

// addTable registers the table of m. Nested tables are named "<prefix>_<Type>" and carry the
// parent's id column in their primary key. lineage holds the types from the root down to m.
func (b *Builder) addTable(defs map[string]*table.Definition, m *model.Model, prefix string, parentIDColumn string, lineage []string) error {
	name := m.Name()
	if parentIDColumn != "" {
		name = prefix + "_" + name
	}

	def := table.NewDefinition(name)
	idColumn := IDColumn(m)
	def.AddPrimaryKey(idColumn)
	if parentIDColumn != "" {
		def.AddPrimaryKey(parentIDColumn)
	}

	contributed := 0
	for _, attr := range m.Attributes() {
		columns, err := b.attributeColumns(defs, attr, name, idColumn, lineage)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", m.Name(), attr.Field, err)
		}

		for _, c := range columns {
			def.AddColumn(c.Name, c.Type)
		}
		contributed += len(columns)
	}

	if contributed == 0 {
		return nil
	}

	defs[name] = def

	return nil
}

func (b *Builder) attributeColumns(defs map[string]*table.Definition, attr model.Attribute, tableName string, idColumn string, lineage []string) ([]table.Column, error) {
	res, err := b.resolver.Resolve(attr.Type)
	if err != nil {
		return nil, err
	}

	switch res.Kind {
	case KindScalar:
		return []table.Column{{Name: attr.Field, Type: res.Scalar}}, nil
	case KindDownloadable:
		return []table.Column{{Name: IDColumn(res.Model), Type: table.DataTypeString}}, nil
	case KindStruct:
		return b.structColumns(res.Model, attr.Field)
	case KindList:
		if slices.Contains(lineage, res.Element) {
			return nil, nil
		}

		element, err := b.resolver.Resolve(res.Element)
		if err != nil {
			return nil, err
		}

		if element.Kind != KindStruct && element.Kind != KindDownloadable {
			return nil, fmt.Errorf("%w: list element %s is a %s", ErrUnresolvedType, res.Element, element.Kind)
		}

		return nil, b.addTable(defs, element.Model, tableName, idColumn, append(slices.Clone(lineage), res.Element))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedType, attr.Type)
	}
}

// structColumns inlines the terminal fields of a struct as "<prefix>_<Field>", recursing into nested structs.
func (b *Builder) structColumns(m *model.Model, prefix string) ([]table.Column, error) {
	var columns []table.Column

	for _, attr := range m.Attributes() {
		name := prefix + "_" + attr.Field

		res, err := b.resolver.Resolve(attr.Type)
		if err != nil {
			return nil, err
		}

		switch res.Kind {
		case KindScalar:
			columns = append(columns, table.Column{Name: name, Type: res.Scalar})
		case KindStruct:
			nested, err := b.structColumns(res.Model, name)
			if err != nil {
				return nil, err
			}
			columns = append(columns, nested...)
		default:
			return nil, fmt.Errorf("%w: %s.%s is a %s", ErrMalformedStruct, m.Name(), attr.Field, res.Kind)
		}
	}

	return columns, nil
}
