package flatten

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/HallyG/xerograb/internal/model"
	"github.com/HallyG/xerograb/internal/schema"
	"github.com/HallyG/xerograb/internal/table"
)

// ErrUndefinedTable is returned when an object carries data for a table the set does not define.
var ErrUndefinedTable = errors.New("table not defined")

// Flattener walks object instances and appends one row per object into a table set.
// Table naming, id columns and struct prefixing follow schema.Builder, and rows are only
// appended to tables the set already defines, so every row fits the derived schema.
// A Flattener is not safe for concurrent use.
type Flattener struct {
	resolver *schema.Resolver
	set      *table.Set
	context  map[string]string
}

type Option func(*Flattener)

// WithContext stamps the given columns onto every emitted row, e.g. the tenant a page belongs to.
// The columns must already be defined on every table of the set.
func WithContext(values map[string]string) Option {
	return func(f *Flattener) {
		f.context = values
	}
}

// New creates a flattener appending into set, which must be seeded with the endpoint's schema
// (see schema.Builder). Tables the builder suppresses for having no columns of their own get no
// rows. Any other undefined table makes Flatten fail with ErrUndefinedTable.
func New(catalog *model.Catalog, set *table.Set, opts ...Option) *Flattener {
	f := &Flattener{
		resolver: schema.NewResolver(catalog),
		set:      set,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Flatten emits the rows of every object and of the objects nested in list attributes.
// Each object is treated as a root; any error aborts the whole call.
// An object whose table the set does not define is skipped when it contributes only its id
// columns, which is the case for suppressed tables, and is an ErrUndefinedTable otherwise.
func (f *Flattener) Flatten(objects []*model.Object) error {
	for _, obj := range objects {
		if obj == nil {
			continue
		}

		if err := f.emit(obj, "", "", "", []string{obj.TypeName()}); err != nil {
			return err
		}
	}

	return nil
}

func (f *Flattener) emit(obj *model.Object, prefix string, parentIDColumn string, parentID string, lineage []string) error {
	name := obj.TypeName()
	if parentIDColumn != "" {
		name = prefix + "_" + name
	}

	idColumn, id, err := Identify(obj)
	if err != nil {
		return err
	}

	row := table.Row{idColumn: id}
	if parentIDColumn != "" {
		if parentID == "" {
			return fmt.Errorf("%w: %s.%s", schema.ErrMissingParentID, name, parentIDColumn)
		}
		row[parentIDColumn] = parentID
	}
	keys := len(row)

	for _, attr := range obj.Model().Attributes() {
		value := obj.Value(attr.Name)
		if value == nil {
			continue
		}

		if err := f.attribute(row, attr, value, name, idColumn, id, lineage); err != nil {
			return fmt.Errorf("%s.%s: %w", obj.TypeName(), attr.Field, err)
		}
	}

	if _, ok := f.set.Table(name); !ok {
		if len(row) > keys {
			return fmt.Errorf("%w: %s", ErrUndefinedTable, name)
		}

		return nil
	}

	for column, value := range f.context {
		row[column] = value
	}
	f.set.Append(name, row)

	return nil
}

func (f *Flattener) attribute(row table.Row, attr model.Attribute, value any, tableName string, idColumn string, id string, lineage []string) error {
	res, err := f.resolver.Resolve(attr.Type)
	if err != nil {
		return err
	}

	switch res.Kind {
	case schema.KindScalar:
		row[attr.Field] = model.FormatScalar(value, attr.Type)
	case schema.KindDownloadable:
		child, ok := value.(*model.Object)
		if !ok {
			return fmt.Errorf("%w: expected %s object, got %T", schema.ErrUnresolvedType, attr.Type, value)
		}

		childIDColumn, childID, err := Identify(child)
		if err != nil {
			return err
		}
		row[childIDColumn] = childID
	case schema.KindStruct:
		child, ok := value.(*model.Object)
		if !ok {
			return fmt.Errorf("%w: expected %s object, got %T", schema.ErrUnresolvedType, attr.Type, value)
		}

		return f.inline(row, child, attr.Field)
	case schema.KindList:
		elements, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%w: expected list, got %T", schema.ErrUnresolvedType, value)
		}

		if len(elements) == 0 || slices.Contains(lineage, res.Element) {
			return nil
		}

		element, err := f.resolver.Resolve(res.Element)
		if err != nil {
			return err
		}

		if element.Kind != schema.KindStruct && element.Kind != schema.KindDownloadable {
			return fmt.Errorf("%w: list element %s is a %s", schema.ErrUnresolvedType, res.Element, element.Kind)
		}

		childLineage := append(slices.Clone(lineage), res.Element)
		for _, item := range elements {
			child, ok := item.(*model.Object)
			if !ok {
				return fmt.Errorf("%w: unexpected %T in list of %s", schema.ErrUnresolvedType, item, res.Element)
			}

			if err := f.emit(child, tableName, idColumn, id, childLineage); err != nil {
				return err
			}
		}
	}

	return nil
}

// inline writes the terminal fields of a struct as "<prefix>_<Field>" columns, recursing into nested structs.
func (f *Flattener) inline(row table.Row, obj *model.Object, prefix string) error {
	for _, attr := range obj.Model().Attributes() {
		value := obj.Value(attr.Name)
		if value == nil {
			continue
		}

		name := prefix + "_" + attr.Field

		res, err := f.resolver.Resolve(attr.Type)
		if err != nil {
			return err
		}

		switch res.Kind {
		case schema.KindScalar:
			row[name] = model.FormatScalar(value, attr.Type)
		case schema.KindStruct:
			child, ok := value.(*model.Object)
			if !ok {
				return fmt.Errorf("%w: expected %s object, got %T", schema.ErrUnresolvedType, attr.Type, value)
			}

			if err := f.inline(row, child, name); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s.%s is a %s", schema.ErrMalformedStruct, obj.TypeName(), attr.Field, res.Kind)
		}
	}

	return nil
}

// Identify returns the id column and value of an object: the natural id when it is set, otherwise
// "<Type>ID" with a content hash of the serialized object.
func Identify(obj *model.Object) (string, string, error) {
	if id := obj.IDValue(); id != "" {
		return obj.Model().IDFieldName(), id, nil
	}

	id, err := Hash(obj)
	if err != nil {
		return "", "", err
	}

	return obj.TypeName() + "ID", id, nil
}

// Hash returns the hex MD5 digest of the object's canonical JSON form (sorted keys, no HTML escaping).
// Objects with identical content share a hash.
func Hash(obj *model.Object) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj.Serialize()); err != nil {
		return "", fmt.Errorf("serialize %s: %w", obj.TypeName(), err)
	}

	sum := md5.Sum(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))

	return hex.EncodeToString(sum[:]), nil
}
