package model

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

// Object is an instance of a catalog model. Values are keyed by attribute name and hold one of
// string, int64, json.Number (floats, kept as the decimal text received), float64, bool, time.Time,
// *Object or []any. Null attributes are not stored.
type Object struct {
	model  *Model
	values map[string]any
}

// NewObject creates an object of the given model. Nil values are dropped.
func NewObject(m *Model, values map[string]any) *Object {
	o := &Object{model: m, values: make(map[string]any, len(values))}
	for attr, value := range values {
		o.Set(attr, value)
	}

	return o
}

func (o *Object) Model() *Model {
	return o.model
}

func (o *Object) TypeName() string {
	return o.model.Name()
}

// Set stores an attribute value; a nil value removes it.
func (o *Object) Set(attrName string, value any) {
	if value == nil {
		delete(o.values, attrName)
		return
	}

	if obj, ok := value.(*Object); ok && obj == nil {
		delete(o.values, attrName)
		return
	}

	o.values[attrName] = value
}

// Value returns the value of an attribute, or nil when it is null.
func (o *Object) Value(attrName string) any {
	return o.values[attrName]
}

// FieldValue returns the value stored under an external field name.
func (o *Object) FieldValue(fieldName string) any {
	attr := o.model.AttrName(fieldName)
	if attr == "" {
		return nil
	}

	return o.values[attr]
}

// IDValue returns the natural id value, or "" when the model has no id or it is unset.
func (o *Object) IDValue() string {
	idField := o.model.IDFieldName()
	if idField == "" {
		return ""
	}

	id, _ := o.FieldValue(idField).(string)
	return id
}

// List returns the contents of a wrapped list object (e.g. the Contact elements of Contacts).
func (o *Object) List() []*Object {
	attr := o.model.ListAttributeName()
	if attr == "" {
		return nil
	}

	values, _ := o.values[attr].([]any)
	objects := make([]*Object, 0, len(values))
	for _, value := range values {
		if obj, ok := value.(*Object); ok {
			objects = append(objects, obj)
		}
	}

	return objects
}

// Serialize converts the object into a map keyed by external field names, recursively.
// Null values are omitted; dates and times are rendered as strings.
func (o *Object) Serialize() map[string]any {
	out := make(map[string]any, len(o.values))
	for _, attr := range o.model.Attributes() {
		value, ok := o.values[attr.Name]
		if !ok {
			continue
		}

		out[attr.Field] = serializeValue(value, attr.Type)
	}

	return out
}

func serializeValue(value any, typeName string) any {
	switch v := value.(type) {
	case *Object:
		return v.Serialize()
	case []any:
		element, _ := ElementType(typeName)
		items := make([]any, 0, len(v))
		for _, item := range v {
			items = append(items, serializeValue(item, element))
		}
		return items
	case time.Time:
		return FormatTime(v, typeName)
	default:
		return v
	}
}

// FormatScalar renders a terminal value the way it is written into a table cell.
func FormatScalar(value any, typeName string) string {
	switch v := value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return FormatTime(v, typeName)
	default:
		return ""
	}
}

// FormatTime renders dates as YYYY-MM-DD and datetimes as RFC 3339 in UTC.
func FormatTime(t time.Time, typeName string) string {
	if IsDate(typeName) {
		return t.Format(dateLayout)
	}

	return t.UTC().Format(dateTimeLayout)
}
