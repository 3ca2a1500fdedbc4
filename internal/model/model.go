package model

import "strings"

// Model wraps a catalog type and exposes the introspection used by schema derivation and flattening.
// It never mutates the underlying type.
type Model struct {
	t       *Type
	catalog *Catalog
}

func (m *Model) Name() string {
	return m.t.Name
}

func (m *Model) Attributes() []Attribute {
	return m.t.Attributes
}

func (m *Model) IsEnum() bool {
	return len(m.t.Enum) > 0
}

// FieldName returns the external field name of an attribute, or "" if the attribute is unknown.
func (m *Model) FieldName(attrName string) string {
	for _, attr := range m.t.Attributes {
		if attr.Name == attrName {
			return attr.Field
		}
	}

	return ""
}

func (m *Model) FieldNames() []string {
	names := make([]string, 0, len(m.t.Attributes))
	for _, attr := range m.t.Attributes {
		names = append(names, attr.Field)
	}

	return names
}

// AttrName returns the attribute name mapped to an external field name, or "" if there is none.
func (m *Model) AttrName(fieldName string) string {
	for _, attr := range m.t.Attributes {
		if attr.Field == fieldName {
			return attr.Name
		}
	}

	return ""
}

// IDFieldName returns the natural id field ("<TypeName>ID") when the type declares it, otherwise "".
func (m *Model) IDFieldName() string {
	idField := m.t.Name + "ID"
	if m.AttrName(idField) == "" {
		return ""
	}

	return idField
}

func (m *Model) IDAttributeName() string {
	idField := m.IDFieldName()
	if idField == "" {
		return ""
	}

	return m.AttrName(idField)
}

func (m *Model) HasID() bool {
	return m.IDAttributeName() != ""
}

// DownloadMethodName derives the API operation that fetches this type independently.
// Types with an id attribute map "contact_id" to "get_contact". Single-attribute wrappers map to
// "get_<attribute named like the type>". The name is returned only if the API declares it.
func (m *Model) DownloadMethodName() string {
	var getter string

	if idAttr := m.IDAttributeName(); idAttr != "" {
		getter = "get_" + strings.ReplaceAll(idAttr, "_id", "")
	} else if len(m.t.Attributes) == 1 {
		if attr := m.AttrName(m.t.Name); attr != "" {
			getter = "get_" + attr
		}
	}

	if getter == "" || !m.catalog.HasOperation(getter) {
		return ""
	}

	return getter
}

func (m *Model) IsDownloadable() bool {
	return m.DownloadMethodName() != ""
}

// ListAttributeName returns the attribute of a single-attribute type whose declared type is a list.
func (m *Model) ListAttributeName() string {
	if len(m.t.Attributes) != 1 {
		return ""
	}

	attr := m.t.Attributes[0]
	if _, ok := ElementType(attr.Type); !ok {
		return ""
	}

	return attr.Name
}

func (m *Model) IsWrappedList() bool {
	return m.ListAttributeName() != ""
}

// ContainedModel returns the element model of a wrapped list (Contacts -> Contact), or the model itself.
func (m *Model) ContainedModel() *Model {
	attrName := m.ListAttributeName()
	if attrName == "" {
		return m
	}

	element, _ := ElementType(m.t.Attributes[0].Type)
	contained, ok := m.catalog.Model(element)
	if !ok {
		return m
	}

	return contained
}

// Catalog returns the catalog the model belongs to.
func (m *Model) Catalog() *Catalog {
	return m.catalog
}
