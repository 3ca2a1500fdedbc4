package model

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/accounting.yaml
var accountingCatalog []byte

type Paging string

const (
	PagingNone   Paging = "none"
	PagingPage   Paging = "page"
	PagingOffset Paging = "offset"
)

// Attribute is a single declared attribute of a model type.
type Attribute struct {
	Name  string `yaml:"name"`  // attribute name used by the client library (e.g. contact_id)
	Type  string `yaml:"type"`  // declared type name (e.g. str, list[Address], Contact)
	Field string `yaml:"field"` // external field name used on the wire (e.g. ContactID)
}

// Type is the raw metadata of a model type. Types with enum values are enumerations.
type Type struct {
	Name       string      `yaml:"name"`
	Enum       []string    `yaml:"enum,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Endpoint is an object endpoint exposed by the API.
type Endpoint struct {
	Name        string `yaml:"name"`
	Path        string `yaml:"path"`
	Model       string `yaml:"model"` // wrapper model of the response, e.g. Contacts
	Paging      Paging `yaml:"paging"`
	OffsetField string `yaml:"offset_field,omitempty"`
}

type document struct {
	Operations []string   `yaml:"operations"`
	Reports    []string   `yaml:"reports"`
	Types      []*Type    `yaml:"types"`
	Endpoints  []Endpoint `yaml:"endpoints"`
}

// Catalog is the registry of model types, API operations and endpoints.
// It is immutable once parsed.
type Catalog struct {
	types      map[string]*Type
	operations map[string]struct{}
	endpoints  map[string]Endpoint
	reports    []string
}

// Default returns the embedded accounting catalog.
func Default() (*Catalog, error) {
	return Parse(accountingCatalog)
}

// Parse loads a catalog from its YAML document and checks that every declared type name is resolvable.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		types:      make(map[string]*Type, len(doc.Types)),
		operations: make(map[string]struct{}, len(doc.Operations)),
		endpoints:  make(map[string]Endpoint, len(doc.Endpoints)),
		reports:    slices.Sorted(slices.Values(doc.Reports)),
	}

	for _, op := range doc.Operations {
		c.operations[op] = struct{}{}
	}

	for _, t := range doc.Types {
		if t == nil || t.Name == "" {
			return nil, errors.New("catalog: type without name")
		}

		if _, exists := c.types[t.Name]; exists {
			return nil, fmt.Errorf("catalog: duplicate type %q", t.Name)
		}

		c.types[t.Name] = t
	}

	for _, t := range doc.Types {
		if err := c.checkType(t); err != nil {
			return nil, err
		}
	}

	for _, e := range doc.Endpoints {
		if err := c.checkEndpoint(e); err != nil {
			return nil, err
		}

		c.endpoints[e.Name] = e
	}

	return c, nil
}

func (c *Catalog) checkType(t *Type) error {
	seen := make(map[string]struct{}, len(t.Attributes))
	for _, attr := range t.Attributes {
		if attr.Name == "" || attr.Field == "" || attr.Type == "" {
			return fmt.Errorf("catalog: type %q has an incomplete attribute %+v", t.Name, attr)
		}

		if _, dup := seen[attr.Field]; dup {
			return fmt.Errorf("catalog: type %q declares field %q twice", t.Name, attr.Field)
		}
		seen[attr.Field] = struct{}{}

		typeName := attr.Type
		if element, ok := ElementType(typeName); ok {
			typeName = element
		}

		if IsTerminal(typeName) || IsDate(typeName) || IsDateTime(typeName) {
			continue
		}

		if _, ok := c.types[typeName]; !ok {
			return fmt.Errorf("catalog: type %q attribute %q references unknown type %q", t.Name, attr.Name, attr.Type)
		}
	}

	return nil
}

func (c *Catalog) checkEndpoint(e Endpoint) error {
	if e.Name == "" || e.Path == "" {
		return fmt.Errorf("catalog: endpoint %+v needs a name and a path", e)
	}

	m, ok := c.Model(e.Model)
	if !ok {
		return fmt.Errorf("catalog: endpoint %q references unknown model %q", e.Name, e.Model)
	}

	if !m.IsWrappedList() {
		return fmt.Errorf("catalog: endpoint %q model %q is not a wrapped list", e.Name, e.Model)
	}

	switch e.Paging {
	case PagingNone, PagingPage:
	case PagingOffset:
		if e.OffsetField == "" {
			return fmt.Errorf("catalog: endpoint %q uses offset paging without an offset field", e.Name)
		}
	default:
		return fmt.Errorf("catalog: endpoint %q has unsupported paging %q", e.Name, e.Paging)
	}

	return nil
}

// Model looks up a type by name and wraps it.
func (c *Catalog) Model(name string) (*Model, bool) {
	t, ok := c.types[name]
	if !ok {
		return nil, false
	}

	return &Model{t: t, catalog: c}, true
}

// HasOperation reports whether the API surface declares the named operation.
func (c *Catalog) HasOperation(name string) bool {
	_, ok := c.operations[name]
	return ok
}

// Endpoint looks up an endpoint by name, ignoring case.
func (c *Catalog) Endpoint(name string) (Endpoint, bool) {
	if e, ok := c.endpoints[name]; ok {
		return e, true
	}

	for _, e := range c.endpoints {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}

	return Endpoint{}, false
}

// Report returns the canonical name of a report, ignoring case.
func (c *Catalog) Report(name string) (string, bool) {
	for _, report := range c.reports {
		if strings.EqualFold(report, name) {
			return report, true
		}
	}

	return "", false
}

// Reports returns the report names sorted alphabetically.
func (c *Catalog) Reports() []string {
	return slices.Clone(c.reports)
}

// Endpoints returns all endpoints sorted by name.
func (c *Catalog) Endpoints() []Endpoint {
	endpoints := make([]Endpoint, 0, len(c.endpoints))
	for _, e := range c.endpoints {
		endpoints = append(endpoints, e)
	}

	slices.SortFunc(endpoints, func(a, b Endpoint) int {
		return strings.Compare(a.Name, b.Name)
	})

	return endpoints
}
