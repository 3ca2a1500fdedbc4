package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// msDatePattern matches the .NET style dates the accounting API emits, e.g. /Date(1573755038314+0000)/.
var msDatePattern = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	dateLayout,
}

// Decode binds a JSON payload to an object tree of the named type.
// Fields not declared by the type are ignored.
func (c *Catalog) Decode(typeName string, data []byte) (*Object, error) {
	m, ok := c.Model(typeName)
	if !ok {
		return nil, fmt.Errorf("decode: unknown type %q", typeName)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", typeName, err)
	}

	return c.bindObject(m, raw)
}

func (c *Catalog) bindObject(m *Model, raw map[string]any) (*Object, error) {
	obj := NewObject(m, nil)

	for _, attr := range m.Attributes() {
		rawValue, ok := raw[attr.Field]
		if !ok || rawValue == nil {
			continue
		}

		value, err := c.bindValue(attr.Type, rawValue)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Name(), attr.Field, err)
		}

		obj.Set(attr.Name, value)
	}

	return obj, nil
}

func (c *Catalog) bindValue(typeName string, raw any) (any, error) {
	switch {
	case typeName == TypeString:
		return bindString(raw)
	case typeName == TypeInt:
		num, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", raw)
		}
		return num.Int64()
	case typeName == TypeFloat:
		num, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", raw)
		}
		if _, err := num.Float64(); err != nil {
			return nil, err
		}
		return num, nil
	case typeName == TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", raw)
		}
		return b, nil
	case IsDateTime(typeName), IsDate(typeName):
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected date string, got %T", raw)
		}
		return ParseTime(s)
	case IsList(typeName):
		element, ok := ElementType(typeName)
		if !ok {
			return nil, fmt.Errorf("malformed list type %q", typeName)
		}

		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", raw)
		}

		values := make([]any, 0, len(items))
		for i, item := range items {
			if item == nil {
				continue
			}

			value, err := c.bindValue(element, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			values = append(values, value)
		}
		return values, nil
	}

	m, ok := c.Model(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typeName)
	}

	if m.IsEnum() {
		return bindString(raw)
	}

	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object for %s, got %T", typeName, raw)
	}

	return c.bindObject(m, fields)
}

func bindString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("expected string, got %T", raw)
	}
}

// ParseTime parses the date representations used by the accounting API.
func ParseTime(value string) (time.Time, error) {
	if match := msDatePattern.FindStringSubmatch(value); match != nil {
		ms, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
		}

		return time.UnixMilli(ms).UTC(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("parse date %q: unsupported format", value)
}
