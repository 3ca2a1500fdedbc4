package model

import (
	"regexp"
	"strings"
)

// Terminal type aliases as declared by the upstream client library.
const (
	TypeString   = "str"
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeBool     = "bool"
	TypeDate     = "date"
	TypeDateTime = "datetime"
)

var listTypePattern = regexp.MustCompile(`^list\[(.*)\]$`)

// IsTerminal reports whether typeName is one of the terminal aliases.
func IsTerminal(typeName string) bool {
	switch typeName {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeDate, TypeDateTime:
		return true
	default:
		return false
	}
}

// IsDateTime reports whether typeName carries the datetime marker, e.g. "datetime[ms-format]".
func IsDateTime(typeName string) bool {
	return strings.HasPrefix(typeName, TypeDateTime)
}

// IsDate reports whether typeName carries the date marker but not the datetime one.
func IsDate(typeName string) bool {
	return strings.HasPrefix(typeName, TypeDate) && !IsDateTime(typeName)
}

// IsList reports whether typeName carries the list marker.
func IsList(typeName string) bool {
	return strings.HasPrefix(typeName, "list")
}

// ElementType extracts the element type name of a list type name.
//
// Example:
//
//	ElementType("list[LineItem]") // Returns "LineItem", true
//	ElementType("Contact")        // Returns "", false
func ElementType(typeName string) (string, bool) {
	match := listTypePattern.FindStringSubmatch(typeName)
	if match == nil {
		return "", false
	}

	return match[1], true
}
