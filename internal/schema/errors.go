package schema

import "errors"

var (
	// ErrUnresolvedType is returned when a declared type name cannot be classified.
	ErrUnresolvedType = errors.New("unexpected attribute type")
	// ErrMalformedStruct is returned when a struct holds a list or a downloadable object.
	ErrMalformedStruct = errors.New("unexpected type in struct")
	// ErrMissingParentID is returned when a child row is emitted without its parent's id.
	ErrMissingParentID = errors.New("parent object must have a defined id")
)
