package uuidutil

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Rule validates that a string is empty or a UUID.
var Rule = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_invalid_uuid", "must be a valid UUID")
	}

	return nil
})

// ParseList parses UUIDs from entries that may themselves be comma separated, skipping blanks
// and duplicates. The result is in canonical lower case form.
//
// Example:
//
//	ParseList([]string{"a1b2...,  c3d4...", ""}) // Returns the two UUIDs as strings
func ParseList(entries []string) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{})

	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("invalid UUID %q: %w", part, err)
			}

			if _, dup := seen[id.String()]; dup {
				continue
			}

			seen[id.String()] = struct{}{}
			ids = append(ids, id.String())
		}
	}

	return ids, nil
}
