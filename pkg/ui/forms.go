package ui

import (
	"strings"
)

func formString(values map[string][]string, key string) string {
	if values == nil {
		return ""
	}
	return strings.TrimSpace(first(values[key]))
}

// formOptionalString keeps the submitted value as is so untouched fields
// compare equal to what was rendered.
func formOptionalString(values map[string][]string, key string) *string {
	if values == nil {
		return nil
	}
	v := first(values[key])
	if v == "" {
		return nil
	}
	return &v
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
