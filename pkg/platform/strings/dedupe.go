// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeInOrder removes duplicates and empty strings from a slice, trimming
// whitespace from each element. First occurrence wins; order is preserved.
//
// Example:
//
//	DedupeInOrder([]string{"a@x.com", " b@x.com ", "a@x.com", ""})
//	// Returns: []string{"a@x.com", "b@x.com"}
func DedupeInOrder(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// NormalizePtr trims whitespace from an optional string field. A nil pointer,
// or one that is empty after trimming, normalizes to nil. The input is never
// mutated; a trimmed value is returned as a fresh pointer.
func NormalizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
