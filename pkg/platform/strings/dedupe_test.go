package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeInOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single element",
			input:    []string{"a@x.com"},
			expected: []string{"a@x.com"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  a@x.com  ", "111 ", "  222"},
			expected: []string{"a@x.com", "111", "222"},
		},
		{
			name:     "first occurrence wins",
			input:    []string{"a@x.com", "b@x.com", "a@x.com", "c@x.com", "b@x.com"},
			expected: []string{"a@x.com", "b@x.com", "c@x.com"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"111", "", "  ", "222"},
			expected: []string{"111", "222"},
		},
		{
			name:     "matching is case-sensitive",
			input:    []string{"A@x.com", "a@x.com"},
			expected: []string{"A@x.com", "a@x.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeInOrder(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizePtr(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name     string
		input    *string
		expected *string
	}{
		{name: "nil stays nil", input: nil, expected: nil},
		{name: "empty becomes nil", input: strPtr(""), expected: nil},
		{name: "whitespace becomes nil", input: strPtr("   "), expected: nil},
		{name: "value is trimmed", input: strPtr("  a@x.com "), expected: strPtr("a@x.com")},
		{name: "clean value unchanged", input: strPtr("111"), expected: strPtr("111")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePtr(tt.input)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			assert.NotNil(t, result)
			assert.Equal(t, *tt.expected, *result)
		})
	}

	t.Run("does not mutate the input", func(t *testing.T) {
		original := "  padded  "
		_ = NormalizePtr(&original)
		assert.Equal(t, "  padded  ", original)
	})
}
