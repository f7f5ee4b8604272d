package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCodes(t *testing.T) {
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
			name:     "upper-cases and trims",
			input:    []string{"  op  ", "sop ", " we"},
			expected: []string{"OP", "SOP", "WE"},
		},
		{
			name:     "removes case-insensitive duplicates preserving order",
			input:    []string{"OFF_PEAK", "we", "off_peak", "WE"},
			expected: []string{"OFF_PEAK", "WE"},
		},
		{
			name:     "drops blank entries",
			input:    []string{"", "   ", "AT"},
			expected: []string{"AT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCodes(tt.input))
		})
	}
}
