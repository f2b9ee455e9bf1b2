package tally_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/invoice-tally/internal/tally"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"2024-03-15", "20240315", true},
		{"15/03/2024", "20240315", true},
		{"15-03-2024", "20240315", true},
		{"2024/03/15", "20240315", true},
		{"15.03.2024", "20240315", true},
		{"2024-03-15T10:30:00+05:30", "20240315", true},
		{" 2024-03-15 ", "20240315", true},
		{"20240315", "20240315", true},
		{"", "20240101", false},
		{"March 15", "20240101", false},
		{"2024-3-5", "20240101", false},
		{"03/15/2024", "20240101", false},
		{"2024-02-30", "20240101", false},
		{"2024.13.01", "20240101", false},
		{"2024-02-29", "20240229", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := tally.FormatDate(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
