package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
		cut   bool
	}{
		{"short", 10, "short", false},
		{"exactly10!", 10, "exactly10!", false},
		{"eleven char", 10, "eleven cha", true},
		{"ääääää", 3, "äää", true},
		{"anything", 0, "anything", false},
	}
	for _, tt := range tests {
		got, cut := Truncate(tt.in, tt.width)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.cut, cut)
	}
}

func TestFitColumns(t *testing.T) {
	values, cut := FitColumns([]Column{
		{Name: "first_name", Value: "Jane", Width: 50},
		{Name: "description", Value: strings.Repeat("x", 2100), Width: 2000},
	})

	assert.Equal(t, "Jane", values[0])
	assert.Len(t, values[1], 2000)
	assert.Equal(t, []Truncation{{Column: "description", OriginalLength: 2100, Width: 2000}}, cut)
}
