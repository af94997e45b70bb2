package validation

import "unicode/utf8"

// Truncate cuts s to at most width runes. The bool reports whether it cut.
func Truncate(s string, width int) (string, bool) {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:width]), true
}

// Column is one bounded-width value headed for a VARCHAR column.
type Column struct {
	Name  string
	Value string
	Width int
}

// Truncation records a value that did not fit its column.
type Truncation struct {
	Column         string
	OriginalLength int
	Width          int
}

// FitColumns truncates each column and reports which ones were cut.
func FitColumns(cols []Column) ([]string, []Truncation) {
	values := make([]string, len(cols))
	var cut []Truncation
	for i, c := range cols {
		v, truncated := Truncate(c.Value, c.Width)
		values[i] = v
		if truncated {
			cut = append(cut, Truncation{
				Column:         c.Name,
				OriginalLength: utf8.RuneCountInString(c.Value),
				Width:          c.Width,
			})
		}
	}
	return values, cut
}
