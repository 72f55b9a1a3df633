package core

import "strings"

// NormalizeColumns maps raw header names to SQL identifiers: lowercase, with
// every space replaced by an underscore. Nothing else is touched, so names are
// not deduplicated, quoted, or stripped of other characters. The result has the
// same length and order as the input.
func NormalizeColumns(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = NormalizeColumn(h)
	}
	return out
}

// NormalizeColumn normalizes a single header name.
func NormalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
