// Package split slices delimited text records into fields.
package split

import "strings"

// DefaultDelimiter is the field separator used by record files.
const DefaultDelimiter = ';'

// Split returns the substrings of line between occurrences of sep.
//
// Empty fields are preserved: a leading separator yields a leading empty
// field and a trailing separator yields a trailing empty field, so the
// number of fields is always strings.Count(line, sep)+1.
func Split(line string, sep rune) []string {
	return strings.Split(line, string(sep))
}

// Join is the inverse of Split.
func Join(fields []string, sep rune) string {
	return strings.Join(fields, string(sep))
}
