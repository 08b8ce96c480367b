package validate

import (
	"strings"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// DistinctPair reports whether a and b are both set and name different users.
func DistinctPair(a, b string) bool {
	return Required(a) && Required(b) && a != b
}

func MaxRunes(value string, max int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(value)) <= max
}
