package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PreserveCase applies the capitalisation pattern of original to replacement.
//
// ALL-UPPER and all-lower originals upper- or lower-case the replacement;
// a Title-Case original (first letter upper, remainder lower) title-cases it.
// Any other pattern, and originals without cased letters, leave the
// replacement unchanged.
func PreserveCase(original, replacement string) string {
	if original == "" || replacement == "" {
		return replacement
	}

	upper := strings.ToUpper(original)
	lower := strings.ToLower(original)
	if upper == lower {
		return replacement
	}

	switch {
	case original == upper:
		return strings.ToUpper(replacement)
	case original == lower:
		return strings.ToLower(replacement)
	case isTitleCase(original):
		return titleCase(replacement)
	}
	return replacement
}

func isTitleCase(s string) bool {
	first, size := utf8.DecodeRuneInString(s)
	rest := s[size:]
	return unicode.IsUpper(first) && rest == strings.ToLower(rest)
}

func titleCase(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
