package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IDNormalizer canonicalizes document identifiers before lookup.
type IDNormalizer struct {
	FoldCase bool
}

// Normalize returns the canonical form of id: Unicode NFD, surrounding whitespace
// trimmed, inner whitespace runs collapsed to a single space and, if enabled, lower-cased.
func (n IDNormalizer) Normalize(id string) string {
	s := strings.Join(strings.Fields(id), " ")
	s = norm.NFD.String(s)
	if n.FoldCase {
		s = strings.ToLower(s)
	}
	return s
}

// NormalizeID normalizes id without case folding.
func NormalizeID(id string) string {
	return IDNormalizer{}.Normalize(id)
}

// IsBlank reports whether a query has no searchable content.
func IsBlank(query string) bool {
	return strings.TrimSpace(query) == ""
}
