package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// NameMatcher compares display names loosely: case-folded, punctuation
// treated as spaces, and runs of whitespace collapsed. It is safe for
// concurrent use.
type NameMatcher struct{}

// NewNameMatcher creates a new name matcher
func NewNameMatcher() *NameMatcher {
	return &NameMatcher{}
}

// Normalize returns the comparison form of a name
func (m *NameMatcher) Normalize(name string) string {
	// Casers are stateful, so each call gets its own
	folded := cases.Fold().String(name)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(mapped), " ")
}

// Exact reports whether two names are equal after normalization
func (m *NameMatcher) Exact(a, b string) bool {
	na := m.Normalize(a)
	return na != "" && na == m.Normalize(b)
}

// Contains reports whether candidate contains query after normalization
func (m *NameMatcher) Contains(candidate, query string) bool {
	nq := m.Normalize(query)
	return nq != "" && strings.Contains(m.Normalize(candidate), nq)
}

// Approximate reports whether either name contains the other after normalization
func (m *NameMatcher) Approximate(a, b string) bool {
	return m.Contains(a, b) || m.Contains(b, a)
}
