// Package identify implements the artist-name normalisation, fuzzy
// matching, and multi-artist splitting rules shared by every C7
// metadata provider.
package identify

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticsStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stopwords are dropped as whole tokens during normalisation.
var stopwords = map[string]bool{"the": true, "and": true}

// Normalise converts name to its comparison key: ASCII-fold (strip
// diacritics), strip non-alphanumerics, lowercase, drop the whole-word
// tokens "the" and "and", collapse whitespace, then remove all spaces.
func Normalise(name string) string {
	folded, _, err := transform.String(diacriticsStripper, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var cleaned strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cleaned.WriteRune(r)
		default:
			cleaned.WriteRune(' ')
		}
	}

	fields := strings.Fields(cleaned.String())
	kept := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, "")
}

// Matches reports whether candidate is considered the same artist as
// query: either their normalised forms are identical, or the
// Jaro-Winkler similarity between them is at least 0.9.
func Matches(query, candidate string) bool {
	nq, nc := Normalise(query), Normalise(candidate)
	if nq == nc {
		return true
	}
	return JaroWinkler(nq, nc) >= 0.9
}

// MatchesAny reports whether query matches candidate's name or any of
// its aliases.
func MatchesAny(query, candidateName string, aliases []string) bool {
	if Matches(query, candidateName) {
		return true
	}
	for _, a := range aliases {
		if Matches(query, a) {
			return true
		}
	}
	return false
}
