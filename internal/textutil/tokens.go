package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Fold strips combining marks so "Pokémon" and "Pokemon" tokenize alike.
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// Tokenize splits text into lowercase tokens, filtering tokens shorter than 3
// characters. Order is preserved and duplicates are kept.
func Tokenize(text string) []string {
	lowered := strings.ToLower(Fold(text))
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// CanonicalCategory normalizes a category label for display and comparison.
// Empty input yields "Uncategorized".
func CanonicalCategory(category string) string {
	fields := strings.Fields(strings.ReplaceAll(category, "_", " "))
	if len(fields) == 0 {
		return "Uncategorized"
	}
	// Casers carry state and are not safe for concurrent use.
	return cases.Title(language.Und).String(strings.ToLower(strings.Join(fields, " ")))
}

// CategoryKey returns the lookup key for a category. Spelling variants such
// as "Pop Culture", "pop_culture" and "pop-culture" share one key, which is
// also the category token used in asset filenames.
func CategoryKey(category string) string {
	return SanitizeToken(category)
}
