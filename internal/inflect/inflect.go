// Package inflect provides English inflection helpers for Rails-style
// snake_case table names. It covers the patterns that actually occur in
// table and model naming; it is not a full linguistic inflector, just enough
// accuracy for foreign-key derivation.
package inflect

import (
	"strings"
	"unicode"
)

// irregularPluralToSingular maps irregular plural nouns to their singular form.
var irregularPluralToSingular = map[string]string{
	"people":      "person",
	"men":         "man",
	"women":       "woman",
	"children":    "child",
	"teeth":       "tooth",
	"feet":        "foot",
	"geese":       "goose",
	"mice":        "mouse",
	"oxen":        "ox",
	"data":        "datum",
	"criteria":    "criterion",
	"media":       "medium",
	"alumni":      "alumnus",
	"cacti":       "cactus",
	"fungi":       "fungus",
	"nuclei":      "nucleus",
	"radii":       "radius",
	"stimuli":     "stimulus",
	"syllabi":     "syllabus",
	"analyses":    "analysis",
	"bases":       "basis",
	"crises":      "crisis",
	"diagnoses":   "diagnosis",
	"hypotheses":  "hypothesis",
	"parentheses": "parenthesis",
	"syntheses":   "synthesis",
	"theses":      "thesis",
}

// irregularSingularToPlural is the exact inverse of irregularPluralToSingular.
var irregularSingularToPlural = func() map[string]string {
	m := make(map[string]string, len(irregularPluralToSingular))
	for plural, singular := range irregularPluralToSingular {
		m[singular] = plural
	}
	return m
}()

// Singularize converts a plural word (typically a table name) to its singular
// form. Compound snake_case words are singularized on their last segment only.
// Words that are already singular come back unchanged.
//
// The suffix rules run in a fixed priority order; changing the order changes
// output on ambiguous words, so it must stay as-is.
func Singularize(word string) string {
	if word == "" {
		return word
	}

	lower := strings.ToLower(word)

	// Compound words: singularize only the last segment
	if idx := strings.LastIndex(lower, "_"); idx >= 0 {
		return lower[:idx+1] + Singularize(lower[idx+1:])
	}

	if singular, ok := irregularPluralToSingular[lower]; ok {
		return singular
	}

	// -ies -> -y  (companies -> company, categories -> category)
	if strings.HasSuffix(lower, "ies") && len(lower) > 4 {
		return lower[:len(lower)-3] + "y"
	}

	// -ves -> -fe  (knives -> knife, wives -> wife)
	if strings.HasSuffix(lower, "ves") && len(lower) > 4 {
		return lower[:len(lower)-3] + "fe"
	}

	// Sibilant + es: strip just the trailing "es"
	// (addresses -> address, boxes -> box, churches -> church, dishes -> dish)
	if hasAnySuffix(lower, "sses", "xes", "zes", "ches", "shes") {
		return lower[:len(lower)-2]
	}

	// -ses -> -s  (buses -> bus, statuses -> status); sibilant rule above
	// already consumed the double-s cases
	if strings.HasSuffix(lower, "ses") && len(lower) > 4 {
		return lower[:len(lower)-2]
	}

	// -oes -> -o  (heroes -> hero, potatoes -> potato)
	if strings.HasSuffix(lower, "oes") && len(lower) > 4 {
		return lower[:len(lower)-2]
	}

	// Generic trailing -s: strip exactly one, but never from a double s
	if strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") {
		return lower[:len(lower)-1]
	}

	return lower
}

// Pluralize converts a singular word (typically a model name) to its plural
// form. Compound snake_case words are pluralized on their last segment only.
func Pluralize(word string) string {
	if word == "" {
		return word
	}

	lower := strings.ToLower(word)

	// Compound words: pluralize only the last segment
	if idx := strings.LastIndex(lower, "_"); idx >= 0 {
		return lower[:idx+1] + Pluralize(lower[idx+1:])
	}

	if plural, ok := irregularSingularToPlural[lower]; ok {
		return plural
	}

	// Already ends with a common plural marker: assume already plural
	if strings.HasSuffix(lower, "ies") {
		return lower
	}

	// -fe -> -ves  (knife -> knives, wife -> wives)
	if strings.HasSuffix(lower, "fe") {
		return lower[:len(lower)-2] + "ves"
	}

	// -f -> -ves is deliberately skipped: too many false positives
	// (belief -> beliefs, not believes)

	// Consonant + y -> -ies  (company -> companies)
	if strings.HasSuffix(lower, "y") && len(lower) > 2 && !isVowel(lower[len(lower)-2]) {
		return lower[:len(lower)-1] + "ies"
	}

	// Sibilant endings take -es  (status -> statuses, box -> boxes)
	if hasAnySuffix(lower, "s", "x", "z", "ch", "sh") {
		return lower + "es"
	}

	// -o -> -oes is deliberately skipped: too many exceptions (radio -> radios)

	return lower + "s"
}

// ClassNameToTableName converts a CamelCase model class name to its
// snake_case plural table name, e.g. PostCheckin -> post_checkins,
// Person -> people.
func ClassNameToTableName(className string) string {
	var b strings.Builder
	for i, r := range className {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return Pluralize(b.String())
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
