package valueobjects

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"
)

// Word boundaries as the backend's inflector sees them: before the last
// capital of an acronym followed by a word ("HTMLPage"), and between a lower
// case letter or digit and a capital ("GenreTagging", "Top10List"). Digits
// never start a new word on their own.
var (
	acronymBoundary = regexp.MustCompile(`([A-Z\d]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z\d])([A-Z])`)
)

// NormalizeType turns a backend type tag ("Movie", "GenreTagging", :genre_taggings)
// into the lower snake case form used for comparisons. "Top10" becomes "top10".
func NormalizeType(typeName string) string {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return ""
	}
	typeName = acronymBoundary.ReplaceAllString(typeName, "${1}_${2}")
	typeName = wordBoundary.ReplaceAllString(typeName, "${1}_${2}")
	typeName = strings.NewReplacer("-", "_", " ", "_").Replace(typeName)
	return strings.ToLower(typeName)
}

// Pluralize returns the collection form of a type name ("movie" -> "movies").
// Already plural names are returned unchanged.
func Pluralize(typeName string) string {
	typeName = NormalizeType(typeName)
	if typeName == "" {
		return ""
	}
	return inflection.Plural(typeName)
}

// Singularize returns the resource form of a type name ("movies" -> "movie").
func Singularize(typeName string) string {
	typeName = NormalizeType(typeName)
	if typeName == "" {
		return ""
	}
	return inflection.Singular(typeName)
}

// DisplayType renders a type tag the way the backend names its classes
func DisplayType(typeName string) string {
	var b strings.Builder
	for _, word := range strings.Split(NormalizeType(typeName), "_") {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(word[size:])
	}
	return b.String()
}

// SearchMode selects the index used by a search request
type SearchMode string

const (
	// SearchModeDefault leaves the mode off the query; the backend matches exactly.
	SearchModeDefault  SearchMode = ""
	SearchModeExact    SearchMode = "exact"
	SearchModeFulltext SearchMode = "fulltext"
)

// IsValid reports whether the mode is one the backend understands
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeDefault, SearchModeExact, SearchModeFulltext:
		return true
	}
	return false
}

// ScoreKind narrows a highscore list
type ScoreKind string

const (
	ScoreKindAll       ScoreKind = ""
	ScoreKindTracked   ScoreKind = "tracked"
	ScoreKindUntracked ScoreKind = "untracked"
)

// IsValid reports whether the kind maps to a highscore path segment
func (k ScoreKind) IsValid() bool {
	switch k {
	case ScoreKindAll, ScoreKindTracked, ScoreKindUntracked:
		return true
	}
	return false
}
