package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeNameInflection(t *testing.T) {
	tests := []struct {
		in       string
		plural   string
		singular string
	}{
		{"movie", "movies", "movie"},
		{"movies", "movies", "movie"},
		{"Movie", "movies", "movie"},
		{"genre", "genres", "genre"},
		{"user", "users", "user"},
		{"like", "likes", "like"},
		{"likes", "likes", "like"},
		{"GenreTagging", "genre_taggings", "genre_tagging"},
		{"genre_taggings", "genre_taggings", "genre_tagging"},
		{"top10", "top10s", "top10"},
		{"tag2", "tag2s", "tag2"},
		{"Movie2s", "movie2s", "movie2"},
		{"Top10List", "top10_lists", "top10_list"},
		{"HTMLPage", "html_pages", "html_page"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.plural, Pluralize(tt.in))
			assert.Equal(t, tt.singular, Singularize(tt.in))
		})
	}
}

func TestDisplayType(t *testing.T) {
	assert.Equal(t, "Movie", DisplayType("movie"))
	assert.Equal(t, "GenreTagging", DisplayType("genre_tagging"))
	assert.Equal(t, "Top10", DisplayType("top10"))
	assert.Equal(t, "Top10List", DisplayType("top10_list"))
}

func TestNormalizeType_RoundTripsThroughDisplayType(t *testing.T) {
	for _, name := range []string{"movie", "genre_tagging", "top10", "tag2item", "top10_list", "movie2"} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name, NormalizeType(name))
			assert.Equal(t, name, NormalizeType(DisplayType(name)))
		})
	}
}

func TestRefString(t *testing.T) {
	assert.Equal(t, "42", RefString(ID(42)))
	assert.Equal(t, "0", RefString(nil))
	assert.True(t, ID(0).IsZero())
}

func TestSearchModeAndScoreKind(t *testing.T) {
	assert.True(t, SearchModeDefault.IsValid())
	assert.True(t, SearchModeFulltext.IsValid())
	assert.False(t, SearchMode("fuzzy").IsValid())

	assert.True(t, ScoreKindUntracked.IsValid())
	assert.False(t, ScoreKind("all").IsValid())
}
