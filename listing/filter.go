// Package listing is the client-side pipeline behind the public post list:
// title search, category filter, pagination and debounced suggestions.
package listing

import (
	"strings"

	"inkwell/models"
)

// PageSize is the number of posts on one listing page.
const PageSize = 6

// MatchesTitle reports whether query is a case-insensitive substring of
// title. An empty query matches everything.
func MatchesTitle(title, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(query))
}

// Filter applies the title query and then the category filter. CategoryAll
// and the empty category pass everything through.
func Filter(posts []models.Post, query string, category models.Category) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if !MatchesTitle(p.Title, query) {
			continue
		}
		if category != "" && category != models.CategoryAll && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Published keeps only posts with the publication flag set.
func Published(posts []models.Post) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsPublished {
			out = append(out, p)
		}
	}
	return out
}
