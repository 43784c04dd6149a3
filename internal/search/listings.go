package search

import (
	"strings"

	"github.com/noid254/nikosoko/internal/domain"
)

// Events keeps events in the given category (EventAll or empty for any)
// whose name contains term.
func Events(events []domain.Event, category domain.EventCategory, term string) []domain.Event {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if category != "" && category != domain.EventAll && e.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Catalogue matches term against title, description or category.
func Catalogue(items []domain.CatalogueItem, term string) []domain.CatalogueItem {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.CatalogueItem, 0, len(items))
	for _, it := range items {
		if needle != "" &&
			!strings.Contains(strings.ToLower(it.Title), needle) &&
			!strings.Contains(strings.ToLower(it.Description), needle) &&
			!strings.Contains(strings.ToLower(string(it.Category)), needle) {
			continue
		}
		out = append(out, it)
	}
	return out
}
