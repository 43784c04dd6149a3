// Package search filters and ranks the in-memory provider directory.
// Every function returns a fresh slice and leaves its input untouched.
package search

import (
	"sort"
	"strings"

	"github.com/noid254/nikosoko/internal/domain"
)

type QuickFilterType string

const (
	ByCategory QuickFilterType = "category"
	ByService  QuickFilterType = "service"
)

// QuickFilter narrows results to one exact category or service.
type QuickFilter struct {
	Type  QuickFilterType `json:"type"`
	Value string          `json:"value"`
}

func ParseQuickFilter(kind, value string) (*QuickFilter, bool) {
	if kind == "" && value == "" {
		return nil, true
	}
	switch QuickFilterType(kind) {
	case ByCategory, ByService:
		return &QuickFilter{Type: QuickFilterType(kind), Value: value}, true
	default:
		return nil, false
	}
}

func (f *QuickFilter) match(p domain.Provider) bool {
	if f == nil {
		return true
	}
	switch f.Type {
	case ByCategory:
		return p.Category == f.Value
	case ByService:
		return p.Service == f.Value
	}
	return true
}

// PreviewSize is the number of providers shown on the landing page.
const PreviewSize = 6

// Filter applies the quick filter, then the case-insensitive search term
// against name, service or category, and orders the survivors by distance.
// Equal distances keep their directory order.
func Filter(providers []domain.Provider, quick *QuickFilter, term string) []domain.Provider {
	needle := strings.ToLower(strings.TrimSpace(term))

	out := make([]domain.Provider, 0, len(providers))
	for _, p := range providers {
		if !quick.match(p) {
			continue
		}
		if needle != "" && !matchesTerm(p, needle) {
			continue
		}
		out = append(out, p.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

func matchesTerm(p domain.Provider, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Service), needle) ||
		strings.Contains(strings.ToLower(p.Category), needle)
}

// Preview returns at most PreviewSize entries of an already filtered list.
func Preview(filtered []domain.Provider) []domain.Provider {
	if len(filtered) <= PreviewSize {
		return filtered
	}
	return filtered[:PreviewSize]
}
