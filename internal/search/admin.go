package search

import (
	"sort"
	"strings"

	"github.com/noid254/nikosoko/internal/domain"
)

type VerificationFilter string

const (
	VerificationAll        VerificationFilter = "All"
	VerificationVerified   VerificationFilter = "Verified"
	VerificationUnverified VerificationFilter = "Unverified"
)

// AdminUsers lists providers for the admin users table, keeping directory order.
func AdminUsers(providers []domain.Provider, status VerificationFilter, term string) []domain.Provider {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.Provider, 0, len(providers))
	for _, p := range providers {
		switch status {
		case VerificationVerified:
			if !p.IsVerified {
				continue
			}
		case VerificationUnverified:
			if p.IsVerified {
				continue
			}
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Service), needle) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// Flagged returns providers with at least one report, most reported first.
func Flagged(providers []domain.Provider) []domain.Provider {
	var out []domain.Provider
	for _, p := range providers {
		if p.FlagCount > 0 {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FlagCount > out[j].FlagCount
	})
	return out
}

type AreaCount struct {
	Area  string `json:"area"`
	Count int    `json:"count"`
}

// ByArea counts providers per area, largest first, ties by name.
func ByArea(providers []domain.Provider) []AreaCount {
	counts := map[string]int{}
	for _, p := range providers {
		counts[p.Area()]++
	}
	out := make([]AreaCount, 0, len(counts))
	for area, n := range counts {
		out = append(out, AreaCount{Area: area, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Area < out[j].Area
	})
	return out
}

// MostViewed returns the top n providers by views.
func MostViewed(providers []domain.Provider, n int) []domain.Provider {
	out := make([]domain.Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Views > out[j].Views
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

type Stats struct {
	TotalProviders int         `json:"total_providers"`
	Verified       int         `json:"verified"`
	Online         int         `json:"online"`
	Flagged        int         `json:"flagged"`
	TotalViews     int         `json:"total_views"`
	ByArea         []AreaCount `json:"by_area"`
}

// DashboardStats summarises the directory for the admin dashboard.
func DashboardStats(providers []domain.Provider) Stats {
	s := Stats{TotalProviders: len(providers), ByArea: ByArea(providers)}
	for _, p := range providers {
		if p.IsVerified {
			s.Verified++
		}
		if p.IsOnline {
			s.Online++
		}
		if p.FlagCount > 0 {
			s.Flagged++
		}
		s.TotalViews += p.Views
	}
	return s
}
