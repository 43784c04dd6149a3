// Package banner decides which promotional banners a provider profile shows.
package banner

import (
	"strings"
	"time"

	"github.com/noid254/nikosoko/internal/domain"
)

// Matches reports whether every targeting field present on b holds for p.
// The date window applies only when both ends are set; dates are compared
// as calendar days, inclusive.
func Matches(b domain.SpecialBanner, p domain.Provider, today time.Time) bool {
	if b.TargetCategory != nil && p.Category != *b.TargetCategory {
		return false
	}
	if b.TargetLocation != nil &&
		!strings.Contains(strings.ToLower(p.Location), strings.ToLower(*b.TargetLocation)) {
		return false
	}
	if b.MinRating != nil && p.Rating < *b.MinRating {
		return false
	}
	if b.TargetService != nil && p.Service != *b.TargetService {
		return false
	}
	if b.IsOnlineTarget != nil && p.IsOnline != *b.IsOnlineTarget {
		return false
	}
	if b.IsVerifiedTarget != nil && p.IsVerified != *b.IsVerifiedTarget {
		return false
	}
	if b.TargetReferralCode != nil && !strings.EqualFold(p.ReferralCode, *b.TargetReferralCode) {
		return false
	}
	if b.StartDate != nil && b.EndDate != nil {
		return withinWindow(*b.StartDate, *b.EndDate, today)
	}
	return true
}

func withinWindow(start, end string, today time.Time) bool {
	from, err := time.Parse(domain.DateLayout, start)
	if err != nil {
		return false
	}
	to, err := time.Parse(domain.DateLayout, end)
	if err != nil {
		return false
	}
	day, _ := time.Parse(domain.DateLayout, today.Format(domain.DateLayout))
	return !day.Before(from) && !day.After(to)
}

// For returns the banners in bs that match p, keeping their order.
func For(bs []domain.SpecialBanner, p domain.Provider, today time.Time) []domain.SpecialBanner {
	var out []domain.SpecialBanner
	for _, b := range bs {
		if Matches(b, p, today) {
			out = append(out, b)
		}
	}
	return out
}
