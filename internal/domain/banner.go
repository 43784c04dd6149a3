package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for banner windows, visit
// dates and document dates.
const DateLayout = "2006-01-02"

// SpecialBanner is a promotional image shown on provider profiles that
// satisfy every present targeting field. Nil fields are wildcards.
type SpecialBanner struct {
	ID                 int64    `json:"id" yaml:"id"`
	ImageURL           string   `json:"image_url" yaml:"image_url"`
	TargetCategory     *string  `json:"target_category,omitempty" yaml:"target_category"`
	TargetLocation     *string  `json:"target_location,omitempty" yaml:"target_location"`
	MinRating          *float64 `json:"min_rating,omitempty" yaml:"min_rating"`
	TargetService      *string  `json:"target_service,omitempty" yaml:"target_service"`
	IsOnlineTarget     *bool    `json:"is_online_target,omitempty" yaml:"is_online_target"`
	IsVerifiedTarget   *bool    `json:"is_verified_target,omitempty" yaml:"is_verified_target"`
	TargetReferralCode *string  `json:"target_referral_code,omitempty" yaml:"target_referral_code"`
	StartDate          *string  `json:"start_date,omitempty" yaml:"start_date"`
	EndDate            *string  `json:"end_date,omitempty" yaml:"end_date"`
}

// Normalize trims string targets and drops the ones left empty, so an
// empty form field never narrows the audience.
func (b *SpecialBanner) Normalize() {
	b.ImageURL = strings.TrimSpace(b.ImageURL)
	for _, f := range []**string{&b.TargetCategory, &b.TargetLocation, &b.TargetService, &b.TargetReferralCode, &b.StartDate, &b.EndDate} {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		if v == "" {
			*f = nil
			continue
		}
		*f = &v
	}
	if b.TargetReferralCode != nil {
		code := strings.ToUpper(*b.TargetReferralCode)
		b.TargetReferralCode = &code
	}
}

func (b SpecialBanner) Validate() error {
	var errs ValidationErrors
	errs.Required("image_url", b.ImageURL)
	if b.MinRating != nil && (*b.MinRating < 0 || *b.MinRating > 5) {
		errs.Add("min_rating", "must be between 0 and 5")
	}
	var start, end time.Time
	var err error
	if b.StartDate != nil {
		if start, err = time.Parse(DateLayout, *b.StartDate); err != nil {
			errs.Add("start_date", "must be YYYY-MM-DD")
		}
	}
	if b.EndDate != nil {
		if end, err = time.Parse(DateLayout, *b.EndDate); err != nil {
			errs.Add("end_date", "must be YYYY-MM-DD")
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		errs.Add("end_date", "must not be before start_date")
	}
	return errs.Err()
}
