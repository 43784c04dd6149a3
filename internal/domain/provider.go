package domain

import (
	"strings"
	"time"
	"unicode"
)

type CTA string

const (
	CTACall      CTA = "call"
	CTAWhatsApp  CTA = "whatsapp"
	CTABook      CTA = "book"
	CTACatalogue CTA = "catalogue"
)

func ParseCTA(s string) (CTA, bool) {
	switch CTA(s) {
	case CTACall, CTAWhatsApp, CTABook, CTACatalogue:
		return CTA(s), true
	default:
		return "", false
	}
}

// MaxCTAs is the number of call-to-action buttons a new profile may pick.
const MaxCTAs = 2

type RateType string

const (
	RatePerHour       RateType = "per hour"
	RatePerDay        RateType = "per day"
	RatePerTask       RateType = "per task"
	RatePerMonth      RateType = "per month"
	RatePerPieceWork  RateType = "per piece work"
	RatePerKm         RateType = "per km"
	RatePerSqm        RateType = "per sqm"
	RatePerCbm        RateType = "per cbm"
	RatePerAppearance RateType = "per appearance"
)

func ParseRateType(s string) (RateType, bool) {
	switch RateType(s) {
	case RatePerHour, RatePerDay, RatePerTask, RatePerMonth, RatePerPieceWork,
		RatePerKm, RatePerSqm, RatePerCbm, RatePerAppearance:
		return RateType(s), true
	default:
		return "", false
	}
}

type AccountType string

const (
	AccountIndividual   AccountType = "individual"
	AccountOrganization AccountType = "organization"
)

const (
	DefaultCurrency = "Ksh"
	DefaultCover    = "https://picsum.photos/seed/defaultcover/600/400"
	UnknownArea     = "Unknown"
)

type Provider struct {
	ID                 int64       `json:"id" yaml:"id"`
	Name               string      `json:"name" yaml:"name"`
	Phone              string      `json:"phone" yaml:"phone"`
	Whatsapp           string      `json:"whatsapp,omitempty" yaml:"whatsapp"`
	Service            string      `json:"service" yaml:"service"`
	AvatarURL          string      `json:"avatar_url" yaml:"avatar_url"`
	CoverImageURL      string      `json:"cover_image_url" yaml:"cover_image_url"`
	CatalogueBannerURL string      `json:"catalogue_banner_url,omitempty" yaml:"catalogue_banner_url"`
	Rating             float64     `json:"rating" yaml:"rating"`
	DistanceKm         float64     `json:"distance_km" yaml:"distance_km"`
	HourlyRate         int64       `json:"hourly_rate" yaml:"hourly_rate"`
	RateType           RateType    `json:"rate_type" yaml:"rate_type"`
	Currency           string      `json:"currency" yaml:"currency"`
	IsVerified         bool        `json:"is_verified" yaml:"is_verified"`
	About              string      `json:"about" yaml:"about"`
	Works              []string    `json:"works" yaml:"works"`
	Category           string      `json:"category" yaml:"category"`
	Location           string      `json:"location" yaml:"location"`
	IsOnline           bool        `json:"is_online" yaml:"is_online"`
	AccountType        AccountType `json:"account_type" yaml:"account_type"`
	FlagCount          int         `json:"flag_count" yaml:"flag_count"`
	Views              int         `json:"views" yaml:"views"`
	CTA                []CTA       `json:"cta" yaml:"cta"`
	ReferralCode       string      `json:"referral_code,omitempty" yaml:"referral_code"`
	CreatedAt          time.Time   `json:"created_at" yaml:"-"`
	UpdatedAt          time.Time   `json:"updated_at" yaml:"-"`
}

// Area is the last comma-separated segment of the location, e.g.
// "Kilimani, Nairobi" yields "Nairobi".
func (p Provider) Area() string {
	parts := strings.Split(p.Location, ",")
	area := strings.TrimSpace(parts[len(parts)-1])
	if area == "" {
		return UnknownArea
	}
	return area
}

// Clone returns a deep copy so callers cannot mutate stored slices.
func (p Provider) Clone() Provider {
	c := p
	if p.Works != nil {
		c.Works = append([]string(nil), p.Works...)
	}
	if p.CTA != nil {
		c.CTA = append([]CTA(nil), p.CTA...)
	}
	return c
}

func (p Provider) HasCTA(c CTA) bool {
	for _, have := range p.CTA {
		if have == c {
			return true
		}
	}
	return false
}

// OrgReferralCode derives the code an organization hands to its members:
// the upper-cased name with whitespace removed, at most 10 runes.
func OrgReferralCode(name string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, name)
	runes := []rune(compact)
	if len(runes) > 10 {
		runes = runes[:10]
	}
	return string(runes)
}

// ProfileRequest is the signup form that turns a logged-in identity into a
// listed provider.
type ProfileRequest struct {
	Name         string      `json:"name"`
	AccountType  AccountType `json:"account_type"`
	AvatarURL    string      `json:"avatar_url"`
	Service      string      `json:"service"`
	Charge       string      `json:"charge"`
	RateType     RateType    `json:"rate_type"`
	Location     string      `json:"location"`
	About        string      `json:"about"`
	Category     string      `json:"category"`
	ReferralCode string      `json:"referral_code"`
	CTA          []CTA       `json:"cta"`
}

func (r *ProfileRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Service = strings.TrimSpace(r.Service)
	r.Charge = strings.TrimSpace(r.Charge)
	r.Location = strings.TrimSpace(r.Location)
	r.About = strings.TrimSpace(r.About)
	r.Category = strings.TrimSpace(r.Category)
	r.ReferralCode = strings.ToUpper(strings.TrimSpace(r.ReferralCode))
	if r.AccountType == "" {
		r.AccountType = AccountIndividual
	}
	if r.RateType == "" {
		r.RateType = RatePerHour
	}
}

// Validate expects Normalize to have run.
func (r ProfileRequest) Validate() error {
	var errs ValidationErrors
	errs.Required("name", r.Name)
	errs.Required("service", r.Service)
	errs.Required("charge", r.Charge)
	errs.Required("location", r.Location)
	errs.Required("about", r.About)
	errs.Required("category", r.Category)

	if r.AccountType != AccountIndividual && r.AccountType != AccountOrganization {
		errs.Add("account_type", "must be individual or organization")
	}
	if _, ok := ParseRateType(string(r.RateType)); !ok {
		errs.Add("rate_type", "is not a supported rate type")
	}

	switch {
	case len(r.CTA) == 0:
		errs.Add("cta", "select at least one call to action")
	case len(r.CTA) > MaxCTAs:
		errs.Add("cta", "select at most two calls to action")
	}
	seen := map[CTA]bool{}
	for _, c := range r.CTA {
		if _, ok := ParseCTA(string(c)); !ok {
			errs.Add("cta", "unknown call to action "+string(c))
		}
		if seen[c] {
			errs.Add("cta", "duplicate call to action "+string(c))
		}
		seen[c] = true
	}
	return errs.Err()
}

// ProfileUpdate carries the fields an owner may edit. Nil means unchanged.
type ProfileUpdate struct {
	Service       *string `json:"service"`
	About         *string `json:"about"`
	Location      *string `json:"location"`
	CoverImageURL *string `json:"cover_image_url"`
	AvatarURL     *string `json:"avatar_url"`
}

// Apply mutates p and returns the names of changed fields.
func (u ProfileUpdate) Apply(p *Provider) ([]string, error) {
	var errs ValidationErrors
	var changed []string

	set := func(field string, src *string, dst *string, required bool) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if required && v == "" {
			errs.Add(field, "cannot be empty")
			return
		}
		if v != *dst {
			*dst = v
			changed = append(changed, field)
		}
	}

	set("service", u.Service, &p.Service, true)
	set("about", u.About, &p.About, true)
	set("location", u.Location, &p.Location, true)
	set("cover_image_url", u.CoverImageURL, &p.CoverImageURL, false)
	set("avatar_url", u.AvatarURL, &p.AvatarURL, false)

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return changed, nil
}

// VerificationRequest toggles a provider's verified badge. Unverifying
// requires a reason.
type VerificationRequest struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason"`
}

func (r VerificationRequest) Validate() error {
	var errs ValidationErrors
	if !r.Verified {
		errs.Required("reason", r.Reason)
	}
	return errs.Err()
}

var FlagReasons = []string{
	"Inappropriate Content",
	"Spam or Misleading",
	"Scam or Fraud",
	"Not a real service",
}

func IsFlagReason(s string) bool {
	for _, r := range FlagReasons {
		if r == s {
			return true
		}
	}
	return false
}
