package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noid254/nikosoko/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestProviderArea(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"Kilimani, Nairobi", "Nairobi"},
		{"Nyali, Mombasa ", "Mombasa"},
		{"Kisumu", "Kisumu"},
		{"", domain.UnknownArea},
		{"Westlands,", domain.UnknownArea},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.Provider{Location: tt.location}.Area(), tt.location)
	}
}

func TestOrgReferralCode(t *testing.T) {
	assert.Equal(t, "NAIROBIPLU", domain.OrgReferralCode("Nairobi Plumbers Guild"))
	assert.Equal(t, "ACME", domain.OrgReferralCode(" acme "))
	assert.Equal(t, "", domain.OrgReferralCode(""))
}

func TestProfileRequestValidate(t *testing.T) {
	valid := func() domain.ProfileRequest {
		return domain.ProfileRequest{
			Name:     "Jane Wanjiku",
			Service:  "Plumber",
			Charge:   "1500",
			Location: "Kilimani, Nairobi",
			About:    "Fix leaks fast",
			Category: "Home",
			CTA:      []domain.CTA{domain.CTACall},
		}
	}

	tests := []struct {
		name   string
		mutate func(r *domain.ProfileRequest)
		fields []string
	}{
		{"ok", func(r *domain.ProfileRequest) {}, nil},
		{"missing name and about", func(r *domain.ProfileRequest) { r.Name = " "; r.About = "" }, []string{"name", "about"}},
		{"no cta", func(r *domain.ProfileRequest) { r.CTA = nil }, []string{"cta"}},
		{"three ctas", func(r *domain.ProfileRequest) {
			r.CTA = []domain.CTA{domain.CTACall, domain.CTAWhatsApp, domain.CTABook}
		}, []string{"cta"}},
		{"unknown cta", func(r *domain.ProfileRequest) { r.CTA = []domain.CTA{"fax"} }, []string{"cta"}},
		{"bad rate type", func(r *domain.ProfileRequest) { r.RateType = "per fortnight" }, []string{"rate_type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			req.Normalize()
			err := req.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verrs domain.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			var got []string
			for _, fe := range verrs {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestProfileUpdateApply(t *testing.T) {
	p := domain.Provider{Service: "Plumber", About: "old", Location: "Kilimani, Nairobi"}

	changed, err := domain.ProfileUpdate{About: strPtr("new"), Service: strPtr("Plumber")}.Apply(&p)
	require.NoError(t, err)
	assert.Equal(t, []string{"about"}, changed)
	assert.Equal(t, "new", p.About)

	_, err = domain.ProfileUpdate{Location: strPtr("  ")}.Apply(&p)
	assert.Error(t, err)
}

func TestVerificationRequestNeedsReasonToRevoke(t *testing.T) {
	assert.NoError(t, domain.VerificationRequest{Verified: true}.Validate())
	assert.Error(t, domain.VerificationRequest{Verified: false}.Validate())
	assert.NoError(t, domain.VerificationRequest{Verified: false, Reason: "expired licence"}.Validate())
}

func TestBannerNormalizeDropsEmptyTargets(t *testing.T) {
	b := domain.SpecialBanner{
		ImageURL:           " https://img/x.png ",
		TargetCategory:     strPtr(""),
		TargetLocation:     strPtr(" Nairobi "),
		TargetReferralCode: strPtr("kplc"),
	}
	b.Normalize()

	assert.Equal(t, "https://img/x.png", b.ImageURL)
	assert.Nil(t, b.TargetCategory)
	require.NotNil(t, b.TargetLocation)
	assert.Equal(t, "Nairobi", *b.TargetLocation)
	assert.Equal(t, "KPLC", *b.TargetReferralCode)
	assert.NoError(t, b.Validate())
}

func TestBannerValidate(t *testing.T) {
	assert.Error(t, domain.SpecialBanner{}.Validate())
	assert.Error(t, domain.SpecialBanner{
		ImageURL:  "x",
		StartDate: strPtr("2025-05-10"),
		EndDate:   strPtr("2025-05-01"),
	}.Validate())
}

func TestCatalogueImageCap(t *testing.T) {
	assert.Equal(t, 5, domain.CatalogueForRent.MaxImages())
	assert.Equal(t, 5, domain.CatalogueForSale.MaxImages())
	assert.Equal(t, 3, domain.CatalogueProduct.MaxImages())

	req := domain.CatalogueItemRequest{
		Title: "Drill", Price: "500", Description: "Cordless",
		Category:  domain.CatalogueService,
		ImageURLs: []string{"a", "b", "c", "d"},
	}
	req.Normalize()
	assert.Error(t, req.Validate())

	req = domain.CatalogueItemRequest{Title: "Drill", Price: "500", Description: "Cordless"}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, []string{domain.DefaultCatalogueImage}, req.ImageURLs)
}

func TestInvitationTransitions(t *testing.T) {
	inv := domain.Invitation{Status: domain.InvitationActive}
	require.NoError(t, inv.CheckIn())
	assert.Equal(t, domain.InvitationUsed, inv.Status)
	assert.ErrorIs(t, inv.Cancel(), domain.ErrInvalidTransition)

	inv = domain.Invitation{Status: domain.InvitationActive}
	require.NoError(t, inv.Cancel())
	assert.ErrorIs(t, inv.CheckIn(), domain.ErrInvalidTransition)
}

func TestInviteGuestsRequiresPhones(t *testing.T) {
	req := domain.InviteGuestsRequest{Phones: []string{" ", ""}}
	req.Normalize()
	assert.Error(t, req.Validate())
}
