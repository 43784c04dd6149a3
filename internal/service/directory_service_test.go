package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/search"
	"github.com/noid254/nikosoko/internal/viewrouter"
	"github.com/noid254/nikosoko/pkg/events"
)

func strPtr(s string) *string { return &s }

func TestSearch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	all, err := h.directory.Search(ctx, SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, 10, all.Total)
	for i := 1; i < len(all.Providers); i++ {
		assert.LessOrEqual(t, all.Providers[i-1].DistanceKm, all.Providers[i].DistanceKm)
	}

	preview, err := h.directory.Search(ctx, SearchQuery{Preview: true})
	require.NoError(t, err)
	assert.Len(t, preview.Providers, 6)
	assert.Equal(t, 10, preview.Total)

	quick, ok := search.ParseQuickFilter("category", "Home")
	require.True(t, ok)
	home, err := h.directory.Search(ctx, SearchQuery{Quick: quick})
	require.NoError(t, err)
	for _, p := range home.Providers {
		assert.Equal(t, "Home", p.Category)
	}

	term, err := h.directory.Search(ctx, SearchQuery{Term: "otieno"})
	require.NoError(t, err)
	require.Len(t, term.Providers, 1)
	assert.EqualValues(t, 1, term.Providers[0].ID)
}

func TestOpenProfileCountsForeignViews(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before, err := h.store.Providers.Get(ctx, 1)
	require.NoError(t, err)

	visitor := h.visitor(t)
	_, err = h.directory.OpenProfile(ctx, visitor, 1)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	other := h.login(t, "0722000111")
	page, err := h.directory.OpenProfile(ctx, other, 1)
	require.NoError(t, err)
	assert.Equal(t, before.Views+1, page.Provider.Views)
	assert.False(t, page.IsOwner)
	assert.False(t, page.CanEdit)
	assert.Equal(t, "https://nikosoko-app/profile/1", page.ShareURL)
	assert.NotEmpty(t, page.Catalogue)

	owner := h.login(t, ownerPhone)
	page, err = h.directory.OpenProfile(ctx, owner, 1)
	require.NoError(t, err)
	assert.Equal(t, before.Views+1, page.Provider.Views, "owner visits are not counted")
	assert.True(t, page.IsOwner)
	assert.True(t, page.CanEdit)

	nav, err := h.navigation.Current(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, viewrouter.Profile, nav.View)
	require.NotNil(t, nav.SelectedProfile)
	assert.EqualValues(t, 1, *nav.SelectedProfile)
}

func TestMyProfileWithoutProfileGoesToSignup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	_, err := h.directory.MyProfile(ctx, sid)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	nav, err := h.navigation.Current(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, viewrouter.Signup, nav.View)
}

func validProfile() domain.ProfileRequest {
	return domain.ProfileRequest{
		Name:     "Njeri Plumbing",
		Service:  "Plumber",
		Charge:   "Ksh 800",
		Location: "Westlands, Nairobi",
		About:    "Leaks and installs.",
		Category: "Home",
		CTA:      []domain.CTA{domain.CTACall, domain.CTAWhatsApp},
	}
}

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		h := newHarness(t)
		created := h.subscribe(t, events.ProviderCreated)
		sid := h.login(t, "0722000111")

		p, err := h.directory.CreateProfile(ctx, sid, validProfile())
		require.NoError(t, err)
		assert.Equal(t, "722000111", p.Phone)
		assert.Equal(t, "254722000111", p.Whatsapp)
		assert.EqualValues(t, 800, p.HourlyRate)
		assert.Equal(t, domain.RatePerHour, p.RateType)
		assert.Equal(t, domain.DefaultCurrency, p.Currency)
		assert.True(t, p.IsOnline)
		assert.False(t, p.IsVerified)
		assert.Zero(t, p.Rating)
		assert.Equal(t, h.data.DefaultBanners["Home"], p.CoverImageURL)
		assert.GreaterOrEqual(t, p.DistanceKm, 0.0)
		assert.LessOrEqual(t, p.DistanceKm, 5.0)

		sess, err := h.auth.Session(ctx, sid)
		require.NoError(t, err)
		assert.True(t, sess.Identity.HasProfile)
		assert.Equal(t, "Njeri Plumbing", sess.Identity.Name)
		assert.Equal(t, viewrouter.Profile, sess.View.Current)

		_, err = h.directory.CreateProfile(ctx, sid, validProfile())
		assert.ErrorIs(t, err, domain.ErrConflict)

		assert.Eventually(t, func() bool { return created() == 1 }, waitFor, tick)
	})

	t.Run("referral code overrides", func(t *testing.T) {
		h := newHarness(t)
		sid := h.login(t, "0722000111")
		req := validProfile()
		req.Category = "Home"
		req.ReferralCode = " nairobigas "

		p, err := h.directory.CreateProfile(ctx, sid, req)
		require.NoError(t, err)
		assert.True(t, p.IsVerified)
		assert.Equal(t, "Gas", p.Category)
		assert.Equal(t, "NAIROBIGAS", p.ReferralCode)
	})

	t.Run("validation", func(t *testing.T) {
		h := newHarness(t)
		sid := h.login(t, "0722000111")

		req := validProfile()
		req.CTA = []domain.CTA{domain.CTACall, domain.CTAWhatsApp, domain.CTABook}
		_, err := h.directory.CreateProfile(ctx, sid, req)
		var verr domain.ValidationErrors
		assert.ErrorAs(t, err, &verr)

		req = validProfile()
		req.Category = "Astrology"
		_, err = h.directory.CreateProfile(ctx, sid, req)
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("visitor", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.directory.CreateProfile(ctx, h.visitor(t), validProfile())
		assert.ErrorIs(t, err, domain.ErrAuthRequired)
	})
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.login(t, ownerPhone)
	other := h.login(t, "0722000111")
	admin := h.login(t, "0"+superadminPhone)

	p, err := h.directory.UpdateProfile(ctx, owner, 1, domain.ProfileUpdate{About: strPtr("Solar specialist.")})
	require.NoError(t, err)
	assert.Equal(t, "Solar specialist.", p.About)

	_, err = h.directory.UpdateProfile(ctx, other, 1, domain.ProfileUpdate{About: strPtr("hijack")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	p, err = h.directory.UpdateProfile(ctx, admin, 1, domain.ProfileUpdate{Location: strPtr("Karen, Nairobi")})
	require.NoError(t, err)
	assert.Equal(t, "Karen, Nairobi", p.Location)

	_, err = h.directory.UpdateProfile(ctx, owner, 1, domain.ProfileUpdate{Service: strPtr("  ")})
	var verr domain.ValidationErrors
	assert.ErrorAs(t, err, &verr)
}

func TestFlagOncePerSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	_, err := h.directory.Flag(ctx, sid, 2, "Because")
	var verr domain.ValidationErrors
	require.ErrorAs(t, err, &verr)

	p, err := h.directory.Flag(ctx, sid, 2, domain.FlagReasons[1])
	require.NoError(t, err)
	assert.Equal(t, 1, p.FlagCount)

	_, err = h.directory.Flag(ctx, sid, 2, domain.FlagReasons[0])
	assert.ErrorIs(t, err, domain.ErrAlreadyFlagged)

	again := h.login(t, "0733000222")
	p, err = h.directory.Flag(ctx, again, 2, domain.FlagReasons[0])
	require.NoError(t, err)
	assert.Equal(t, 2, p.FlagCount)
}

// flakyFlags fails IncrementFlags while err is set.
type flakyFlags struct {
	repo.ProviderRepository
	err error
}

func (f *flakyFlags) IncrementFlags(ctx context.Context, id int64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.ProviderRepository.IncrementFlags(ctx, id)
}

func TestFlagRetriesAfterStoreFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	providers := &flakyFlags{ProviderRepository: h.store.Providers, err: errors.New("connection reset")}
	directory := NewDirectoryService(h.sessions, providers, h.store.Categories, h.store.Banners, h.store.Catalogue, h.bus, h.metrics)
	sid := h.login(t, "0722000111")

	_, err := directory.Flag(ctx, sid, 2, domain.FlagReasons[0])
	require.Error(t, err)
	sess, err := h.sessions.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, sess.Flagged[2])

	providers.err = nil
	p, err := directory.Flag(ctx, sid, 2, domain.FlagReasons[0])
	require.NoError(t, err)
	assert.Equal(t, 1, p.FlagCount)
}

func TestSavedContacts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	saved, err := h.directory.ToggleSaved(ctx, sid, 4)
	require.NoError(t, err)
	assert.True(t, saved)
	_, err = h.directory.ToggleSaved(ctx, sid, 6)
	require.NoError(t, err)

	list, err := h.directory.SavedContacts(ctx, sid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 4, list[0].ID)

	require.NoError(t, h.store.Providers.Delete(ctx, 4))
	list, err = h.directory.SavedContacts(ctx, sid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 6, list[0].ID)

	saved, err = h.directory.ToggleSaved(ctx, sid, 6)
	require.NoError(t, err)
	assert.False(t, saved)

	_, err = h.directory.ToggleSaved(ctx, sid, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
