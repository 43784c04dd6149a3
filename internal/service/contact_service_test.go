package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noid254/nikosoko/internal/contactgate"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/viewrouter"
)

func TestInitiateRequiresLogin(t *testing.T) {
	h := newHarness(t)
	sid := h.visitor(t)

	_, err := h.contacts.Initiate(context.Background(), sid, 1, domain.CTACall)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	_, err = h.contacts.Initiate(context.Background(), sid, 999, domain.CTACall)
	assert.ErrorIs(t, err, domain.ErrAuthRequired, "login is checked before the provider")
	_, err = h.contacts.Initiate(context.Background(), sid, 1, domain.CTABook)
	assert.ErrorIs(t, err, domain.ErrAuthRequired, "login is checked before the channel")

	st, err := h.contacts.State(context.Background(), sid)
	require.NoError(t, err)
	assert.Zero(t, st.Count())
}

func TestInitiateLinks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	res, err := h.contacts.Initiate(ctx, sid, 1, domain.CTACall)
	require.NoError(t, err)
	assert.Equal(t, "tel:0711000001", res.Link)

	res, err = h.contacts.Initiate(ctx, sid, 1, domain.CTAWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, "https://wa.me/254711000001", res.Link)
	assert.Equal(t, 1, res.Contacts.Count(), "same provider counts once")

	_, err = h.contacts.Initiate(ctx, sid, 1, domain.CTABook)
	assert.ErrorIs(t, err, contactgate.ErrChannelUnavailable)

	_, err = h.contacts.Initiate(ctx, sid, 999, domain.CTACall)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ContactsInitiated.WithLabelValues("call")))
}

func TestContactLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	for id := int64(1); id <= contactgate.MaxUnrated; id++ {
		_, err := h.contacts.Initiate(ctx, sid, id, domain.CTAWhatsApp)
		require.NoError(t, err, "provider %d", id)
	}

	_, err := h.contacts.Initiate(ctx, sid, 6, domain.CTAWhatsApp)
	require.ErrorIs(t, err, domain.ErrRateLimitReached)
	var limit *LimitError
	require.True(t, errors.As(err, &limit))
	assert.EqualValues(t, 1, limit.Pending.ProviderID, "oldest contact must be rated")

	st, err := h.contacts.State(ctx, sid)
	require.NoError(t, err)
	assert.True(t, st.LimitReached)
	require.NotNil(t, st.Pending)
	assert.Equal(t, contactgate.MaxUnrated, st.Count())

	_, err = h.contacts.Defer(ctx, sid)
	assert.ErrorIs(t, err, domain.ErrRatingRequired)

	_, err = h.contacts.Rate(ctx, sid, 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	st, err = h.contacts.Rate(ctx, sid, 1, 5)
	require.NoError(t, err)
	assert.False(t, st.LimitReached)
	assert.Nil(t, st.Pending)
	assert.Equal(t, contactgate.MaxUnrated-1, st.Count())

	_, err = h.contacts.Initiate(ctx, sid, 6, domain.CTAWhatsApp)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RateLimitHits))
}

func TestDismissFreesASlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	_, err := h.contacts.Initiate(ctx, sid, 3, domain.CTACall)
	require.NoError(t, err)

	st, err := h.contacts.Dismiss(ctx, sid, 3)
	require.NoError(t, err)
	assert.Zero(t, st.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Ratings.WithLabelValues("dismissed")))
}

func TestBackFromContactedProfileOpensPrompt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	_, err := h.directory.OpenProfile(ctx, sid, 3)
	require.NoError(t, err)
	_, err = h.contacts.Initiate(ctx, sid, 3, domain.CTACall)
	require.NoError(t, err)

	nav, err := h.navigation.Back(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, viewrouter.Main, nav.View)
	assert.Nil(t, nav.SelectedProfile)
	require.NotNil(t, nav.RatingPrompt)
	assert.EqualValues(t, 3, nav.RatingPrompt.ProviderID)

	st, err := h.contacts.Defer(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, st.Pending)
	assert.Equal(t, 1, st.Count(), "later keeps the contact unrated")
}

func TestBackFromUncontactedProfileHasNoPrompt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	_, err := h.directory.OpenProfile(ctx, sid, 4)
	require.NoError(t, err)

	nav, err := h.navigation.Back(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, nav.RatingPrompt)
}

func TestNavigateGating(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		phone string
		view  viewrouter.View
		err   error
	}{
		{"visitor main", "", viewrouter.Main, nil},
		{"visitor search", "", viewrouter.Search, nil},
		{"visitor events", "", viewrouter.Events, domain.ErrAuthRequired},
		{"visitor gatepass", "", viewrouter.Gatepass, domain.ErrAuthRequired},
		{"visitor inbox", "", viewrouter.Inbox, domain.ErrAuthRequired},
		{"user events", ownerPhone, viewrouter.Events, nil},
		{"user invoice hub", ownerPhone, viewrouter.InvoiceHub, nil},
		{"user admin", ownerPhone, viewrouter.Admin, domain.ErrForbidden},
		{"user flagged", ownerPhone, viewrouter.Flagged, domain.ErrForbidden},
		{"superadmin admin", "0" + superadminPhone, viewrouter.Admin, nil},
		{"superadmin flagged", "0" + superadminPhone, viewrouter.Flagged, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			sid := h.visitor(t)
			if tt.phone != "" {
				sid = h.login(t, tt.phone)
			}
			nav, err := h.navigation.Navigate(ctx, sid, tt.view)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.view, nav.View)
		})
	}
}

func TestNavigateDocumentGroupBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, ownerPhone)

	for _, v := range []viewrouter.View{
		viewrouter.Invoice, viewrouter.QuoteGenerator, viewrouter.ReceiptGenerator,
		viewrouter.MyDocuments, viewrouter.Assets,
	} {
		_, err := h.navigation.Navigate(ctx, sid, v)
		require.NoError(t, err)
		nav, err := h.navigation.Back(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, viewrouter.InvoiceHub, nav.View, v)
	}
}

func TestAdminPageResetsOnExit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0"+superadminPhone)

	nav, err := h.navigation.OpenAdmin(ctx, sid, viewrouter.AdminBroadcast)
	require.NoError(t, err)
	assert.Equal(t, viewrouter.Admin, nav.View)
	assert.Equal(t, viewrouter.AdminBroadcast, nav.AdminPage)

	nav, err = h.navigation.Back(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, viewrouter.Main, nav.View)
	assert.Equal(t, viewrouter.AdminDashboard, nav.AdminPage)

	_, err = h.navigation.Navigate(ctx, sid, viewrouter.Profile)
	var verr domain.ValidationErrors
	assert.ErrorAs(t, err, &verr)
}

func TestContactLimitSurvivesRelogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.login(t, "0722000111")

	for id := int64(1); id <= contactgate.MaxUnrated; id++ {
		_, err := h.contacts.Initiate(ctx, sid, id, domain.CTACall)
		require.NoError(t, err, "provider %d", id)
	}
	_, err := h.contacts.Initiate(ctx, sid, 6, domain.CTACall)
	require.ErrorIs(t, err, domain.ErrRateLimitReached)

	_, err = h.auth.Logout(ctx, sid)
	require.NoError(t, err)
	_, err = h.auth.SubmitPhone(ctx, sid, "0722000111")
	require.NoError(t, err)
	_, err = h.auth.SendOtp(ctx, sid)
	require.NoError(t, err)
	_, err = h.auth.VerifyOtp(ctx, sid, otpCode)
	require.NoError(t, err)

	_, err = h.contacts.Initiate(ctx, sid, 6, domain.CTACall)
	assert.ErrorIs(t, err, domain.ErrRateLimitReached)
	st, err := h.contacts.State(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, contactgate.MaxUnrated, st.Count())
}
