package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/noid254/nikosoko/internal/authgate"
	"github.com/noid254/nikosoko/internal/http/handlers"
	"github.com/noid254/nikosoko/internal/payments"
	"github.com/noid254/nikosoko/internal/repo/memory"
	"github.com/noid254/nikosoko/internal/seed"
	"github.com/noid254/nikosoko/internal/service"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/auth"
	"github.com/noid254/nikosoko/pkg/cache"
	"github.com/noid254/nikosoko/pkg/config"
	"github.com/noid254/nikosoko/pkg/metrics"
)

const (
	secret          = "handler-test-secret"
	otpCode         = "1234"
	superadminPhone = "723119356"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---------- Mocks ----------

type nopSMS struct{}

func (nopSMS) SendOtp(context.Context, string, string) error      { return nil }
func (nopSMS) SendText(context.Context, []string, string) error { return nil }

// ---------- Test Setup ----------

type testServer struct {
	*httptest.Server
	sessions *session.MemoryStore
}

func setupTestServer(t *testing.T, otpLimit int) *testServer {
	t.Helper()
	ctx := context.Background()

	data, err := seed.Load("")
	require.NoError(t, err)
	store, err := memory.NewStore(ctx, data)
	require.NoError(t, err)

	sessions := session.NewMemoryStore(time.Hour)
	m := metrics.New()
	gate := authgate.New(authgate.Config{
		Mode:            config.OtpModeFixed,
		FixedCode:       otpCode,
		SuperadminPhone: superadminPhone,
		HashCost:        bcrypt.MinCost,
	}, nopSMS{})
	authCfg := config.AuthConfig{JWTSecret: secret, SessionTTL: time.Hour, SuperadminPhone: superadminPhone}

	svc := handlers.Services{
		Auth:       service.NewAuthService(sessions, store.Providers, gate, data.UserTickets, nil, m, authCfg),
		Directory:  service.NewDirectoryService(sessions, store.Providers, store.Categories, store.Banners, store.Catalogue, nil, m),
		Contacts:   service.NewContactService(sessions, store.Providers, nil, m),
		Navigation: service.NewNavigationService(sessions),
		Admin:      service.NewAdminService(sessions, store.Providers, store.Catalogue, store.Categories, nil, m),
		Banners:    service.NewBannerService(sessions, store.Banners, store.Providers),
		Gatepass:   service.NewGatepassService(sessions, store.Invitations, nil, m),
		Events:     service.NewEventService(sessions, store.Events, payments.NewMockGateway(), nopSMS{}, "kes", nil, m),
		Catalogue:  service.NewCatalogueService(sessions, store.Providers, store.Catalogue),
		Documents:  service.NewDocumentService(sessions, store.Documents),
		Inbox:      service.NewInboxService(sessions, store.Inbox),
	}
	h := handlers.New(svc, handlers.Options{
		JWTSecret:   secret,
		Idempotency: cache.NewMemoryIdempotencyStore(),
		Limiter:     cache.NewMemoryCounter(),
		OtpLimit:    otpLimit,
	})

	r := chi.NewRouter()
	r.Mount("/v1", h.Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, sessions: sessions}
}

// ---------- Helpers ----------

func do(t *testing.T, method, url, token string, body any, headers map[string]string, want int) map[string]any {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, want, resp.StatusCode, "body: %s", raw)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	out["_raw"] = string(raw)
	out["_replayed"] = resp.Header.Get("Idempotent-Replayed")
	return out
}

func (s *testServer) start(t *testing.T) string {
	t.Helper()
	res := do(t, http.MethodPost, s.URL+"/v1/sessions", "", nil, nil, http.StatusCreated)
	token, _ := res["session_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *testServer) login(t *testing.T, phone string) string {
	t.Helper()
	token := s.start(t)
	do(t, http.MethodPost, s.URL+"/v1/session/phone", token, map[string]string{"phone": phone}, nil, http.StatusOK)
	do(t, http.MethodPost, s.URL+"/v1/session/otp", token, nil, nil, http.StatusAccepted)
	res := do(t, http.MethodPost, s.URL+"/v1/session/otp/verify", token, map[string]string{"code": otpCode}, nil, http.StatusOK)
	token, _ = res["session_token"].(string)
	require.NotEmpty(t, token)
	return token
}

// ---------- Tests ----------

func TestSessionLoginFlow(t *testing.T) {
	s := setupTestServer(t, 0)
	token := s.start(t)

	me := do(t, http.MethodGet, s.URL+"/v1/session", token, nil, nil, http.StatusOK)
	assert.Equal(t, "logged_out", me["status"])
	assert.Equal(t, auth.RoleVisitor, me["role"])

	res := do(t, http.MethodPost, s.URL+"/v1/session/phone", token, map[string]string{"phone": "12"}, nil, http.StatusBadRequest)
	assert.Equal(t, "INVALID_PHONE", res["code"])

	do(t, http.MethodPost, s.URL+"/v1/session/phone", token, map[string]string{"phone": "0711000001"}, nil, http.StatusOK)
	sent := do(t, http.MethodPost, s.URL+"/v1/session/otp", token, nil, nil, http.StatusAccepted)
	assert.Equal(t, "otp_pending", sent["status"])
	assert.NotContains(t, sent["_raw"], "otp_hash")

	res = do(t, http.MethodPost, s.URL+"/v1/session/otp/verify", token, map[string]string{"code": "9999"}, nil, http.StatusUnauthorized)
	assert.Equal(t, "INVALID_OTP", res["code"])

	login := do(t, http.MethodPost, s.URL+"/v1/session/otp/verify", token, map[string]string{"code": otpCode}, nil, http.StatusOK)
	sess := login["session"].(map[string]any)
	assert.Equal(t, "authenticated", sess["status"])
	assert.Equal(t, auth.RoleUser, sess["role"])
	identity := sess["identity"].(map[string]any)
	assert.EqualValues(t, 1, identity["provider_id"])
	assert.NotContains(t, login["_raw"], "otp_hash")

	newToken := login["session_token"].(string)
	claims, err := auth.Parse(newToken, secret)
	require.NoError(t, err)
	assert.EqualValues(t, 1, claims.Sub)

	out := do(t, http.MethodPost, s.URL+"/v1/session/logout", newToken, nil, nil, http.StatusOK)
	assert.Equal(t, auth.RoleVisitor, out["session"].(map[string]any)["role"])
}

func TestRequireSession(t *testing.T) {
	s := setupTestServer(t, 0)

	res := do(t, http.MethodGet, s.URL+"/v1/session", "", nil, nil, http.StatusUnauthorized)
	assert.Equal(t, "UNAUTHORIZED", res["code"])

	res = do(t, http.MethodGet, s.URL+"/v1/session", "not-a-jwt", nil, nil, http.StatusUnauthorized)
	assert.Equal(t, "INVALID_TOKEN", res["code"])

	forged, err := auth.NewSessionToken("sid-1", 0, "", auth.RoleVisitor, "other-secret", time.Hour)
	require.NoError(t, err)
	do(t, http.MethodGet, s.URL+"/v1/session", forged, nil, nil, http.StatusUnauthorized)

	orphan, err := auth.NewSessionToken("sid-gone", 0, "", auth.RoleVisitor, secret, time.Hour)
	require.NoError(t, err)
	res = do(t, http.MethodGet, s.URL+"/v1/session", orphan, nil, nil, http.StatusUnauthorized)
	assert.Equal(t, "SESSION_EXPIRED", res["code"])

	token := s.start(t)
	res = do(t, http.MethodGet, s.URL+"/v1/session?session_token="+token, "", nil, nil, http.StatusOK)
	assert.Equal(t, "logged_out", res["status"])
}

func TestSearchIsPublic(t *testing.T) {
	s := setupTestServer(t, 0)

	res := do(t, http.MethodGet, s.URL+"/v1/providers?filter=category&value=Home", "", nil, nil, http.StatusOK)
	providers := res["providers"].([]any)
	require.NotEmpty(t, providers)
	for _, p := range providers {
		assert.Equal(t, "Home", p.(map[string]any)["category"])
	}

	res = do(t, http.MethodGet, s.URL+"/v1/providers?preview=true", "", nil, nil, http.StatusOK)
	assert.Len(t, res["providers"], 6)
	assert.EqualValues(t, 10, res["total"])

	do(t, http.MethodGet, s.URL+"/v1/providers?filter=colour&value=red", "", nil, nil, http.StatusBadRequest)
	do(t, http.MethodGet, s.URL+"/v1/categories", "", nil, nil, http.StatusOK)
}

func TestContactRequiresLogin(t *testing.T) {
	s := setupTestServer(t, 0)
	token := s.start(t)

	res := do(t, http.MethodPost, s.URL+"/v1/providers/1/contact", token, map[string]string{"channel": "call"}, nil, http.StatusUnauthorized)
	assert.Equal(t, "AUTH_REQUIRED", res["code"])
}

func TestContactLimitReturnsPendingProvider(t *testing.T) {
	s := setupTestServer(t, 0)
	token := s.login(t, "0722000111")

	for id := 1; id <= 5; id++ {
		do(t, http.MethodPost, fmt.Sprintf("%s/v1/providers/%d/contact", s.URL, id), token,
			map[string]string{"channel": "whatsapp"}, nil, http.StatusOK)
	}

	res := do(t, http.MethodPost, s.URL+"/v1/providers/6/contact", token, map[string]string{"channel": "whatsapp"}, nil, http.StatusTooManyRequests)
	assert.Equal(t, "CONTACT_LIMIT_REACHED", res["code"])
	pending := res["details"].(map[string]any)["pending"].(map[string]any)
	assert.EqualValues(t, 1, pending["provider_id"])

	res = do(t, http.MethodPost, s.URL+"/v1/contacts/defer", token, nil, nil, http.StatusConflict)
	assert.Equal(t, "RATING_REQUIRED", res["code"])

	res = do(t, http.MethodPost, s.URL+"/v1/providers/1/rating", token, map[string]int{"rating": 9}, nil, http.StatusBadRequest)
	assert.Equal(t, "INVALID_RATING", res["code"])

	st := do(t, http.MethodPost, s.URL+"/v1/providers/1/rating", token, map[string]int{"rating": 4}, nil, http.StatusOK)
	assert.Equal(t, false, st["limit_reached"])

	do(t, http.MethodPost, s.URL+"/v1/providers/6/contact", token, map[string]string{"channel": "whatsapp"}, nil, http.StatusOK)
	do(t, http.MethodPost, s.URL+"/v1/providers/6/contact", token, map[string]string{"channel": "pigeon"}, nil, http.StatusBadRequest)
}

func TestCreateProfileValidationEnvelope(t *testing.T) {
	s := setupTestServer(t, 0)
	token := s.login(t, "0722000111")

	res := do(t, http.MethodPost, s.URL+"/v1/me/profile", token, map[string]any{"name": "Njeri"}, nil, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_FAILED", res["code"])
	assert.NotEmpty(t, res["details"])

	created := do(t, http.MethodPost, s.URL+"/v1/me/profile", token, map[string]any{
		"name":     "Njeri Plumbing",
		"service":  "Plumber",
		"charge":   "Ksh 800",
		"location": "Westlands, Nairobi",
		"about":    "Leaks and installs.",
		"category": "Home",
		"cta":      []string{"call"},
	}, nil, http.StatusCreated)
	assert.Equal(t, "Njeri Plumbing", created["name"])

	do(t, http.MethodGet, s.URL+"/v1/me/profile", token, nil, nil, http.StatusOK)
}

func TestNavigationGating(t *testing.T) {
	s := setupTestServer(t, 0)
	visitor := s.start(t)

	res := do(t, http.MethodPost, s.URL+"/v1/navigation", visitor, map[string]string{"view": "events"}, nil, http.StatusUnauthorized)
	assert.Equal(t, "AUTH_REQUIRED", res["code"])
	do(t, http.MethodPost, s.URL+"/v1/navigation", visitor, map[string]string{"view": "nowhere"}, nil, http.StatusBadRequest)

	user := s.login(t, "0711000001")
	nav := do(t, http.MethodPost, s.URL+"/v1/navigation", user, map[string]string{"view": "invoice"}, nil, http.StatusOK)
	assert.Equal(t, "invoice", nav["view"])
	nav = do(t, http.MethodPost, s.URL+"/v1/navigation/back", user, nil, nil, http.StatusOK)
	assert.Equal(t, "invoiceHub", nav["view"])

	do(t, http.MethodPost, s.URL+"/v1/navigation/admin", user, nil, nil, http.StatusForbidden)
}

func TestAdminRoutes(t *testing.T) {
	s := setupTestServer(t, 0)
	user := s.login(t, "0711000001")
	admin := s.login(t, "0"+superadminPhone)

	res := do(t, http.MethodGet, s.URL+"/v1/admin/dashboard", user, nil, nil, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", res["code"])

	dash := do(t, http.MethodGet, s.URL+"/v1/admin/dashboard", admin, nil, nil, http.StatusOK)
	assert.EqualValues(t, 10, dash["stats"].(map[string]any)["total_providers"])

	do(t, http.MethodGet, s.URL+"/v1/admin/users?status=Maybe", admin, nil, nil, http.StatusBadRequest)
	do(t, http.MethodPost, s.URL+"/v1/admin/providers/2/verification", admin, map[string]any{"verified": false}, nil, http.StatusBadRequest)

	nav := do(t, http.MethodPost, s.URL+"/v1/navigation/admin", admin, map[string]string{"page": "Broadcast"}, nil, http.StatusOK)
	assert.Equal(t, "Broadcast", nav["admin_page"])

	req, err := http.NewRequest(http.MethodDelete, s.URL+"/v1/admin/providers/3", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	do(t, http.MethodGet, s.URL+"/v1/providers/3/catalogue", "", nil, nil, http.StatusNotFound)
}

func TestTicketPurchaseIsIdempotent(t *testing.T) {
	s := setupTestServer(t, 0)
	token := s.login(t, "0711000001")
	headers := map[string]string{"Idempotency-Key": "ticket-key-1"}

	first := do(t, http.MethodPost, s.URL+"/v1/events/3/tickets", token, nil, headers, http.StatusCreated)
	second := do(t, http.MethodPost, s.URL+"/v1/events/3/tickets", token, nil, headers, http.StatusCreated)
	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, "true", second["_replayed"])

	other := do(t, http.MethodPost, s.URL+"/v1/events/3/tickets", token, nil, map[string]string{"Idempotency-Key": "ticket-key-2"}, http.StatusCreated)
	assert.NotEqual(t, first["id"], other["id"])

	do(t, http.MethodPost, s.URL+"/v1/events/999/tickets", token, nil, nil, http.StatusNotFound)
}

func TestOtpSendIsRateLimited(t *testing.T) {
	s := setupTestServer(t, 1)
	token := s.start(t)

	do(t, http.MethodPost, s.URL+"/v1/session/phone", token, map[string]string{"phone": "0722000111"}, nil, http.StatusOK)
	do(t, http.MethodPost, s.URL+"/v1/session/otp", token, nil, nil, http.StatusAccepted)
	res := do(t, http.MethodPost, s.URL+"/v1/session/otp", token, nil, nil, http.StatusTooManyRequests)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", res["code"])
}

func TestGatepassCheckIn(t *testing.T) {
	s := setupTestServer(t, 0)
	token := s.login(t, "0711000001")

	inv := do(t, http.MethodPost, s.URL+"/v1/gatepass", token, map[string]string{"visitor_phone": "0722333444"}, nil, http.StatusCreated)
	code, _ := inv["access_code"].(string)
	require.Len(t, code, 6)

	anon := s.start(t)
	res := do(t, http.MethodPost, s.URL+"/v1/gatepass/checkin", anon, map[string]string{"access_code": code}, nil, http.StatusUnauthorized)
	assert.Equal(t, "AUTH_REQUIRED", res["code"])
	stranger := s.login(t, "0722000999")
	do(t, http.MethodPost, s.URL+"/v1/gatepass/checkin", stranger, map[string]string{"access_code": code}, nil, http.StatusForbidden)

	used := do(t, http.MethodPost, s.URL+"/v1/gatepass/checkin", token, map[string]string{"access_code": code}, nil, http.StatusOK)
	assert.Equal(t, "Used", used["status"])

	do(t, http.MethodPost, s.URL+"/v1/gatepass/checkin", token, map[string]string{"access_code": code}, nil, http.StatusNotFound)
}
