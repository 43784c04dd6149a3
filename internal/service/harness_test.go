package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/noid254/nikosoko/internal/authgate"
	"github.com/noid254/nikosoko/internal/payments"
	"github.com/noid254/nikosoko/internal/repo/memory"
	"github.com/noid254/nikosoko/internal/seed"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/config"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/metrics"
)

const (
	superadminPhone = "723119356"
	otpCode         = "1234"
	// seeded provider 1, Otieno Sparks
	ownerPhone = "0711000001"

	waitFor = time.Second
	tick    = 10 * time.Millisecond
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type textMessage struct {
	phones []string
	text   string
}

type recordingSMS struct {
	mu    sync.Mutex
	otps  map[string]string
	texts []textMessage
	err   error
}

func (r *recordingSMS) SendOtp(_ context.Context, phone, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.otps == nil {
		r.otps = map[string]string{}
	}
	r.otps[phone] = code
	return r.err
}

func (r *recordingSMS) SendText(_ context.Context, phones []string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.texts = append(r.texts, textMessage{phones: append([]string(nil), phones...), text: text})
	return nil
}

type harness struct {
	store    *memory.Store
	data     *seed.Data
	sessions *session.MemoryStore
	bus      *events.MemoryEventBus
	sms      *recordingSMS
	gateway  *payments.MockGateway
	metrics  *metrics.Metrics

	auth       AuthService
	directory  DirectoryService
	contacts   ContactService
	navigation NavigationService
	admin      AdminService
	banners    BannerService
	gatepass   GatepassService
	events     EventService
	catalogue  CatalogueService
	documents  DocumentService
	inbox      InboxService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	data, err := seed.Load("")
	require.NoError(t, err)
	store, err := memory.NewStore(ctx, data)
	require.NoError(t, err)

	h := &harness{
		store:    store,
		data:     data,
		sessions: session.NewMemoryStore(time.Hour),
		bus:      events.NewMemoryEventBus(64),
		sms:      &recordingSMS{},
		gateway:  payments.NewMockGateway(),
		metrics:  metrics.New(),
	}
	t.Cleanup(func() { _ = h.bus.Close() })

	gate := authgate.New(authgate.Config{
		Mode:            config.OtpModeFixed,
		FixedCode:       otpCode,
		SuperadminPhone: superadminPhone,
		HashCost:        bcrypt.MinCost,
	}, h.sms)
	authCfg := config.AuthConfig{
		JWTSecret:       "test-secret",
		SessionTTL:      time.Hour,
		SuperadminPhone: superadminPhone,
	}

	h.auth = NewAuthService(h.sessions, store.Providers, gate, data.UserTickets, h.bus, h.metrics, authCfg)
	h.directory = NewDirectoryService(h.sessions, store.Providers, store.Categories, store.Banners, store.Catalogue, h.bus, h.metrics)
	h.contacts = NewContactService(h.sessions, store.Providers, h.bus, h.metrics)
	h.navigation = NewNavigationService(h.sessions)
	h.admin = NewAdminService(h.sessions, store.Providers, store.Catalogue, store.Categories, h.bus, h.metrics)
	h.banners = NewBannerService(h.sessions, store.Banners, store.Providers)
	h.gatepass = NewGatepassService(h.sessions, store.Invitations, h.bus, h.metrics)
	h.events = NewEventService(h.sessions, store.Events, h.gateway, h.sms, "kes", h.bus, h.metrics)
	h.catalogue = NewCatalogueService(h.sessions, store.Providers, store.Catalogue)
	h.documents = NewDocumentService(h.sessions, store.Documents)
	h.inbox = NewInboxService(h.sessions, store.Inbox)
	return h
}

// visitor starts an anonymous session.
func (h *harness) visitor(t *testing.T) string {
	t.Helper()
	l, err := h.auth.Start(context.Background())
	require.NoError(t, err)
	return l.Session.ID
}

// login runs the full phone and otp flow and returns the session id.
func (h *harness) login(t *testing.T, phone string) string {
	t.Helper()
	ctx := context.Background()
	sid := h.visitor(t)
	_, err := h.auth.SubmitPhone(ctx, sid, phone)
	require.NoError(t, err)
	_, err = h.auth.SendOtp(ctx, sid)
	require.NoError(t, err)
	_, err = h.auth.VerifyOtp(ctx, sid, otpCode)
	require.NoError(t, err)
	return sid
}

// subscribe records every payload published on subject.
func (h *harness) subscribe(t *testing.T, subject string) func() int {
	t.Helper()
	var mu sync.Mutex
	n := 0
	require.NoError(t, h.bus.Subscribe(subject, func(*events.Message) {
		mu.Lock()
		n++
		mu.Unlock()
	}))
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return n
	}
}
